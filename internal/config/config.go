package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Server       ServerConfig
	DB           DBConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	JWT          JWTConfig
	Gamification GamificationConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Service  string
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggerConfig struct {
	Level string
	Env   string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL time.Duration
}

// GamificationConfig holds the tunable knobs of the progress engine.
type GamificationConfig struct {
	DailyGoal           int
	LeaderboardLimit    int
	LeaderboardCacheTTL time.Duration
	NudgeExpiry         time.Duration
}

// LoadConfig reads config.yaml (plus env overrides) into a Config.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetDefault("server.port", 8090)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
	viper.SetDefault("jwt.access_token_ttl", 15*time.Minute)
	viper.SetDefault("gamification.daily_goal", 5)
	viper.SetDefault("gamification.leaderboard_limit", 10)
	viper.SetDefault("gamification.leaderboard_cache_ttl", time.Minute)
	viper.SetDefault("gamification.nudge_expiry", 24*time.Hour)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			Service:  viper.GetString("db.service"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		JWT: JWTConfig{
			SecretKey:      viper.GetString("jwt.secret_key"),
			AccessTokenTTL: viper.GetDuration("jwt.access_token_ttl"),
		},
		Gamification: GamificationConfig{
			DailyGoal:           viper.GetInt("gamification.daily_goal"),
			LeaderboardLimit:    viper.GetInt("gamification.leaderboard_limit"),
			LeaderboardCacheTTL: viper.GetDuration("gamification.leaderboard_cache_ttl"),
			NudgeExpiry:         viper.GetDuration("gamification.nudge_expiry"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if service := os.Getenv("DB_SERVICE"); service != "" {
		config.DB.Service = service
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		config.JWT.SecretKey = secret
	}

	return config, nil
}

// GetDSN builds the go-ora connection string for the Oracle store.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Service)
}
