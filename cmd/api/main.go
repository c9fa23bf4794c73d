// @title Math Tutor Progress API
// @version 1.0
// @description Gamification and progress engine for the math tutor application.
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"math-tutor/internal/adapter"
	"math-tutor/internal/cache"
	"math-tutor/internal/config"
	"math-tutor/internal/database"
	"math-tutor/internal/domain"
	"math-tutor/internal/handler"
	"math-tutor/internal/logger"
	"math-tutor/internal/middleware"
	"math-tutor/internal/repository"
	"math-tutor/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize repositories
	xpRepository := repository.NewSQLXXPRepository(db)
	streakRepository := repository.NewSQLXStreakRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	identityRepository := repository.NewSQLXIdentityRepository(db)
	nudgeRepository := repository.NewSQLXNudgeRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Initialize Redis; the leaderboard degrades to uncached reads without it.
	var cacheAdapter domain.Cache
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Warn("Failed to connect to Redis, leaderboard caching disabled", zap.Error(err))
	} else {
		appLogger.Info("Successfully connected to Redis")
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
	}

	// Initialize services
	authService, err := service.NewAuthService(cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	progressService := service.NewProgressService(xpRepository, streakRepository, attemptRepository, txManager)
	performanceService := service.NewPerformanceService(attemptRepository)
	practiceService := service.NewPracticeService(attemptRepository)
	leaderboardService := service.NewLeaderboardService(xpRepository, streakRepository, attemptRepository, identityRepository, cacheAdapter, cfg)
	nudgeService := service.NewNudgeService(xpRepository, streakRepository, attemptRepository, nudgeRepository, cfg)

	// Initialize handlers
	progressHandler := handler.NewProgressHandler(progressService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	practiceHandler := handler.NewPracticeHandler(practiceService, performanceService)
	nudgeHandler := handler.NewNudgeHandler(nudgeService)

	validationMiddleware := middleware.NewValidationMiddleware()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  20 * time.Second,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	// API group
	apiGroup := app.Group("/api")

	// Progress routes (all protected)
	progressGroup := apiGroup.Group("/progress", middleware.Protected(authService), validationMiddleware.ValidateProfileID())
	progressGroup.Get("/", progressHandler.GetProgress)
	progressGroup.Post("/complete", progressHandler.CompleteProblem)
	progressGroup.Post("/login", progressHandler.LoginBonus)

	// Leaderboard routes; the board itself is public
	apiGroup.Get("/leaderboard", middleware.OptionalAuth(authService), leaderboardHandler.GetLeaderboard)
	apiGroup.Get("/leaderboard/rank", middleware.Protected(authService), leaderboardHandler.GetRank)

	// Practice routes
	practiceGroup := apiGroup.Group("/practice", middleware.Protected(authService), validationMiddleware.ValidateProfileID())
	practiceGroup.Get("/session", validationMiddleware.ValidateSessionParams(), practiceHandler.GetSession)
	practiceGroup.Get("/analysis", practiceHandler.GetAnalysis)

	// Nudge routes
	nudgeGroup := apiGroup.Group("/nudges", middleware.Protected(authService), validationMiddleware.ValidateProfileID())
	nudgeGroup.Get("/", nudgeHandler.GetNudges)
	nudgeGroup.Post("/:id/dismiss", validationMiddleware.ValidateNudgeID(), nudgeHandler.DismissNudge)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
