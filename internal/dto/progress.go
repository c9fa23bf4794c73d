package dto

import "time"

// CompleteProblemRequest is the body recording a finished (or abandoned)
// problem attempt.
// @Description Request body for recording a problem completion
type CompleteProblemRequest struct {
	Subject          string `json:"subject" validate:"required"`
	Difficulty       string `json:"difficulty" validate:"required"`
	Attempts         int    `json:"attempts"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
	HintsUsed        int    `json:"hints_used"`
	Completed        bool   `json:"completed"`
}

// XPGainItem is one recent XP history entry.
type XPGainItem struct {
	XP        int       `json:"xp"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressResponse is the combined XP + streak view for a profile key.
// @Description Current XP, level and streak state
type ProgressResponse struct {
	TotalXP       int          `json:"total_xp"`
	Level         int          `json:"level"`
	XPToNextLevel int          `json:"xp_to_next_level"`
	RankTitle     string       `json:"rank_title"`
	CurrentStreak int          `json:"current_streak"`
	LongestStreak int          `json:"longest_streak"`
	LastStudyDate *time.Time   `json:"last_study_date,omitempty"`
	RecentGains   []XPGainItem `json:"recent_gains"`
}

// SubOperationResult reports one best-effort side effect of a completion.
type SubOperationResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// CompleteProblemResponse reports the fan-out outcome of a completion. The
// primary action succeeds even when a side-effect write failed; callers can
// report partial success accurately.
// @Description Per-sub-operation outcome of a problem completion
type CompleteProblemResponse struct {
	XPAwarded     int                `json:"xp_awarded"`
	TotalXP       int                `json:"total_xp"`
	Level         int                `json:"level"`
	XPToNextLevel int                `json:"xp_to_next_level"`
	CurrentStreak int                `json:"current_streak"`
	LongestStreak int                `json:"longest_streak"`
	AttemptSaved  SubOperationResult `json:"attempt_saved"`
	XPUpdated     SubOperationResult `json:"xp_updated"`
	StreakUpdated SubOperationResult `json:"streak_updated"`
}

// LoginBonusResponse reports the XP granted for a login.
// @Description Login bonus award outcome
type LoginBonusResponse struct {
	XPAwarded  int  `json:"xp_awarded"`
	FirstLogin bool `json:"first_login"`
	TotalXP    int  `json:"total_xp"`
	Level      int  `json:"level"`
}
