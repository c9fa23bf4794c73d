package dto

import "time"

// LeaderboardEntryItem is one ranked row of the global leaderboard.
type LeaderboardEntryItem struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"user_id"`
	DisplayName    string    `json:"display_name"`
	TotalXP        int       `json:"total_xp"`
	Level          int       `json:"level"`
	RankTitle      string    `json:"rank_title"`
	ProblemsSolved int       `json:"problems_solved"`
	CurrentStreak  int       `json:"current_streak"`
	LastActive     time.Time `json:"last_active"`
}

// LeaderboardResponse is the ranked Top-N view.
// @Description Ranked leaderboard of top-level accounts
type LeaderboardResponse struct {
	Entries []LeaderboardEntryItem `json:"entries"`
}

// RankResponse is a single user's leaderboard rank. Rank is null for users
// with no XP.
// @Description Caller's global rank
type RankResponse struct {
	Rank    *int `json:"rank"`
	TotalXP int  `json:"total_xp"`
}
