package domain

import (
	"context"
	"time"
)

// AnonymousDisplayName is the identity fallback when neither a display name
// nor an email is available.
const AnonymousDisplayName = "Anonymous"

// LeaderboardEntry is one ranked row of the global board. Entries are derived
// per request from XP, identity, streak and solved-count lookups; nothing here
// is persisted.
type LeaderboardEntry struct {
	Rank           int
	UserID         string
	DisplayName    string
	TotalXP        int
	Level          int
	RankTitle      string
	ProblemsSolved int
	CurrentStreak  int
	LastActive     time.Time
}

// Identity is the display subset of an externally-owned user row.
type Identity struct {
	UserID      string
	DisplayName string
	Email       string
}

// IdentityRepository reads display identity for leaderboard enrichment.
type IdentityRepository interface {
	// BatchGetIdentity returns identities keyed by user ID; missing users are
	// absent from the map and degrade to the anonymous fallback.
	BatchGetIdentity(ctx context.Context, userIDs []string) (map[string]Identity, error)
}
