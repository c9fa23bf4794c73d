package domain

import (
	"context"
	"sort"
	"time"

	"math-tutor/internal/util"
)

// ProfileKey addresses an XP or streak record. An empty ProfileID means the
// record belongs to the authenticated account itself; a non-empty ProfileID
// addresses a managed sub-profile. The two namespaces never merge.
type ProfileKey struct {
	UserID    string
	ProfileID string
}

// NewProfileKey creates a new ProfileKey instance
func NewProfileKey(userID, profileID string) ProfileKey {
	return ProfileKey{UserID: userID, ProfileID: profileID}
}

// IsAccountLevel reports whether the key addresses the top-level account.
func (k ProfileKey) IsAccountLevel() bool {
	return k.ProfileID == ""
}

// XPEvent is a single append-only entry in a user's XP history.
type XPEvent struct {
	ID        string
	Amount    int
	Reason    string
	AwardedAt time.Time
}

// XPRecord represents a user's cumulative experience points. Level and
// XPToNextLevel are always derived from TotalXP via LevelForXP; they are
// never stored independently, so they cannot drift.
type XPRecord struct {
	Key       ProfileKey
	TotalXP   int
	History   []XPEvent
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewXPRecord creates a zero-XP record for a key that has no row yet.
// "No record" is a first-class state, not an error.
func NewXPRecord(key ProfileKey) *XPRecord {
	return &XPRecord{Key: key}
}

// Level returns the level derived from the current total.
func (r *XPRecord) Level() int {
	level, _ := LevelForXP(r.TotalXP)
	return level
}

// XPToNextLevel returns the XP still needed to reach the next level.
func (r *XPRecord) XPToNextLevel() int {
	_, toNext := LevelForXP(r.TotalXP)
	return toNext
}

// Apply returns a copy of the record with the award applied. The receiver is
// not mutated; the caller persists the result.
func (r *XPRecord) Apply(amount int, reason string, eventID string, now time.Time) *XPRecord {
	next := *r
	next.History = append(append([]XPEvent(nil), r.History...), XPEvent{
		ID:        eventID,
		Amount:    amount,
		Reason:    reason,
		AwardedAt: now,
	})
	next.TotalXP = r.TotalXP + amount
	next.UpdatedAt = now
	return &next
}

// RecentGains projects the history to the most recent entries, newest first.
func (r *XPRecord) RecentGains(limit int) []XPEvent {
	if limit <= 0 {
		limit = 10
	}
	gains := append([]XPEvent(nil), r.History...)
	sort.SliceStable(gains, func(i, j int) bool {
		return gains[i].AwardedAt.After(gains[j].AwardedAt)
	})
	if len(gains) > limit {
		gains = gains[:limit]
	}
	return gains
}

// StreakRecord represents consecutive calendar days with at least one
// completed activity. LongestStreak is a running maximum of CurrentStreak.
type StreakRecord struct {
	Key           ProfileKey
	CurrentStreak int
	LongestStreak int
	LastStudyDate *time.Time
	Version       int64
	UpdatedAt     time.Time
}

// NewStreakRecord creates a zero-value streak for a key that has no row yet.
func NewStreakRecord(key ProfileKey) *StreakRecord {
	return &StreakRecord{Key: key}
}

// Advance returns a copy of the record transitioned by a "studied" event on
// the given day. Day comparison is calendar-date granular, so repeated studies
// on the same day are idempotent and time-of-day never breaks a streak.
func (s *StreakRecord) Advance(today time.Time) *StreakRecord {
	next := *s
	day := util.Midnight(today)
	next.UpdatedAt = today

	if s.LastStudyDate == nil {
		next.CurrentStreak = 1
		next.LongestStreak = 1
		next.LastStudyDate = &day
		return &next
	}

	switch gap := util.DaysBetween(*s.LastStudyDate, today); {
	case gap == 0:
		// Same-day repeat; nothing to do.
		return &next
	case gap == 1:
		next.CurrentStreak = s.CurrentStreak + 1
		if next.CurrentStreak > next.LongestStreak {
			next.LongestStreak = next.CurrentStreak
		}
	default:
		next.CurrentStreak = 1
	}
	next.LastStudyDate = &day
	return &next
}

// XPRepository defines persistence for XP records and their append-only history.
type XPRepository interface {
	// GetXP returns (nil, nil) when no record exists for the key.
	GetXP(ctx context.Context, key ProfileKey) (*XPRecord, error)
	// CreateXP inserts a brand-new record at version 1.
	CreateXP(ctx context.Context, record *XPRecord) error
	// UpdateXP writes the record guarded by its prior version and bumps it.
	// Returns a CONFLICT domain error when the version check fails.
	UpdateXP(ctx context.Context, record *XPRecord, priorVersion int64) error
	// AppendXPEvent inserts one history row.
	AppendXPEvent(ctx context.Context, key ProfileKey, event XPEvent) error
	// GetRecentXPEvents returns up to limit history rows, newest first.
	GetRecentXPEvents(ctx context.Context, key ProfileKey, limit int) ([]XPEvent, error)
	// QueryTopXP returns account-level rows ordered by total XP descending,
	// ties broken by user ID ascending.
	QueryTopXP(ctx context.Context, limit int) ([]XPRecord, error)
	// CountXPGreaterThan counts account-level rows with strictly more XP.
	CountXPGreaterThan(ctx context.Context, totalXP int) (int, error)
}

// StreakRepository defines persistence for streak records.
type StreakRepository interface {
	// GetStreak returns (nil, nil) when no record exists for the key.
	GetStreak(ctx context.Context, key ProfileKey) (*StreakRecord, error)
	CreateStreak(ctx context.Context, record *StreakRecord) error
	// UpdateStreak writes the record guarded by its prior version.
	UpdateStreak(ctx context.Context, record *StreakRecord, priorVersion int64) error
	// BatchGetStreaks returns account-level streaks keyed by user ID; missing
	// users are simply absent from the map.
	BatchGetStreaks(ctx context.Context, userIDs []string) (map[string]StreakRecord, error)
}

// TransactionManager runs a function within a single store transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
