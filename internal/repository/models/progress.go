package models

import (
	"database/sql"
	"time"
)

// UserXP represents a user's cumulative XP row. Level is never stored; it is
// derived from TOTAL_XP at read time.
type UserXP struct {
	UserID    string         `db:"USER_ID"`    // Account ULID
	ProfileID sql.NullString `db:"PROFILE_ID"` // Sub-profile ULID; NULL for the account itself
	TotalXP   int            `db:"TOTAL_XP"`   // Cumulative experience points
	Version   int64          `db:"VERSION"`    // Optimistic-concurrency counter
	CreatedAt time.Time      `db:"CREATED_AT"` // Timestamp of row creation
	UpdatedAt time.Time      `db:"UPDATED_AT"` // Timestamp of last award
}

// XPEvent represents one append-only XP history row.
type XPEvent struct {
	ID        string         `db:"ID"`         // ULID
	UserID    string         `db:"USER_ID"`    // Account ULID
	ProfileID sql.NullString `db:"PROFILE_ID"` // Sub-profile ULID; NULL for the account itself
	Amount    int            `db:"AMOUNT"`     // XP awarded by this event
	Reason    sql.NullString `db:"REASON"`     // Human-readable award reason
	AwardedAt time.Time      `db:"AWARDED_AT"` // Timestamp of the award
}

// UserStreak represents a user's consecutive-day streak row.
type UserStreak struct {
	UserID        string         `db:"USER_ID"`         // Account ULID
	ProfileID     sql.NullString `db:"PROFILE_ID"`      // Sub-profile ULID; NULL for the account itself
	CurrentStreak int            `db:"CURRENT_STREAK"`  // Consecutive study days ending at LAST_STUDY_DATE
	LongestStreak int            `db:"LONGEST_STREAK"`  // Running maximum of CURRENT_STREAK
	LastStudyDate sql.NullTime   `db:"LAST_STUDY_DATE"` // Calendar date of the last study; NULL before first study
	Version       int64          `db:"VERSION"`         // Optimistic-concurrency counter
	UpdatedAt     time.Time      `db:"UPDATED_AT"`      // Timestamp of last transition
}
