package models

import (
	"database/sql"
	"time"
)

// ProblemAttempt represents one problem-attempt history row.
type ProblemAttempt struct {
	ID               string         `db:"ID"`                 // ULID
	UserID           string         `db:"USER_ID"`            // Account ULID
	ProfileID        sql.NullString `db:"PROFILE_ID"`         // Sub-profile ULID; NULL for the account itself
	Subject          string         `db:"SUBJECT"`            // Catalog subject
	Difficulty       string         `db:"DIFFICULTY"`         // Difficulty band
	Attempts         int            `db:"ATTEMPTS"`           // Tries before finishing or giving up
	TimeSpentSeconds int            `db:"TIME_SPENT_SECONDS"` // Wall-clock seconds spent
	HintsUsed        int            `db:"HINTS_USED"`         // Hints requested
	Completed        bool           `db:"COMPLETED"`          // Whether the problem was solved
	AttemptedAt      time.Time      `db:"ATTEMPTED_AT"`       // Timestamp of the attempt
}
