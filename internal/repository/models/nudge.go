package models

import (
	"database/sql"
	"time"
)

// Nudge represents a persisted re-engagement nudge row.
type Nudge struct {
	ID          string         `db:"ID"`           // ULID
	UserID      string         `db:"USER_ID"`      // Account ULID
	ProfileID   sql.NullString `db:"PROFILE_ID"`   // Sub-profile ULID; NULL for the account itself
	Type        string         `db:"TYPE"`         // Rule that produced the nudge
	Title       string         `db:"TITLE"`        // Display title
	Message     string         `db:"MESSAGE"`      // Display body
	Priority    string         `db:"PRIORITY"`     // high / medium / low
	ActionLabel sql.NullString `db:"ACTION_LABEL"` // Optional suggested-action label
	ActionKind  sql.NullString `db:"ACTION_KIND"`  // Optional suggested-action kind
	ActionData  sql.NullString `db:"ACTION_DATA"`  // Optional suggested-action payload
	Dismissed   bool           `db:"DISMISSED"`    // One-way dismissal flag
	CreatedAt   time.Time      `db:"CREATED_AT"`   // Timestamp of creation
	ExpiresAt   sql.NullTime   `db:"EXPIRES_AT"`   // Passive expiry; NULL means never
}
