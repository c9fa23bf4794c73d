package models

import (
	"database/sql"
)

// User is the identity subset of the externally-owned users table read for
// leaderboard enrichment.
type User struct {
	ID    string         `db:"ID"`    // ULID
	Email string         `db:"EMAIL"` // User's email address
	Name  sql.NullString `db:"NAME"`  // User's display name
}
