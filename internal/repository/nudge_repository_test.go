package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"math-tutor/internal/domain"
	"math-tutor/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainNudge(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	expires := now.Add(24 * time.Hour)
	m := &models.Nudge{
		ID:          "nudge1",
		UserID:      "user1",
		Type:        "streak_at_risk",
		Title:       "Your streak is at risk!",
		Message:     "Solve one problem to keep it going.",
		Priority:    "high",
		ActionLabel: sql.NullString{String: "Practice now", Valid: true},
		ActionKind:  sql.NullString{String: "start_practice", Valid: true},
		CreatedAt:   now,
		ExpiresAt:   sql.NullTime{Time: expires, Valid: true},
	}

	nudge := toDomainNudge(m)
	require.NotNil(t, nudge)
	assert.Equal(t, domain.NudgeStreakAtRisk, nudge.Type)
	assert.Equal(t, domain.PriorityHigh, nudge.Priority)
	require.NotNil(t, nudge.Action)
	assert.Equal(t, "Practice now", nudge.Action.Label)
	require.NotNil(t, nudge.ExpiresAt)
	assert.True(t, expires.Equal(*nudge.ExpiresAt))

	// Rows without a suggested action stay action-free.
	m.ActionLabel = sql.NullString{}
	nudge = toDomainNudge(m)
	assert.Nil(t, nudge.Action)

	assert.Nil(t, toDomainNudge(nil))
}

func TestSQLXNudgeRepository_FindActiveNudge_NoMatch(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXNudgeRepository(db)
	defer db.Close()

	mock.ExpectQuery(`FROM nudges`).
		WillReturnError(sql.ErrNoRows)

	nudge, err := repo.FindActiveNudge(context.Background(), domain.NewProfileKey("user1", ""), domain.NudgeDailyGoal, time.Now())

	assert.NoError(t, err)
	assert.Nil(t, nudge)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXNudgeRepository_DismissNudge_Success(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXNudgeRepository(db)
	defer db.Close()

	mock.ExpectExec(`UPDATE nudges SET dismissed = 1 WHERE id = :1`).
		WithArgs("nudge1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.DismissNudge(context.Background(), "nudge1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXNudgeRepository_DismissNudge_UnknownID(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXNudgeRepository(db)
	defer db.Close()

	mock.ExpectExec(`UPDATE nudges SET dismissed = 1 WHERE id = :1`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DismissNudge(context.Background(), "ghost")

	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeNudgeNotFound, domainErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXNudgeRepository_ListActiveNudges(t *testing.T) {
	db, mock := setupTestDB(t)
	repo := NewSQLXNudgeRepository(db)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"ID", "USER_ID", "PROFILE_ID", "TYPE", "TITLE", "MESSAGE", "PRIORITY", "ACTION_LABEL", "ACTION_KIND", "ACTION_DATA", "DISMISSED", "CREATED_AT", "EXPIRES_AT"}).
		AddRow("nudge2", "user1", nil, "daily_goal", "Daily goal in sight", "2 to go", "low", nil, nil, nil, false, now, nil).
		AddRow("nudge1", "user1", nil, "new_user", "Great start!", "Keep at it", "low", nil, nil, nil, false, now.Add(-time.Hour), nil)

	mock.ExpectQuery(`FROM nudges\s+WHERE user_id = :1 AND profile_id IS NULL AND dismissed = 0`).
		WillReturnRows(rows)

	nudges, err := repo.ListActiveNudges(context.Background(), domain.NewProfileKey("user1", ""), now)

	require.NoError(t, err)
	require.Len(t, nudges, 2)
	assert.Equal(t, "nudge2", nudges[0].ID, "newest first")
	assert.Nil(t, nudges[0].ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
