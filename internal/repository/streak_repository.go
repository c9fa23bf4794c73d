package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"math-tutor/internal/domain"
	"math-tutor/internal/repository/models"
	"math-tutor/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxStreakRepository implements domain.StreakRepository using sqlx.
type sqlxStreakRepository struct {
	db *sqlx.DB
}

// NewSQLXStreakRepository creates a new instance of sqlxStreakRepository.
func NewSQLXStreakRepository(db *sqlx.DB) domain.StreakRepository {
	return &sqlxStreakRepository{db: db}
}

func toDomainStreakRecord(m *models.UserStreak) *domain.StreakRecord {
	if m == nil {
		return nil
	}
	return &domain.StreakRecord{
		Key:           domain.NewProfileKey(m.UserID, m.ProfileID.String),
		CurrentStreak: m.CurrentStreak,
		LongestStreak: m.LongestStreak,
		LastStudyDate: util.NullTimeToTimePtr(m.LastStudyDate),
		Version:       m.Version,
		UpdatedAt:     m.UpdatedAt,
	}
}

// GetStreak retrieves the streak row for a key. Returns (nil, nil) when absent.
func (r *sqlxStreakRepository) GetStreak(ctx context.Context, key domain.ProfileKey) (*domain.StreakRecord, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	query := "SELECT user_id, profile_id, current_streak, longest_streak, last_study_date, version, updated_at FROM user_streaks WHERE " + clause

	var m models.UserStreak
	if err := executor.GetContext(ctx, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No record yet is a first-class state
		}
		return nil, fmt.Errorf("failed to get streak record: %w", err)
	}
	return toDomainStreakRecord(&m), nil
}

// CreateStreak inserts a brand-new streak row at version 1.
func (r *sqlxStreakRepository) CreateStreak(ctx context.Context, record *domain.StreakRecord) error {
	executor := GetExecutor(ctx, r.db)
	query := `INSERT INTO user_streaks (user_id, profile_id, current_streak, longest_streak, last_study_date, version, updated_at)
	          VALUES (:1, :2, :3, :4, :5, 1, :6)`

	now := record.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err := executor.ExecContext(ctx, query,
		record.Key.UserID,
		util.StringToNullString(record.Key.ProfileID),
		record.CurrentStreak,
		record.LongestStreak,
		util.TimePtrToNullTime(record.LastStudyDate),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create streak record: %w", err)
	}
	return nil
}

// UpdateStreak writes the transitioned record guarded by the prior version.
func (r *sqlxStreakRepository) UpdateStreak(ctx context.Context, record *domain.StreakRecord, priorVersion int64) error {
	executor := GetExecutor(ctx, r.db)
	clause, keyArgs := profileClause(record.Key, 5)
	query := fmt.Sprintf(
		`UPDATE user_streaks SET current_streak = :1, longest_streak = :2, last_study_date = :3, version = version + 1, updated_at = :4
		 WHERE %s AND version = :%d`, clause, 5+len(keyArgs))

	args := append([]interface{}{
		record.CurrentStreak,
		record.LongestStreak,
		util.TimePtrToNullTime(record.LastStudyDate),
		record.UpdatedAt,
	}, keyArgs...)
	args = append(args, priorVersion)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update streak record: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewConflictError("streak record was modified concurrently")
	}
	return nil
}

// BatchGetStreaks returns account-level streaks keyed by user id. Users
// without a streak row are absent from the map.
func (r *sqlxStreakRepository) BatchGetStreaks(ctx context.Context, userIDs []string) (map[string]domain.StreakRecord, error) {
	result := make(map[string]domain.StreakRecord, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	executor := GetExecutor(ctx, r.db)
	placeholders, args := positionalIn(userIDs, 1)
	query := fmt.Sprintf(
		`SELECT user_id, profile_id, current_streak, longest_streak, last_study_date, version, updated_at
		 FROM user_streaks WHERE profile_id IS NULL AND user_id IN (%s)`, placeholders)

	var rows []models.UserStreak
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to batch get streaks: %w", err)
	}
	for i := range rows {
		record := toDomainStreakRecord(&rows[i])
		result[record.Key.UserID] = *record
	}
	return result, nil
}

// positionalIn builds an Oracle positional-bind IN list (":1, :2, ...")
// starting at firstArg, with the matching argument slice.
func positionalIn(values []string, firstArg int) (string, []interface{}) {
	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf(":%d", firstArg+i)
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}
