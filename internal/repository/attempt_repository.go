package repository

import (
	"context"
	"fmt"
	"time"

	"math-tutor/internal/domain"
	"math-tutor/internal/repository/models"
	"math-tutor/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxAttemptRepository implements domain.AttemptRepository using sqlx.
type sqlxAttemptRepository struct {
	db *sqlx.DB
}

// NewSQLXAttemptRepository creates a new instance of sqlxAttemptRepository.
func NewSQLXAttemptRepository(db *sqlx.DB) domain.AttemptRepository {
	return &sqlxAttemptRepository{db: db}
}

func toDomainAttempt(m *models.ProblemAttempt) domain.ProblemAttempt {
	return domain.ProblemAttempt{
		ID:               m.ID,
		Key:              domain.NewProfileKey(m.UserID, m.ProfileID.String),
		Subject:          m.Subject,
		Difficulty:       m.Difficulty,
		Attempts:         m.Attempts,
		TimeSpentSeconds: m.TimeSpentSeconds,
		HintsUsed:        m.HintsUsed,
		Completed:        m.Completed,
		AttemptedAt:      m.AttemptedAt,
	}
}

// CreateAttempt inserts a new problem attempt into the history.
func (r *sqlxAttemptRepository) CreateAttempt(ctx context.Context, attempt *domain.ProblemAttempt) error {
	executor := GetExecutor(ctx, r.db)
	query := `INSERT INTO problem_attempts (id, user_id, profile_id, subject, difficulty, attempts, time_spent_seconds, hints_used, completed, attempted_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10)`

	if attempt.ID == "" {
		attempt.ID = util.NewULID()
	}
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}

	completed := 0
	if attempt.Completed {
		completed = 1
	}
	_, err := executor.ExecContext(ctx, query,
		attempt.ID,
		attempt.Key.UserID,
		util.StringToNullString(attempt.Key.ProfileID),
		attempt.Subject,
		attempt.Difficulty,
		attempt.Attempts,
		attempt.TimeSpentSeconds,
		attempt.HintsUsed,
		completed,
		attempt.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create problem attempt: %w", err)
	}
	return nil
}

// GetHistory returns attempts in the window, newest first. A zero window
// means all-time.
func (r *sqlxAttemptRepository) GetHistory(ctx context.Context, key domain.ProfileKey, window domain.HistoryWindow) ([]domain.ProblemAttempt, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	query := fmt.Sprintf(
		`SELECT id, user_id, profile_id, subject, difficulty, attempts, time_spent_seconds, hints_used, completed, attempted_at
		 FROM problem_attempts WHERE %s`, clause)
	if !window.Since.IsZero() {
		query += fmt.Sprintf(" AND attempted_at >= :%d", len(args)+1)
		args = append(args, window.Since)
	}
	query += " ORDER BY attempted_at DESC"

	var rows []models.ProblemAttempt
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get attempt history: %w", err)
	}
	attempts := make([]domain.ProblemAttempt, len(rows))
	for i := range rows {
		attempts[i] = toDomainAttempt(&rows[i])
	}
	return attempts, nil
}

// CountCompletedOn counts completed attempts on one calendar day.
func (r *sqlxAttemptRepository) CountCompletedOn(ctx context.Context, key domain.ProfileKey, day time.Time) (int, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	start := util.Midnight(day)
	end := start.Add(24 * time.Hour)
	query := fmt.Sprintf(
		`SELECT COUNT(*) FROM problem_attempts
		 WHERE %s AND completed = 1 AND attempted_at >= :%d AND attempted_at < :%d`,
		clause, len(args)+1, len(args)+2)
	args = append(args, start, end)

	var count int
	if err := executor.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count completed attempts: %w", err)
	}
	return count, nil
}

// RecentSubjects returns distinct subjects attempted in the window.
func (r *sqlxAttemptRepository) RecentSubjects(ctx context.Context, key domain.ProfileKey, window domain.HistoryWindow) ([]string, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	query := fmt.Sprintf("SELECT DISTINCT subject FROM problem_attempts WHERE %s", clause)
	if !window.Since.IsZero() {
		query += fmt.Sprintf(" AND attempted_at >= :%d", len(args)+1)
		args = append(args, window.Since)
	}
	query += " ORDER BY subject"

	var subjects []string
	if err := executor.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recent subjects: %w", err)
	}
	return subjects, nil
}

// BatchCountSolved returns completed-attempt counts for account-level users.
func (r *sqlxAttemptRepository) BatchCountSolved(ctx context.Context, userIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	executor := GetExecutor(ctx, r.db)
	placeholders, args := positionalIn(userIDs, 1)
	query := fmt.Sprintf(
		`SELECT user_id, COUNT(*) AS solved FROM problem_attempts
		 WHERE profile_id IS NULL AND completed = 1 AND user_id IN (%s)
		 GROUP BY user_id`, placeholders)

	rows := []struct {
		UserID string `db:"USER_ID"`
		Solved int    `db:"SOLVED"`
	}{}
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to batch count solved: %w", err)
	}
	for _, row := range rows {
		result[row.UserID] = row.Solved
	}
	return result, nil
}
