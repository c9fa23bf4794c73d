package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"math-tutor/internal/domain"
	"math-tutor/internal/repository/models"
	"math-tutor/internal/util"

	"github.com/jmoiron/sqlx"
)

// sqlxXPRepository implements domain.XPRepository using sqlx.
type sqlxXPRepository struct {
	db *sqlx.DB
}

// NewSQLXXPRepository creates a new instance of sqlxXPRepository.
func NewSQLXXPRepository(db *sqlx.DB) domain.XPRepository {
	return &sqlxXPRepository{db: db}
}

func toDomainXPRecord(m *models.UserXP) *domain.XPRecord {
	if m == nil {
		return nil
	}
	return &domain.XPRecord{
		Key:       domain.NewProfileKey(m.UserID, m.ProfileID.String),
		TotalXP:   m.TotalXP,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toDomainXPEvent(m *models.XPEvent) domain.XPEvent {
	return domain.XPEvent{
		ID:        m.ID,
		Amount:    m.Amount,
		Reason:    m.Reason.String,
		AwardedAt: m.AwardedAt,
	}
}

// profileClause returns the WHERE fragment and arguments selecting one
// (user_id, profile_id) key. Oracle cannot compare against NULL with a bind,
// so the two namespaces need different predicates.
func profileClause(key domain.ProfileKey, firstArg int) (string, []interface{}) {
	if key.ProfileID == "" {
		return fmt.Sprintf("user_id = :%d AND profile_id IS NULL", firstArg), []interface{}{key.UserID}
	}
	return fmt.Sprintf("user_id = :%d AND profile_id = :%d", firstArg, firstArg+1),
		[]interface{}{key.UserID, key.ProfileID}
}

// GetXP retrieves the XP row for a key. Returns (nil, nil) when absent.
func (r *sqlxXPRepository) GetXP(ctx context.Context, key domain.ProfileKey) (*domain.XPRecord, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	query := "SELECT user_id, profile_id, total_xp, version, created_at, updated_at FROM user_xp WHERE " + clause

	var m models.UserXP
	if err := executor.GetContext(ctx, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No record yet is a first-class state
		}
		return nil, fmt.Errorf("failed to get xp record: %w", err)
	}
	return toDomainXPRecord(&m), nil
}

// CreateXP inserts a brand-new XP row at version 1.
func (r *sqlxXPRepository) CreateXP(ctx context.Context, record *domain.XPRecord) error {
	executor := GetExecutor(ctx, r.db)
	query := `INSERT INTO user_xp (user_id, profile_id, total_xp, version, created_at, updated_at)
	          VALUES (:1, :2, :3, 1, :4, :5)`

	now := record.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}
	_, err := executor.ExecContext(ctx, query,
		record.Key.UserID,
		util.StringToNullString(record.Key.ProfileID),
		record.TotalXP,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create xp record: %w", err)
	}
	return nil
}

// UpdateXP writes the new total guarded by the prior version. A zero row
// count means another writer won the race; the caller retries.
func (r *sqlxXPRepository) UpdateXP(ctx context.Context, record *domain.XPRecord, priorVersion int64) error {
	executor := GetExecutor(ctx, r.db)
	clause, keyArgs := profileClause(record.Key, 3)
	query := fmt.Sprintf(
		"UPDATE user_xp SET total_xp = :1, version = version + 1, updated_at = :2 WHERE %s AND version = :%d",
		clause, 3+len(keyArgs))

	args := append([]interface{}{record.TotalXP, record.UpdatedAt}, keyArgs...)
	args = append(args, priorVersion)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update xp record: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewConflictError("xp record was modified concurrently")
	}
	return nil
}

// AppendXPEvent inserts one append-only history row.
func (r *sqlxXPRepository) AppendXPEvent(ctx context.Context, key domain.ProfileKey, event domain.XPEvent) error {
	executor := GetExecutor(ctx, r.db)
	query := `INSERT INTO xp_events (id, user_id, profile_id, amount, reason, awarded_at)
	          VALUES (:1, :2, :3, :4, :5, :6)`

	_, err := executor.ExecContext(ctx, query,
		event.ID,
		key.UserID,
		util.StringToNullString(key.ProfileID),
		event.Amount,
		util.StringToNullString(event.Reason),
		event.AwardedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append xp event: %w", err)
	}
	return nil
}

// GetRecentXPEvents returns up to limit history rows, newest first.
func (r *sqlxXPRepository) GetRecentXPEvents(ctx context.Context, key domain.ProfileKey, limit int) ([]domain.XPEvent, error) {
	executor := GetExecutor(ctx, r.db)
	if limit <= 0 {
		limit = 10
	}
	clause, args := profileClause(key, 1)
	query := fmt.Sprintf(
		"SELECT id, user_id, profile_id, amount, reason, awarded_at FROM xp_events WHERE %s ORDER BY awarded_at DESC FETCH FIRST :%d ROWS ONLY",
		clause, len(args)+1)
	args = append(args, limit)

	var rows []models.XPEvent
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get recent xp events: %w", err)
	}
	events := make([]domain.XPEvent, len(rows))
	for i := range rows {
		events[i] = toDomainXPEvent(&rows[i])
	}
	return events, nil
}

// QueryTopXP returns account-level rows ordered by total XP descending.
// Ties break by user id ascending so repeated reads return the same order.
func (r *sqlxXPRepository) QueryTopXP(ctx context.Context, limit int) ([]domain.XPRecord, error) {
	executor := GetExecutor(ctx, r.db)
	query := `SELECT user_id, profile_id, total_xp, version, created_at, updated_at FROM user_xp
	          WHERE profile_id IS NULL ORDER BY total_xp DESC, user_id ASC FETCH FIRST :1 ROWS ONLY`

	var rows []models.UserXP
	if err := executor.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query top xp: %w", err)
	}
	records := make([]domain.XPRecord, len(rows))
	for i := range rows {
		records[i] = *toDomainXPRecord(&rows[i])
	}
	return records, nil
}

// CountXPGreaterThan counts account-level rows with strictly more XP.
func (r *sqlxXPRepository) CountXPGreaterThan(ctx context.Context, totalXP int) (int, error) {
	executor := GetExecutor(ctx, r.db)
	query := `SELECT COUNT(*) FROM user_xp WHERE profile_id IS NULL AND total_xp > :1`

	var count int
	if err := executor.GetContext(ctx, &count, query, totalXP); err != nil {
		return 0, fmt.Errorf("failed to count xp records: %w", err)
	}
	return count, nil
}
