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

// sqlxNudgeRepository implements domain.NudgeRepository using sqlx.
type sqlxNudgeRepository struct {
	db *sqlx.DB
}

// NewSQLXNudgeRepository creates a new instance of sqlxNudgeRepository.
func NewSQLXNudgeRepository(db *sqlx.DB) domain.NudgeRepository {
	return &sqlxNudgeRepository{db: db}
}

func toDomainNudge(m *models.Nudge) *domain.Nudge {
	if m == nil {
		return nil
	}
	nudge := &domain.Nudge{
		ID:        m.ID,
		Key:       domain.NewProfileKey(m.UserID, m.ProfileID.String),
		Type:      domain.NudgeType(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		Priority:  domain.NudgePriority(m.Priority),
		Dismissed: m.Dismissed,
		CreatedAt: m.CreatedAt,
		ExpiresAt: util.NullTimeToTimePtr(m.ExpiresAt),
	}
	if m.ActionLabel.Valid {
		nudge.Action = &domain.NudgeAction{
			Label: m.ActionLabel.String,
			Kind:  m.ActionKind.String,
			Data:  m.ActionData.String,
		}
	}
	return nudge
}

const nudgeColumns = `id, user_id, profile_id, type, title, message, priority,
	action_label, action_kind, action_data, dismissed, created_at, expires_at`

// FindActiveNudge returns the undismissed, unexpired nudge of the given type
// for the key, or (nil, nil) when none exists.
func (r *sqlxNudgeRepository) FindActiveNudge(ctx context.Context, key domain.ProfileKey, nudgeType domain.NudgeType, now time.Time) (*domain.Nudge, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	query := fmt.Sprintf(
		`SELECT %s FROM nudges
		 WHERE %s AND type = :%d AND dismissed = 0 AND (expires_at IS NULL OR expires_at > :%d)
		 ORDER BY created_at DESC FETCH FIRST 1 ROWS ONLY`,
		nudgeColumns, clause, len(args)+1, len(args)+2)
	args = append(args, string(nudgeType), now)

	var m models.Nudge
	if err := executor.GetContext(ctx, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active nudge: %w", err)
	}
	return toDomainNudge(&m), nil
}

// InsertNudge persists a newly fired nudge.
func (r *sqlxNudgeRepository) InsertNudge(ctx context.Context, nudge *domain.Nudge) error {
	executor := GetExecutor(ctx, r.db)
	query := `INSERT INTO nudges (id, user_id, profile_id, type, title, message, priority, action_label, action_kind, action_data, dismissed, created_at, expires_at)
	          VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, 0, :11, :12)`

	if nudge.ID == "" {
		nudge.ID = util.NewULID()
	}
	if nudge.CreatedAt.IsZero() {
		nudge.CreatedAt = time.Now()
	}

	var actionLabel, actionKind, actionData sql.NullString
	if nudge.Action != nil {
		actionLabel = util.StringToNullString(nudge.Action.Label)
		actionKind = util.StringToNullString(nudge.Action.Kind)
		actionData = util.StringToNullString(nudge.Action.Data)
	}
	_, err := executor.ExecContext(ctx, query,
		nudge.ID,
		nudge.Key.UserID,
		util.StringToNullString(nudge.Key.ProfileID),
		string(nudge.Type),
		nudge.Title,
		nudge.Message,
		string(nudge.Priority),
		actionLabel,
		actionKind,
		actionData,
		nudge.CreatedAt,
		util.TimePtrToNullTime(nudge.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert nudge: %w", err)
	}
	return nil
}

// DismissNudge flips the dismissed flag. The transition is one-way; rows are
// never re-activated or deleted here.
func (r *sqlxNudgeRepository) DismissNudge(ctx context.Context, id string) error {
	executor := GetExecutor(ctx, r.db)
	query := `UPDATE nudges SET dismissed = 1 WHERE id = :1`

	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to dismiss nudge: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNudgeNotFoundError(id)
	}
	return nil
}

// ListActiveNudges returns undismissed, unexpired nudges for the key, newest
// first. Expired rows are filtered here, never deleted.
func (r *sqlxNudgeRepository) ListActiveNudges(ctx context.Context, key domain.ProfileKey, now time.Time) ([]domain.Nudge, error) {
	executor := GetExecutor(ctx, r.db)
	clause, args := profileClause(key, 1)
	query := fmt.Sprintf(
		`SELECT %s FROM nudges
		 WHERE %s AND dismissed = 0 AND (expires_at IS NULL OR expires_at > :%d)
		 ORDER BY created_at DESC`,
		nudgeColumns, clause, len(args)+1)
	args = append(args, now)

	var rows []models.Nudge
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active nudges: %w", err)
	}
	nudges := make([]domain.Nudge, len(rows))
	for i := range rows {
		nudges[i] = *toDomainNudge(&rows[i])
	}
	return nudges, nil
}
