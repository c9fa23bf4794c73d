package repository

import (
	"context"
	"fmt"

	"math-tutor/internal/domain"
	"math-tutor/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// sqlxIdentityRepository implements domain.IdentityRepository against the
// externally-owned users table. Read-only: account lifecycle lives elsewhere.
type sqlxIdentityRepository struct {
	db *sqlx.DB
}

// NewSQLXIdentityRepository creates a new instance of sqlxIdentityRepository.
func NewSQLXIdentityRepository(db *sqlx.DB) domain.IdentityRepository {
	return &sqlxIdentityRepository{db: db}
}

// BatchGetIdentity returns display identities keyed by user id. Users without
// a row are absent from the map.
func (r *sqlxIdentityRepository) BatchGetIdentity(ctx context.Context, userIDs []string) (map[string]domain.Identity, error) {
	result := make(map[string]domain.Identity, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	executor := GetExecutor(ctx, r.db)
	placeholders, args := positionalIn(userIDs, 1)
	query := fmt.Sprintf(`SELECT id, email, name FROM users WHERE id IN (%s)`, placeholders)

	var rows []models.User
	if err := executor.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to batch get identities: %w", err)
	}
	for _, row := range rows {
		result[row.ID] = domain.Identity{
			UserID:      row.ID,
			DisplayName: row.Name.String,
			Email:       row.Email,
		}
	}
	return result, nil
}
