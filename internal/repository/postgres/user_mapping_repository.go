package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/usermap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserMappingRepository implements usermap.Repository using PostgreSQL.
type UserMappingRepository struct {
	pool *pgxpool.Pool
}

// NewUserMappingRepository creates a new UserMappingRepository.
func NewUserMappingRepository(pool *pgxpool.Pool) *UserMappingRepository {
	return &UserMappingRepository{pool: pool}
}

// Create inserts a new user reference. Rows are never deleted; the table is
// the audit trail for checkout attempts.
func (r *UserMappingRepository) Create(ctx context.Context, ref *usermap.Reference) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_mapping (reference_id, external_user_id, created_at) VALUES ($1, $2, $3)`,
		ref.ReferenceID, ref.ExternalUserID, ref.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user mapping: %w", err)
	}
	return nil
}

// GetByReferenceID retrieves a reference by its correlation token.
func (r *UserMappingRepository) GetByReferenceID(ctx context.Context, referenceID string) (*usermap.Reference, error) {
	ref := &usermap.Reference{}
	err := r.pool.QueryRow(ctx,
		`SELECT reference_id, external_user_id, created_at FROM user_mapping WHERE reference_id = $1`,
		referenceID,
	).Scan(&ref.ReferenceID, &ref.ExternalUserID, &ref.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserMappingNotFound
		}
		return nil, fmt.Errorf("scan user mapping: %w", err)
	}
	return ref, nil
}
