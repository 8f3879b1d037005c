package usermap

import "context"

// Repository persists user references.
type Repository interface {
	Create(ctx context.Context, r *Reference) error
	// GetByReferenceID returns ErrUserMappingNotFound if absent.
	GetByReferenceID(ctx context.Context, referenceID string) (*Reference, error)
}
