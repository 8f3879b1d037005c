package usermap

import (
	"time"

	"github.com/google/uuid"
)

// Reference maps an opaque generated id to the caller's external user id.
// The reference id is the correlation token carried through the payment
// provider, so internal identity never leaks into provider requests.
// One user may hold many references (one per checkout attempt); rows are
// kept forever as an audit trail.
type Reference struct {
	ReferenceID    string
	ExternalUserID string
	CreatedAt      time.Time
}

// NewReference generates a fresh reference for the given user.
func NewReference(externalUserID string) *Reference {
	return &Reference{
		ReferenceID:    uuid.New().String(),
		ExternalUserID: externalUserID,
		CreatedAt:      time.Now().UTC(),
	}
}
