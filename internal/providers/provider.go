package providers

import (
	"context"
	"time"
)

// CreateSessionParams carries everything the provider needs to host one
// checkout attempt. ClientReferenceID is the opaque correlation token that
// comes back on the completion webhook.
type CreateSessionParams struct {
	PriceReference    string
	Quantity          int64
	SuccessURL        string
	CancelURL         string
	ExpiresAt         time.Time
	ClientReferenceID string
}

// CheckoutSession is the created provider session.
type CheckoutSession struct {
	ID  string
	URL string
}

// LineItem is the single purchased item of a session.
type LineItem struct {
	PriceReference  string
	Quantity        int64
	UnitAmountCents int64
}

// SessionDetails is a session retrieved with its line items expanded.
type SessionDetails struct {
	ID                string
	ClientReferenceID string
	AmountTotalCents  int64
	LineItem          LineItem
}

// CheckoutProvider is the hosted-payment-page service.
type CheckoutProvider interface {
	// CreateSession creates a hosted checkout session. Returns
	// ErrPriceNotRecognized when the provider rejects the price reference.
	CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)
	// GetSession retrieves a session with line items expanded.
	GetSession(ctx context.Context, id string) (*SessionDetails, error)
}

// WebhookEvent is a decoded, signature-verified provider callback.
type WebhookEvent struct {
	ID        string
	Type      string
	SessionID string
}

// WebhookDecoder verifies and decodes a raw webhook delivery. Handlers only
// ever see decoded events.
type WebhookDecoder interface {
	Decode(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
