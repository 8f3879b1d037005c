package stock

import (
	"time"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
)

// Record is a per-ticket inventory counter, keyed both by the internal
// ticket id and by the external provider price reference.
type Record struct {
	TicketID          int64
	PriceReference    string
	QuantityAvailable int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewRecord validates and builds a stock record.
func NewRecord(ticketID int64, priceReference string, quantity int64) (*Record, error) {
	if ticketID <= 0 {
		return nil, domainErrors.NewValidationError("ticket_id", "must be positive")
	}
	if priceReference == "" {
		return nil, domainErrors.NewValidationError("price_reference", "is required")
	}
	if quantity < 0 {
		return nil, domainErrors.NewValidationError("stock", "must not be negative")
	}
	now := time.Now().UTC()
	return &Record{
		TicketID:          ticketID,
		PriceReference:    priceReference,
		QuantityAvailable: quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}
