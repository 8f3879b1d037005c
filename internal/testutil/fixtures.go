package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/clubsync/payments/internal/domain/usermap"
)

func NewTestStockRecord(ticketID int64, priceReference string, quantity int64) *stock.Record {
	now := time.Now().UTC()
	return &stock.Record{
		TicketID:          ticketID,
		PriceReference:    priceReference,
		QuantityAvailable: quantity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func NewTestReference(externalUserID string) *usermap.Reference {
	return &usermap.Reference{
		ReferenceID:    uuid.New().String(),
		ExternalUserID: externalUserID,
		CreatedAt:      time.Now().UTC(),
	}
}
