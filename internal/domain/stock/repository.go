package stock

import "context"

// Repository is the durable stock ledger.
//
// Decrement and Increment must be applied atomically per record: two
// concurrent decrements may never both succeed against the same remaining
// quantity, and a rejected decrement leaves the record untouched.
type Repository interface {
	// Create inserts a new record. Returns ErrDuplicatePriceReference if the
	// price reference already exists.
	Create(ctx context.Context, r *Record) error
	// SetQuantity overwrites quantity_available for the ticket.
	SetQuantity(ctx context.Context, ticketID int64, quantity int64) error
	// Decrement atomically subtracts quantity. Returns ErrInsufficientStock
	// if the result would go negative, ErrTicketNotFound if no record matches.
	Decrement(ctx context.Context, priceReference string, quantity int64) error
	// Increment atomically adds quantity back. Compensation only; no upper
	// bound check.
	Increment(ctx context.Context, priceReference string, quantity int64) error
	GetByTicketID(ctx context.Context, ticketID int64) (*Record, error)
	GetByPriceReference(ctx context.Context, priceReference string) (*Record, error)
	// TicketIDForPriceReference is the reverse lookup used to correlate a
	// provider line item back to an internal ticket.
	TicketIDForPriceReference(ctx context.Context, priceReference string) (int64, error)
}
