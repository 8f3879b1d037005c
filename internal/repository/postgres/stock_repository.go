package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// StockRepository implements stock.Repository using PostgreSQL.
type StockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(pool *pgxpool.Pool) *StockRepository {
	return &StockRepository{pool: pool}
}

func (r *StockRepository) scanRecord(row pgx.Row) (*stock.Record, error) {
	rec := &stock.Record{}
	err := row.Scan(&rec.TicketID, &rec.PriceReference, &rec.QuantityAvailable, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("scan stock record: %w", err)
	}
	return rec, nil
}

// Create inserts a new stock record.
func (r *StockRepository) Create(ctx context.Context, rec *stock.Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ticket_stock (ticket_id, price_reference, quantity_available, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.TicketID, rec.PriceReference, rec.QuantityAvailable, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domainErrors.ErrDuplicatePriceReference
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

// SetQuantity overwrites quantity_available for the ticket.
func (r *StockRepository) SetQuantity(ctx context.Context, ticketID int64, quantity int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ticket_stock SET quantity_available = $1, updated_at = NOW() WHERE ticket_id = $2`,
		quantity, ticketID,
	)
	if err != nil {
		return fmt.Errorf("set stock quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTicketNotFound
	}
	return nil
}

// Decrement atomically subtracts quantity from the matching record. The
// non-negative check is part of the UPDATE predicate, so two concurrent
// decrements can never both consume the same remaining stock.
func (r *StockRepository) Decrement(ctx context.Context, priceReference string, quantity int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ticket_stock
		 SET quantity_available = quantity_available - $2, updated_at = NOW()
		 WHERE price_reference = $1 AND quantity_available >= $2`,
		priceReference, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing record from an insufficient one.
		if _, err := r.GetByPriceReference(ctx, priceReference); err != nil {
			return err
		}
		return domainErrors.ErrInsufficientStock
	}
	return nil
}

// Increment atomically adds quantity back. Used only to reverse a prior
// successful decrement of the same quantity.
func (r *StockRepository) Increment(ctx context.Context, priceReference string, quantity int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ticket_stock
		 SET quantity_available = quantity_available + $2, updated_at = NOW()
		 WHERE price_reference = $1`,
		priceReference, quantity,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTicketNotFound
	}
	return nil
}

// GetByTicketID retrieves a record by internal ticket id.
func (r *StockRepository) GetByTicketID(ctx context.Context, ticketID int64) (*stock.Record, error) {
	return r.scanRecord(r.pool.QueryRow(ctx,
		`SELECT ticket_id, price_reference, quantity_available, created_at, updated_at
		 FROM ticket_stock WHERE ticket_id = $1`, ticketID))
}

// GetByPriceReference retrieves a record by external price reference.
func (r *StockRepository) GetByPriceReference(ctx context.Context, priceReference string) (*stock.Record, error) {
	return r.scanRecord(r.pool.QueryRow(ctx,
		`SELECT ticket_id, price_reference, quantity_available, created_at, updated_at
		 FROM ticket_stock WHERE price_reference = $1`, priceReference))
}

// TicketIDForPriceReference resolves the internal ticket id for a provider
// price reference.
func (r *StockRepository) TicketIDForPriceReference(ctx context.Context, priceReference string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT ticket_id FROM ticket_stock WHERE price_reference = $1`, priceReference,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domainErrors.ErrTicketNotFound
		}
		return 0, fmt.Errorf("lookup ticket id: %w", err)
	}
	return id, nil
}
