package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/clubsync/payments/internal/infrastructure/observability"
)

// IngestUseCase keeps the stock ledger in sync with the upstream catalog
// feed. Delivery is at-least-once, so every handler tolerates replays.
type IngestUseCase struct {
	stockRepo stock.Repository
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewIngestUseCase creates a new IngestUseCase. metrics may be nil.
func NewIngestUseCase(stockRepo stock.Repository, logger zerolog.Logger, metrics *observability.Metrics) *IngestUseCase {
	return &IngestUseCase{stockRepo: stockRepo, logger: logger, metrics: metrics}
}

// Execute processes one raw catalog message. A nil return acknowledges the
// message; an error rejects it without requeueing. Unknown event types and
// expected replay conflicts are acknowledged so the queue never stalls.
func (uc *IngestUseCase) Execute(ctx context.Context, body []byte) error {
	msg, err := ParseCatalogEvent(body)
	if err != nil {
		if errors.Is(err, ErrUnknownCatalogEvent) {
			uc.logger.Info().Err(err).Msg("Dropping unhandled catalog event")
			uc.count("unknown", "dropped")
			return nil
		}
		uc.count("invalid", "rejected")
		return err
	}

	switch ev := msg.(type) {
	case TicketCreated:
		return uc.handleTicketCreated(ctx, ev)
	case TicketStockUpdated:
		return uc.handleStockUpdated(ctx, ev)
	default:
		// ParseCatalogEvent only returns the types above.
		return fmt.Errorf("unexpected catalog variant %T", msg)
	}
}

func (uc *IngestUseCase) handleTicketCreated(ctx context.Context, ev TicketCreated) error {
	rec, err := stock.NewRecord(ev.TicketID, ev.PriceReference, ev.Stock)
	if err != nil {
		uc.count(EventTicketCreated, "rejected")
		return err
	}

	if err := uc.stockRepo.Create(ctx, rec); err != nil {
		// Replayed delivery; the record already exists.
		if errors.Is(err, domainErrors.ErrDuplicatePriceReference) {
			uc.logger.Warn().
				Int64("ticket_id", ev.TicketID).
				Str("price_reference", ev.PriceReference).
				Msg("Duplicate ticket_created, ignoring")
			uc.count(EventTicketCreated, "duplicate")
			return nil
		}
		uc.count(EventTicketCreated, "error")
		return err
	}

	uc.logger.Info().
		Int64("ticket_id", ev.TicketID).
		Str("price_reference", ev.PriceReference).
		Int64("stock", ev.Stock).
		Msg("Stock record created")
	uc.count(EventTicketCreated, "processed")
	return nil
}

func (uc *IngestUseCase) handleStockUpdated(ctx context.Context, ev TicketStockUpdated) error {
	if err := uc.stockRepo.SetQuantity(ctx, ev.TicketID, ev.Stock); err != nil {
		if errors.Is(err, domainErrors.ErrTicketNotFound) {
			uc.logger.Warn().
				Int64("ticket_id", ev.TicketID).
				Msg("Stock update for unknown ticket, dropping")
			uc.count(EventTicketStockUpdated, "dropped")
			return nil
		}
		uc.count(EventTicketStockUpdated, "error")
		return err
	}

	uc.logger.Info().
		Int64("ticket_id", ev.TicketID).
		Int64("stock", ev.Stock).
		Msg("Stock record updated")
	uc.count(EventTicketStockUpdated, "processed")
	return nil
}

func (uc *IngestUseCase) count(event, status string) {
	if uc.metrics != nil {
		uc.metrics.ConsumerMessagesTotal.WithLabelValues(event, status).Inc()
	}
}
