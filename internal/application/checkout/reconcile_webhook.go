package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/clubsync/payments/internal/domain/usermap"
	"github.com/clubsync/payments/internal/infrastructure/observability"
	"github.com/clubsync/payments/internal/providers"
)

// Webhook event types this service acts on. Anything else is acknowledged
// and ignored; the provider may introduce new types at any time.
const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

// FulfillmentMessage is the downstream message published when a checkout
// completes. Single flattened shape; unit_amount is in major units.
type FulfillmentMessage struct {
	Event      string    `json:"event"`
	UserID     string    `json:"user_id"`
	TicketID   int64     `json:"ticket_id"`
	Quantity   int64     `json:"quantity"`
	UnitAmount float64   `json:"unit_amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReconcileWebhookUseCase settles the outcome of a checkout attempt from
// provider callbacks: completion emits a fulfillment event, expiry
// compensates the reservation.
type ReconcileWebhookUseCase struct {
	stockRepo stock.Repository
	userRepo  usermap.Repository
	provider  providers.CheckoutProvider
	publisher Publisher
	dedupe    EventDeduper
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewReconcileWebhookUseCase creates a new ReconcileWebhookUseCase.
// dedupe and metrics may be nil.
func NewReconcileWebhookUseCase(
	stockRepo stock.Repository,
	userRepo usermap.Repository,
	provider providers.CheckoutProvider,
	publisher Publisher,
	dedupe EventDeduper,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *ReconcileWebhookUseCase {
	return &ReconcileWebhookUseCase{
		stockRepo: stockRepo,
		userRepo:  userRepo,
		provider:  provider,
		publisher: publisher,
		dedupe:    dedupe,
		logger:    logger,
		metrics:   metrics,
	}
}

// Execute processes one verified webhook event. Delivery is at-least-once;
// replayed event ids are acknowledged without side effects. An event id is
// released again when handling fails, so the provider's retry of a failed
// delivery is processed instead of skipped.
func (uc *ReconcileWebhookUseCase) Execute(ctx context.Context, event *providers.WebhookEvent) error {
	marked := false
	if uc.dedupe != nil && event.ID != "" {
		first, err := uc.dedupe.MarkProcessed(ctx, event.ID)
		if err != nil {
			// Dedupe is best effort; process anyway rather than drop.
			uc.logger.Warn().Err(err).Str("event_id", event.ID).Msg("Webhook dedupe unavailable")
		} else if !first {
			uc.logger.Info().Str("event_id", event.ID).Str("type", event.Type).Msg("Duplicate webhook event, skipping")
			return nil
		} else {
			marked = true
		}
	}

	err := uc.handle(ctx, event)
	if err != nil && marked {
		if unmarkErr := uc.dedupe.Unmark(ctx, event.ID); unmarkErr != nil {
			uc.logger.Warn().Err(unmarkErr).Str("event_id", event.ID).Msg("Failed to release webhook event id")
		}
	}
	return err
}

func (uc *ReconcileWebhookUseCase) handle(ctx context.Context, event *providers.WebhookEvent) error {
	switch event.Type {
	case EventSessionCompleted:
		return uc.handleCompleted(ctx, event)
	case EventSessionExpired:
		return uc.handleExpired(ctx, event)
	default:
		uc.logger.Info().Str("type", event.Type).Msg("Unhandled webhook event type")
		uc.countEvent(event.Type, "ignored")
		return nil
	}
}

// handleCompleted resolves the session back to a user and ticket and emits
// the fulfillment message. Stock was already decremented at reservation
// time, so nothing is mutated here.
func (uc *ReconcileWebhookUseCase) handleCompleted(ctx context.Context, event *providers.WebhookEvent) error {
	details, err := uc.provider.GetSession(ctx, event.SessionID)
	if err != nil {
		uc.countEvent(event.Type, "error")
		return fmt.Errorf("retrieve session %s: %w", event.SessionID, err)
	}

	ref, err := uc.userRepo.GetByReferenceID(ctx, details.ClientReferenceID)
	if err != nil {
		uc.countEvent(event.Type, "error")
		return fmt.Errorf("resolve user for session %s: %w", event.SessionID, err)
	}

	ticketID, err := uc.stockRepo.TicketIDForPriceReference(ctx, details.LineItem.PriceReference)
	if err != nil {
		uc.countEvent(event.Type, "error")
		return fmt.Errorf("resolve ticket for price %s: %w", details.LineItem.PriceReference, err)
	}

	msg := FulfillmentMessage{
		Event:      event.Type,
		UserID:     ref.ExternalUserID,
		TicketID:   ticketID,
		Quantity:   details.LineItem.Quantity,
		UnitAmount: float64(details.LineItem.UnitAmountCents) / 100,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, msg); err != nil {
		uc.countEvent(event.Type, "error")
		return fmt.Errorf("publish fulfillment: %w", err)
	}

	uc.logger.Info().
		Str("user_id", ref.ExternalUserID).
		Int64("ticket_id", ticketID).
		Int64("quantity", details.LineItem.Quantity).
		Msg("Checkout session completed, fulfillment published")
	uc.countEvent(event.Type, "processed")
	return nil
}

// handleExpired releases the reservation: the payment window closed without
// a completed payment.
func (uc *ReconcileWebhookUseCase) handleExpired(ctx context.Context, event *providers.WebhookEvent) error {
	details, err := uc.provider.GetSession(ctx, event.SessionID)
	if err != nil {
		uc.countEvent(event.Type, "error")
		return fmt.Errorf("retrieve session %s: %w", event.SessionID, err)
	}

	if err := uc.stockRepo.Increment(ctx, details.LineItem.PriceReference, details.LineItem.Quantity); err != nil {
		uc.countEvent(event.Type, "error")
		return fmt.Errorf("compensate expired session %s: %w", event.SessionID, err)
	}

	uc.logger.Info().
		Str("price_reference", details.LineItem.PriceReference).
		Int64("quantity", details.LineItem.Quantity).
		Msg("Checkout session expired, stock restored")
	if uc.metrics != nil {
		uc.metrics.CompensationsTotal.WithLabelValues("session_expired").Inc()
	}
	uc.countEvent(event.Type, "processed")
	return nil
}

func (uc *ReconcileWebhookUseCase) countEvent(eventType, status string) {
	if uc.metrics != nil {
		uc.metrics.WebhookEventsTotal.WithLabelValues(eventType, status).Inc()
	}
}
