package controller

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/clubsync/payments/internal/application/checkout"
	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/providers"
)

const maxWebhookBodyBytes = int64(65536)

// WebhookController receives provider callbacks.
type WebhookController struct {
	decoder     providers.WebhookDecoder
	reconcileUC *checkout.ReconcileWebhookUseCase
	logger      zerolog.Logger
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(decoder providers.WebhookDecoder, reconcileUC *checkout.ReconcileWebhookUseCase, logger zerolog.Logger) *WebhookController {
	return &WebhookController{decoder: decoder, reconcileUC: reconcileUC, logger: logger}
}

// HandleCheckoutWebhook handles POST /webhooks/checkout. The payload must
// carry a valid provider signature; unverifiable deliveries are rejected
// before any processing.
func (h *WebhookController) HandleCheckoutWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, domainErrors.ErrInvalidWebhookPayload)
		return
	}

	event, err := h.decoder.Decode(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Rejected webhook delivery")
		writeError(w, err)
		return
	}

	// Processing failures are always 500 so the provider retries the
	// delivery; only unverifiable payloads get a 400.
	if err := h.reconcileUC.Execute(r.Context(), event); err != nil {
		h.logger.Error().Err(err).Str("event_id", event.ID).Str("type", event.Type).Msg("Webhook processing failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "event processing failed", Code: "processing_error"})
		return
	}

	w.WriteHeader(http.StatusOK)
}
