package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"

	"github.com/rs/zerolog/log"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrTicketNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrUserMappingNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrPriceNotRecognized, http.StatusNotFound, "price_not_found"},
	{domainErrors.ErrInsufficientStock, http.StatusBadRequest, "insufficient_stock"},
	{domainErrors.ErrDuplicatePriceReference, http.StatusConflict, "duplicate_price_reference"},
	{domainErrors.ErrInvalidWebhookPayload, http.StatusBadRequest, "invalid_payload"},
	{domainErrors.ErrInvalidWebhookSignature, http.StatusBadRequest, "invalid_signature"},
	{domainErrors.ErrUnauthorized, http.StatusForbidden, "forbidden"},
	{domainErrors.ErrProviderUnavailable, http.StatusInternalServerError, "provider_error"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}
