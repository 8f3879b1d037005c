package controller

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/clubsync/payments/internal/application/checkout"
	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/middleware"
)

var validate = validator.New()

// CheckoutController handles checkout-session HTTP requests.
type CheckoutController struct {
	createUC *checkout.CreateSessionUseCase
}

// NewCheckoutController creates a new CheckoutController.
func NewCheckoutController(createUC *checkout.CreateSessionUseCase) *CheckoutController {
	return &CheckoutController{createUC: createUC}
}

// CreateCheckoutSession handles POST /create-checkout-session
func (h *CheckoutController) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	q := CheckoutSessionQuery{PriceID: r.URL.Query().Get("price_id")}

	rawQuantity := r.URL.Query().Get("quantity")
	quantity, err := strconv.ParseInt(rawQuantity, 10, 64)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("quantity", "must be an integer"))
		return
	}
	q.Quantity = quantity

	if err := validate.Struct(q); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			writeError(w, domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed"))
			return
		}
		writeError(w, domainErrors.NewValidationError("query", err.Error()))
		return
	}

	resp, err := h.createUC.Execute(r.Context(), checkout.CreateSessionRequest{
		PriceReference: q.PriceID,
		Quantity:       q.Quantity,
		CallerID:       userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CheckoutSessionResponse{CheckoutURL: resp.CheckoutURL})
}
