package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/stock"
)

// StockController exposes point reads of the stock ledger.
type StockController struct {
	stockRepo stock.Repository
}

// NewStockController creates a new StockController.
func NewStockController(stockRepo stock.Repository) *StockController {
	return &StockController{stockRepo: stockRepo}
}

// GetStock handles GET /stock/{ticket_id}
func (h *StockController) GetStock(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(chi.URLParam(r, "ticket_id"), 10, 64)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("ticket_id", "must be an integer"))
		return
	}

	rec, err := h.stockRepo.GetByTicketID(r.Context(), ticketID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StockResponse{Stock: rec.QuantityAvailable})
}
