package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubsync/payments/internal/controller"
	"github.com/clubsync/payments/internal/testutil"
)

func TestStockController_GetStock(t *testing.T) {
	stockRepo := testutil.NewMockStockRepository()
	stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 42))

	r := chi.NewRouter()
	r.Get("/stock/{ticket_id}", controller.NewStockController(stockRepo).GetStock)

	t.Run("returns available stock", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stock/1", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp controller.StockResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(42), resp.Stock)
	})

	t.Run("returns 404 for unknown ticket", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stock/99", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("rejects a non-numeric ticket id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/stock/abc", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
