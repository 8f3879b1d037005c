package ingestion_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubsync/payments/internal/application/ingestion"
	"github.com/clubsync/payments/internal/testutil"
)

func TestIngestUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("ticket_created inserts a stock record", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		uc := ingestion.NewIngestUseCase(stockRepo, zerolog.Nop(), nil)

		body := []byte(`{"event":"ticket_created","ticket_id":7,"price_reference":"price_xyz","stock":50}`)
		require.NoError(t, uc.Execute(ctx, body))

		rec, err := stockRepo.GetByTicketID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "price_xyz", rec.PriceReference)
		assert.Equal(t, int64(50), rec.QuantityAvailable)
	})

	t.Run("replayed ticket_created is acknowledged without overwrite", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		uc := ingestion.NewIngestUseCase(stockRepo, zerolog.Nop(), nil)

		body := []byte(`{"event":"ticket_created","ticket_id":7,"price_reference":"price_xyz","stock":50}`)
		require.NoError(t, uc.Execute(ctx, body))

		// Same price reference, different stock value; the replay must not win.
		replay := []byte(`{"event":"ticket_created","ticket_id":7,"price_reference":"price_xyz","stock":999}`)
		require.NoError(t, uc.Execute(ctx, replay))

		assert.Equal(t, int64(50), stockRepo.Quantity("price_xyz"))
	})

	t.Run("ticket_stock_updated overwrites quantity", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(7, "price_xyz", 50))
		uc := ingestion.NewIngestUseCase(stockRepo, zerolog.Nop(), nil)

		body := []byte(`{"event":"ticket_stock_updated","ticket_id":7,"stock":20}`)
		require.NoError(t, uc.Execute(ctx, body))

		assert.Equal(t, int64(20), stockRepo.Quantity("price_xyz"))
	})

	t.Run("stock update for unknown ticket is dropped", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		uc := ingestion.NewIngestUseCase(stockRepo, zerolog.Nop(), nil)

		body := []byte(`{"event":"ticket_stock_updated","ticket_id":99,"stock":20}`)
		assert.NoError(t, uc.Execute(ctx, body))
	})

	t.Run("unknown event types are acknowledged", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		uc := ingestion.NewIngestUseCase(stockRepo, zerolog.Nop(), nil)

		body := []byte(`{"event":"venue_updated","venue_id":3}`)
		assert.NoError(t, uc.Execute(ctx, body))
	})

	t.Run("malformed messages are rejected", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		uc := ingestion.NewIngestUseCase(stockRepo, zerolog.Nop(), nil)

		for _, body := range [][]byte{
			[]byte(`not json`),
			[]byte(`{"event":"ticket_created","ticket_id":0,"price_reference":"price_x","stock":5}`),
			[]byte(`{"event":"ticket_created","ticket_id":1,"price_reference":"","stock":5}`),
			[]byte(`{"event":"ticket_created","ticket_id":1,"price_reference":"price_x","stock":-5}`),
			[]byte(`{"event":"ticket_stock_updated","stock":5}`),
		} {
			assert.Error(t, uc.Execute(ctx, body), "body: %s", body)
		}
	})
}

func TestParseCatalogEvent(t *testing.T) {
	t.Run("decodes ticket_created", func(t *testing.T) {
		got, err := ingestion.ParseCatalogEvent([]byte(`{"event":"ticket_created","ticket_id":1,"price_reference":"price_a","stock":10}`))
		require.NoError(t, err)
		ev, ok := got.(ingestion.TicketCreated)
		require.True(t, ok)
		assert.Equal(t, int64(1), ev.TicketID)
		assert.Equal(t, "price_a", ev.PriceReference)
		assert.Equal(t, int64(10), ev.Stock)
	})

	t.Run("decodes ticket_stock_updated", func(t *testing.T) {
		got, err := ingestion.ParseCatalogEvent([]byte(`{"event":"ticket_stock_updated","ticket_id":2,"stock":0}`))
		require.NoError(t, err)
		ev, ok := got.(ingestion.TicketStockUpdated)
		require.True(t, ok)
		assert.Equal(t, int64(2), ev.TicketID)
		assert.Equal(t, int64(0), ev.Stock)
	})

	t.Run("flags unknown events", func(t *testing.T) {
		_, err := ingestion.ParseCatalogEvent([]byte(`{"event":"something_else"}`))
		assert.ErrorIs(t, err, ingestion.ErrUnknownCatalogEvent)
	})
}
