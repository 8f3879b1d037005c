package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubsync/payments/internal/application/checkout"
	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/usermap"
	"github.com/clubsync/payments/internal/infrastructure/config"
	"github.com/clubsync/payments/internal/providers"
	"github.com/clubsync/payments/internal/testutil"
)

func testProviderConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Domain:     "http://localhost:8080",
		SessionTTL: time.Hour,
	}
}

func TestCreateSessionUseCase_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session and reserves stock", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 10))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		resp, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       3,
			CallerID:       "user-1",
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.NotEmpty(t, resp.CheckoutURL)
		assert.Equal(t, int64(7), stockRepo.Quantity("price_abc"))
		assert.Equal(t, 1, provider.CreateCalls())
		assert.Equal(t, 0, stockRepo.IncrementCalls())
	})

	t.Run("rejects non-positive quantity before any side effect", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 10))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		for _, qty := range []int64{0, -1} {
			resp, err := uc.Execute(ctx, checkout.CreateSessionRequest{
				PriceReference: "price_abc",
				Quantity:       qty,
				CallerID:       "user-1",
			})
			require.Error(t, err)
			assert.Nil(t, resp)

			var vErr *domainErrors.ValidationError
			assert.ErrorAs(t, err, &vErr)
		}
		assert.Equal(t, int64(10), stockRepo.Quantity("price_abc"))
		assert.Equal(t, 0, provider.CreateCalls())
	})

	t.Run("insufficient stock aborts before the provider is called", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 2))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		resp, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       5,
			CallerID:       "user-1",
		})
		require.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
		assert.Nil(t, resp)
		assert.Equal(t, int64(2), stockRepo.Quantity("price_abc"))
		assert.Equal(t, 0, provider.CreateCalls())
	})

	t.Run("unknown price reference returns not found", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		_, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_missing",
			Quantity:       1,
			CallerID:       "user-1",
		})
		require.ErrorIs(t, err, domainErrors.ErrTicketNotFound)
		assert.Equal(t, 0, provider.CreateCalls())
	})

	t.Run("provider rejection compensates the reservation exactly once", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 10))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider(
			providers.WithCreateError(domainErrors.ErrPriceNotRecognized),
		)

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		resp, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       4,
			CallerID:       "user-1",
		})
		require.ErrorIs(t, err, domainErrors.ErrPriceNotRecognized)
		assert.Nil(t, resp)
		assert.Equal(t, int64(10), stockRepo.Quantity("price_abc"))
		assert.Equal(t, 1, stockRepo.IncrementCalls())
	})

	t.Run("provider outage compensates the reservation", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 10))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider(
			providers.WithCreateError(domainErrors.ErrProviderUnavailable),
		)

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		_, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       2,
			CallerID:       "user-1",
		})
		require.ErrorIs(t, err, domainErrors.ErrProviderUnavailable)
		assert.Equal(t, int64(10), stockRepo.Quantity("price_abc"))
		assert.Equal(t, 1, stockRepo.IncrementCalls())
	})

	t.Run("user mapping failure aborts before stock is touched", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 10))
		userRepo := testutil.NewMockUserMappingRepository()
		userRepo.CreateFunc = func(ctx context.Context, r *usermap.Reference) error {
			return errors.New("database error")
		}
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		_, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       1,
			CallerID:       "user-1",
		})
		require.Error(t, err)
		assert.Equal(t, int64(10), stockRepo.Quantity("price_abc"))
		assert.Equal(t, 0, stockRepo.DecrementCalls())
		assert.Equal(t, 0, provider.CreateCalls())
	})

	t.Run("sequential reservations observe decremented stock", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 100))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		_, err := uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       10,
			CallerID:       "user-1",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(90), stockRepo.Quantity("price_abc"))

		_, err = uc.Execute(ctx, checkout.CreateSessionRequest{
			PriceReference: "price_abc",
			Quantity:       95,
			CallerID:       "user-2",
		})
		require.ErrorIs(t, err, domainErrors.ErrInsufficientStock)
		assert.Equal(t, int64(90), stockRepo.Quantity("price_abc"))
	})

	t.Run("concurrent reservations never oversell", func(t *testing.T) {
		stockRepo := testutil.NewMockStockRepository()
		stockRepo.AddRecord(testutil.NewTestStockRecord(1, "price_abc", 1))
		userRepo := testutil.NewMockUserMappingRepository()
		provider := providers.NewMockProvider()

		uc := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, testProviderConfig(), zerolog.Nop(), nil)

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, results[i] = uc.Execute(ctx, checkout.CreateSessionRequest{
					PriceReference: "price_abc",
					Quantity:       1,
					CallerID:       "user-1",
				})
			}(i)
		}
		wg.Wait()

		var successes, insufficient int
		for _, err := range results {
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domainErrors.ErrInsufficientStock):
				insufficient++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, successes)
		assert.Equal(t, 1, insufficient)
		assert.Equal(t, int64(0), stockRepo.Quantity("price_abc"))
	})
}
