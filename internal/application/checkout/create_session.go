package checkout

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/clubsync/payments/internal/domain/usermap"
	"github.com/clubsync/payments/internal/infrastructure/config"
	"github.com/clubsync/payments/internal/infrastructure/observability"
	"github.com/clubsync/payments/internal/providers"
	"github.com/clubsync/payments/pkg/saga"
)

// CreateSessionRequest holds the input for one checkout attempt.
type CreateSessionRequest struct {
	PriceReference string
	Quantity       int64
	CallerID       string
}

// CreateSessionResponse holds the provider redirect URL.
type CreateSessionResponse struct {
	CheckoutURL string
}

// CreateSessionUseCase runs the stock reservation protocol: reserve stock
// pessimistically, then ask the provider for a hosted session, and undo the
// reservation on every non-success path.
type CreateSessionUseCase struct {
	stockRepo stock.Repository
	userRepo  usermap.Repository
	provider  providers.CheckoutProvider
	cfg       config.ProviderConfig
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

// NewCreateSessionUseCase creates a new CreateSessionUseCase. metrics may be
// nil in tests.
func NewCreateSessionUseCase(
	stockRepo stock.Repository,
	userRepo usermap.Repository,
	provider providers.CheckoutProvider,
	cfg config.ProviderConfig,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *CreateSessionUseCase {
	return &CreateSessionUseCase{
		stockRepo: stockRepo,
		userRepo:  userRepo,
		provider:  provider,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
	}
}

// Execute runs the protocol as a saga:
//
//  1. create the user mapping (its reference id is the correlation token,
//     so it must exist before anything else; nothing to compensate),
//  2. decrement stock (compensated by an increment of the same quantity),
//  3. create the provider session.
//
// A decrement failure aborts before the provider is called. A provider
// failure triggers exactly one compensating increment. No lock is held
// across the provider call; the decrement is already durable by then.
func (uc *CreateSessionUseCase) Execute(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	if req.Quantity <= 0 {
		return nil, domainErrors.NewValidationError("quantity", "must be positive")
	}
	if req.PriceReference == "" {
		return nil, domainErrors.NewValidationError("price_id", "is required")
	}

	ref := usermap.NewReference(req.CallerID)
	var session *providers.CheckoutSession

	sg := saga.New("create-checkout-session").
		AddStep(saga.Step{
			Name: "create-user-mapping",
			Execute: func(ctx context.Context) error {
				return uc.userRepo.Create(ctx, ref)
			},
		}).
		AddStep(saga.Step{
			Name: "reserve-stock",
			Execute: func(ctx context.Context) error {
				return uc.stockRepo.Decrement(ctx, req.PriceReference, req.Quantity)
			},
			Compensate: func(ctx context.Context) error {
				uc.logger.Warn().
					Str("price_reference", req.PriceReference).
					Int64("quantity", req.Quantity).
					Msg("Compensating stock reservation")
				uc.countCompensation("provider_failure")
				return uc.stockRepo.Increment(ctx, req.PriceReference, req.Quantity)
			},
		}).
		AddStep(saga.Step{
			Name: "create-provider-session",
			Execute: func(ctx context.Context) error {
				s, err := uc.provider.CreateSession(ctx, providers.CreateSessionParams{
					PriceReference:    req.PriceReference,
					Quantity:          req.Quantity,
					SuccessURL:        uc.cfg.SuccessURL(),
					CancelURL:         uc.cfg.CancelURL(),
					ExpiresAt:         time.Now().Add(uc.cfg.SessionTTL),
					ClientReferenceID: ref.ReferenceID,
				})
				if err != nil {
					return err
				}
				session = s
				return nil
			},
		})

	if err := sg.Execute(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("reference_id", ref.ReferenceID).
		Str("price_reference", req.PriceReference).
		Int64("quantity", req.Quantity).
		Msg("Checkout session created")
	return &CreateSessionResponse{CheckoutURL: session.URL}, nil
}

func (uc *CreateSessionUseCase) countCompensation(reason string) {
	if uc.metrics != nil {
		uc.metrics.CompensationsTotal.WithLabelValues(reason).Inc()
	}
}
