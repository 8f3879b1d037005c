package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clubsync/payments/internal/application/checkout"
	"github.com/clubsync/payments/internal/application/ingestion"
	"github.com/clubsync/payments/internal/bootstrap"
	"github.com/clubsync/payments/internal/controller"
	"github.com/clubsync/payments/internal/infrastructure/rabbitmq"
	infraRedis "github.com/clubsync/payments/internal/infrastructure/redis"
	"github.com/clubsync/payments/internal/middleware"
	"github.com/clubsync/payments/internal/providers"
	"github.com/clubsync/payments/internal/repository/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "payments-api", "payments")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	stockRepo := postgres.NewStockRepository(app.Pool)
	userRepo := postgres.NewUserMappingRepository(app.Pool)

	// --- Provider and messaging ---
	provider := providers.NewStripeProvider(app.Config.Provider.APIKey)
	webhookDecoder := providers.NewStripeWebhookDecoder(app.Config.Provider.WebhookSecret)
	publisher := rabbitmq.NewPublisher(app.Rabbit, app.Config.RabbitMQ.FulfillmentRoutingKey)
	dedupe := infraRedis.NewEventDedupe(app.Redis, 24*time.Hour)

	// --- Caller identity ---
	verifier, err := middleware.NewCognitoVerifier(ctx, app.Config.Auth.JWKSEndpoint())
	if err != nil {
		app.Logger.Fatal().Err(err).Msg("Failed to load token verification keys")
	}

	// --- Application services ---
	createUC := checkout.NewCreateSessionUseCase(stockRepo, userRepo, provider, app.Config.Provider, app.Logger, app.Metrics)
	reconcileUC := checkout.NewReconcileWebhookUseCase(stockRepo, userRepo, provider, publisher, dedupe, app.Logger, app.Metrics)
	ingestUC := ingestion.NewIngestUseCase(stockRepo, app.Logger, app.Metrics)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		Broker:         app.Rabbit,
		StockRepo:      stockRepo,
		CreateUC:       createUC,
		ReconcileUC:    reconcileUC,
		WebhookDecoder: webhookDecoder,
		TokenVerifier:  verifier,
		Metrics:        app.Metrics,
		CORSConfig:     app.Config.Server.CORS,
		Logger:         app.Logger,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		consumer := rabbitmq.NewConsumer(app.Rabbit, app.Logger)
		if err := consumer.Run(gctx, ingestUC.Execute); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("catalog consumer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		app.Logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		app.Logger.Fatal().Err(err).Msg("Service exited with error")
	}
	app.Logger.Info().Msg("Server exited")
}
