package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clubsync/payments/internal/application/checkout"
	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/clubsync/payments/internal/infrastructure/config"
	"github.com/clubsync/payments/internal/infrastructure/observability"
	customMW "github.com/clubsync/payments/internal/middleware"
	"github.com/clubsync/payments/internal/providers"
)

type RouterDeps struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	Broker         BrokerPinger
	StockRepo      stock.Repository
	CreateUC       *checkout.CreateSessionUseCase
	ReconcileUC    *checkout.ReconcileWebhookUseCase
	WebhookDecoder providers.WebhookDecoder
	TokenVerifier  customMW.TokenVerifier
	Metrics        *observability.Metrics
	CORSConfig     config.CORSConfig
	Logger         zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient, deps.Broker)
	checkoutH := NewCheckoutController(deps.CreateUC)
	webhookH := NewWebhookController(deps.WebhookDecoder, deps.ReconcileUC, deps.Logger)
	stockH := NewStockController(deps.StockRepo)

	r.Get("/health", healthH.Health)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.With(customMW.RequireAuth(deps.TokenVerifier)).
		Post("/create-checkout-session", checkoutH.CreateCheckoutSession)
	r.Post("/webhooks/checkout", webhookH.HandleCheckoutWebhook)
	r.Get("/stock/{ticket_id}", stockH.GetStock)

	return r
}
