package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/pkg/retry"
)

const defaultStripeBaseURL = "https://api.stripe.com"

// StripeProvider implements CheckoutProvider against the Stripe REST API.
// Transient failures are retried with an Idempotency-Key so a retried
// session create cannot double-charge; all calls go through a circuit
// breaker so a provider outage fails fast.
type StripeProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	retryCfg   retry.Config
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) StripeOption {
	return func(p *StripeProvider) { p.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) StripeOption {
	return func(p *StripeProvider) { p.httpClient = c }
}

// NewStripeProvider creates a Stripe-backed checkout provider.
func NewStripeProvider(apiKey string, opts ...StripeOption) *StripeProvider {
	p := &StripeProvider{
		apiKey:     apiKey,
		baseURL:    defaultStripeBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryCfg:   retry.DefaultConfig(),
	}
	for _, o := range opts {
		o(p)
	}
	p.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		// Only outages should trip the breaker, not rejected requests.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domainErrors.ErrProviderUnavailable)
		},
	})
	return p
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Param   string `json:"param"`
		Message string `json:"message"`
	} `json:"error"`
}

type stripeSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	ClientReferenceID string `json:"client_reference_id"`
	AmountTotal       int64  `json:"amount_total"`
	LineItems         struct {
		Data []struct {
			Quantity int64 `json:"quantity"`
			Price    struct {
				ID         string `json:"id"`
				UnitAmount int64  `json:"unit_amount"`
			} `json:"price"`
		} `json:"data"`
	} `json:"line_items"`
}

// CreateSession creates a hosted checkout session.
func (p *StripeProvider) CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", params.PriceReference)
	form.Set("line_items[0][quantity]", strconv.FormatInt(params.Quantity, 10))
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("expires_at", strconv.FormatInt(params.ExpiresAt.Unix(), 10))
	form.Set("client_reference_id", params.ClientReferenceID)

	body, err := p.do(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}

	var sess stripeSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSession retrieves a session with its line items expanded.
func (p *StripeProvider) GetSession(ctx context.Context, id string) (*SessionDetails, error) {
	path := "/v1/checkout/sessions/" + url.PathEscape(id) + "?expand[]=line_items"
	body, err := p.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var sess stripeSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if len(sess.LineItems.Data) == 0 {
		return nil, fmt.Errorf("session %s has no line items: %w", id, domainErrors.ErrInvalidWebhookPayload)
	}

	item := sess.LineItems.Data[0]
	return &SessionDetails{
		ID:                sess.ID,
		ClientReferenceID: sess.ClientReferenceID,
		AmountTotalCents:  sess.AmountTotal,
		LineItem: LineItem{
			PriceReference:  item.Price.ID,
			Quantity:        item.Quantity,
			UnitAmountCents: item.Price.UnitAmount,
		},
	}, nil
}

// do performs one API call through the breaker with retries on transient
// failures only.
func (p *StripeProvider) do(ctx context.Context, method, path string, form url.Values) ([]byte, error) {
	idempotencyKey := uuid.New().String()

	return p.breaker.Execute(func() ([]byte, error) {
		return retry.DoWithResult(ctx, p.retryCfg, func() ([]byte, error) {
			body, err := p.roundTrip(ctx, method, path, form, idempotencyKey)
			if err != nil && !errors.Is(err, domainErrors.ErrProviderUnavailable) {
				return nil, retry.Unrecoverable(err)
			}
			return body, err
		})
	})
}

func (p *StripeProvider) roundTrip(ctx context.Context, method, path string, form url.Values, idempotencyKey string) ([]byte, error) {
	var reqBody io.Reader
	if form != nil {
		reqBody = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domainErrors.ErrProviderUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", domainErrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var apiErr stripeError
	_ = json.Unmarshal(body, &apiErr)

	// A price reference Stripe does not know comes back as an
	// invalid_request_error with code resource_missing.
	if apiErr.Error.Type == "invalid_request_error" && apiErr.Error.Code == "resource_missing" {
		if method == http.MethodGet {
			return nil, fmt.Errorf("%w: %s", domainErrors.ErrSessionNotFound, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrPriceNotRecognized, apiErr.Error.Message)
	}

	return nil, fmt.Errorf("stripe: status %d: %s", resp.StatusCode, apiErr.Error.Message)
}
