package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockProvider is an in-memory CheckoutProvider with failure injection,
// used by tests to exercise every non-success path of the reservation
// protocol.
type MockProvider struct {
	mu          sync.Mutex
	createErr   error
	getErr      error
	latency     time.Duration
	sessions    map[string]*SessionDetails
	createCalls int
}

type MockProviderOption func(*MockProvider)

// WithCreateError makes every CreateSession call fail with err.
func WithCreateError(err error) MockProviderOption {
	return func(p *MockProvider) { p.createErr = err }
}

// WithGetError makes every GetSession call fail with err.
func WithGetError(err error) MockProviderOption {
	return func(p *MockProvider) { p.getErr = err }
}

// WithLatency simulates provider latency.
func WithLatency(d time.Duration) MockProviderOption {
	return func(p *MockProvider) { p.latency = d }
}

// WithSession seeds a retrievable session.
func WithSession(details *SessionDetails) MockProviderOption {
	return func(p *MockProvider) { p.sessions[details.ID] = details }
}

func NewMockProvider(opts ...MockProviderOption) *MockProvider {
	p := &MockProvider{sessions: make(map[string]*SessionDetails)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// CreateCalls reports how many times CreateSession was invoked.
func (p *MockProvider) CreateCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createCalls
}

func (p *MockProvider) CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++

	if p.createErr != nil {
		return nil, p.createErr
	}

	id := "cs_test_" + uuid.New().String()[:8]
	p.sessions[id] = &SessionDetails{
		ID:                id,
		ClientReferenceID: params.ClientReferenceID,
		AmountTotalCents:  0,
		LineItem: LineItem{
			PriceReference: params.PriceReference,
			Quantity:       params.Quantity,
		},
	}
	return &CheckoutSession{
		ID:  id,
		URL: fmt.Sprintf("https://checkout.stripe.com/c/pay/%s", id),
	}, nil
}

func (p *MockProvider) GetSession(ctx context.Context, id string) (*SessionDetails, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.getErr != nil {
		return nil, p.getErr
	}
	details, ok := p.sessions[id]
	if !ok {
		return nil, fmt.Errorf("mock: unknown session %s", id)
	}
	return details, nil
}
