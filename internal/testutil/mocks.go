package testutil

import (
	"context"
	"encoding/json"
	"sync"

	domainErrors "github.com/clubsync/payments/internal/domain/errors"
	"github.com/clubsync/payments/internal/domain/stock"
	"github.com/clubsync/payments/internal/domain/usermap"
)

// --- Stock Repository Mock ---

// MockStockRepository is an in-memory implementation of stock.Repository.
// Decrement and Increment hold the lock for the whole operation, so the
// atomicity guarantees of the real repository hold under concurrent use.
type MockStockRepository struct {
	mu      sync.Mutex
	byPrice map[string]*stock.Record

	CreateFunc      func(ctx context.Context, r *stock.Record) error
	SetQuantityFunc func(ctx context.Context, ticketID int64, quantity int64) error
	DecrementFunc   func(ctx context.Context, priceReference string, quantity int64) error
	IncrementFunc   func(ctx context.Context, priceReference string, quantity int64) error

	decrements int
	increments int
}

func NewMockStockRepository() *MockStockRepository {
	return &MockStockRepository{byPrice: make(map[string]*stock.Record)}
}

// AddRecord pre-populates the mock with a stock record.
func (m *MockStockRepository) AddRecord(r *stock.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPrice[r.PriceReference] = r
}

func (m *MockStockRepository) Create(ctx context.Context, r *stock.Record) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byPrice[r.PriceReference]; ok {
		return domainErrors.ErrDuplicatePriceReference
	}
	m.byPrice[r.PriceReference] = r
	return nil
}

func (m *MockStockRepository) SetQuantity(ctx context.Context, ticketID int64, quantity int64) error {
	if m.SetQuantityFunc != nil {
		return m.SetQuantityFunc(ctx, ticketID, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byPrice {
		if r.TicketID == ticketID {
			r.QuantityAvailable = quantity
			return nil
		}
	}
	return domainErrors.ErrTicketNotFound
}

func (m *MockStockRepository) Decrement(ctx context.Context, priceReference string, quantity int64) error {
	if m.DecrementFunc != nil {
		return m.DecrementFunc(ctx, priceReference, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byPrice[priceReference]
	if !ok {
		return domainErrors.ErrTicketNotFound
	}
	if r.QuantityAvailable < quantity {
		return domainErrors.ErrInsufficientStock
	}
	r.QuantityAvailable -= quantity
	m.decrements++
	return nil
}

func (m *MockStockRepository) Increment(ctx context.Context, priceReference string, quantity int64) error {
	if m.IncrementFunc != nil {
		return m.IncrementFunc(ctx, priceReference, quantity)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byPrice[priceReference]
	if !ok {
		return domainErrors.ErrTicketNotFound
	}
	r.QuantityAvailable += quantity
	m.increments++
	return nil
}

func (m *MockStockRepository) GetByTicketID(ctx context.Context, ticketID int64) (*stock.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byPrice {
		if r.TicketID == ticketID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, domainErrors.ErrTicketNotFound
}

func (m *MockStockRepository) GetByPriceReference(ctx context.Context, priceReference string) (*stock.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byPrice[priceReference]
	if !ok {
		return nil, domainErrors.ErrTicketNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *MockStockRepository) TicketIDForPriceReference(ctx context.Context, priceReference string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byPrice[priceReference]
	if !ok {
		return 0, domainErrors.ErrTicketNotFound
	}
	return r.TicketID, nil
}

// Quantity returns the current quantity for a price reference, or -1 if the
// record does not exist.
func (m *MockStockRepository) Quantity(priceReference string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byPrice[priceReference]
	if !ok {
		return -1
	}
	return r.QuantityAvailable
}

// DecrementCalls reports how many decrements succeeded.
func (m *MockStockRepository) DecrementCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decrements
}

// IncrementCalls reports how many increments succeeded.
func (m *MockStockRepository) IncrementCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.increments
}

// --- User Mapping Repository Mock ---

// MockUserMappingRepository is an in-memory implementation of
// usermap.Repository.
type MockUserMappingRepository struct {
	mu   sync.Mutex
	refs map[string]*usermap.Reference

	CreateFunc func(ctx context.Context, r *usermap.Reference) error
}

func NewMockUserMappingRepository() *MockUserMappingRepository {
	return &MockUserMappingRepository{refs: make(map[string]*usermap.Reference)}
}

func (m *MockUserMappingRepository) Create(ctx context.Context, r *usermap.Reference) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[r.ReferenceID] = r
	return nil
}

func (m *MockUserMappingRepository) GetByReferenceID(ctx context.Context, referenceID string) (*usermap.Reference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refs[referenceID]
	if !ok {
		return nil, domainErrors.ErrUserMappingNotFound
	}
	copied := *r
	return &copied, nil
}

// AddReference pre-populates the mock with a user reference.
func (m *MockUserMappingRepository) AddReference(r *usermap.Reference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[r.ReferenceID] = r
}

// --- Publisher Mock ---

// MockPublisher captures published messages for assertions.
type MockPublisher struct {
	mu       sync.Mutex
	messages []any

	PublishFunc func(ctx context.Context, message any) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, message any) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

// Messages returns everything published so far.
func (m *MockPublisher) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.messages))
	copy(out, m.messages)
	return out
}

// LastJSON marshals the most recent message to JSON, or returns nil if
// nothing was published.
func (m *MockPublisher) LastJSON() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.messages) == 0 {
		return nil
	}
	b, _ := json.Marshal(m.messages[len(m.messages)-1])
	return b
}

// --- Event Deduper Mock ---

// MockDeduper is an in-memory webhook event dedupe store.
type MockDeduper struct {
	mu   sync.Mutex
	seen map[string]bool

	MarkProcessedFunc func(ctx context.Context, eventID string) (bool, error)
	UnmarkFunc        func(ctx context.Context, eventID string) error
}

func NewMockDeduper() *MockDeduper {
	return &MockDeduper{seen: make(map[string]bool)}
}

func (m *MockDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	if m.MarkProcessedFunc != nil {
		return m.MarkProcessedFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *MockDeduper) Unmark(ctx context.Context, eventID string) error {
	if m.UnmarkFunc != nil {
		return m.UnmarkFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, eventID)
	return nil
}

// Seen reports whether an event id is currently marked.
func (m *MockDeduper) Seen(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventID]
}
