package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/notification"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/tenant"
)

// MockCatalog serves products from a map.
type MockCatalog struct {
	Products map[string]*catalog.Product
}

func NewMockCatalog(products ...*catalog.Product) *MockCatalog {
	m := &MockCatalog{Products: make(map[string]*catalog.Product)}
	for _, p := range products {
		m.Products[p.ID] = p
	}
	return m
}

func (m *MockCatalog) GetProduct(ctx context.Context, productID string) (*catalog.Product, error) {
	p, ok := m.Products[productID]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

// MockStores serves tenant configs from a map.
type MockStores struct {
	Stores map[string]*tenant.Store
}

func NewMockStores(stores ...*tenant.Store) *MockStores {
	m := &MockStores{Stores: make(map[string]*tenant.Store)}
	for _, st := range stores {
		m.Stores[st.ID] = st
	}
	return m
}

func (m *MockStores) GetStore(ctx context.Context, storeID string) (*tenant.Store, error) {
	st, ok := m.Stores[storeID]
	if !ok {
		return nil, tenant.ErrStoreNotFound
	}
	return st, nil
}

// MockCartRepo holds one cart per user and records clears.
type MockCartRepo struct {
	mu         sync.Mutex
	Carts      map[string]*cart.Cart
	ClearCalls []string
}

func NewMockCartRepo() *MockCartRepo {
	return &MockCartRepo{Carts: make(map[string]*cart.Cart)}
}

func (m *MockCartRepo) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Carts[userID]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	return c, nil
}

func (m *MockCartRepo) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClearCalls = append(m.ClearCalls, userID)
	delete(m.Carts, userID)
	return nil
}

// MockUserRepo serves users from maps keyed by id and email.
type MockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*auth.User
	byEmail map[string]*auth.User
}

func NewMockUserRepo(users ...*auth.User) *MockUserRepo {
	m := &MockUserRepo{byID: make(map[string]*auth.User), byEmail: make(map[string]*auth.User)}
	for _, u := range users {
		m.byID[u.ID] = u
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *MockUserRepo) Create(ctx context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

// MockNotifier records every message instead of publishing it.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []notification.Message
	SendErr  error
}

func NewMockNotifier() *MockNotifier { return &MockNotifier{} }

func (m *MockNotifier) Send(ctx context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// ByKind returns the recorded messages of one kind.
func (m *MockNotifier) ByKind(kind notification.Kind) []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Message
	for _, msg := range m.Messages {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

// MockGateway is a scriptable payment.Gateway.
type MockGateway struct {
	mu sync.Mutex

	Intent    *payment.Intent
	IntentErr error
	// Records keys payment ids to authoritative records.
	Records   map[string]*payment.Record
	FetchErr  error
	RefundErr error

	CreateIntentCalls int
	FetchCalls        []string
	RefundCalls       []string
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Intent:  &payment.Intent{ID: "pref-1", InitPoint: "https://gateway.test/pay/pref-1"},
		Records: make(map[string]*payment.Record),
	}
}

func (m *MockGateway) CreateIntent(ctx context.Context, o *order.Order, st *tenant.Store) (*payment.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateIntentCalls++
	if m.IntentErr != nil {
		return nil, m.IntentErr
	}
	return m.Intent, nil
}

func (m *MockGateway) FetchPayment(ctx context.Context, paymentID string) (*payment.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchCalls = append(m.FetchCalls, paymentID)
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	rec, ok := m.Records[paymentID]
	if !ok {
		return nil, payment.ErrGateway
	}
	return rec, nil
}

func (m *MockGateway) Refund(ctx context.Context, paymentID string, amount int64) (*payment.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefundCalls = append(m.RefundCalls, paymentID)
	if m.RefundErr != nil {
		return nil, m.RefundErr
	}
	return &payment.Refund{ID: "refund-" + paymentID, Amount: amount}, nil
}
