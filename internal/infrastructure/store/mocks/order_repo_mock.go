// Package mocks provides in-memory, call-recording implementations of the
// persistence contracts for tests.
package mocks

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/example/storefront/internal/domain/order"
)

// MockOrderRepo is an in-memory order.Repository. It enforces the same
// optimistic-concurrency contract as the Postgres implementation so service
// retry behavior can be tested.
type MockOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*order.Order

	CreateCalls int
	UpdateCalls int
	DeleteCalls int
	CreateErr   error
	UpdateErr   error
	// UpdateHook and DeleteHook run inside Update/Delete before the version
	// check, letting tests inject a concurrent writer. Each fires once.
	UpdateHook func(o *order.Order)
	DeleteHook func(o *order.Order)
}

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{orders: make(map[string]*order.Order)}
}

func clone(o *order.Order) *order.Order {
	data, _ := json.Marshal(o)
	var c order.Order
	_ = json.Unmarshal(data, &c)
	return &c
}

func (m *MockOrderRepo) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.orders[o.ID] = clone(o)
	return nil
}

func (m *MockOrderRepo) Get(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return clone(o), nil
}

func (m *MockOrderRepo) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, clone(o))
		}
	}
	sortByCreated(out)
	return out, nil
}

func (m *MockOrderRepo) ListByStore(ctx context.Context, storeID string, f order.Filter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if o.StoreID != storeID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.PaymentStatus != "" && o.PaymentStatus != f.PaymentStatus {
			continue
		}
		out = append(out, clone(o))
	}
	sortByCreated(out)
	return out, nil
}

func (m *MockOrderRepo) Update(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	hook := m.UpdateHook
	m.UpdateHook = nil
	m.mu.Unlock()
	if hook != nil {
		hook(o)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	current, ok := m.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if current.Version != o.Version {
		return order.ErrConcurrencyConflict
	}
	o.Version++
	m.orders[o.ID] = clone(o)
	return nil
}

func (m *MockOrderRepo) Delete(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	hook := m.DeleteHook
	m.DeleteHook = nil
	m.mu.Unlock()
	if hook != nil {
		hook(o)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	current, ok := m.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if current.Version != o.Version {
		return order.ErrConcurrencyConflict
	}
	delete(m.orders, o.ID)
	return nil
}

// Seed stores an order directly, bypassing call counters.
func (m *MockOrderRepo) Seed(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = clone(o)
}

func sortByCreated(orders []*order.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
