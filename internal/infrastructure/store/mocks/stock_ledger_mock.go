package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/stock"
)

// LedgerCall records one debit or credit.
type LedgerCall struct {
	Op        string // "debit" or "credit"
	ProductID string
	Variant   string
	Qty       int
}

// MockStockLedger is an in-memory stock.Ledger with the same guarded-debit
// semantics as the Postgres ledger: the check and the decrement happen under
// one lock, so it is safe to hammer from concurrent goroutines in tests.
type MockStockLedger struct {
	mu         sync.Mutex
	quantities map[string]int

	Calls     []LedgerCall
	DebitErr  map[string]error // keyed by productID, forces a debit failure
	CreditErr error
}

func NewMockStockLedger() *MockStockLedger {
	return &MockStockLedger{
		quantities: make(map[string]int),
		DebitErr:   make(map[string]error),
	}
}

func key(productID, variant string) string { return productID + "/" + variant }

// Seed sets the available quantity for a variant.
func (m *MockStockLedger) Seed(productID, variant string, qty int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quantities[key(productID, variant)] = qty
}

func (m *MockStockLedger) Debit(ctx context.Context, productID, variant string, qty int) error {
	if qty <= 0 {
		return stock.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, LedgerCall{Op: "debit", ProductID: productID, Variant: variant, Qty: qty})
	if err := m.DebitErr[productID]; err != nil {
		return err
	}
	k := key(productID, variant)
	available, ok := m.quantities[k]
	if !ok {
		return stock.ErrEntryNotFound
	}
	if available < qty {
		return &stock.InsufficientStockError{ProductID: productID, Variant: variant, Available: available}
	}
	m.quantities[k] = available - qty
	return nil
}

func (m *MockStockLedger) Credit(ctx context.Context, productID, variant string, qty int) error {
	if qty <= 0 {
		return stock.ErrInvalidQuantity
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, LedgerCall{Op: "credit", ProductID: productID, Variant: variant, Qty: qty})
	if m.CreditErr != nil {
		return m.CreditErr
	}
	m.quantities[key(productID, variant)] += qty
	return nil
}

func (m *MockStockLedger) Available(ctx context.Context, productID, variant string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	available, ok := m.quantities[key(productID, variant)]
	if !ok {
		return 0, stock.ErrEntryNotFound
	}
	return available, nil
}

// Credits returns how many credit calls were recorded for a product/variant.
func (m *MockStockLedger) Credits(productID, variant string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c.Op == "credit" && c.ProductID == productID && c.Variant == variant {
			n++
		}
	}
	return n
}
