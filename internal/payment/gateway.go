// Package payment adapts the external payment gateway: intent creation,
// authoritative payment lookup, refunds, and the mapping from the provider's
// status vocabulary to the internal one.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/tenant"
)

var (
	ErrPaymentConfig = errors.New("payment gateway is not configured for this store")
	ErrGateway       = errors.New("payment gateway request failed")
	ErrInvalidState  = errors.New("operation not valid for current payment state")
)

// Intent is a gateway-side object representing "this order may be paid".
// InitPoint is the buyer redirect URL; SandboxInitPoint its test-mode variant.
type Intent struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Record is the validated shape of an authoritative payment fetched from the
// gateway. Webhook payload fields are never trusted directly; this record is
// the only source of truth for amount and status. Amount is in cents.
type Record struct {
	ID                string
	Status            string
	StatusDetail      string
	Amount            int64
	Type              string
	Installments      int
	ExternalReference string
	PayerEmail        string
	ApprovedAt        *time.Time
	CreatedAt         *time.Time
}

type Refund struct {
	ID     string
	Amount int64
}

type Gateway interface {
	// CreateIntent creates a payment intent for the order, embedding the
	// order's external reference. The store's own credential is used when the
	// store has gateway payments enabled with a token of its own.
	CreateIntent(ctx context.Context, o *order.Order, st *tenant.Store) (*Intent, error)
	// FetchPayment retrieves the authoritative payment record by provider id.
	FetchPayment(ctx context.Context, paymentID string) (*Record, error)
	// Refund refunds a payment, fully when amount is zero.
	Refund(ctx context.Context, paymentID string, amount int64) (*Refund, error)
}

// statusMap translates the provider vocabulary into the internal one. Unknown
// values fall back to pending rather than failing the reconciliation.
var statusMap = map[string]order.PaymentStatus{
	"approved":     order.PaymentCompleted,
	"pending":      order.PaymentPending,
	"authorized":   order.PaymentProcessing,
	"in_process":   order.PaymentProcessing,
	"in_mediation": order.PaymentProcessing,
	"rejected":     order.PaymentFailed,
	"cancelled":    order.PaymentFailed,
	"refunded":     order.PaymentRefunded,
	"charged_back": order.PaymentRefunded,
}

// MapProviderStatus is total: every provider status, known or not, maps to an
// internal payment status.
func MapProviderStatus(raw string) order.PaymentStatus {
	if s, ok := statusMap[raw]; ok {
		return s
	}
	return order.PaymentPending
}
