package order

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

type Method string

const (
	MethodMercadoPago Method = "mercadopago"
	MethodCash        Method = "cash"
	MethodCard        Method = "card"
	MethodTransfer    Method = "transfer"
)

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrEmptyOrder               = errors.New("order must have at least one item")
	ErrInvalidStatus            = errors.New("invalid order status")
	ErrInvalidTransition        = errors.New("invalid order status transition")
	ErrInvalidPaymentStatus     = errors.New("invalid payment status")
	ErrInvalidPaymentTransition = errors.New("invalid payment status transition")
	ErrConcurrencyConflict      = errors.New("order was modified concurrently")
	ErrTotalMismatch            = errors.New("order totals do not add up")
)

// validStatusTransitions is the fulfillment state machine. Cancelled is
// reachable from every non-terminal state; delivered and cancelled are terminal.
var validStatusTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// validPaymentTransitions is the money state machine. It is independent of the
// fulfillment machine: a cash-on-delivery order can ship while payment is still
// processing. Failed payments may be retried by the gateway, so failed is not
// terminal.
var validPaymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentCompleted, PaymentFailed},
	PaymentProcessing: {PaymentPending, PaymentCompleted, PaymentFailed},
	PaymentCompleted:  {PaymentRefunded},
	PaymentFailed:     {PaymentPending, PaymentProcessing, PaymentCompleted},
	PaymentRefunded:   {},
}

// paymentRank orders payment statuses by how far along the payment lifecycle
// they are. The reconciliation path uses it to drop stale gateway states
// instead of blindly applying the last delivery to arrive.
var paymentRank = map[PaymentStatus]int{
	PaymentPending:    0,
	PaymentProcessing: 1,
	PaymentFailed:     2,
	PaymentCompleted:  3,
	PaymentRefunded:   4,
}

// Rank returns the lifecycle precedence of a payment status.
func (s PaymentStatus) Rank() int { return paymentRank[s] }

func ValidStatus(s Status) bool {
	_, ok := validStatusTransitions[s]
	return ok
}

func ValidPaymentStatus(s PaymentStatus) bool {
	_, ok := validPaymentTransitions[s]
	return ok
}

// LineItem is one product-variant-quantity-price tuple. UnitPrice and Subtotal
// are in cents.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

type Address struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// StatusEntry is one append-only fulfillment history record.
type StatusEntry struct {
	Status Status    `json:"status"`
	Actor  string    `json:"actor"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// PaymentEntry is one append-only payment history record.
type PaymentEntry struct {
	Status        PaymentStatus `json:"status"`
	Amount        int64         `json:"amount"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Note          string        `json:"note,omitempty"`
	At            time.Time     `json:"at"`
}

// Transaction holds the provider-side payment identifiers and the last state
// synced from the gateway.
type Transaction struct {
	IntentID          string `json:"intent_id,omitempty"`
	PaymentID         string `json:"payment_id,omitempty"`
	ProviderStatus    string `json:"provider_status,omitempty"`
	StatusDetail      string `json:"status_detail,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	ExternalReference string `json:"external_reference,omitempty"`
	Installments      int    `json:"installments,omitempty"`
	Amount            int64  `json:"amount,omitempty"`
}

// Order is the durable record of a completed checkout, tracked independently
// on the fulfillment and payment axes.
type Order struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	StoreID       string         `json:"store_id"`
	UserID        string         `json:"user_id"`
	Items         []LineItem     `json:"items"`
	Address       Address        `json:"address"`
	PaymentMethod Method         `json:"payment_method"`
	Subtotal      int64          `json:"subtotal"`
	Tax           int64          `json:"tax"`
	ShippingCost  int64          `json:"shipping_cost"`
	Discount      int64          `json:"discount"`
	Total         int64          `json:"total"`
	Status        Status         `json:"status"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	Notes         string         `json:"notes,omitempty"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty"`
	History       []StatusEntry  `json:"history"`
	Payments      []PaymentEntry `json:"payments"`
	Transaction   Transaction    `json:"transaction"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Version       int            `json:"version"`
}

// CanTransitionTo checks the fulfillment state machine.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, ok := validStatusTransitions[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// CanTransitionPaymentTo checks the payment state machine.
func (o *Order) CanTransitionPaymentTo(target PaymentStatus) bool {
	allowed, ok := validPaymentTransitions[o.PaymentStatus]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

func (o *Order) transitionError(target Status) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
}

func (o *Order) paymentTransitionError(target PaymentStatus) error {
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidPaymentTransition, o.PaymentStatus, target)
}

// ExternalReference is the stable identifier embedded in the payment intent so
// webhooks can be resolved back to the order without trusting client input.
func (o *Order) ExternalReference() string {
	return ExternalReferencePrefix + o.ID
}

const ExternalReferencePrefix = "ORDER-"

// ValidateTotals checks the monetary invariants: each line subtotal, the order
// subtotal, and total = subtotal + tax + shipping - discount >= 0.
func (o *Order) ValidateTotals() error {
	var subtotal int64
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line item %s has quantity %d", ErrTotalMismatch, item.ProductID, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: line item %s has negative unit price", ErrTotalMismatch, item.ProductID)
		}
		if item.Subtotal != int64(item.Quantity)*item.UnitPrice {
			return fmt.Errorf("%w: line item %s subtotal", ErrTotalMismatch, item.ProductID)
		}
		subtotal += item.Subtotal
	}
	if o.Subtotal != subtotal {
		return fmt.Errorf("%w: subtotal is %d, line items add up to %d", ErrTotalMismatch, o.Subtotal, subtotal)
	}
	if o.Discount < 0 {
		return fmt.Errorf("%w: negative discount", ErrTotalMismatch)
	}
	total := o.Subtotal + o.Tax + o.ShippingCost - o.Discount
	if total < 0 {
		return fmt.Errorf("%w: total is negative", ErrTotalMismatch)
	}
	if o.Total != total {
		return fmt.Errorf("%w: total is %d, expected %d", ErrTotalMismatch, o.Total, total)
	}
	return nil
}

// NewCode generates a human-readable order code like ORD-250828-0417.
func NewCode(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%04d", now.Format("060102"), rand.Intn(10000))
}
