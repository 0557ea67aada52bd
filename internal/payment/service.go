package payment

import (
	"context"
	"fmt"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/tenant"
)

// Service drives gateway operations against existing orders: re-creating
// intents, admin payment lookups, and refunds.
type Service struct {
	orders  *order.Service
	gateway Gateway
	stores  tenant.Provider
}

func NewService(orders *order.Service, gateway Gateway, stores tenant.Provider) *Service {
	return &Service{orders: orders, gateway: gateway, stores: stores}
}

// CreateIntent (re)creates a gateway intent for an existing order and stores
// the intent reference on it.
func (s *Service) CreateIntent(ctx context.Context, orderID string) (*Intent, *order.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.PaymentMethod != order.MethodMercadoPago {
		return nil, nil, fmt.Errorf("%w: order is not paid through the gateway", ErrInvalidState)
	}
	if o.PaymentStatus == order.PaymentCompleted {
		return nil, nil, fmt.Errorf("%w: order is already paid", ErrInvalidState)
	}

	st, err := s.stores.GetStore(ctx, o.StoreID)
	if err != nil {
		return nil, nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, o, st)
	if err != nil {
		return nil, nil, err
	}

	o, err = s.orders.AttachIntent(ctx, o.ID, intent.ID)
	if err != nil {
		return nil, nil, err
	}
	return intent, o, nil
}

// GetPayment is the admin passthrough to the gateway's payment record.
func (s *Service) GetPayment(ctx context.Context, paymentID string) (*Record, error) {
	return s.gateway.FetchPayment(ctx, paymentID)
}

// Refund refunds an order's payment. It is valid only when the payment is
// currently completed and a provider payment id has been recorded; on success
// the order transitions to refunded with a payment history entry.
func (s *Service) Refund(ctx context.Context, orderID string, amount int64, actor string) (*Refund, *order.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.PaymentStatus != order.PaymentCompleted {
		return nil, nil, fmt.Errorf("%w: only completed payments can be refunded", ErrInvalidState)
	}
	if o.Transaction.PaymentID == "" {
		return nil, nil, fmt.Errorf("%w: order has no recorded provider payment", ErrInvalidState)
	}

	refund, err := s.gateway.Refund(ctx, o.Transaction.PaymentID, amount)
	if err != nil {
		return nil, nil, err
	}
	if refund.Amount == 0 {
		refund.Amount = o.Total
	}

	o, _, err = s.orders.TransitionPaymentStatus(ctx, o.ID, order.PaymentRefunded,
		refund.ID, refund.Amount, "refund processed by "+actor)
	if err != nil {
		return refund, nil, err
	}
	return refund, o, nil
}
