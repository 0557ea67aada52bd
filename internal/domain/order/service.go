package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/storefront/internal/domain/stock"
	"github.com/google/uuid"
)

// maxConflictRetries bounds how often a mutating operation reloads and retries
// after losing an optimistic-concurrency race before surfacing the conflict.
const maxConflictRetries = 3

// Draft is the input to Create. Totals must already be computed; Create
// revalidates them before persisting.
type Draft struct {
	StoreID       string
	UserID        string
	Items         []LineItem
	Address       Address
	PaymentMethod Method
	Subtotal      int64
	Tax           int64
	ShippingCost  int64
	Discount      int64
	Total         int64
	Notes         string
}

// GatewayUpdate carries the authoritative payment state fetched from the
// gateway into a payment status transition.
type GatewayUpdate struct {
	PaymentID      string
	ProviderStatus string
	StatusDetail   string
	PaymentType    string
	Installments   int
	Amount         int64
}

type Service struct {
	repo   Repository
	ledger stock.Ledger
}

func NewService(repo Repository, ledger stock.Ledger) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// Create persists a new order in pending/pending with the initial history
// entries appended.
func (s *Service) Create(ctx context.Context, d Draft) (*Order, error) {
	if len(d.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	now := time.Now()
	o := &Order{
		ID:            uuid.New().String(),
		Code:          NewCode(now),
		StoreID:       d.StoreID,
		UserID:        d.UserID,
		Items:         d.Items,
		Address:       d.Address,
		PaymentMethod: d.PaymentMethod,
		Subtotal:      d.Subtotal,
		Tax:           d.Tax,
		ShippingCost:  d.ShippingCost,
		Discount:      d.Discount,
		Total:         d.Total,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Notes:         d.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	if err := o.ValidateTotals(); err != nil {
		return nil, err
	}

	o.History = append(o.History, StatusEntry{Status: StatusPending, Actor: d.UserID, At: now})
	o.Payments = append(o.Payments, PaymentEntry{Status: PaymentPending, Amount: o.Total, At: now})

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByStore(ctx context.Context, storeID string, f Filter) ([]*Order, error) {
	return s.repo.ListByStore(ctx, storeID, f)
}

// TransitionStatus drives the fulfillment state machine. A transition into
// cancelled credits stock for every line item exactly once: a repeated cancel
// on an already-cancelled order is a no-op on stock and history alike.
func (s *Service) TransitionStatus(ctx context.Context, id string, target Status, actor, note string) (*Order, error) {
	if !ValidStatus(target) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, target)
	}

	for attempt := 0; ; attempt++ {
		o, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		if target == StatusCancelled && o.Status == StatusCancelled {
			return o, nil
		}
		if !o.CanTransitionTo(target) {
			return nil, o.transitionError(target)
		}

		now := time.Now()
		o.Status = target
		if target == StatusDelivered {
			o.DeliveredAt = &now
		}
		o.History = append(o.History, StatusEntry{Status: target, Actor: actor, Note: note, At: now})
		o.UpdatedAt = now

		if err := s.repo.Update(ctx, o); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) && attempt < maxConflictRetries {
				continue
			}
			return nil, err
		}

		// Only the writer that won the version race restocks, so cancel
		// credits each line item at most once.
		if target == StatusCancelled {
			s.restock(ctx, o)
		}
		return o, nil
	}
}

// TransitionPaymentStatus drives the money state machine. It appends a payment
// history entry only when the status actually changes; a repeated delivery of
// the same status is a no-op, which is what makes duplicated webhooks safe.
// The returned bool reports whether a transition was applied.
func (s *Service) TransitionPaymentStatus(ctx context.Context, id string, target PaymentStatus, transactionID string, amount int64, note string) (*Order, bool, error) {
	if !ValidPaymentStatus(target) {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, target)
	}

	for attempt := 0; ; attempt++ {
		o, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}

		if o.PaymentStatus == target {
			return o, false, nil
		}
		if !o.CanTransitionPaymentTo(target) {
			return nil, false, o.paymentTransitionError(target)
		}

		now := time.Now()
		if amount == 0 {
			amount = o.Total
		}
		o.PaymentStatus = target
		if transactionID != "" {
			o.Transaction.PaymentID = transactionID
			o.Transaction.Amount = amount
		}
		o.Payments = append(o.Payments, PaymentEntry{
			Status:        target,
			Amount:        amount,
			TransactionID: transactionID,
			Note:          note,
			At:            now,
		})
		o.UpdatedAt = now

		if err := s.repo.Update(ctx, o); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) && attempt < maxConflictRetries {
				continue
			}
			return nil, false, err
		}
		return o, true, nil
	}
}

// ApplyGatewayUpdate records authoritative gateway state on the order and
// transitions the payment status. Like TransitionPaymentStatus it is
// idempotent: an unchanged status leaves history and transaction data alone.
func (s *Service) ApplyGatewayUpdate(ctx context.Context, id string, target PaymentStatus, u GatewayUpdate) (*Order, bool, error) {
	if !ValidPaymentStatus(target) {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidPaymentStatus, target)
	}

	for attempt := 0; ; attempt++ {
		o, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}

		if o.PaymentStatus == target {
			return o, false, nil
		}
		if !o.CanTransitionPaymentTo(target) {
			return nil, false, o.paymentTransitionError(target)
		}

		now := time.Now()
		amount := u.Amount
		if amount == 0 {
			amount = o.Total
		}
		o.PaymentStatus = target
		o.Transaction.PaymentID = u.PaymentID
		o.Transaction.ProviderStatus = u.ProviderStatus
		o.Transaction.StatusDetail = u.StatusDetail
		o.Transaction.PaymentType = u.PaymentType
		o.Transaction.Installments = u.Installments
		o.Transaction.Amount = amount
		o.Payments = append(o.Payments, PaymentEntry{
			Status:        target,
			Amount:        amount,
			TransactionID: u.PaymentID,
			Note:          fmt.Sprintf("gateway status: %s - %s", u.ProviderStatus, u.StatusDetail),
			At:            now,
		})
		o.UpdatedAt = now

		if err := s.repo.Update(ctx, o); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) && attempt < maxConflictRetries {
				continue
			}
			return nil, false, err
		}
		return o, true, nil
	}
}

// AttachIntent stores the gateway intent reference on an existing order.
func (s *Service) AttachIntent(ctx context.Context, id, intentID string) (*Order, error) {
	for attempt := 0; ; attempt++ {
		o, err := s.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		o.Transaction.IntentID = intentID
		o.Transaction.ExternalReference = o.ExternalReference()
		o.UpdatedAt = time.Now()

		if err := s.repo.Update(ctx, o); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) && attempt < maxConflictRetries {
				continue
			}
			return nil, err
		}
		return o, nil
	}
}

// Delete removes an order permanently. Unless the order was already cancelled
// (and therefore already restocked), stock is credited back. The delete is
// conditional on the version read, so a cancel committing in between forces a
// reload instead of a second credit.
func (s *Service) Delete(ctx context.Context, id string) error {
	for attempt := 0; ; attempt++ {
		o, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}

		if err := s.repo.Delete(ctx, o); err != nil {
			if errors.Is(err, ErrConcurrencyConflict) && attempt < maxConflictRetries {
				continue
			}
			return err
		}

		// Only the writer whose delete won the version race restocks.
		if o.Status != StatusCancelled {
			s.restock(ctx, o)
		}
		return nil
	}
}

func (s *Service) restock(ctx context.Context, o *Order) {
	for _, item := range o.Items {
		if err := s.ledger.Credit(ctx, item.ProductID, item.Variant, item.Quantity); err != nil {
			log.Printf("[Order] Failed to restock %s/%s x%d for order %s: %v",
				item.ProductID, item.Variant, item.Quantity, o.ID, err)
		}
	}
}
