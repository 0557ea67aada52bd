// Package checkout turns a cart or ad-hoc line-item set into a reserved,
// persisted order and, for gateway payment methods, a payment intent.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/stock"
	"github.com/example/storefront/internal/notification"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/tenant"
)

var ErrValidation = errors.New("invalid checkout input")

// defaultTaxRate applies when the caller supplies no tax amount: 10% of the
// subtotal, matching the platform default.
const defaultTaxRate = 0.10

// ItemInput names a product, variant, and quantity; prices always come from
// the catalog, never from the client.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Variant   string `json:"variant,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Input describes one checkout. When Items is empty the buyer's persisted
// cart is used and cleared after the order is durably created. Tax, shipping,
// and discount overrides are honored only on the privileged path.
type Input struct {
	UserID        string
	StoreID       string
	Items         []ItemInput
	Address       order.Address
	PaymentMethod order.Method
	Notes         string

	Privileged bool
	Tax        *int64
	Shipping   *int64
	Discount   int64
}

// Result is a finished checkout. Intent is nil for non-gateway payment
// methods and when intent creation failed (see Process).
type Result struct {
	Order  *order.Order
	Intent *payment.Intent
}

type Orchestrator struct {
	catalog  catalog.Catalog
	ledger   stock.Ledger
	orders   *order.Service
	gateway  payment.Gateway
	stores   tenant.Provider
	carts    cart.Repository
	notifier notification.Notifier
}

func NewOrchestrator(
	cat catalog.Catalog,
	ledger stock.Ledger,
	orders *order.Service,
	gateway payment.Gateway,
	stores tenant.Provider,
	carts cart.Repository,
	notifier notification.Notifier,
) *Orchestrator {
	return &Orchestrator{
		catalog:  cat,
		ledger:   ledger,
		orders:   orders,
		gateway:  gateway,
		stores:   stores,
		carts:    carts,
		notifier: notifier,
	}
}

// Process runs one checkout end to end: resolve items, validate tenancy,
// price server-side, reserve stock all-or-nothing, persist the order, create
// the gateway intent when applicable, clear the cart, and emit best-effort
// notifications.
//
// A gateway failure after the order is persisted does not roll the order
// back: the order is returned alongside the error so the client can retry
// intent creation separately.
func (oc *Orchestrator) Process(ctx context.Context, in Input) (*Result, error) {
	st, err := oc.stores.GetStore(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}

	items, fromCart, err := oc.resolveItems(ctx, in)
	if err != nil {
		return nil, err
	}

	lines, subtotal, err := oc.priceItems(ctx, in.StoreID, items)
	if err != nil {
		return nil, err
	}

	tax := int64(float64(subtotal) * defaultTaxRate)
	shipping := st.ShippingFlat
	var discount int64
	if in.Privileged {
		if in.Tax != nil {
			tax = *in.Tax
		}
		if in.Shipping != nil {
			shipping = *in.Shipping
		}
		discount = in.Discount
	}
	if tax < 0 || shipping < 0 || discount < 0 {
		return nil, fmt.Errorf("%w: negative tax, shipping, or discount", ErrValidation)
	}
	total := subtotal + tax + shipping - discount
	if total < 0 {
		return nil, fmt.Errorf("%w: discount exceeds order total", ErrValidation)
	}

	if err := oc.reserveStock(ctx, items); err != nil {
		return nil, err
	}

	o, err := oc.orders.Create(ctx, order.Draft{
		StoreID:       in.StoreID,
		UserID:        in.UserID,
		Items:         lines,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		Subtotal:      subtotal,
		Tax:           tax,
		ShippingCost:  shipping,
		Discount:      discount,
		Total:         total,
		Notes:         in.Notes,
	})
	if err != nil {
		// The reservation has no order to belong to; hand the stock back.
		oc.releaseStock(ctx, items)
		return nil, err
	}

	result := &Result{Order: o}
	var intentErr error
	if in.PaymentMethod == order.MethodMercadoPago {
		intent, err := oc.gateway.CreateIntent(ctx, o, st)
		if err != nil {
			log.Printf("[Checkout] Intent creation failed for order %s: %v", o.ID, err)
			intentErr = err
		} else {
			result.Intent = intent
			if o, err = oc.orders.AttachIntent(ctx, o.ID, intent.ID); err == nil {
				result.Order = o
			} else {
				log.Printf("[Checkout] Failed to attach intent to order %s: %v", result.Order.ID, err)
			}
		}
	}

	if fromCart {
		if err := oc.carts.Clear(ctx, in.UserID); err != nil {
			log.Printf("[Checkout] Failed to clear cart for user %s: %v", in.UserID, err)
		}
	}

	oc.notify(ctx, notification.Message{
		Kind:   notification.KindOrderConfirmation,
		UserID: in.UserID,
		Order:  result.Order,
	})
	if st.NotifyEmail != "" {
		oc.notify(ctx, notification.Message{
			Kind:  notification.KindNewOrderAlert,
			Email: st.NotifyEmail,
			Order: result.Order,
		})
	}

	return result, intentErr
}

func (oc *Orchestrator) resolveItems(ctx context.Context, in Input) ([]ItemInput, bool, error) {
	if len(in.Items) > 0 {
		for _, it := range in.Items {
			if it.Quantity < 1 {
				return nil, false, fmt.Errorf("%w: quantity must be at least 1 for product %s", ErrValidation, it.ProductID)
			}
		}
		return in.Items, false, nil
	}

	c, err := oc.carts.Get(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return nil, false, fmt.Errorf("%w: no items and no cart", ErrValidation)
		}
		return nil, false, err
	}
	if len(c.Items) == 0 {
		return nil, false, cart.ErrEmptyCart
	}

	items := make([]ItemInput, len(c.Items))
	for i, it := range c.Items {
		items[i] = ItemInput{ProductID: it.ProductID, Variant: it.Variant, Quantity: it.Quantity}
	}
	return items, true, nil
}

// priceItems resolves every product against the catalog, enforcing that all
// of them belong to the checkout's store.
func (oc *Orchestrator) priceItems(ctx context.Context, storeID string, items []ItemInput) ([]order.LineItem, int64, error) {
	lines := make([]order.LineItem, len(items))
	var subtotal int64
	for i, it := range items {
		p, err := oc.catalog.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, 0, err
		}
		if p.StoreID != storeID {
			return nil, 0, fmt.Errorf("%w: product %s belongs to another store", ErrValidation, p.ID)
		}
		lines[i] = order.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Variant:   it.Variant,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
			Subtotal:  int64(it.Quantity) * p.Price,
		}
		subtotal += lines[i].Subtotal
	}
	return lines, subtotal, nil
}

// reserveStock debits every item or none: when a debit fails partway, the
// already-debited items are credited back before the error is surfaced.
func (oc *Orchestrator) reserveStock(ctx context.Context, items []ItemInput) error {
	for i, it := range items {
		if err := oc.ledger.Debit(ctx, it.ProductID, it.Variant, it.Quantity); err != nil {
			oc.releaseStock(ctx, items[:i])
			return err
		}
	}
	return nil
}

func (oc *Orchestrator) releaseStock(ctx context.Context, items []ItemInput) {
	for _, it := range items {
		if err := oc.ledger.Credit(ctx, it.ProductID, it.Variant, it.Quantity); err != nil {
			log.Printf("[Checkout] Failed to release stock %s/%s x%d: %v", it.ProductID, it.Variant, it.Quantity, err)
		}
	}
}

func (oc *Orchestrator) notify(ctx context.Context, msg notification.Message) {
	if err := oc.notifier.Send(ctx, msg); err != nil {
		log.Printf("[Checkout] Failed to send %s notification for order %s: %v", msg.Kind, msg.Order.ID, err)
	}
}
