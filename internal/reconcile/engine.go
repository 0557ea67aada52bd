// Package reconcile consumes payment gateway webhook deliveries and brings
// order payment state in line with the gateway's authoritative records.
//
// The gateway delivers at least once, possibly duplicated and out of order.
// Every delivery independently fetches current truth and applies it
// idempotently, so redelivery is always safe; stale deliveries reporting a
// state older than the one already recorded are detected and dropped.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/example/storefront/internal/dedup"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/notification"
	"github.com/example/storefront/internal/payment"
)

var ErrMalformedDelivery = errors.New("malformed webhook delivery")

// fetchTimeout bounds the gateway truth lookup. A timeout acknowledges the
// delivery and relies on the gateway's redelivery schedule; it never marks
// the payment failed.
const fetchTimeout = 5 * time.Second

// Outcome says what the engine did with a delivery. All outcomes except a
// malformed delivery in production mode are acknowledged with success so the
// gateway does not enter a redelivery storm.
type Outcome string

const (
	OutcomeApplied            Outcome = "applied"
	OutcomeUnchanged          Outcome = "unchanged"
	OutcomeStale              Outcome = "stale"
	OutcomeDuplicate          Outcome = "duplicate"
	OutcomeIgnored            Outcome = "ignored"
	OutcomeGatewayUnavailable Outcome = "gateway_unavailable"
	OutcomeOrderNotFound      Outcome = "order_not_found"
)

// Delivery is one inbound webhook notification. Key is the gateway's request
// id when present; an empty key bypasses the dedup cache and relies on the
// idempotent payment transition downstream.
type Delivery struct {
	Key        string
	Type       string
	Action     string
	ResourceID string
}

// isPayment reports whether the delivery notifies about a payment. The
// provider sends either type=payment or action=payment.updated depending on
// API version.
func (d Delivery) isPayment() bool {
	return d.Type == "payment" || d.Action == "payment.updated"
}

type Result struct {
	Outcome       Outcome
	OrderID       string
	PaymentStatus order.PaymentStatus
}

type Engine struct {
	seen     dedup.SeenStore
	gateway  payment.Gateway
	orders   *order.Service
	notifier notification.Notifier
	// testMode accepts malformed payloads instead of rejecting them, matching
	// the gateway's sandbox which sends test webhooks without full payloads.
	testMode bool
}

func NewEngine(seen dedup.SeenStore, gateway payment.Gateway, orders *order.Service, notifier notification.Notifier, testMode bool) *Engine {
	return &Engine{
		seen:     seen,
		gateway:  gateway,
		orders:   orders,
		notifier: notifier,
		testMode: testMode,
	}
}

// Process runs one delivery through the reconciliation state machine. The
// returned error is non-nil only for malformed payloads in production mode;
// every other failure path is logged and acknowledged.
func (e *Engine) Process(ctx context.Context, d Delivery) (*Result, error) {
	// 1. Shape validation, before anything is touched.
	if d.Type == "" && d.Action == "" {
		return e.rejectMalformed(d, "delivery has neither type nor action")
	}
	if !d.isPayment() {
		log.Printf("[Reconcile] Ignoring delivery of type %q action %q", d.Type, d.Action)
		return &Result{Outcome: OutcomeIgnored}, nil
	}
	if d.ResourceID == "" {
		return e.rejectMalformed(d, "payment delivery has no resource id")
	}

	// 2. Dedup. A known key was fully processed before.
	if d.Key != "" {
		seen, err := e.seen.Seen(ctx, d.Key)
		if err != nil {
			log.Printf("[Reconcile] Seen lookup failed for key %s: %v", d.Key, err)
		} else if seen {
			log.Printf("[Reconcile] Duplicate delivery %s", d.Key)
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
	}

	// 3. Fetch authoritative truth, bounded by a timeout.
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	rec, err := e.gateway.FetchPayment(fetchCtx, d.ResourceID)
	if err != nil {
		log.Printf("[Reconcile] Could not fetch payment %s, acknowledging for redelivery: %v", d.ResourceID, err)
		return &Result{Outcome: OutcomeGatewayUnavailable}, nil
	}

	// 4. Resolve the order from the external reference.
	orderID, ok := strings.CutPrefix(rec.ExternalReference, order.ExternalReferencePrefix)
	if !ok || orderID == "" {
		log.Printf("[Reconcile] Payment %s has no usable external reference %q", rec.ID, rec.ExternalReference)
		return &Result{Outcome: OutcomeOrderNotFound}, nil
	}
	o, err := e.orders.Get(ctx, orderID)
	if err != nil {
		log.Printf("[Reconcile] Order %s referenced by payment %s not found: %v", orderID, rec.ID, err)
		return &Result{Outcome: OutcomeOrderNotFound}, nil
	}

	// 5. Map and apply, dropping stale states instead of regressing.
	next := payment.MapProviderStatus(rec.Status)
	if next.Rank() < o.PaymentStatus.Rank() {
		log.Printf("[Reconcile] Dropping stale delivery for order %s: %s would regress %s",
			o.ID, next, o.PaymentStatus)
		e.markSeen(ctx, d.Key)
		return &Result{Outcome: OutcomeStale, OrderID: o.ID, PaymentStatus: o.PaymentStatus}, nil
	}

	o, changed, err := e.orders.ApplyGatewayUpdate(ctx, o.ID, next, order.GatewayUpdate{
		PaymentID:      rec.ID,
		ProviderStatus: rec.Status,
		StatusDetail:   rec.StatusDetail,
		PaymentType:    rec.Type,
		Installments:   rec.Installments,
		Amount:         rec.Amount,
	})
	if err != nil {
		log.Printf("[Reconcile] Could not apply status %s to order %s: %v", next, orderID, err)
		return &Result{Outcome: OutcomeUnchanged, OrderID: orderID}, nil
	}

	// 6. Payment confirmation, only on the transition into completed.
	if changed && next == order.PaymentCompleted {
		msg := notification.Message{
			Kind:   notification.KindPaymentConfirmation,
			UserID: o.UserID,
			Order:  o,
		}
		if err := e.notifier.Send(ctx, msg); err != nil {
			log.Printf("[Reconcile] Failed to send payment confirmation for order %s: %v", o.ID, err)
		}
	}

	// 7. Mark seen only after successful processing, so deliveries that
	// failed earlier can legitimately be retried.
	e.markSeen(ctx, d.Key)

	outcome := OutcomeUnchanged
	if changed {
		outcome = OutcomeApplied
		log.Printf("[Reconcile] Order %s payment status -> %s (provider: %s)", o.ID, next, rec.Status)
	}
	return &Result{Outcome: outcome, OrderID: o.ID, PaymentStatus: o.PaymentStatus}, nil
}

func (e *Engine) rejectMalformed(d Delivery, reason string) (*Result, error) {
	if e.testMode {
		log.Printf("[Reconcile] Test mode: accepting malformed delivery (%s)", reason)
		return &Result{Outcome: OutcomeIgnored}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMalformedDelivery, reason)
}

func (e *Engine) markSeen(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := e.seen.MarkSeen(ctx, key); err != nil {
		log.Printf("[Reconcile] Failed to mark delivery %s seen: %v", key, err)
	}
}
