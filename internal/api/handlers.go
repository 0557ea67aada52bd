package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/stock"
	"github.com/example/storefront/internal/notification"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/tenant"
)

type Handlers struct {
	orders   *order.Service
	checkout *checkout.Orchestrator
	payments *payment.Service
	notifier notification.Notifier
}

func NewHandlers(orders *order.Service, co *checkout.Orchestrator, payments *payment.Service, notifier notification.Notifier) *Handlers {
	return &Handlers{
		orders:   orders,
		checkout: co,
		payments: payments,
		notifier: notifier,
	}
}

// Order Handlers

type createOrderRequest struct {
	StoreID       string               `json:"store_id"`
	Items         []checkout.ItemInput `json:"items"`
	Address       order.Address        `json:"address"`
	PaymentMethod order.Method         `json:"payment_method"`
	Notes         string               `json:"notes"`

	// Admin-only overrides; ignored for customers.
	Tax      *int64 `json:"tax,omitempty"`
	Shipping *int64 `json:"shipping,omitempty"`
	Discount int64  `json:"discount,omitempty"`
}

type createOrderResponse struct {
	Order  *order.Order    `json:"order"`
	Intent *payment.Intent `json:"intent,omitempty"`
	// PaymentError is set when the order was created but the gateway intent
	// could not be; the client retries via POST /payments/intent.
	PaymentError string `json:"payment_error,omitempty"`
}

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.StoreID == "" {
		respondError(w, "store_id is required", http.StatusBadRequest)
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = order.MethodMercadoPago
	}

	privileged := claims.Role == auth.RoleAdmin || claims.Role == auth.RoleSuperAdmin
	in := checkout.Input{
		UserID:        claims.UserID,
		StoreID:       req.StoreID,
		Items:         req.Items,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		Privileged:    privileged,
	}
	if privileged {
		in.Tax = req.Tax
		in.Shipping = req.Shipping
		in.Discount = req.Discount
	}

	result, err := h.checkout.Process(r.Context(), in)
	if err != nil && result == nil {
		h.respondServiceError(w, err)
		return
	}

	resp := createOrderResponse{Order: result.Order, Intent: result.Intent}
	if err != nil {
		// The order survived but the gateway intent did not: surface the
		// gateway failure, with the order in the body so the client can
		// retry via POST /payments/intent.
		resp.PaymentError = "payment intent could not be created, retry via POST /payments/intent"
		respondJSON(w, http.StatusBadGateway, resp)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Admins list their store's orders, optionally filtered; everyone else
	// sees their own orders.
	storeID := r.URL.Query().Get("store_id")
	if storeID != "" && claims.ManagesStore(storeID) {
		f := order.Filter{
			Status:        order.Status(r.URL.Query().Get("status")),
			PaymentStatus: order.PaymentStatus(r.URL.Query().Get("payment_status")),
			Page:          atoiDefault(r.URL.Query().Get("page"), 1),
			Limit:         atoiDefault(r.URL.Query().Get("limit"), 0),
		}
		orders, err := h.orders.ListByStore(r.Context(), storeID, f)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, orders)
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !canAccessOrder(r, o) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/status")

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	target := order.Status(req.Status)
	// Customers may only cancel their own orders; everything else is an
	// admin operation on the order's store.
	if target == order.StatusCancelled && o.UserID == claims.UserID {
		// allowed
	} else if !claims.ManagesStore(o.StoreID) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}

	o, err = h.orders.TransitionStatus(r.Context(), id, target, claims.Email, req.Note)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	// Best-effort buyer notification; the transition already committed.
	_ = h.notifier.Send(r.Context(), notification.Message{
		Kind:   notification.KindOrderStatusUpdate,
		UserID: o.UserID,
		Order:  o,
	})

	respondJSON(w, http.StatusOK, o)
}

type paymentStatusUpdateRequest struct {
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	Note          string `json:"note"`
}

func (h *Handlers) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/payment-status")

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !claims.ManagesStore(o.StoreID) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}

	var req paymentStatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	note := req.Note
	if note == "" {
		note = "manual update by " + claims.Email
	}
	o, _, err = h.orders.TransitionPaymentStatus(r.Context(), id,
		order.PaymentStatus(req.PaymentStatus), req.TransactionID, req.Amount, note)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) GetOrderPaymentStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/payment-status")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !canAccessOrder(r, o) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"order_id":       o.ID,
		"payment_status": o.PaymentStatus,
		"payment_method": o.PaymentMethod,
		"transaction":    o.Transaction,
		"payments":       o.Payments,
	})
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !claims.ManagesStore(o.StoreID) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.orders.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// Payment Handlers

type createIntentRequest struct {
	OrderID string `json:"order_id"`
}

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		respondError(w, "order_id is required", http.StatusBadRequest)
		return
	}

	o, err := h.orders.Get(r.Context(), req.OrderID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if o.UserID != claims.UserID && !claims.ManagesStore(o.StoreID) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}

	intent, o, err := h.payments.CreateIntent(r.Context(), req.OrderID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"intent": intent, "order": o})
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/payments/")

	rec, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

func (h *Handlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/payments/"), "/refund")

	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	o, err := h.orders.Get(r.Context(), orderID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !claims.ManagesStore(o.StoreID) {
		respondError(w, "forbidden", http.StatusForbidden)
		return
	}

	var req refundRequest
	// Empty body means a full refund.
	_ = json.NewDecoder(r.Body).Decode(&req)

	refund, o, err := h.payments.Refund(r.Context(), orderID, req.Amount, claims.Email)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"refund": refund, "order": o})
}

// Helper functions

// respondServiceError maps domain errors onto HTTP status codes.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	var insufficient *stock.InsufficientStockError
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, tenant.ErrStoreNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, stock.ErrEntryNotFound),
		errors.Is(err, auth.ErrUserNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &insufficient),
		errors.Is(err, order.ErrConcurrencyConflict):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, payment.ErrGateway):
		respondError(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, checkout.ErrValidation),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInvalidPaymentStatus),
		errors.Is(err, order.ErrInvalidPaymentTransition),
		errors.Is(err, order.ErrTotalMismatch),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, stock.ErrInvalidQuantity),
		errors.Is(err, payment.ErrPaymentConfig),
		errors.Is(err, payment.ErrInvalidState):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, "internal server error", http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// canAccessOrder reports whether the request may read the order: the buyer,
// the store's admin, or a superadmin.
func canAccessOrder(r *http.Request, o *order.Order) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	if o.UserID == claims.UserID {
		return true
	}
	return claims.ManagesStore(o.StoreID)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
