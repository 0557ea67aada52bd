package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/dedup"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store/mocks"
	"github.com/example/storefront/internal/payment"
	"github.com/example/storefront/internal/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	handler *api.WebhookHandlers
	orders  *order.Service
	gateway *mocks.MockGateway
}

func newWebhookFixture(t *testing.T, testMode bool) (*webhookFixture, *order.Order) {
	t.Helper()

	repo := mocks.NewMockOrderRepo()
	orders := order.NewService(repo, mocks.NewMockStockLedger())
	gateway := mocks.NewMockGateway()
	engine := reconcile.NewEngine(dedup.NewMemorySeenStore(dedup.DefaultTTL), gateway, orders, mocks.NewMockNotifier(), testMode)

	o, err := orders.Create(context.Background(), order.Draft{
		StoreID:       "store-1",
		UserID:        "user-1",
		Items:         []order.LineItem{{ProductID: "p1", Quantity: 1, UnitPrice: 100000, Subtotal: 100000}},
		PaymentMethod: order.MethodMercadoPago,
		Subtotal:      100000,
		Total:         100000,
	})
	require.NoError(t, err)

	return &webhookFixture{
		handler: api.NewWebhookHandlers(engine),
		orders:  orders,
		gateway: gateway,
	}, o
}

func postWebhook(f *webhookFixture, body, requestID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	rec := httptest.NewRecorder()
	f.handler.HandlePaymentWebhook(rec, req)
	return rec
}

func TestHandlePaymentWebhook_Applies(t *testing.T) {
	f, o := newWebhookFixture(t, false)
	f.gateway.Records["pay-1"] = &payment.Record{
		ID:                "pay-1",
		Status:            "approved",
		Amount:            o.Total,
		ExternalReference: o.ExternalReference(),
	}

	rec := postWebhook(f, `{"type":"payment","data":{"id":"pay-1"}}`, "req-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "applied")

	got, _ := f.orders.Get(context.Background(), o.ID)
	assert.Equal(t, order.PaymentCompleted, got.PaymentStatus)
}

func TestHandlePaymentWebhook_DuplicateStillReturns200(t *testing.T) {
	f, o := newWebhookFixture(t, false)
	f.gateway.Records["pay-1"] = &payment.Record{
		ID:                "pay-1",
		Status:            "approved",
		Amount:            o.Total,
		ExternalReference: o.ExternalReference(),
	}
	body := `{"type":"payment","data":{"id":"pay-1"}}`

	first := postWebhook(f, body, "req-1")
	second := postWebhook(f, body, "req-1")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "duplicate")
	assert.Len(t, f.gateway.FetchCalls, 1)
}

func TestHandlePaymentWebhook_GatewayDownReturns200(t *testing.T) {
	f, _ := newWebhookFixture(t, false)
	f.gateway.FetchErr = assert.AnError

	rec := postWebhook(f, `{"type":"payment","data":{"id":"pay-1"}}`, "req-1")

	// The gateway retries on non-2xx; an outage must not trigger a storm.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway_unavailable")
}

func TestHandlePaymentWebhook_Malformed(t *testing.T) {
	t.Run("production rejects with 400", func(t *testing.T) {
		f, _ := newWebhookFixture(t, false)
		rec := postWebhook(f, `{"data":{"id":""}}`, "req-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("test mode accepts with 200", func(t *testing.T) {
		f, _ := newWebhookFixture(t, true)
		rec := postWebhook(f, `{"data":{"id":""}}`, "req-1")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unreadable body is 400", func(t *testing.T) {
		f, _ := newWebhookFixture(t, false)
		rec := postWebhook(f, `{not json`, "req-1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandlePaymentWebhook_QueryFallback(t *testing.T) {
	f, o := newWebhookFixture(t, false)
	f.gateway.Records["pay-1"] = &payment.Record{
		ID:                "pay-1",
		Status:            "approved",
		Amount:            o.Total,
		ExternalReference: o.ExternalReference(),
	}

	// Some gateway API versions only carry the id in the query string.
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook?type=payment&data.id=pay-1", strings.NewReader(`{}`))
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	f.handler.HandlePaymentWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	got, _ := f.orders.Get(context.Background(), o.ID)
	assert.Equal(t, order.PaymentCompleted, got.PaymentStatus)
}
