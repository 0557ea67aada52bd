package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *order.Order {
	return &order.Order{
		ID:      "ord-1",
		StoreID: "store-1",
		UserID:  "user-1",
		Items: []order.LineItem{
			{ProductID: "p1", Name: "T-Shirt", Variant: "M", Quantity: 2, UnitPrice: 100000, Subtotal: 200000},
		},
		Address:      order.Address{Name: "Ana", Street: "Main 1", PostalCode: "1000", Phone: "555"},
		Subtotal:     200000,
		ShippingCost: 30000,
		Total:        230000,
	}
}

func testStore() *tenant.Store {
	return &tenant.Store{
		ID:      "store-1",
		Name:    "Test Store",
		Payment: tenant.PaymentConfig{Enabled: true},
	}
}

func TestCreateIntent_RequestShape(t *testing.T) {
	var got preferenceRequest
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/checkout/preferences", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(preferenceResponse{
			ID:               "pref-1",
			InitPoint:        "https://mp.test/pay/pref-1",
			SandboxInitPoint: "https://sandbox.mp.test/pay/pref-1",
		})
	}))
	defer srv.Close()

	mp := NewMercadoPago(Config{
		AccessToken: "platform-token",
		BaseURL:     srv.URL,
		FrontendURL: "https://shop.test",
		BackendURL:  "https://api.shop.test",
	})

	intent, err := mp.CreateIntent(context.Background(), testOrder(), testStore())
	require.NoError(t, err)
	assert.Equal(t, "pref-1", intent.ID)
	assert.Equal(t, "https://mp.test/pay/pref-1", intent.InitPoint)

	assert.Equal(t, "Bearer platform-token", authHeader)
	assert.Equal(t, "ORDER-ord-1", got.ExternalReference)
	assert.Equal(t, "https://api.shop.test/payments/webhook", got.NotificationURL)
	assert.Equal(t, "https://shop.test/order/success", got.BackURLs.Success)
	assert.Equal(t, "ord-1", got.Metadata["order_id"])

	// Line item plus the shipping pseudo-item, amounts in currency units.
	require.Len(t, got.Items, 2)
	assert.Equal(t, "T-Shirt (M)", got.Items[0].Title)
	assert.InDelta(t, 1000.0, got.Items[0].UnitPrice, 0.001)
	assert.Equal(t, "shipping", got.Items[1].ID)
	assert.InDelta(t, 300.0, got.Items[1].UnitPrice, 0.001)
}

func TestCreateIntent_StoreTokenOverridesPlatform(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(preferenceResponse{ID: "pref-1"})
	}))
	defer srv.Close()

	mp := NewMercadoPago(Config{AccessToken: "platform-token", BaseURL: srv.URL})
	st := testStore()
	st.Payment.AccessToken = "store-token"

	_, err := mp.CreateIntent(context.Background(), testOrder(), st)
	require.NoError(t, err)
	assert.Equal(t, "Bearer store-token", authHeader)
}

func TestCreateIntent_PaymentsDisabled(t *testing.T) {
	mp := NewMercadoPago(Config{AccessToken: "platform-token"})
	st := testStore()
	st.Payment.Enabled = false

	_, err := mp.CreateIntent(context.Background(), testOrder(), st)
	assert.ErrorIs(t, err, ErrPaymentConfig)
}

func TestCreateIntent_NoTokenAnywhere(t *testing.T) {
	mp := NewMercadoPago(Config{})

	_, err := mp.CreateIntent(context.Background(), testOrder(), testStore())
	assert.ErrorIs(t, err, ErrPaymentConfig)
}

func TestFetchPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/123456", r.URL.Path)
		// Numeric id, as the provider actually sends it.
		w.Write([]byte(`{
			"id": 123456,
			"status": "approved",
			"status_detail": "accredited",
			"transaction_amount": 2300.00,
			"payment_type_id": "credit_card",
			"installments": 3,
			"external_reference": "ORDER-ord-1",
			"payer": {"email": "ana@example.com"}
		}`))
	}))
	defer srv.Close()

	mp := NewMercadoPago(Config{AccessToken: "tok", BaseURL: srv.URL})
	rec, err := mp.FetchPayment(context.Background(), "123456")

	require.NoError(t, err)
	assert.Equal(t, "123456", rec.ID)
	assert.Equal(t, "approved", rec.Status)
	assert.Equal(t, int64(230000), rec.Amount)
	assert.Equal(t, "credit_card", rec.Type)
	assert.Equal(t, 3, rec.Installments)
	assert.Equal(t, "ORDER-ord-1", rec.ExternalReference)
	assert.Equal(t, "ana@example.com", rec.PayerEmail)
}

func TestFetchPayment_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"payment not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	mp := NewMercadoPago(Config{AccessToken: "tok", BaseURL: srv.URL})
	_, err := mp.FetchPayment(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrGateway)
}

func TestFetchPayment_MissingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	mp := NewMercadoPago(Config{AccessToken: "tok", BaseURL: srv.URL})
	_, err := mp.FetchPayment(context.Background(), "1")

	assert.ErrorIs(t, err, ErrGateway)
}

func TestRefund(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payments/123/refunds", r.URL.Path)
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id": 777, "amount": 500.00}`))
	}))
	defer srv.Close()

	mp := NewMercadoPago(Config{AccessToken: "tok", BaseURL: srv.URL})

	t.Run("partial refund sends amount in units", func(t *testing.T) {
		refund, err := mp.Refund(context.Background(), "123", 50000)
		require.NoError(t, err)
		assert.Equal(t, "777", refund.ID)
		assert.Equal(t, int64(50000), refund.Amount)
		assert.InDelta(t, 500.0, gotBody["amount"].(float64), 0.001)
	})

	t.Run("full refund sends empty body", func(t *testing.T) {
		_, err := mp.Refund(context.Background(), "123", 0)
		require.NoError(t, err)
		assert.NotContains(t, gotBody, "amount")
	})
}
