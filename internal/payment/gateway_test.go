package payment

import (
	"testing"

	"github.com/example/storefront/internal/domain/order"
	"github.com/stretchr/testify/assert"
)

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     order.PaymentStatus
	}{
		{"approved", order.PaymentCompleted},
		{"pending", order.PaymentPending},
		{"authorized", order.PaymentProcessing},
		{"in_process", order.PaymentProcessing},
		{"in_mediation", order.PaymentProcessing},
		{"rejected", order.PaymentFailed},
		{"cancelled", order.PaymentFailed},
		{"refunded", order.PaymentRefunded},
		{"charged_back", order.PaymentRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.want, MapProviderStatus(tt.provider))
		})
	}
}

func TestMapProviderStatus_UnknownFallsBackToPending(t *testing.T) {
	assert.Equal(t, order.PaymentPending, MapProviderStatus("some_future_status"))
	assert.Equal(t, order.PaymentPending, MapProviderStatus(""))
}

func TestToCentsRoundTrip(t *testing.T) {
	tests := []struct {
		units float64
		cents int64
	}{
		{0, 0},
		{10, 1000},
		{10.5, 1050},
		{0.01, 1},
		// 1050.99*100 is 105098.99999... in float64; rounding must recover it.
		{1050.99, 105099},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.cents, toCents(tt.units))
	}

	assert.InDelta(t, 10.5, toUnits(1050), 0.0001)
}
