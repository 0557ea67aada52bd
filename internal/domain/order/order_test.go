package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to processing", StatusPending, StatusProcessing, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to shipped", StatusPending, StatusShipped, false},
		{"pending to delivered", StatusPending, StatusDelivered, false},
		{"processing to shipped", StatusProcessing, StatusShipped, true},
		{"processing to cancelled", StatusProcessing, StatusCancelled, true},
		{"processing to pending", StatusProcessing, StatusPending, false},
		{"shipped to delivered", StatusShipped, StatusDelivered, true},
		{"shipped to cancelled", StatusShipped, StatusCancelled, true},
		{"delivered is terminal", StatusDelivered, StatusCancelled, false},
		{"cancelled is terminal", StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to))
		})
	}
}

func TestCanTransitionPaymentTo(t *testing.T) {
	tests := []struct {
		name    string
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{"pending to processing", PaymentPending, PaymentProcessing, true},
		{"pending to completed", PaymentPending, PaymentCompleted, true},
		{"pending to failed", PaymentPending, PaymentFailed, true},
		{"pending to refunded", PaymentPending, PaymentRefunded, false},
		{"processing back to pending", PaymentProcessing, PaymentPending, true},
		{"processing to completed", PaymentProcessing, PaymentCompleted, true},
		{"completed to refunded", PaymentCompleted, PaymentRefunded, true},
		{"completed to failed", PaymentCompleted, PaymentFailed, false},
		{"completed to pending", PaymentCompleted, PaymentPending, false},
		{"failed retried to pending", PaymentFailed, PaymentPending, true},
		{"failed retried to completed", PaymentFailed, PaymentCompleted, true},
		{"refunded is terminal", PaymentRefunded, PaymentPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{PaymentStatus: tt.from}
			assert.Equal(t, tt.allowed, o.CanTransitionPaymentTo(tt.to))
		})
	}
}

func TestPaymentStatusRank(t *testing.T) {
	// Rank must strictly increase along the payment lifecycle so stale
	// gateway states can be detected.
	assert.Less(t, PaymentPending.Rank(), PaymentProcessing.Rank())
	assert.Less(t, PaymentProcessing.Rank(), PaymentFailed.Rank())
	assert.Less(t, PaymentFailed.Rank(), PaymentCompleted.Rank())
	assert.Less(t, PaymentCompleted.Rank(), PaymentRefunded.Rank())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus(Status("unknown")))
	assert.False(t, ValidStatus(Status("")))

	assert.True(t, ValidPaymentStatus(PaymentRefunded))
	assert.False(t, ValidPaymentStatus(PaymentStatus("approved")))
}

func TestValidateTotals(t *testing.T) {
	base := func() *Order {
		return &Order{
			Items: []LineItem{
				{ProductID: "p1", Quantity: 2, UnitPrice: 100000, Subtotal: 200000},
				{ProductID: "p2", Quantity: 1, UnitPrice: 50000, Subtotal: 50000},
			},
			Subtotal:     250000,
			Tax:          25000,
			ShippingCost: 30000,
			Discount:     0,
			Total:        305000,
		}
	}

	t.Run("valid order", func(t *testing.T) {
		require.NoError(t, base().ValidateTotals())
	})

	t.Run("line subtotal mismatch", func(t *testing.T) {
		o := base()
		o.Items[0].Subtotal = 199999
		o.Subtotal = 249999
		o.Total = 304999
		assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
	})

	t.Run("subtotal does not match items", func(t *testing.T) {
		o := base()
		o.Subtotal = 260000
		assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
	})

	t.Run("total does not add up", func(t *testing.T) {
		o := base()
		o.Total = 300000
		assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
	})

	t.Run("zero quantity", func(t *testing.T) {
		o := base()
		o.Items[0].Quantity = 0
		assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
	})

	t.Run("negative discount", func(t *testing.T) {
		o := base()
		o.Discount = -1
		assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
	})

	t.Run("discount exceeding total", func(t *testing.T) {
		o := base()
		o.Discount = 400000
		o.Total = -95000
		assert.ErrorIs(t, o.ValidateTotals(), ErrTotalMismatch)
	})

	t.Run("discount consuming the whole total", func(t *testing.T) {
		o := base()
		o.Discount = 305000
		o.Total = 0
		require.NoError(t, o.ValidateTotals())
	})
}

func TestExternalReference(t *testing.T) {
	o := &Order{ID: "abc-123"}
	assert.Equal(t, "ORDER-abc-123", o.ExternalReference())
	assert.True(t, strings.HasPrefix(o.ExternalReference(), ExternalReferencePrefix))
}

func TestNewCode(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	code := NewCode(now)

	assert.True(t, strings.HasPrefix(code, "ORD-260828-"))
	assert.Len(t, code, len("ORD-260828-0000"))
}
