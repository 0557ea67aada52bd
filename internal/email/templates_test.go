package email

import (
	"testing"

	"github.com/example/storefront/internal/domain/order"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{1, "$0.01"},
		{100, "$1.00"},
		{305000, "$3,050.00"},
		{123456789, "$1,234,567.89"},
		{-50000, "-$500.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.cents))
	}
}

func TestBuildOrderConfirmationBody(t *testing.T) {
	o := &order.Order{
		Code: "ORD-260828-0042",
		Items: []order.LineItem{
			{ProductID: "p1", Name: "T-Shirt", Variant: "M", Quantity: 2, UnitPrice: 100000, Subtotal: 200000},
			{ProductID: "p2", Quantity: 1, UnitPrice: 50000, Subtotal: 50000},
		},
		Subtotal:     250000,
		Tax:          25000,
		ShippingCost: 30000,
		Total:        305000,
	}

	body := BuildOrderConfirmationBody("Ana", o)

	assert.Contains(t, body, "Hello Ana")
	assert.Contains(t, body, "ORD-260828-0042")
	assert.Contains(t, body, "T-Shirt (M)")
	// Items without a name fall back to the product id.
	assert.Contains(t, body, "p2")
	assert.Contains(t, body, "$3,050.00")
	assert.Contains(t, body, "Shipping")
}

func TestBuildOrderStatusUpdateBody(t *testing.T) {
	o := &order.Order{Code: "ORD-1", Status: order.StatusShipped}

	body := BuildOrderStatusUpdateBody("", o)

	assert.Contains(t, body, "Hello,")
	assert.Contains(t, body, "shipped")
}
