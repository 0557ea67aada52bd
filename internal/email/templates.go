package email

import (
	"fmt"
	"strings"

	"github.com/example/storefront/internal/domain/order"
)

// BuildOrderConfirmationBody builds the HTML body for the buyer's order
// confirmation email
func BuildOrderConfirmationBody(name string, o *order.Order) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">Thank you for your order</h1>
	</div>

	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">%s, we received your order and will start preparing it right away.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">%s</p>
		</div>

		<h2 style="font-size: 18px; border-bottom: 2px solid #667eea; padding-bottom: 10px;">Order details</h2>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
					<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
					<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
		</table>

		%s

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #667eea; margin-left: 10px;">%s</span>
		</div>

		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			This is an automated message. If you have any questions, please contact support.
		</p>
	</div>
</body>
</html>`, greeting, o.Code, itemRows(o.Items), totalsBlock(o), FormatMoney(o.Total))
}

// BuildNewOrderAlertBody builds the alert sent to the store's contact address
func BuildNewOrderAlertBody(o *order.Order) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 20px;">New order %s</h1>
	<p>Payment method: <strong>%s</strong> · Payment status: <strong>%s</strong></p>
	<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
		<thead>
			<tr style="background: #f8f9fa;">
				<th style="padding: 12px; text-align: left; font-weight: 600;">Item</th>
				<th style="padding: 12px; text-align: center; font-weight: 600;">Qty</th>
				<th style="padding: 12px; text-align: right; font-weight: 600;">Unit price</th>
				<th style="padding: 12px; text-align: right; font-weight: 600;">Subtotal</th>
			</tr>
		</thead>
		<tbody>
			%s
		</tbody>
	</table>
	<p style="font-size: 18px; font-weight: bold;">Total: %s</p>
	<p>Ship to: %s, %s, %s %s</p>
</body>
</html>`, o.Code, o.PaymentMethod, o.PaymentStatus, itemRows(o.Items), FormatMoney(o.Total),
		o.Address.Street, o.Address.City, o.Address.PostalCode, o.Address.Country)
}

// BuildOrderStatusUpdateBody builds the buyer-facing status change email
func BuildOrderStatusUpdateBody(name string, o *order.Order) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 20px;">Your order has been updated</h1>
	<p>%s, your order <strong style="font-family: monospace;">%s</strong> is now:</p>
	<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0; text-align: center;">
		<span style="font-size: 22px; font-weight: bold; color: #667eea; text-transform: uppercase;">%s</span>
	</div>
	<p style="font-size: 12px; color: #999;">This is an automated message. If you have any questions, please contact support.</p>
</body>
</html>`, greeting, o.Code, o.Status)
}

// BuildPaymentConfirmationBody builds the buyer-facing payment received email
func BuildPaymentConfirmationBody(name string, o *order.Order) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + name
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 20px;">Payment received</h1>
	<p>%s, we received your payment of <strong>%s</strong> for order <strong style="font-family: monospace;">%s</strong>.</p>
	<p>We will let you know as soon as it ships.</p>
	<p style="font-size: 12px; color: #999;">This is an automated message. If you have any questions, please contact support.</p>
</body>
</html>`, greeting, FormatMoney(o.Total), o.Code)
}

func itemRows(items []order.LineItem) string {
	var rows strings.Builder
	for _, item := range items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		if item.Variant != "" {
			name = name + " (" + item.Variant + ")"
		}
		rows.WriteString(fmt.Sprintf(
			`<tr>
				<td style="padding: 12px; border-bottom: 1px solid #eee;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
				<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			</tr>`,
			name,
			item.Quantity,
			FormatMoney(item.UnitPrice),
			FormatMoney(item.Subtotal),
		))
	}
	return rows.String()
}

func totalsBlock(o *order.Order) string {
	var b strings.Builder
	b.WriteString(`<table style="width: 100%; margin: 10px 0; font-size: 14px; color: #666;">`)
	line := func(label string, amount int64) {
		b.WriteString(fmt.Sprintf(
			`<tr><td style="padding: 4px 12px;">%s</td><td style="padding: 4px 12px; text-align: right;">%s</td></tr>`,
			label, FormatMoney(amount)))
	}
	line("Subtotal", o.Subtotal)
	if o.Tax > 0 {
		line("Tax", o.Tax)
	}
	if o.ShippingCost > 0 {
		line("Shipping", o.ShippingCost)
	}
	if o.Discount > 0 {
		line("Discount", -o.Discount)
	}
	b.WriteString(`</table>`)
	return b.String()
}

// FormatMoney renders an amount in cents as a currency string with comma
// separators, e.g. 305000 -> "$3,050.00".
func FormatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := cents / 100
	frac := cents % 100

	str := fmt.Sprintf("%d", units)
	var grouped strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		grouped.WriteString(str[:remainder])
		if len(str) > remainder {
			grouped.WriteString(",")
		}
	}
	for i := remainder; i < len(str); i += 3 {
		grouped.WriteString(str[i : i+3])
		if i+3 < len(str) {
			grouped.WriteString(",")
		}
	}

	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), frac)
}
