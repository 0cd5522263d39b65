// internal/adapters/out/mail/order_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"

	orderdom "steepery/internal/domain/order"
)

// OrderMailer sends the order confirmation email through an EmailClient.
// It satisfies the checkout usecase's OrderMailer port.
type OrderMailer struct {
	client      EmailClient
	fromAddress string
}

func NewOrderMailer(client EmailClient, fromAddress string) *OrderMailer {
	return &OrderMailer{
		client:      client,
		fromAddress: fromAddress,
	}
}

// SendOrderConfirmation renders a plain-text receipt for the committed order
// and hands it to the client. The caller decides whether failures matter.
func (m *OrderMailer) SendOrderConfirmation(ctx context.Context, toEmail string, o *orderdom.Order) error {
	subject := fmt.Sprintf("Your Steepery order %s", o.OrderNumber)
	return m.client.Send(ctx, m.fromAddress, strings.TrimSpace(toEmail), subject, buildOrderBody(o))
}

func buildOrderBody(o *orderdom.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Thank you for your order!\n\n")
	fmt.Fprintf(&b, "Order number: %s\n", o.OrderNumber)
	fmt.Fprintf(&b, "Placed at:    %s\n\n", o.CreatedAt.Format("2006-01-02 15:04 MST"))

	b.WriteString("Items\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %-40s x%-3d %s\n", it.ProductName, it.Quantity, formatCents(it.PriceCents*int64(it.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\n", formatCents(o.TotalCents))

	b.WriteString("Shipping to\n")
	fmt.Fprintf(&b, "  %s\n", o.Shipping.Name)
	fmt.Fprintf(&b, "  %s\n", o.Shipping.Street)
	fmt.Fprintf(&b, "  %s, %s %s\n", o.Shipping.City, o.Shipping.State, o.Shipping.ZipCode)
	fmt.Fprintf(&b, "  %s\n\n", o.Shipping.Country)

	b.WriteString("-- \nSteepery")
	return b.String()
}

// formatCents renders integer cents as a dollar amount, e.g. 1424 -> "$14.24".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
