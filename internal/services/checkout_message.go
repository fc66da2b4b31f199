package services

import (
	"fmt"
	"strings"

	"storefront/internal/models"
)

// BuildCheckoutMessage renders the order summary the customer sends to the
// store over WhatsApp.
func BuildCheckoutMessage(storeName string, order *models.Order) string {
	kind := "Pickup"
	if order.Type == models.OrderDelivery {
		kind = "Delivery"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*New %s Order - %s*\n", kind, strings.ToUpper(storeName))
	fmt.Fprintf(&b, "*Order ID:* #%s\n\n", order.ID)
	fmt.Fprintf(&b, "👤 Name: %s\n📞 Contact: %s\n", order.CustomerName, order.ContactNumber)
	if order.Type == models.OrderDelivery {
		fmt.Fprintf(&b, "📍 Address: %s\n\n", order.Address)
	}
	for _, item := range order.Items {
		fmt.Fprintf(&b, "▪ %d x %s (₹%s)\n", item.Quantity, item.Name, item.UnitPrice.String())
	}
	fmt.Fprintf(&b, "\nSubtotal: ₹%s\n", order.Subtotal.StringFixed(2))
	if order.Type == models.OrderDelivery {
		fmt.Fprintf(&b, "Delivery Charge: ₹%s\n", order.DeliveryCharge.StringFixed(2))
	}
	if order.CouponCode != nil && order.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount (%s): -₹%s\n", *order.CouponCode, order.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "*TOTAL PAYABLE:* ₹%s", order.Total.StringFixed(2))
	return b.String()
}
