package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// Discount never exceeds the subtotal and is never negative.
func Discount(subtotal decimal.Decimal, coupon *models.Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}

	var d decimal.Decimal
	if coupon.Type == models.CouponPercent {
		d = subtotal.Mul(coupon.Value).Div(hundred).Round(2)
	} else {
		d = coupon.Value
	}

	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d
}

func ComputeTotals(subtotal decimal.Decimal, coupon *models.Coupon, orderType models.OrderType, deliveryFee decimal.Decimal) Totals {
	t := Totals{
		Subtotal:       subtotal,
		Discount:       Discount(subtotal, coupon),
		DeliveryCharge: decimal.Zero,
	}
	if orderType == models.OrderDelivery {
		t.DeliveryCharge = deliveryFee
	}
	t.Total = t.Subtotal.Sub(t.Discount).Add(t.DeliveryCharge)
	return t
}
