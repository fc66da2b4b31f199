// Package cart implements the shopping cart: line merging, quantity
// updates, coupon application and totals.
package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/storefront"
)

var (
	ErrCouponNotFound = errors.New("invalid coupon code")
	ErrCouponRequired = errors.New("coupon code is required")
)

// Item is a menu item with a quantity. Price holds the unit price resolved
// when the line was last added to, not the catalog price.
type Item struct {
	models.MenuItem
	Quantity int `json:"quantity"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Cart struct {
	ID        string         `json:"id"`
	Items     []Item         `json:"items"`
	Coupon    *models.Coupon `json:"coupon,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func New(id string) *Cart {
	return &Cart{ID: id, Items: []Item{}}
}

func (c *Cart) indexOf(id string) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) Get(id string) (Item, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c.Items[i], true
	}
	return Item{}, false
}

// Add resolves the item's price under the given promotions. Adding an item
// already in the cart bumps its quantity and re-prices the whole line.
func (c *Cart) Add(item models.MenuItem, promos storefront.PromotionState) Item {
	price := storefront.EffectivePrice(item, promos)

	if i := c.indexOf(item.ID); i >= 0 {
		c.Items[i].Quantity++
		c.Items[i].Price = price
		return c.Items[i]
	}

	item.Price = price
	line := Item{MenuItem: item, Quantity: 1}
	c.Items = append(c.Items, line)
	return line
}

// UpdateQuantity adds delta to a line, flooring at zero. A line that reaches
// zero is removed. It reports whether the line existed.
func (c *Cart) UpdateQuantity(id string, delta int) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	q := c.Items[i].Quantity + delta
	if q <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		return true
	}
	c.Items[i].Quantity = q
	return true
}

func (c *Cart) Remove(id string) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = []Item{}
	c.Coupon = nil
}

// ApplyCoupon looks code up case-insensitively. On a miss the previously
// applied coupon, if any, stays in place.
func (c *Cart) ApplyCoupon(code string, coupons []models.Coupon) (*models.Coupon, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrCouponRequired
	}
	for i := range coupons {
		if coupons[i].Code == code {
			applied := coupons[i]
			c.Coupon = &applied
			return &applied, nil
		}
	}
	return nil, ErrCouponNotFound
}

func (c *Cart) RemoveCoupon() {
	c.Coupon = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, i := range c.Items {
		n += i.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, i := range c.Items {
		sum = sum.Add(i.LineTotal())
	}
	return sum
}

func (c *Cart) ComputeTotals(orderType models.OrderType, deliveryFee decimal.Decimal) Totals {
	return ComputeTotals(c.Subtotal(), c.Coupon, orderType, deliveryFee)
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
