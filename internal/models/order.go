package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID             string          `json:"id" gorm:"primaryKey;size:12"`
	Items          []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal       decimal.Decimal `json:"subtotal" gorm:"type:numeric(10,2)"`
	Discount       decimal.Decimal `json:"discount" gorm:"type:numeric(10,2)"`
	CouponCode     *string         `json:"coupon_code"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge" gorm:"type:numeric(10,2)"`
	Total          decimal.Decimal `json:"total" gorm:"type:numeric(10,2);not null"`
	CustomerName   string          `json:"customer_name" gorm:"not null"`
	ContactNumber  string          `json:"contact_number" gorm:"not null"`
	Address        string          `json:"address,omitempty"`
	Type           OrderType       `json:"type" gorm:"size:16;not null"`
	Status         OrderStatus     `json:"status" gorm:"size:32;index;default:'pending'"`
	Timestamp      string          `json:"timestamp"` // e.g. "7:45 PM"
	Date           string          `json:"date"`
	CreatedAt      int64           `json:"created_at" gorm:"autoCreateTime:milli;index"`
	UpdatedAt      time.Time       `json:"updated_at"`
	TrackingLink   string          `json:"tracking_link"`
}

// OrderItem is an immutable snapshot of a cart line taken at checkout.
type OrderItem struct {
	ID         uint            `json:"-" gorm:"primaryKey"`
	OrderID    string          `json:"-" gorm:"size:12;index;not null"`
	MenuItemID string          `json:"menu_item_id" gorm:"size:64"`
	Name       string          `json:"name" gorm:"not null"`
	Category   string          `json:"category"`
	Image      string          `json:"image,omitempty"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:numeric(10,2);not null"`
	LineTotal  decimal.Decimal `json:"line_total" gorm:"type:numeric(10,2);not null"`
}

type OrderType string

const (
	OrderDelivery OrderType = "delivery"
	OrderPickup   OrderType = "pickup"
)

func (t OrderType) IsValid() bool {
	return t == OrderDelivery || t == OrderPickup
}

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderPreparing      OrderStatus = "preparing"
	OrderReady          OrderStatus = "ready"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

var statusRank = map[OrderStatus]int{
	OrderPending:        0,
	OrderPreparing:      1,
	OrderReady:          2,
	OrderOutForDelivery: 3,
	OrderDelivered:      4,
}

func (s OrderStatus) IsValid() bool {
	_, ok := statusRank[s]
	return ok || s == OrderCancelled
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo allows forward moves along the kitchen pipeline, skipping
// steps included, and cancellation from any non-terminal state. Setting the
// current status again is accepted.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}
