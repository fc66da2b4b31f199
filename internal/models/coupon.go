package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Coupon struct {
	ID        string          `json:"id" gorm:"primaryKey;size:64"`
	Code      string          `json:"code" gorm:"uniqueIndex;not null"` // always uppercase
	Value     decimal.Decimal `json:"value" gorm:"type:numeric(10,2);not null"`
	Type      CouponType      `json:"type" gorm:"size:16;not null"`
	CreatedAt time.Time       `json:"created_at"`
}

type CouponType string

const (
	CouponFlat    CouponType = "flat"
	CouponPercent CouponType = "percent"
)

func (t CouponType) IsValid() bool {
	return t == CouponFlat || t == CouponPercent
}
