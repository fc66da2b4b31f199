package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func init() {
	// Storefront clients read prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type MenuItem struct {
	ID             string                      `json:"id" gorm:"primaryKey;size:64"`
	Name           string                      `json:"name" gorm:"not null"`
	Description    string                      `json:"description"`
	Price          decimal.Decimal             `json:"price" gorm:"type:numeric(10,2);not null"`
	Category       string                      `json:"category" gorm:"index"` // CategoryConfig.Name
	Image          string                      `json:"image"`
	IsVegetarian   bool                        `json:"is_vegetarian"`
	IsSpicy        bool                        `json:"is_spicy"` // legacy, superseded by SpicyLevel
	SpicyLevel     SpicyLevel                  `json:"spicy_level" gorm:"size:16"`
	IsChefChoice   bool                        `json:"is_chef_choice"`
	IsExclusive    bool                        `json:"is_exclusive"`
	IsUnavailable  bool                        `json:"is_unavailable"`
	IsFlashSale    bool                        `json:"is_flash_sale"`
	FlashSalePrice *decimal.Decimal            `json:"flash_sale_price,omitempty" gorm:"type:numeric(10,2)"`
	IsHappyHour    bool                        `json:"is_happy_hour"`
	HappyHourPrice *decimal.Decimal            `json:"happy_hour_price,omitempty" gorm:"type:numeric(10,2)"`
	Tags           datatypes.JSONSlice[string] `json:"tags,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

type SpicyLevel string

const (
	SpicyNone   SpicyLevel = "none"
	SpicyMild   SpicyLevel = "mild"
	SpicyMedium SpicyLevel = "medium"
	SpicyHot    SpicyLevel = "hot"
)

func (l SpicyLevel) IsValid() bool {
	switch l {
	case SpicyNone, SpicyMild, SpicyMedium, SpicyHot:
		return true
	}
	return false
}

// Spiciness resolves the legacy IsSpicy flag when no level was recorded.
func (m MenuItem) Spiciness() SpicyLevel {
	if m.SpicyLevel != "" {
		return m.SpicyLevel
	}
	if m.IsSpicy {
		return SpicyMedium
	}
	return SpicyNone
}
