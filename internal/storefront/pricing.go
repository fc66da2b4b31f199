package storefront

import (
	"github.com/shopspring/decimal"

	"storefront/internal/models"
)

// EffectivePrice picks the flash-sale price, then the happy-hour price, then
// the base price. A promotion price that is missing or zero does not apply.
func EffectivePrice(item models.MenuItem, state PromotionState) decimal.Decimal {
	if state.FlashSale && item.IsFlashSale {
		if p, ok := promoPrice(item.FlashSalePrice); ok {
			return p
		}
	}
	if state.HappyHour && item.IsHappyHour {
		if p, ok := promoPrice(item.HappyHourPrice); ok {
			return p
		}
	}
	return item.Price
}

func promoPrice(p *decimal.Decimal) (decimal.Decimal, bool) {
	if p == nil || p.IsZero() {
		return decimal.Zero, false
	}
	return *p, true
}
