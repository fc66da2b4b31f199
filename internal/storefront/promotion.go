package storefront

import (
	"time"

	"storefront/internal/models"
)

const DateLayout = "2006-01-02"

type PromotionState struct {
	FlashSale bool `json:"flash_sale"`
	HappyHour bool `json:"happy_hour"`
}

// FlashSaleActive requires the admin switch, today's date when one is set,
// and the clock window.
func FlashSaleActive(now time.Time, promo models.PromoSettings) bool {
	if !promo.IsFlashSaleActive {
		return false
	}
	if promo.FlashSaleDate != "" && now.Format(DateLayout) != promo.FlashSaleDate {
		return false
	}
	return IsWithinWindow(now, promo.FlashSaleStartTime, promo.FlashSaleEndTime)
}

func HappyHourActive(now time.Time, promo models.PromoSettings) bool {
	if !promo.IsHappyHourActive {
		return false
	}
	return IsWithinWindow(now, promo.HappyHourStartTime, promo.HappyHourEndTime)
}

func ActivePromotions(now time.Time, promo models.PromoSettings) PromotionState {
	return PromotionState{
		FlashSale: FlashSaleActive(now, promo),
		HappyHour: HappyHourActive(now, promo),
	}
}
