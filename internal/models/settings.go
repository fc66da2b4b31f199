package models

import "time"

const GeneralSettingsID = "general"

// StoreSettings is the global operating window plus the manual override.
type StoreSettings struct {
	AcceptingOrders bool   `json:"accepting_orders"`
	StartTime       string `json:"start_time" gorm:"size:5"`
	EndTime         string `json:"end_time" gorm:"size:5"`
}

type PromoSettings struct {
	IsFlashSaleActive  bool   `json:"is_flash_sale_active"`
	FlashSaleDate      string `json:"flash_sale_date" gorm:"size:10"` // YYYY-MM-DD, empty means any day
	FlashSaleStartTime string `json:"flash_sale_start_time" gorm:"size:5"`
	FlashSaleEndTime   string `json:"flash_sale_end_time" gorm:"size:5"`
	IsHappyHourActive  bool   `json:"is_happy_hour_active"`
	HappyHourStartTime string `json:"happy_hour_start_time" gorm:"size:5"`
	HappyHourEndTime   string `json:"happy_hour_end_time" gorm:"size:5"`
}

// Settings is the singleton document holding store and promotion settings.
type Settings struct {
	ID            string `json:"-" gorm:"primaryKey;size:32"`
	StoreSettings `gorm:"embedded"`
	PromoSettings `gorm:"embedded"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func DefaultSettings(today string) Settings {
	return Settings{
		ID: GeneralSettingsID,
		StoreSettings: StoreSettings{
			AcceptingOrders: true,
			StartTime:       "07:00",
			EndTime:         "23:00",
		},
		PromoSettings: PromoSettings{
			FlashSaleDate:      today,
			FlashSaleStartTime: "18:00",
			FlashSaleEndTime:   "21:00",
			HappyHourStartTime: "16:00",
			HappyHourEndTime:   "18:00",
		},
	}
}
