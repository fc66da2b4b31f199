package storefront

import (
	"time"

	"storefront/internal/models"
)

const (
	ReasonStoreClosed  = "Store Closed"
	ReasonOutsideHours = "Outside Serving Hours"
	ReasonSoldOut      = "Sold Out"
)

type Availability struct {
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
	ResumeAt    string `json:"resume_at,omitempty"` // HH:MM
}

func IsStoreOpen(now time.Time, store models.StoreSettings) bool {
	return store.AcceptingOrders && IsWithinWindow(now, store.StartTime, store.EndTime)
}

func FindCategory(categories []models.CategoryConfig, name string) (models.CategoryConfig, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	return models.CategoryConfig{}, false
}

// CheckAvailability combines the store window, the manual override and the
// category's own hours. Categories without a config are always available
// while the store is open.
func CheckAvailability(now time.Time, store models.StoreSettings, categories []models.CategoryConfig, categoryName string) Availability {
	if !IsStoreOpen(now, store) {
		a := Availability{Reason: ReasonStoreClosed}
		if store.AcceptingOrders {
			a.ResumeAt = store.StartTime
		}
		return a
	}

	cfg, ok := FindCategory(categories, categoryName)
	if !ok {
		return Availability{IsAvailable: true}
	}
	if IsWithinWindow(now, cfg.StartTime, cfg.EndTime) {
		return Availability{IsAvailable: true}
	}
	return Availability{Reason: ReasonOutsideHours, ResumeAt: cfg.StartTime}
}

// ItemAvailability also honours the per-item sold-out flag.
func ItemAvailability(now time.Time, store models.StoreSettings, categories []models.CategoryConfig, item models.MenuItem) Availability {
	a := CheckAvailability(now, store, categories, item.Category)
	if a.IsAvailable && item.IsUnavailable {
		return Availability{Reason: ReasonSoldOut}
	}
	return a
}
