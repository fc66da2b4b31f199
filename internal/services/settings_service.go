package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/storefront"
)

// StoreStatus is what the storefront banner and ticker render.
type StoreStatus struct {
	IsOpen           bool   `json:"is_open"`
	AcceptingOrders  bool   `json:"accepting_orders"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	OpensIn          string `json:"opens_in,omitempty"` // HH:MM:SS countdown while closed
	FlashSaleActive  bool   `json:"flash_sale_active"`
	FlashSaleEndTime string `json:"flash_sale_end_time,omitempty"`
	HappyHourActive  bool   `json:"happy_hour_active"`
	HappyHourEndTime string `json:"happy_hour_end_time,omitempty"`
	Offline          bool   `json:"offline"`
}

type StorePatch struct {
	AcceptingOrders *bool   `json:"accepting_orders"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
}

type PromoPatch struct {
	IsFlashSaleActive  *bool   `json:"is_flash_sale_active"`
	FlashSaleDate      *string `json:"flash_sale_date"`
	FlashSaleStartTime *string `json:"flash_sale_start_time"`
	FlashSaleEndTime   *string `json:"flash_sale_end_time"`
	IsHappyHourActive  *bool   `json:"is_happy_hour_active"`
	HappyHourStartTime *string `json:"happy_hour_start_time"`
	HappyHourEndTime   *string `json:"happy_hour_end_time"`
}

type SettingsService interface {
	Get(ctx context.Context) (*models.Settings, error)
	UpdateStore(ctx context.Context, patch StorePatch) (*models.Settings, error)
	UpdatePromos(ctx context.Context, patch PromoPatch) (*models.Settings, error)
	Status(ctx context.Context) (*StoreStatus, error)
}

type settingsService struct {
	repo   repository.SettingsRepository
	conn   *Connectivity
	events EventPublisher
	now    Clock
}

func NewSettingsService(repo repository.SettingsRepository, conn *Connectivity, events EventPublisher, now Clock) SettingsService {
	return &settingsService{repo: repo, conn: conn, events: events, now: now}
}

// Get falls back to the default settings until an admin saves them.
func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	settings, err := s.repo.Get(ctx)
	if err != nil {
		if database.IsNotFound(err) {
			def := models.DefaultSettings(s.now().Format(storefront.DateLayout))
			return &def, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *settingsService) UpdateStore(ctx context.Context, patch StorePatch) (*models.Settings, error) {
	v := &ValidationError{}
	checkClock(v, "start_time", patch.StartTime)
	checkClock(v, "end_time", patch.EndTime)
	if err := v.orNil(); err != nil {
		return nil, err
	}

	return s.update(ctx, func(st *models.Settings) {
		if patch.AcceptingOrders != nil {
			st.AcceptingOrders = *patch.AcceptingOrders
		}
		setString(&st.StartTime, patch.StartTime)
		setString(&st.EndTime, patch.EndTime)
	})
}

func (s *settingsService) UpdatePromos(ctx context.Context, patch PromoPatch) (*models.Settings, error) {
	v := &ValidationError{}
	checkClock(v, "flash_sale_start_time", patch.FlashSaleStartTime)
	checkClock(v, "flash_sale_end_time", patch.FlashSaleEndTime)
	checkClock(v, "happy_hour_start_time", patch.HappyHourStartTime)
	checkClock(v, "happy_hour_end_time", patch.HappyHourEndTime)
	if patch.FlashSaleDate != nil {
		if d := strings.TrimSpace(*patch.FlashSaleDate); d != "" {
			if _, err := time.Parse(storefront.DateLayout, d); err != nil {
				v.add("flash_sale_date", "must be YYYY-MM-DD")
			}
		}
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	return s.update(ctx, func(st *models.Settings) {
		if patch.IsFlashSaleActive != nil {
			st.IsFlashSaleActive = *patch.IsFlashSaleActive
		}
		if patch.IsHappyHourActive != nil {
			st.IsHappyHourActive = *patch.IsHappyHourActive
		}
		setString(&st.FlashSaleDate, patch.FlashSaleDate)
		setString(&st.FlashSaleStartTime, patch.FlashSaleStartTime)
		setString(&st.FlashSaleEndTime, patch.FlashSaleEndTime)
		setString(&st.HappyHourStartTime, patch.HappyHourStartTime)
		setString(&st.HappyHourEndTime, patch.HappyHourEndTime)
	})
}

func (s *settingsService) update(ctx context.Context, apply func(*models.Settings)) (*models.Settings, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}

	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	apply(settings)

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionSettings, "updated", models.GeneralSettingsID)
	return settings, nil
}

func (s *settingsService) Status(ctx context.Context) (*StoreStatus, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return buildStatus(now, settings, s.conn.Offline()), nil
}

func buildStatus(now time.Time, settings *models.Settings, offline bool) *StoreStatus {
	promos := storefront.ActivePromotions(now, settings.PromoSettings)
	st := &StoreStatus{
		IsOpen:          storefront.IsStoreOpen(now, settings.StoreSettings),
		AcceptingOrders: settings.AcceptingOrders,
		StartTime:       settings.StartTime,
		EndTime:         settings.EndTime,
		FlashSaleActive: promos.FlashSale,
		HappyHourActive: promos.HappyHour,
		Offline:         offline,
	}
	if !st.IsOpen && settings.AcceptingOrders {
		if d, ok := storefront.UntilNext(now, settings.StartTime); ok {
			st.OpensIn = storefront.FormatCountdown(d)
		}
	}
	if promos.FlashSale {
		st.FlashSaleEndTime = settings.FlashSaleEndTime
	}
	if promos.HappyHour {
		st.HappyHourEndTime = settings.HappyHourEndTime
	}
	return st
}

func checkClock(v *ValidationError, field string, value *string) {
	if value == nil {
		return
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return
	}
	if _, ok := storefront.ParseClock(s); !ok {
		v.add(field, "must be HH:MM")
	}
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
