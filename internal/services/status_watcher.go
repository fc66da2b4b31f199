package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusWatcher re-evaluates store hours and promotion windows on a ticker
// and announces when any of them flips, so clients refresh without polling.
type StatusWatcher struct {
	settings SettingsService
	events   EventPublisher
	interval time.Duration
	last     *StoreStatus
}

func NewStatusWatcher(settings SettingsService, events EventPublisher, interval time.Duration) *StatusWatcher {
	return &StatusWatcher{settings: settings, events: events, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *StatusWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check compares the current status with the previous one and reports
// whether a change was announced.
func (w *StatusWatcher) Check(ctx context.Context) bool {
	st, err := w.settings.Status(ctx)
	if err != nil {
		logrus.WithError(err).Warn("status watcher failed to load settings")
		return false
	}

	prev := w.last
	w.last = st
	if prev == nil {
		return false
	}
	if prev.IsOpen == st.IsOpen && prev.FlashSaleActive == st.FlashSaleActive && prev.HappyHourActive == st.HappyHourActive {
		return false
	}

	logrus.WithFields(logrus.Fields{
		"open":       st.IsOpen,
		"flash_sale": st.FlashSaleActive,
		"happy_hour": st.HappyHourActive,
	}).Info("storefront status changed")
	announce(ctx, w.events, CollectionStatus, "changed", "")
	return true
}
