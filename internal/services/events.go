package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/redis"
)

const (
	CollectionMenu       = "menu"
	CollectionCategories = "categories"
	CollectionCoupons    = "coupons"
	CollectionSettings   = "settings"
	CollectionOrders     = "orders"
	CollectionStatus     = "status"
)

type EventPublisher interface {
	Publish(ctx context.Context, evt redis.Event) error
}

// Clock returns the current time in the store's time zone.
type Clock func() time.Time

func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}

// announce publishes a change event. Failures are logged only.
func announce(ctx context.Context, pub EventPublisher, collection, action, id string) {
	if pub == nil {
		return
	}
	evt := redis.Event{Collection: collection, Action: action, ID: id, At: time.Now()}
	if err := pub.Publish(ctx, evt); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"collection": collection,
			"action":     action,
			"id":         id,
		}).Warn("failed to publish change event")
	}
}
