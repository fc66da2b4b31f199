package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/models"
	"storefront/internal/rabbitmq"
	"storefront/pkg/whatsapp"
)

// MessageSender delivers a text to a phone number through a gateway.
type MessageSender interface {
	SendTextMessage(ctx context.Context, phone, message string) error
}

// Notification is the customer update produced by a status change. Link
// opens a chat with the customer with Message pre-filled; Sent reports
// whether the gateway also delivered it.
type Notification struct {
	Message string `json:"message"`
	Link    string `json:"link"`
	Sent    bool   `json:"sent"`
}

type NotificationService interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	StatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) *Notification
}

type notificationService struct {
	sender      MessageSender
	broker      rabbitmq.Publisher
	storeName   string
	notifyBase  string
	countryCode string
}

// NewNotificationService wires the optional gateway and broker; either may be
// nil.
func NewNotificationService(sender MessageSender, broker rabbitmq.Publisher, storeName, notifyBase, countryCode string) NotificationService {
	return &notificationService{
		sender:      sender,
		broker:      broker,
		storeName:   storeName,
		notifyBase:  notifyBase,
		countryCode: countryCode,
	}
}

func (s *notificationService) OrderPlaced(ctx context.Context, order *models.Order) {
	if s.broker == nil {
		return
	}
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	msg := rabbitmq.OrderMessage{
		OrderID:      order.ID,
		OrderType:    string(order.Type),
		CustomerName: order.CustomerName,
		Total:        order.Total.StringFixed(2),
		ItemCount:    count,
		PlacedAt:     time.UnixMilli(order.CreatedAt),
	}
	if err := s.broker.PublishOrder(ctx, msg); err != nil {
		logrus.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order")
	}
}

// StatusChanged returns nil when the order moved back to pending.
func (s *notificationService) StatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) *Notification {
	if s.broker != nil {
		msg := rabbitmq.StatusUpdateMessage{
			OrderID:   order.ID,
			OldStatus: string(previous),
			NewStatus: string(order.Status),
			ChangedAt: time.Now(),
		}
		if err := s.broker.PublishStatusUpdate(ctx, msg); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("failed to publish status update")
		}
	}

	text := StatusMessage(s.storeName, order)
	if text == "" {
		return nil
	}

	phone := whatsapp.FormatPhone(order.ContactNumber, s.countryCode)
	n := &Notification{
		Message: text,
		Link:    whatsapp.DirectURL(s.notifyBase, phone, text),
	}

	if s.sender != nil {
		if err := s.sender.SendTextMessage(ctx, order.ContactNumber, text); err != nil {
			logrus.WithError(err).WithField("order_id", order.ID).Warn("failed to send status notification")
		} else {
			n.Sent = true
		}
	}
	return n
}

// StatusMessage is the customer-facing text for the order's current status,
// empty for pending.
func StatusMessage(storeName string, order *models.Order) string {
	var update string
	switch order.Status {
	case models.OrderPreparing:
		update = "is now being prepared in our kitchen 👨‍🍳"
	case models.OrderReady:
		if order.Type == models.OrderPickup {
			update = "is ready for pickup! 🛍️"
		} else {
			update = "is packed and ready for delivery 📦"
		}
	case models.OrderOutForDelivery:
		update = "is out for delivery! 🛵"
	case models.OrderDelivered:
		update = "has been delivered. Enjoy your meal! ✅"
	case models.OrderCancelled:
		update = "has been cancelled ❌"
	default:
		return ""
	}

	msg := fmt.Sprintf("Hi %s, update on Order #%s from %s:\n\nYour order %s", order.CustomerName, order.ID, storeName, update)
	if order.TrackingLink != "" {
		msg += "\n\nTrack Status: " + order.TrackingLink
	}
	return msg
}
