package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/cart"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/pkg/whatsapp"
)

const (
	orderIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderIDLength   = 6
	maxIDAttempts   = 5

	timestampLayout = "3:04 PM"
	dateLayout      = "02/01/2006"
)

var contactPattern = regexp.MustCompile(`^\d{10}$`)

type OrderStage string

const (
	StageAll     OrderStage = ""
	StageNew     OrderStage = "new"
	StageActive  OrderStage = "active"
	StageHistory OrderStage = "history"
)

// OrderConfig holds the store details orders and handoff links are built from.
type OrderConfig struct {
	StoreName    string
	StorePhone   string
	ChatBaseURL  string
	TrackingURL  string
	QRServiceURL string
	DeliveryFee  decimal.Decimal
}

type CheckoutRequest struct {
	CustomerName  string           `json:"customer_name"`
	ContactNumber string           `json:"contact_number"`
	Address       string           `json:"address"`
	Type          models.OrderType `json:"type"`
}

type CheckoutResult struct {
	Order        *models.Order `json:"order"`
	Message      string        `json:"message"`
	WhatsAppURL  string        `json:"whatsapp_url"`
	ReceiptQRURL string        `json:"receipt_qr_url"`
	Persisted    bool          `json:"persisted"`
}

type StatusDisplay struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type TrackedOrder struct {
	*models.Order
	Display StatusDisplay `json:"display"`
}

type StatusChange struct {
	Order        *models.Order      `json:"order"`
	Previous     models.OrderStatus `json:"previous_status"`
	Notification *Notification      `json:"notification,omitempty"`
}

type OrderQuery struct {
	Stage  OrderStage
	Search string
}

type OrderStats struct {
	TotalOrders       int             `json:"total_orders"`
	DeliveredOrders   int             `json:"delivered_orders"`
	Revenue           decimal.Decimal `json:"revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	MenuItems         int64           `json:"menu_items"`
	Categories        int             `json:"categories"`
}

type OrderService interface {
	Checkout(ctx context.Context, cartID string, req CheckoutRequest) (*CheckoutResult, error)
	Track(ctx context.Context, id string) (*TrackedOrder, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, query OrderQuery) ([]models.Order, error)
	SetStatus(ctx context.Context, id string, status models.OrderStatus) (*StatusChange, error)
	Stats(ctx context.Context) (*OrderStats, error)
	ReceiptQRURL(id string) string
}

type orderService struct {
	repo       repository.OrderRepository
	carts      CartService
	menu       MenuService
	categories CategoryService
	notifier   NotificationService
	conn       *Connectivity
	events     EventPublisher
	now        Clock
	cfg        OrderConfig
}

func NewOrderService(repo repository.OrderRepository, carts CartService, menu MenuService, categories CategoryService, notifier NotificationService, conn *Connectivity, events EventPublisher, now Clock, cfg OrderConfig) OrderService {
	return &orderService{
		repo:       repo,
		carts:      carts,
		menu:       menu,
		categories: categories,
		notifier:   notifier,
		conn:       conn,
		events:     events,
		now:        now,
		cfg:        cfg,
	}
}

// Checkout turns a cart into an order and the WhatsApp handoff for it. While
// the database is read-only the order is not stored but the handoff is still
// returned.
func (s *orderService) Checkout(ctx context.Context, cartID string, req CheckoutRequest) (*CheckoutResult, error) {
	crt, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := validateCheckout(req, crt); err != nil {
		return nil, err
	}

	id, err := s.newOrderID(ctx)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(id, crt, req)
	result := &CheckoutResult{
		Order:        order,
		Message:      BuildCheckoutMessage(s.cfg.StoreName, order),
		ReceiptQRURL: s.ReceiptQRURL(id),
	}
	result.WhatsAppURL = whatsapp.ChatURL(s.cfg.ChatBaseURL, s.cfg.StorePhone, result.Message)

	result.Persisted, err = s.persist(ctx, order)
	if err != nil {
		return nil, err
	}

	if _, err := s.carts.Settle(ctx, cartID, crt.Items); err != nil {
		logrus.WithError(err).WithField("cart_id", cartID).Warn("failed to clear cart after checkout")
	}

	logrus.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"type":      order.Type,
		"total":     order.Total.StringFixed(2),
		"persisted": result.Persisted,
	}).Info("order placed")

	return result, nil
}

func (s *orderService) persist(ctx context.Context, order *models.Order) (bool, error) {
	if s.conn.Offline() {
		return false, nil
	}
	if err := s.repo.Create(ctx, order); err != nil {
		err = s.conn.Observe(err)
		if errors.Is(err, ErrOffline) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create order: %w", err)
	}

	s.notifier.OrderPlaced(ctx, order)
	announce(ctx, s.events, CollectionOrders, "created", order.ID)
	return true, nil
}

func validateCheckout(req CheckoutRequest, crt *cart.Cart) error {
	v := &ValidationError{}
	if crt.IsEmpty() {
		v.add("cart", "is empty")
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		v.add("name", "is required")
	}
	if !contactPattern.MatchString(strings.TrimSpace(req.ContactNumber)) {
		v.add("contact", "must be exactly 10 digits")
	}
	if !req.Type.IsValid() {
		v.add("type", "must be delivery or pickup")
	} else if req.Type == models.OrderDelivery && strings.TrimSpace(req.Address) == "" {
		v.add("address", "is required for delivery")
	}
	return v.orNil()
}

func (s *orderService) buildOrder(id string, crt *cart.Cart, req CheckoutRequest) *models.Order {
	now := s.now()
	totals := crt.ComputeTotals(req.Type, s.cfg.DeliveryFee)

	items := make([]models.OrderItem, 0, len(crt.Items))
	for _, line := range crt.Items {
		items = append(items, models.OrderItem{
			OrderID:    id,
			MenuItemID: line.ID,
			Name:       line.Name,
			Category:   line.Category,
			Image:      line.Image,
			Quantity:   line.Quantity,
			UnitPrice:  line.Price,
			LineTotal:  line.LineTotal(),
		})
	}

	order := &models.Order{
		ID:             id,
		Items:          items,
		Subtotal:       totals.Subtotal,
		Discount:       totals.Discount,
		DeliveryCharge: totals.DeliveryCharge,
		Total:          totals.Total,
		CustomerName:   strings.TrimSpace(req.CustomerName),
		ContactNumber:  strings.TrimSpace(req.ContactNumber),
		Type:           req.Type,
		Status:         models.OrderPending,
		Timestamp:      now.Format(timestampLayout),
		Date:           now.Format(dateLayout),
		CreatedAt:      now.UnixMilli(),
		TrackingLink:   s.trackingLink(id),
	}
	if req.Type == models.OrderDelivery {
		order.Address = strings.TrimSpace(req.Address)
	}
	if crt.Coupon != nil {
		code := crt.Coupon.Code
		order.CouponCode = &code
	}
	return order
}

// newOrderID draws short ids until one is unused. Collisions are only
// checked while the database is reachable.
func (s *orderService) newOrderID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := randomOrderID()
		if err != nil {
			return "", err
		}
		if s.conn.Offline() {
			return id, nil
		}
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			logrus.WithError(err).Warn("failed to check order id, using it unchecked")
			return id, nil
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("failed to allocate order id after %d attempts", maxIDAttempts)
}

func randomOrderID() (string, error) {
	limit := big.NewInt(int64(len(orderIDAlphabet)))
	buf := make([]byte, orderIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate order id: %w", err)
		}
		buf[i] = orderIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (s *orderService) trackingLink(id string) string {
	return strings.TrimRight(s.cfg.TrackingURL, "/") + "?tid=" + url.QueryEscape(id)
}

func (s *orderService) ReceiptQRURL(id string) string {
	q := url.Values{}
	q.Set("size", "150x150")
	q.Set("data", id)
	q.Set("bgcolor", "ffffff")
	q.Set("color", "000000")
	q.Set("margin", "0")
	return s.cfg.QRServiceURL + "?" + q.Encode()
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, newValidationError("id", "is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("order #%s: %w", id, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *orderService) Track(ctx context.Context, id string) (*TrackedOrder, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TrackedOrder{Order: order, Display: DisplayFor(order.Status, order.Type)}, nil
}

// ListOrders returns orders newest first. A search term overrides the stage.
func (s *orderService) ListOrders(ctx context.Context, query OrderQuery) ([]models.Order, error) {
	if !query.Stage.IsValid() {
		return nil, newValidationError("stage", "must be new, active or history")
	}

	orders, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(query.Search))
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if search != "" {
			if matchesOrder(o, search) {
				out = append(out, o)
			}
			continue
		}
		if query.Stage.Includes(o.Status) {
			out = append(out, o)
		}
	}
	return out, nil
}

func matchesOrder(o models.Order, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(o.ID), lowerQuery) ||
		strings.Contains(strings.ToLower(o.CustomerName), lowerQuery) ||
		strings.Contains(o.ContactNumber, lowerQuery)
}

func (st OrderStage) IsValid() bool {
	switch st {
	case StageAll, StageNew, StageActive, StageHistory:
		return true
	}
	return false
}

func (st OrderStage) Includes(status models.OrderStatus) bool {
	switch st {
	case StageNew:
		return status == models.OrderPending
	case StageActive:
		return status == models.OrderPreparing || status == models.OrderReady || status == models.OrderOutForDelivery
	case StageHistory:
		return status.IsTerminal()
	}
	return true
}

func (s *orderService) SetStatus(ctx context.Context, id string, status models.OrderStatus) (*StatusChange, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if !previous.CanTransitionTo(status) {
		return nil, fmt.Errorf("%s -> %s: %w", previous, status, ErrInvalidTransition)
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("order #%s: %w", order.ID, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("failed to update order status: %w", s.conn.Observe(err))
	}
	order.Status = status

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       status,
	}).Info("order status changed")

	change := &StatusChange{
		Order:        order,
		Previous:     previous,
		Notification: s.notifier.StatusChanged(ctx, order, previous),
	}
	announce(ctx, s.events, CollectionOrders, "updated", order.ID)
	return change, nil
}

// Stats summarises the dashboard. Revenue counts delivered orders only.
func (s *orderService) Stats(ctx context.Context) (*OrderStats, error) {
	orders, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	stats := &OrderStats{
		TotalOrders:       len(orders),
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for _, o := range orders {
		if o.Status == models.OrderDelivered {
			stats.DeliveredOrders++
			stats.Revenue = stats.Revenue.Add(o.Total)
		}
	}
	if stats.DeliveredOrders > 0 {
		stats.AverageOrderValue = stats.Revenue.Div(decimal.NewFromInt(int64(stats.DeliveredOrders))).Round(0)
	}

	if stats.MenuItems, err = s.menu.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count menu items: %w", err)
	}
	if stats.Categories, err = s.categories.Count(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

// DisplayFor is the tracker headline for a status.
func DisplayFor(status models.OrderStatus, orderType models.OrderType) StatusDisplay {
	switch status {
	case models.OrderPending:
		return StatusDisplay{"Order Received", "Checking order."}
	case models.OrderPreparing:
		return StatusDisplay{"Preparing", "Cooking your meal."}
	case models.OrderReady:
		if orderType == models.OrderDelivery {
			return StatusDisplay{"Ready", "Waiting for delivery."}
		}
		return StatusDisplay{"Ready", "Ready at the counter."}
	case models.OrderOutForDelivery:
		return StatusDisplay{"Out for Delivery", "On its way!"}
	case models.OrderDelivered:
		return StatusDisplay{"Delivered", "Enjoy your meal!"}
	case models.OrderCancelled:
		return StatusDisplay{"Cancelled", "Order was cancelled."}
	}
	return StatusDisplay{Title: "Unknown"}
}
