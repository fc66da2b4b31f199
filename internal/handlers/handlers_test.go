package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/redis"
	"storefront/internal/services"
	"storefront/internal/storefront"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSettings struct {
	services.SettingsService
	status *services.StoreStatus
	patch  services.StorePatch
}

func (s *stubSettings) Status(ctx context.Context) (*services.StoreStatus, error) {
	return s.status, nil
}

func (s *stubSettings) UpdateStore(ctx context.Context, patch services.StorePatch) (*models.Settings, error) {
	s.patch = patch
	def := models.DefaultSettings("2026-03-14")
	if patch.AcceptingOrders != nil {
		def.AcceptingOrders = *patch.AcceptingOrders
	}
	return &def, nil
}

type stubMenu struct {
	services.MenuService
	entries []services.MenuEntry
	tab, q  string
	toggled map[string]bool
}

func (s *stubMenu) Menu(ctx context.Context, tab, q string) ([]services.MenuEntry, error) {
	s.tab, s.q = tab, q
	return s.entries, nil
}

func (s *stubMenu) SetAvailability(ctx context.Context, id string, available bool) error {
	if id == "ghost" {
		return fmt.Errorf("menu item %s: %w", id, services.ErrNotFound)
	}
	s.toggled[id] = available
	return nil
}

type stubCategories struct {
	services.CategoryService
}

func (s *stubCategories) List(ctx context.Context) ([]models.CategoryConfig, error) {
	return models.DefaultCategories(), nil
}

type stubCarts struct {
	services.CartService
	carts map[string]*cart.Cart
}

func (s *stubCarts) Get(ctx context.Context, id string) (*cart.Cart, error) {
	crt, ok := s.carts[id]
	if !ok {
		return nil, services.ErrCartNotFound
	}
	return crt, nil
}

func (s *stubCarts) AddItem(ctx context.Context, id, itemID string) (*cart.Cart, error) {
	if itemID == "closed" {
		return nil, services.ErrStoreClosed
	}
	crt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	crt.Add(models.MenuItem{ID: itemID, Name: itemID, Price: decimal.NewFromInt(100)}, storefront.PromotionState{})
	return crt, nil
}

func (s *stubCarts) View(crt *cart.Cart, orderType models.OrderType) services.CartView {
	return services.CartView{
		Cart:      crt,
		OrderType: orderType,
		ItemCount: crt.ItemCount(),
		Totals:    crt.ComputeTotals(orderType, decimal.NewFromInt(20)),
	}
}

type stubOrders struct {
	services.OrderService
	order     *models.Order
	persisted bool
	statusErr error
}

func (s *stubOrders) Checkout(ctx context.Context, cartID string, req services.CheckoutRequest) (*services.CheckoutResult, error) {
	if req.CustomerName == "" {
		return nil, &services.ValidationError{Fields: map[string]string{"name": "is required"}}
	}
	return &services.CheckoutResult{Order: s.order, WhatsAppURL: "https://api.whatsapp.com/send?phone=1", Persisted: s.persisted}, nil
}

func (s *stubOrders) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	if id != s.order.ID {
		return nil, fmt.Errorf("order #%s: %w", id, services.ErrOrderNotFound)
	}
	return s.order, nil
}

func (s *stubOrders) Track(ctx context.Context, id string) (*services.TrackedOrder, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &services.TrackedOrder{Order: order, Display: services.DisplayFor(order.Status, order.Type)}, nil
}

func (s *stubOrders) SetStatus(ctx context.Context, id string, status models.OrderStatus) (*services.StatusChange, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	previous := s.order.Status
	s.order.Status = status
	return &services.StatusChange{Order: s.order, Previous: previous}, nil
}

func (s *stubOrders) ReceiptQRURL(id string) string {
	return "https://qr.example/?data=" + id
}

type stubSource struct {
	events []redis.Event
	err    error
	closed atomic.Bool
}

func (s *stubSource) Subscribe(ctx context.Context) (<-chan redis.Event, func() error, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	ch := make(chan redis.Event, len(s.events))
	for _, e := range s.events {
		ch <- e
	}
	close(ch)
	return ch, func() error {
		s.closed.Store(true)
		return nil
	}, nil
}

type stubSender struct {
	phone, message string
	err            error
}

func (s *stubSender) SendTextMessage(ctx context.Context, phone, message string) error {
	s.phone, s.message = phone, message
	return s.err
}

type testServer struct {
	router   *gin.Engine
	sender   *stubSender
	settings *stubSettings
	menu     *stubMenu
	carts    *stubCarts
	orders   *stubOrders
	source   *stubSource
	conn     *services.Connectivity
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	auth, err := services.NewAuthService("letmein", "", "test-secret", time.Hour)
	require.NoError(t, err)
	token, _, err := auth.Login("letmein")
	require.NoError(t, err)

	code := "SAVE10"
	ts := &testServer{
		settings: &stubSettings{status: &services.StoreStatus{IsOpen: true, AcceptingOrders: true, StartTime: "07:00", EndTime: "23:00"}},
		menu: &stubMenu{
			entries: []services.MenuEntry{{MenuItem: models.MenuItem{ID: "tikka", Name: "Paneer Tikka"}, DisplayPrice: decimal.NewFromInt(180)}},
			toggled: map[string]bool{},
		},
		carts: &stubCarts{carts: map[string]*cart.Cart{"c1": cart.New("c1")}},
		orders: &stubOrders{order: &models.Order{
			ID:            "K7P2QX",
			CustomerName:  "Asha",
			ContactNumber: "9876543210",
			Address:       "12 MG Road",
			Type:          models.OrderDelivery,
			Status:        models.OrderPending,
			Subtotal:      decimal.NewFromInt(500),
			Discount:      decimal.NewFromInt(50),
			CouponCode:    &code,
			Total:         decimal.NewFromInt(470),
			Date:          "14/03/2026",
			Timestamp:     "7:30 PM",
			Items: []models.OrderItem{
				{Name: "Paneer Tikka", Quantity: 2, UnitPrice: decimal.NewFromInt(250), LineTotal: decimal.NewFromInt(500)},
			},
		}, persisted: true},
		source: &stubSource{},
		sender: &stubSender{},
		conn:   services.NewConnectivity(),
		token:  token,
	}

	categories := &stubCategories{}
	ts.router = NewRouter(RouterDeps{
		Storefront: NewStorefrontHandler(ts.settings, ts.menu, categories, ts.conn, map[string]HealthCheck{
			"database": func(ctx context.Context) error { return nil },
		}),
		Carts:    NewCartHandler(ts.carts, ts.orders),
		Orders:   NewOrderHandler(ts.orders, NewReceiptRenderer("Chillies", "12 Food Street")),
		Admin:    NewAdminHandler(auth, ts.menu, categories, nil, ts.settings, ts.orders, ts.conn),
		Events:   NewEventsHandler(ts.source, time.Minute),
		WhatsApp: NewWhatsAppHandler(ts.sender, ts.orders, "Chillies"),
		Auth:     auth,

		WebhookSecret: testWebhookSecret,
	})
	return ts
}

const testWebhookSecret = "hook-secret"

func (ts *testServer) webhook(body interface{}, secret string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(http.MethodPost, "/api/whatsapp/webhook", &buf)
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(WebhookSecretHeader, secret)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&services.ValidationError{Fields: map[string]string{"contact": "must be 10 digits"}}, http.StatusBadRequest},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("menu item x: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrCartNotFound, http.StatusNotFound},
		{services.ErrCouponNotFound, http.StatusNotFound},
		{services.ErrDuplicate, http.StatusConflict},
		{services.ErrInvalidTransition, http.StatusConflict},
		{services.ErrStoreClosed, http.StatusLocked},
		{services.ErrItemUnavailable, http.StatusLocked},
		{fmt.Errorf("failed to save: %w", services.ErrOffline), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, tc.err)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
		assert.Contains(t, w.Body.String(), `"error"`)
	}
}

func TestValidationErrorsListFields(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/carts/c1/checkout", services.CheckoutRequest{ContactNumber: "1"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, map[string]interface{}{"name": "is required"}, body["fields"])
}

func TestPublicEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = ts.do(http.MethodGet, "/api/status", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["is_open"])

	w = ts.do(http.MethodGet, "/api/menu?tab=Flash%20Sale&q=tik", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Flash Sale", ts.menu.tab)
	assert.Equal(t, "tik", ts.menu.q)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = ts.do(http.MethodGet, "/api/categories", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["categories"], 4)
}

func TestCartEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/carts/c1/items?type=pickup", gin.H{"item_id": "tikka"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "pickup", body["order_type"])
	assert.EqualValues(t, 1, body["item_count"])
	totals := body["totals"].(map[string]interface{})
	assert.EqualValues(t, 100, totals["subtotal"])
	assert.EqualValues(t, 100, totals["total"], "money is a bare JSON number")

	w = ts.do(http.MethodGet, "/api/carts/c1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "delivery", decode(t, w)["order_type"])

	w = ts.do(http.MethodPost, "/api/carts/c1/items", gin.H{"item_id": "closed"}, "")
	assert.Equal(t, http.StatusLocked, w.Code)

	w = ts.do(http.MethodPost, "/api/carts/c1/items", gin.H{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodGet, "/api/carts/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutStatusReflectsPersistence(t *testing.T) {
	ts := newTestServer(t)
	req := services.CheckoutRequest{CustomerName: "Asha", ContactNumber: "9876543210", Address: "12 MG Road", Type: models.OrderDelivery}

	w := ts.do(http.MethodPost, "/api/carts/c1/checkout", req, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	ts.orders.persisted = false
	w = ts.do(http.MethodPost, "/api/carts/c1/checkout", req, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["persisted"])
	assert.NotEmpty(t, body["whatsapp_url"])
}

func TestTrackAcceptsBothParameters(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/orders/track?tid=K7P2QX", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "K7P2QX", body["id"])
	assert.Equal(t, "Order Received", body["display"].(map[string]interface{})["title"])

	w = ts.do(http.MethodGet, "/api/orders/track?trackId=K7P2QX", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(http.MethodGet, "/api/orders/track?tid=NOPE00", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReceipt(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/orders/K7P2QX/receipt", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	html := w.Body.String()
	assert.Contains(t, html, "size: 80mm auto")
	assert.Contains(t, html, "Order #K7P2QX")
	assert.Contains(t, html, "12 MG Road")
	assert.Contains(t, html, "2 x Paneer Tikka")
	assert.Contains(t, html, "₹470.00")
	assert.Contains(t, html, "Discount (SAVE10)")
	assert.Contains(t, html, `src="https://qr.example/?data=K7P2QX"`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPatch, "/api/admin/items/tikka/availability", gin.H{"available": false}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPatch, "/api/admin/items/tikka/availability", gin.H{"available": false}, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ts.menu.toggled)

	w = ts.do(http.MethodPatch, "/api/admin/items/tikka/availability", gin.H{"available": false}, ts.token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]bool{"tikka": false}, ts.menu.toggled)

	w = ts.do(http.MethodPatch, "/api/admin/items/ghost/availability", gin.H{"available": true}, ts.token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/admin/login", gin.H{"passphrase": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/admin/login", gin.H{"passphrase": "letmein"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	w = ts.do(http.MethodPut, "/api/admin/settings/store", gin.H{"accepting_orders": false}, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, ts.settings.patch.AcceptingOrders)
	assert.False(t, *ts.settings.patch.AcceptingOrders)
}

func TestAdminOrderStatus(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPatch, "/api/admin/orders/K7P2QX/status", gin.H{"status": "preparing"}, ts.token)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "pending", body["previous_status"])

	ts.orders.statusErr = fmt.Errorf("delivered -> pending: %w", services.ErrInvalidTransition)
	w = ts.do(http.MethodPatch, "/api/admin/orders/K7P2QX/status", gin.H{"status": "pending"}, ts.token)
	assert.Equal(t, http.StatusConflict, w.Code)

	ts.orders.statusErr = services.ErrOffline
	w = ts.do(http.MethodPatch, "/api/admin/orders/K7P2QX/status", gin.H{"status": "ready"}, ts.token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReconnectClearsOfflineMode(t *testing.T) {
	ts := newTestServer(t)
	_ = ts.conn.Observe(&pgconn.PgError{Code: "42501"})
	require.True(t, ts.conn.Offline())

	w := ts.do(http.MethodPost, "/api/admin/reconnect", nil, ts.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, ts.conn.Offline())
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	ts.source.events = []redis.Event{
		{Collection: "menu", Action: "updated", ID: "tikka"},
		{Collection: "orders", Action: "created", ID: "K7P2QX"},
	}

	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	out := buf.String()
	assert.Contains(t, out, "event:ready")
	assert.Contains(t, out, "event:menu")
	assert.Contains(t, out, `"id":"tikka"`)
	assert.Contains(t, out, "event:orders")
	assert.True(t, ts.source.closed.Load())
}

func TestEventsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.source.err = errors.New("redis down")

	w := ts.do(http.MethodGet, "/api/events", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWhatsAppWebhookRepliesWithOrderStatus(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.order.TrackingLink = "https://chillies.example?tid=K7P2QX"

	payload := gin.H{
		"from":    "919876543210@s.whatsapp.net",
		"message": gin.H{"text": "STATUS of #K7P2QX please"},
	}
	w := ts.webhook(payload, testWebhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "919876543210", ts.sender.phone)
	assert.Equal(t, "Order #K7P2QX: Order Received\nChecking order.\n\nTrack Status: https://chillies.example?tid=K7P2QX", ts.sender.message)

	payload["message"] = gin.H{"text": "status of k7p2qx?"}
	w = ts.webhook(payload, testWebhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, ts.sender.message, "Order #K7P2QX: Order Received")

	payload["message"] = gin.H{"text": "hello"}
	w = ts.webhook(payload, testWebhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, ts.sender.message, "Send your order ID")

	payload["message"] = gin.H{"text": "STATUS please"}
	w = ts.webhook(payload, testWebhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, ts.sender.message, "Send your order ID")
	assert.NotContains(t, ts.sender.message, "#STATUS")

	payload["message"] = gin.H{"text": "where is #zzzz22"}
	w = ts.webhook(payload, testWebhookSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, ts.sender.message, "couldn't find order #ZZZZ22")
}

func TestWhatsAppWebhookRequiresSecret(t *testing.T) {
	ts := newTestServer(t)
	payload := gin.H{
		"from":    "910000000000@s.whatsapp.net",
		"message": gin.H{"text": "#K7P2QX"},
	}

	w := ts.webhook(payload, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = ts.webhook(payload, "guess")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ts.sender.phone, "nothing is sent for unauthenticated calls")

	w = ts.do(http.MethodPost, "/api/whatsapp/webhook?token="+testWebhookSecret, payload, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "910000000000", ts.sender.phone)
}

func TestWebhookAuthWithoutSecretRefusesAll(t *testing.T) {
	router := gin.New()
	router.POST("/hook", WebhookAuth(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/hook?token=", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDefaultTrackingLinkResolves(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "")
	link, err := url.Parse(config.Load().PublicBaseURL)
	require.NoError(t, err)

	ts := newTestServer(t)
	w := ts.do(http.MethodGet, link.Path+"?tid=K7P2QX", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "K7P2QX", decode(t, w)["id"])
}

func TestWhatsAppSendMessage(t *testing.T) {
	ts := newTestServer(t)
	msg := gin.H{"phone": "9876543210", "message": "Your table is ready"}

	w := ts.do(http.MethodPost, "/api/admin/whatsapp/send-message", msg, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/admin/whatsapp/send-message", msg, ts.token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Your table is ready", ts.sender.message)

	ts.sender.err = errors.New("gateway down")
	w = ts.do(http.MethodPost, "/api/admin/whatsapp/send-message", msg, ts.token)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
