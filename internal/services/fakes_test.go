package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/rabbitmq"
	"storefront/internal/redis"
)

var permissionDenied = &pgconn.PgError{Code: "42501", Message: "permission denied for table orders"}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// 2026-03-14 19:30 in UTC: inside default store hours and flash sale window.
var evening = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)

type fakeMenuRepo struct {
	items map[string]models.MenuItem
	order []string
	err   error
}

func newFakeMenuRepo(items ...models.MenuItem) *fakeMenuRepo {
	r := &fakeMenuRepo{items: map[string]models.MenuItem{}}
	for _, i := range items {
		r.items[i.ID] = i
		r.order = append(r.order, i.ID)
	}
	return r
}

func (r *fakeMenuRepo) Create(ctx context.Context, item *models.MenuItem) error {
	if r.err != nil {
		return r.err
	}
	r.items[item.ID] = *item
	r.order = append(r.order, item.ID)
	return nil
}

func (r *fakeMenuRepo) GetByID(ctx context.Context, id string) (*models.MenuItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &item, nil
}

func (r *fakeMenuRepo) GetAll(ctx context.Context) ([]models.MenuItem, error) {
	out := make([]models.MenuItem, 0, len(r.order))
	for _, id := range r.order {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeMenuRepo) Update(ctx context.Context, item *models.MenuItem) error {
	if r.err != nil {
		return r.err
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeMenuRepo) Delete(ctx context.Context, id string) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeMenuRepo) SetUnavailable(ctx context.Context, id string, unavailable bool) error {
	if r.err != nil {
		return r.err
	}
	item, ok := r.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.IsUnavailable = unavailable
	r.items[id] = item
	return nil
}

func (r *fakeMenuRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.items)), nil
}

type fakeCategoryRepo struct {
	categories []models.CategoryConfig
}

func (r *fakeCategoryRepo) Create(ctx context.Context, c *models.CategoryConfig) error {
	for _, existing := range r.categories {
		if existing.Name == c.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	r.categories = append(r.categories, *c)
	return nil
}

func (r *fakeCategoryRepo) GetAll(ctx context.Context) ([]models.CategoryConfig, error) {
	return append([]models.CategoryConfig(nil), r.categories...), nil
}

func (r *fakeCategoryRepo) GetByName(ctx context.Context, name string) (*models.CategoryConfig, error) {
	for _, c := range r.categories {
		if c.Name == name {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) Update(ctx context.Context, c *models.CategoryConfig) error {
	for i := range r.categories {
		if r.categories[i].ID == c.ID {
			r.categories[i] = *c
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeCategoryRepo) DeleteByName(ctx context.Context, name string) error {
	for i, c := range r.categories {
		if c.Name == name {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeCouponRepo struct {
	coupons []models.Coupon
}

func (r *fakeCouponRepo) Create(ctx context.Context, c *models.Coupon) error {
	for _, existing := range r.coupons {
		if existing.Code == c.Code {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	r.coupons = append(r.coupons, *c)
	return nil
}

func (r *fakeCouponRepo) GetAll(ctx context.Context) ([]models.Coupon, error) {
	return append([]models.Coupon(nil), r.coupons...), nil
}

func (r *fakeCouponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	for _, c := range r.coupons {
		if c.Code == code {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCouponRepo) Delete(ctx context.Context, id string) error {
	for i, c := range r.coupons {
		if c.ID == id {
			r.coupons = append(r.coupons[:i], r.coupons[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeSettingsRepo struct {
	settings *models.Settings
	saveErr  error
	saves    int
}

func (r *fakeSettingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	if r.settings == nil {
		return nil, gorm.ErrRecordNotFound
	}
	s := *r.settings
	return &s, nil
}

func (r *fakeSettingsRepo) Save(ctx context.Context, s *models.Settings) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	cp := *s
	r.settings = &cp
	return nil
}

type fakeOrderRepo struct {
	orders    map[string]models.Order
	createErr error
	updateErr error
}

func newFakeOrderRepo(orders ...models.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: map[string]models.Order{}}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *models.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.orders[o.ID] = *o
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*models.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *fakeOrderRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.orders[id]
	return ok, nil
}

func (r *fakeOrderRepo) GetAll(ctx context.Context) ([]models.Order, error) {
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

type fakeCartStore struct {
	mu    sync.Mutex
	carts map[string]cart.Cart
}

func newFakeCartStore() *fakeCartStore {
	return &fakeCartStore{carts: map[string]cart.Cart{}}
}

func (s *fakeCartStore) SetCart(ctx context.Context, crt *cart.Cart, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(crt)
	return nil
}

func (s *fakeCartStore) GetCart(ctx context.Context, id string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

func (s *fakeCartStore) UpdateCart(ctx context.Context, id string, ttl time.Duration, fn func(*cart.Cart) error) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	crt, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(crt); err != nil {
		return nil, err
	}
	s.put(crt)
	return crt, nil
}

func (s *fakeCartStore) put(crt *cart.Cart) {
	cp := *crt
	cp.Items = append([]cart.Item(nil), crt.Items...)
	s.carts[crt.ID] = cp
}

func (s *fakeCartStore) get(id string) (*cart.Cart, error) {
	crt, ok := s.carts[id]
	if !ok {
		return nil, redis.ErrCartNotFound
	}
	crt.Items = append([]cart.Item{}, crt.Items...)
	return &crt, nil
}

func (s *fakeCartStore) DeleteCart(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []redis.Event
}

func (f *fakeEvents) Publish(ctx context.Context, evt redis.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeEvents) collections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Collection+":"+e.Action)
	}
	return out
}

type fakeSender struct {
	phone, message string
	err            error
}

func (f *fakeSender) SendTextMessage(ctx context.Context, phone, message string) error {
	f.phone, f.message = phone, message
	return f.err
}

type fakeBroker struct {
	orders   []rabbitmq.OrderMessage
	statuses []rabbitmq.StatusUpdateMessage
}

func (f *fakeBroker) PublishOrder(ctx context.Context, msg rabbitmq.OrderMessage) error {
	f.orders = append(f.orders, msg)
	return nil
}

func (f *fakeBroker) PublishStatusUpdate(ctx context.Context, msg rabbitmq.StatusUpdateMessage) error {
	f.statuses = append(f.statuses, msg)
	return nil
}

func (f *fakeBroker) Close() error { return nil }

// fixture bundles every service over in-memory fakes.
type fixture struct {
	menuRepo     *fakeMenuRepo
	categoryRepo *fakeCategoryRepo
	couponRepo   *fakeCouponRepo
	settingsRepo *fakeSettingsRepo
	orderRepo    *fakeOrderRepo
	carts        *fakeCartStore
	events       *fakeEvents
	sender       *fakeSender
	broker       *fakeBroker
	conn         *Connectivity

	settings   SettingsService
	categories CategoryService
	coupons    CouponService
	menu       MenuService
	cartSvc    CartService
	notifier   NotificationService
	orders     OrderService
}

var (
	tikka = models.MenuItem{ID: "tikka", Name: "Paneer Tikka", Price: dec("180"), Category: "Starters"}
	shake = models.MenuItem{ID: "shake", Name: "Cold Coffee", Price: dec("120"), Category: "Drinks", IsFlashSale: true, FlashSalePrice: ptrDec("99")}
	kulfi = models.MenuItem{ID: "kulfi", Name: "Kulfi", Price: dec("60"), Category: "Desserts", IsUnavailable: true}
)

func ptrDec(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		menuRepo:     newFakeMenuRepo(tikka, shake, kulfi),
		categoryRepo: &fakeCategoryRepo{},
		couponRepo: &fakeCouponRepo{coupons: []models.Coupon{
			{ID: "c1", Code: "SAVE10", Value: dec("10"), Type: models.CouponPercent},
			{ID: "c2", Code: "FLAT500", Value: dec("500"), Type: models.CouponFlat},
		}},
		settingsRepo: &fakeSettingsRepo{},
		orderRepo:    newFakeOrderRepo(),
		carts:        newFakeCartStore(),
		events:       &fakeEvents{},
		sender:       &fakeSender{},
		broker:       &fakeBroker{},
		conn:         NewConnectivity(),
	}

	clock := fixedClock(now)
	f.settings = NewSettingsService(f.settingsRepo, f.conn, f.events, clock)
	f.categories = NewCategoryService(f.categoryRepo, f.conn, f.events)
	f.coupons = NewCouponService(f.couponRepo, f.conn, f.events)
	f.menu = NewMenuService(f.menuRepo, f.settings, f.categories, f.conn, f.events, clock)
	f.cartSvc = NewCartService(f.carts, f.menu, f.settings, f.categories, f.coupons, time.Hour, dec("20"), clock)
	f.notifier = NewNotificationService(f.sender, f.broker, "Chillies", "https://wa.me", "91")
	f.orders = NewOrderService(f.orderRepo, f.cartSvc, f.menu, f.categories, f.notifier, f.conn, f.events, clock, OrderConfig{
		StoreName:    "Chillies",
		StorePhone:   "918301032794",
		ChatBaseURL:  "https://api.whatsapp.com",
		TrackingURL:  "https://chillies.example/",
		QRServiceURL: "https://api.qrserver.com/v1/create-qr-code/",
		DeliveryFee:  dec("20"),
	})
	return f
}
