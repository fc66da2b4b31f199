package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/redis"
	"storefront/internal/storefront"
)

type CartStore interface {
	SetCart(ctx context.Context, crt *cart.Cart, ttl time.Duration) error
	GetCart(ctx context.Context, id string) (*cart.Cart, error)
	UpdateCart(ctx context.Context, id string, ttl time.Duration, fn func(*cart.Cart) error) (*cart.Cart, error)
	DeleteCart(ctx context.Context, id string) error
}

// CartView is a cart with totals priced for one order type.
type CartView struct {
	*cart.Cart
	OrderType models.OrderType `json:"order_type"`
	ItemCount int              `json:"item_count"`
	Totals    cart.Totals      `json:"totals"`
}

type CartService interface {
	Create(ctx context.Context) (*cart.Cart, error)
	Get(ctx context.Context, id string) (*cart.Cart, error)
	AddItem(ctx context.Context, id, itemID string) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, id, itemID string, delta int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, id, itemID string) (*cart.Cart, error)
	Clear(ctx context.Context, id string) (*cart.Cart, error)
	Settle(ctx context.Context, id string, placed []cart.Item) (*cart.Cart, error)
	ApplyCoupon(ctx context.Context, id, code string) (*cart.Cart, error)
	RemoveCoupon(ctx context.Context, id string) (*cart.Cart, error)
	Delete(ctx context.Context, id string) error
	View(crt *cart.Cart, orderType models.OrderType) CartView
}

type cartService struct {
	store       CartStore
	menu        MenuService
	settings    SettingsService
	categories  CategoryService
	coupons     CouponService
	ttl         time.Duration
	deliveryFee decimal.Decimal
	now         Clock
}

func NewCartService(store CartStore, menu MenuService, settings SettingsService, categories CategoryService, coupons CouponService, ttl time.Duration, deliveryFee decimal.Decimal, now Clock) CartService {
	return &cartService{
		store:       store,
		menu:        menu,
		settings:    settings,
		categories:  categories,
		coupons:     coupons,
		ttl:         ttl,
		deliveryFee: deliveryFee,
		now:         now,
	}
}

func (s *cartService) Create(ctx context.Context) (*cart.Cart, error) {
	crt := cart.New(uuid.NewString())
	if err := s.save(ctx, crt); err != nil {
		return nil, err
	}
	return crt, nil
}

func (s *cartService) Get(ctx context.Context, id string) (*cart.Cart, error) {
	crt, err := s.store.GetCart(ctx, id)
	if err != nil {
		if errors.Is(err, redis.ErrCartNotFound) {
			return nil, fmt.Errorf("cart %s: %w", id, ErrCartNotFound)
		}
		return nil, err
	}
	return crt, nil
}

// AddItem prices the item under the promotions active now. Items are refused
// while the store is closed, outside their category's hours or sold out.
func (s *cartService) AddItem(ctx context.Context, id, itemID string) (*cart.Cart, error) {
	item, err := s.menu.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	avail := storefront.ItemAvailability(now, settings.StoreSettings, categories, *item)
	if !avail.IsAvailable {
		if avail.Reason == storefront.ReasonStoreClosed {
			return nil, ErrStoreClosed
		}
		return nil, fmt.Errorf("%s (%s): %w", item.Name, avail.Reason, ErrItemUnavailable)
	}

	promos := storefront.ActivePromotions(now, settings.PromoSettings)
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		crt.Add(*item, promos)
		return nil
	})
}

func (s *cartService) UpdateQuantity(ctx context.Context, id, itemID string, delta int) (*cart.Cart, error) {
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		if !crt.UpdateQuantity(itemID, delta) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return nil
	})
}

func (s *cartService) RemoveItem(ctx context.Context, id, itemID string) (*cart.Cart, error) {
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		if !crt.Remove(itemID) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return nil
	})
}

func (s *cartService) Clear(ctx context.Context, id string) (*cart.Cart, error) {
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		crt.Clear()
		return nil
	})
}

// Settle takes the lines of a placed order out of the cart along with the
// coupon. Anything added after the order was built stays in the cart.
func (s *cartService) Settle(ctx context.Context, id string, placed []cart.Item) (*cart.Cart, error) {
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		for _, line := range placed {
			crt.UpdateQuantity(line.ID, -line.Quantity)
		}
		crt.RemoveCoupon()
		return nil
	})
}

// ApplyCoupon leaves the cart untouched when the code is unknown.
func (s *cartService) ApplyCoupon(ctx context.Context, id, code string) (*cart.Cart, error) {
	coupons, err := s.coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		_, err := crt.ApplyCoupon(code, coupons)
		if errors.Is(err, cart.ErrCouponRequired) {
			return newValidationError("code", "is required")
		}
		return err
	})
}

func (s *cartService) RemoveCoupon(ctx context.Context, id string) (*cart.Cart, error) {
	return s.mutate(ctx, id, func(crt *cart.Cart) error {
		crt.RemoveCoupon()
		return nil
	})
}

func (s *cartService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteCart(ctx, id); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (s *cartService) View(crt *cart.Cart, orderType models.OrderType) CartView {
	if !orderType.IsValid() {
		orderType = models.OrderDelivery
	}
	return CartView{
		Cart:      crt,
		OrderType: orderType,
		ItemCount: crt.ItemCount(),
		Totals:    crt.ComputeTotals(orderType, s.deliveryFee),
	}
}

// mutate applies fn to the stored cart atomically, so concurrent requests on
// one cart never overwrite each other.
func (s *cartService) mutate(ctx context.Context, id string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	crt, err := s.store.UpdateCart(ctx, id, s.ttl, func(crt *cart.Cart) error {
		if err := fn(crt); err != nil {
			return err
		}
		crt.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.ErrCartNotFound) {
			return nil, fmt.Errorf("cart %s: %w", id, ErrCartNotFound)
		}
		return nil, err
	}
	return crt, nil
}

func (s *cartService) save(ctx context.Context, crt *cart.Cart) error {
	crt.UpdatedAt = s.now()
	if err := s.store.SetCart(ctx, crt, s.ttl); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}
