package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
	"storefront/internal/storefront"
)

// MenuEntry is a menu item as the storefront shows it right now.
type MenuEntry struct {
	models.MenuItem
	DisplayPrice decimal.Decimal         `json:"display_price"`
	Availability storefront.Availability `json:"availability"`
}

type MenuItemInput struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	Category       string            `json:"category"`
	Image          string            `json:"image"`
	IsVegetarian   bool              `json:"is_vegetarian"`
	IsSpicy        bool              `json:"is_spicy"`
	SpicyLevel     models.SpicyLevel `json:"spicy_level"`
	IsChefChoice   bool              `json:"is_chef_choice"`
	IsExclusive    bool              `json:"is_exclusive"`
	IsUnavailable  bool              `json:"is_unavailable"`
	IsFlashSale    bool              `json:"is_flash_sale"`
	FlashSalePrice *decimal.Decimal  `json:"flash_sale_price"`
	IsHappyHour    bool              `json:"is_happy_hour"`
	HappyHourPrice *decimal.Decimal  `json:"happy_hour_price"`
	Tags           []string          `json:"tags"`
}

type MenuService interface {
	Menu(ctx context.Context, tab, query string) ([]MenuEntry, error)
	ChefsChoice(ctx context.Context) ([]MenuEntry, error)
	Inventory(ctx context.Context, query string, stock storefront.StockFilter) ([]models.MenuItem, error)
	GetItem(ctx context.Context, id string) (*models.MenuItem, error)
	CreateItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error)
	UpdateItem(ctx context.Context, id string, input MenuItemInput) (*models.MenuItem, error)
	DeleteItem(ctx context.Context, id string) error
	SetAvailability(ctx context.Context, id string, available bool) error
	Count(ctx context.Context) (int64, error)
}

type menuService struct {
	repo       repository.MenuItemRepository
	settings   SettingsService
	categories CategoryService
	conn       *Connectivity
	events     EventPublisher
	now        Clock
}

func NewMenuService(repo repository.MenuItemRepository, settings SettingsService, categories CategoryService, conn *Connectivity, events EventPublisher, now Clock) MenuService {
	return &menuService{
		repo:       repo,
		settings:   settings,
		categories: categories,
		conn:       conn,
		events:     events,
		now:        now,
	}
}

func (s *menuService) Menu(ctx context.Context, tab, query string) ([]MenuEntry, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return s.decorate(ctx, storefront.FilterMenu(items, tab, query))
}

func (s *menuService) ChefsChoice(ctx context.Context) ([]MenuEntry, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return s.decorate(ctx, storefront.ChefsChoice(items))
}

func (s *menuService) decorate(ctx context.Context, items []models.MenuItem) ([]MenuEntry, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	promos := storefront.ActivePromotions(now, settings.PromoSettings)

	entries := make([]MenuEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, MenuEntry{
			MenuItem:     item,
			DisplayPrice: storefront.EffectivePrice(item, promos),
			Availability: storefront.ItemAvailability(now, settings.StoreSettings, categories, item),
		})
	}
	return entries, nil
}

func (s *menuService) Inventory(ctx context.Context, query string, stock storefront.StockFilter) ([]models.MenuItem, error) {
	items, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return storefront.FilterInventory(items, query, stock), nil
}

func (s *menuService) GetItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("menu item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

func (s *menuService) CreateItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}
	if err := validateMenuItem(input); err != nil {
		return nil, err
	}

	item := &models.MenuItem{ID: uuid.NewString()}
	applyMenuItem(item, input)

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionMenu, "created", item.ID)
	return item, nil
}

func (s *menuService) UpdateItem(ctx context.Context, id string, input MenuItemInput) (*models.MenuItem, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}
	if err := validateMenuItem(input); err != nil {
		return nil, err
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	applyMenuItem(item, input)

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionMenu, "updated", item.ID)
	return item, nil
}

func (s *menuService) DeleteItem(ctx context.Context, id string) error {
	if err := s.conn.Guard(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return fmt.Errorf("menu item %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete menu item: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionMenu, "deleted", id)
	return nil
}

func (s *menuService) SetAvailability(ctx context.Context, id string, available bool) error {
	if err := s.conn.Guard(); err != nil {
		return err
	}

	if err := s.repo.SetUnavailable(ctx, id, !available); err != nil {
		if database.IsNotFound(err) {
			return fmt.Errorf("menu item %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to update stock: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionMenu, "updated", id)
	return nil
}

func (s *menuService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func validateMenuItem(input MenuItemInput) error {
	v := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		v.add("name", "is required")
	}
	if !input.Price.IsPositive() {
		v.add("price", "must be greater than zero")
	}
	if strings.TrimSpace(input.Category) == "" {
		v.add("category", "is required")
	}
	if input.SpicyLevel != "" && !input.SpicyLevel.IsValid() {
		v.add("spicy_level", "must be none, mild, medium or hot")
	}
	if input.FlashSalePrice != nil && input.FlashSalePrice.IsNegative() {
		v.add("flash_sale_price", "cannot be negative")
	}
	if input.HappyHourPrice != nil && input.HappyHourPrice.IsNegative() {
		v.add("happy_hour_price", "cannot be negative")
	}
	return v.orNil()
}

func applyMenuItem(item *models.MenuItem, input MenuItemInput) {
	item.Name = strings.TrimSpace(input.Name)
	item.Description = input.Description
	item.Price = input.Price
	item.Category = strings.TrimSpace(input.Category)
	item.Image = input.Image
	item.IsVegetarian = input.IsVegetarian
	item.IsSpicy = input.IsSpicy
	item.SpicyLevel = input.SpicyLevel
	item.IsChefChoice = input.IsChefChoice
	item.IsExclusive = input.IsExclusive
	item.IsUnavailable = input.IsUnavailable
	item.IsFlashSale = input.IsFlashSale
	item.FlashSalePrice = input.FlashSalePrice
	item.IsHappyHour = input.IsHappyHour
	item.HappyHourPrice = input.HappyHourPrice
	item.Tags = input.Tags
}
