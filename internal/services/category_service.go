package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const (
	defaultCategoryStart = "00:00"
	defaultCategoryEnd   = "23:59"
)

type CategoryInput struct {
	Name      string  `json:"name" binding:"required"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type CategoryPatch struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

type CategoryService interface {
	List(ctx context.Context) ([]models.CategoryConfig, error)
	Create(ctx context.Context, input CategoryInput) (*models.CategoryConfig, error)
	Update(ctx context.Context, name string, patch CategoryPatch) (*models.CategoryConfig, error)
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
}

type categoryService struct {
	repo   repository.CategoryRepository
	conn   *Connectivity
	events EventPublisher
}

func NewCategoryService(repo repository.CategoryRepository, conn *Connectivity, events EventPublisher) CategoryService {
	return &categoryService{repo: repo, conn: conn, events: events}
}

// List serves the built-in categories while none are configured.
func (s *categoryService) List(ctx context.Context) ([]models.CategoryConfig, error) {
	categories, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if len(categories) == 0 {
		return models.DefaultCategories(), nil
	}
	return categories, nil
}

func (s *categoryService) Count(ctx context.Context) (int, error) {
	categories, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(categories), nil
}

func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*models.CategoryConfig, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	v := &ValidationError{}
	if name == "" {
		v.add("name", "is required")
	}
	checkClock(v, "start_time", input.StartTime)
	checkClock(v, "end_time", input.EndTime)
	if err := v.orNil(); err != nil {
		return nil, err
	}
	if err := s.seedDefaults(ctx); err != nil {
		return nil, err
	}

	category := &models.CategoryConfig{
		ID:        uuid.NewString(),
		Name:      name,
		StartTime: defaultCategoryStart,
		EndTime:   defaultCategoryEnd,
	}
	setString(&category.StartTime, input.StartTime)
	setString(&category.EndTime, input.EndTime)

	if err := s.repo.Create(ctx, category); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("category %q: %w", name, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create category: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionCategories, "created", category.ID)
	return category, nil
}

// Update changes a category's serving hours. The first edit of a built-in
// category saves all four built-ins so none of them drop off the menu.
func (s *categoryService) Update(ctx context.Context, name string, patch CategoryPatch) (*models.CategoryConfig, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}

	v := &ValidationError{}
	checkClock(v, "start_time", patch.StartTime)
	checkClock(v, "end_time", patch.EndTime)
	if err := v.orNil(); err != nil {
		return nil, err
	}

	if isDefaultCategory(name) {
		if err := s.seedDefaults(ctx); err != nil {
			return nil, err
		}
	}

	category, err := s.repo.GetByName(ctx, name)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	setString(&category.StartTime, patch.StartTime)
	setString(&category.EndTime, patch.EndTime)
	if category.StartTime != "" || category.EndTime != "" {
		if category.StartTime == "" {
			category.StartTime = defaultCategoryStart
		}
		if category.EndTime == "" {
			category.EndTime = defaultCategoryEnd
		}
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionCategories, "updated", category.ID)
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, name string) error {
	if err := s.conn.Guard(); err != nil {
		return err
	}

	if err := s.repo.DeleteByName(ctx, name); err != nil {
		if database.IsNotFound(err) {
			return fmt.Errorf("category %q: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to delete category: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionCategories, "deleted", name)
	return nil
}

// seedDefaults stores the built-in categories the first time the category
// collection is written to, so List keeps serving them afterwards.
func (s *categoryService) seedDefaults(ctx context.Context) error {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	if len(stored) > 0 {
		return nil
	}

	for _, c := range models.DefaultCategories() {
		c.ID = uuid.NewString()
		if err := s.repo.Create(ctx, &c); err != nil && !database.IsUniqueViolation(err) {
			return fmt.Errorf("failed to seed category %q: %w", c.Name, s.conn.Observe(err))
		}
	}
	return nil
}

func isDefaultCategory(name string) bool {
	for _, c := range models.DefaultCategories() {
		if c.Name == name {
			return true
		}
	}
	return false
}
