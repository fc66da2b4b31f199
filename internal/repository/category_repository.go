package repository

import (
	"context"

	"storefront/internal/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.CategoryConfig) error
	GetAll(ctx context.Context) ([]models.CategoryConfig, error)
	GetByName(ctx context.Context, name string) (*models.CategoryConfig, error)
	Update(ctx context.Context, category *models.CategoryConfig) error
	DeleteByName(ctx context.Context, name string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.CategoryConfig) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetAll(ctx context.Context) ([]models.CategoryConfig, error) {
	var categories []models.CategoryConfig
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.CategoryConfig, error) {
	var category models.CategoryConfig
	err := r.db.WithContext(ctx).First(&category, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *models.CategoryConfig) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) DeleteByName(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&models.CategoryConfig{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
