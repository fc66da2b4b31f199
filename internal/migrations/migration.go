package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
)

// RunMigrations brings the schema up to date and seeds an empty store.
// profile may be nil, in which case only the default settings are written.
func RunMigrations(ctx context.Context, db *gorm.DB, profile *config.Profile, today string) error {
	logrus.Info("running database migrations")

	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	if err := createDefaultData(ctx, db, profile, today); err != nil {
		logrus.WithError(err).Warn("failed to create default data")
	}

	logrus.Info("database migrations completed")
	return nil
}

// Reset drops every storefront table so the next migration starts clean.
func Reset(db *gorm.DB) error {
	tables := database.Models()
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
	if err := db.Migrator().DropTable(tables...); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	return nil
}

func createDefaultData(ctx context.Context, db *gorm.DB, profile *config.Profile, today string) error {
	tx := db.WithContext(ctx)

	var settings models.Settings
	err := tx.First(&settings, "id = ?", models.GeneralSettingsID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		settings = models.DefaultSettings(today)
		if profile != nil {
			profile.ApplyStore(&settings)
		}
		if err := tx.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to create settings: %w", err)
		}
		logrus.Info("default store settings created")
	case err != nil:
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if profile == nil {
		return nil
	}

	if seeded, err := seedEmpty(tx, &models.CategoryConfig{}, profile.CategoryConfigs(), func(c *models.CategoryConfig) {
		c.ID = uuid.NewString()
	}); err != nil {
		return err
	} else if seeded > 0 {
		logrus.WithField("count", seeded).Info("categories seeded")
	}

	if seeded, err := seedEmpty(tx, &models.MenuItem{}, profile.MenuItems(), func(m *models.MenuItem) {
		m.ID = uuid.NewString()
	}); err != nil {
		return err
	} else if seeded > 0 {
		logrus.WithField("count", seeded).Info("menu items seeded")
	}

	if seeded, err := seedEmpty(tx, &models.Coupon{}, profile.CouponModels(), func(c *models.Coupon) {
		c.ID = uuid.NewString()
		c.Code = cart.NormalizeCode(c.Code)
	}); err != nil {
		return err
	} else if seeded > 0 {
		logrus.WithField("count", seeded).Info("coupons seeded")
	}

	return nil
}

// seedEmpty inserts rows only when the table has none, so admin edits are
// never overwritten by a restart.
func seedEmpty[T any](tx *gorm.DB, model *T, rows []T, prepare func(*T)) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var count int64
	if err := tx.Model(model).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count %T: %w", model, err)
	}
	if count > 0 {
		return 0, nil
	}

	for i := range rows {
		prepare(&rows[i])
	}
	if err := tx.Create(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to seed %T: %w", model, err)
	}
	return len(rows), nil
}
