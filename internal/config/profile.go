package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"storefront/internal/models"
)

// Profile is the seed data loaded on first start: categories, menu,
// coupons and the opening hours.
type Profile struct {
	Store struct {
		AcceptingOrders *bool  `yaml:"accepting_orders"`
		StartTime       string `yaml:"start_time"`
		EndTime         string `yaml:"end_time"`
	} `yaml:"store"`
	Categories []struct {
		Name      string `yaml:"name"`
		StartTime string `yaml:"start_time"`
		EndTime   string `yaml:"end_time"`
	} `yaml:"categories"`
	Coupons []struct {
		Code  string  `yaml:"code"`
		Value float64 `yaml:"value"`
		Type  string  `yaml:"type"`
	} `yaml:"coupons"`
	Menu []struct {
		Name           string   `yaml:"name"`
		Description    string   `yaml:"description"`
		Price          float64  `yaml:"price"`
		Category       string   `yaml:"category"`
		Image          string   `yaml:"image"`
		Vegetarian     bool     `yaml:"vegetarian"`
		SpicyLevel     string   `yaml:"spicy_level"`
		ChefChoice     bool     `yaml:"chef_choice"`
		Exclusive      bool     `yaml:"exclusive"`
		FlashSale      bool     `yaml:"flash_sale"`
		FlashSalePrice float64  `yaml:"flash_sale_price"`
		HappyHour      bool     `yaml:"happy_hour"`
		HappyHourPrice float64  `yaml:"happy_hour_price"`
		Tags           []string `yaml:"tags"`
	} `yaml:"menu"`
}

func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read store profile: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return &p, nil
}

func (p *Profile) CategoryConfigs() []models.CategoryConfig {
	out := make([]models.CategoryConfig, 0, len(p.Categories))
	for _, c := range p.Categories {
		out = append(out, models.CategoryConfig{Name: c.Name, StartTime: c.StartTime, EndTime: c.EndTime})
	}
	return out
}

func (p *Profile) CouponModels() []models.Coupon {
	out := make([]models.Coupon, 0, len(p.Coupons))
	for _, c := range p.Coupons {
		t := models.CouponType(c.Type)
		if !t.IsValid() {
			t = models.CouponFlat
		}
		out = append(out, models.Coupon{Code: c.Code, Value: decimal.NewFromFloat(c.Value), Type: t})
	}
	return out
}

func (p *Profile) MenuItems() []models.MenuItem {
	out := make([]models.MenuItem, 0, len(p.Menu))
	for _, m := range p.Menu {
		item := models.MenuItem{
			Name:         m.Name,
			Description:  m.Description,
			Price:        decimal.NewFromFloat(m.Price),
			Category:     m.Category,
			Image:        m.Image,
			IsVegetarian: m.Vegetarian,
			SpicyLevel:   models.SpicyLevel(m.SpicyLevel),
			IsChefChoice: m.ChefChoice,
			IsExclusive:  m.Exclusive,
			IsFlashSale:  m.FlashSale,
			IsHappyHour:  m.HappyHour,
			Tags:         m.Tags,
		}
		if m.FlashSalePrice > 0 {
			d := decimal.NewFromFloat(m.FlashSalePrice)
			item.FlashSalePrice = &d
		}
		if m.HappyHourPrice > 0 {
			d := decimal.NewFromFloat(m.HappyHourPrice)
			item.HappyHourPrice = &d
		}
		out = append(out, item)
	}
	return out
}

// ApplyStore overlays the profile's store hours on s.
func (p *Profile) ApplyStore(s *models.Settings) {
	if p.Store.AcceptingOrders != nil {
		s.AcceptingOrders = *p.Store.AcceptingOrders
	}
	if p.Store.StartTime != "" {
		s.StartTime = p.Store.StartTime
	}
	if p.Store.EndTime != "" {
		s.EndTime = p.Store.EndTime
	}
}
