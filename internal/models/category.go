package models

import "time"

// CategoryConfig bounds when items of a category can be ordered. Menu items
// reference it by Name.
type CategoryConfig struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	StartTime string    `json:"start_time,omitempty" gorm:"size:5"` // HH:MM, 24h
	EndTime   string    `json:"end_time,omitempty" gorm:"size:5"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CategoryConfig) TableName() string {
	return "categories"
}

// DefaultCategories is served while the store has no categories configured.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{ID: "1", Name: "Starters"},
		{ID: "2", Name: "Main Course"},
		{ID: "3", Name: "Desserts"},
		{ID: "4", Name: "Drinks"},
	}
}
