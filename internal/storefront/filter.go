package storefront

import (
	"strings"

	"storefront/internal/models"
)

const (
	TabAll       = "All"
	TabFlashSale = "Flash Sale"
	TabHappyHour = "Happy Hour"
)

type StockFilter string

const (
	StockAll         StockFilter = "all"
	StockAvailable   StockFilter = "available"
	StockUnavailable StockFilter = "unavailable"
)

// Tabs lists the storefront tabs in display order.
func Tabs(categories []models.CategoryConfig) []string {
	tabs := []string{TabAll, TabFlashSale, TabHappyHour}
	for _, c := range categories {
		tabs = append(tabs, c.Name)
	}
	return tabs
}

// FilterMenu applies the storefront tab and search box. Exclusive items only
// surface through the two promotional tabs.
func FilterMenu(items []models.MenuItem, tab, query string) []models.MenuItem {
	if tab == "" {
		tab = TabAll
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if !matchesTab(item, tab) {
			continue
		}
		if q != "" && !containsFold(item.Name, q) && !containsFold(item.Description, q) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesTab(item models.MenuItem, tab string) bool {
	switch tab {
	case TabFlashSale:
		return item.IsFlashSale
	case TabHappyHour:
		return item.IsHappyHour
	case TabAll:
		return !item.IsExclusive
	default:
		return item.Category == tab && !item.IsExclusive
	}
}

// FilterInventory is the admin variant: search runs over name and category
// and exclusivity is ignored.
func FilterInventory(items []models.MenuItem, query string, stock StockFilter) []models.MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.MenuItem, 0, len(items))
	for _, item := range items {
		if q != "" && !containsFold(item.Name, q) && !containsFold(item.Category, q) {
			continue
		}
		switch stock {
		case StockAvailable:
			if item.IsUnavailable {
				continue
			}
		case StockUnavailable:
			if !item.IsUnavailable {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

func ChefsChoice(items []models.MenuItem) []models.MenuItem {
	var out []models.MenuItem
	for _, item := range items {
		if item.IsChefChoice && !item.IsExclusive {
			out = append(out, item)
		}
	}
	return out
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
