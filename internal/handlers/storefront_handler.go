package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/services"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type StorefrontHandler struct {
	settings   services.SettingsService
	menu       services.MenuService
	categories services.CategoryService
	conn       *services.Connectivity
	checks     map[string]HealthCheck
}

func NewStorefrontHandler(
	settings services.SettingsService,
	menu services.MenuService,
	categories services.CategoryService,
	conn *services.Connectivity,
	checks map[string]HealthCheck,
) *StorefrontHandler {
	return &StorefrontHandler{
		settings:   settings,
		menu:       menu,
		categories: categories,
		conn:       conn,
		checks:     checks,
	}
}

func (h *StorefrontHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"offline":      h.conn.Offline(),
		"dependencies": deps,
	})
}

func (h *StorefrontHandler) Status(c *gin.Context) {
	st, err := h.settings.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Menu serves the storefront grid for a tab and search box.
func (h *StorefrontHandler) Menu(c *gin.Context) {
	entries, err := h.menu.Menu(c.Request.Context(), c.Query("tab"), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "count": len(entries)})
}

func (h *StorefrontHandler) ChefsChoice(c *gin.Context) {
	entries, err := h.menu.ChefsChoice(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries})
}

func (h *StorefrontHandler) Categories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}
