package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models"
	"storefront/internal/services"
)

type CartHandler struct {
	carts  services.CartService
	orders services.OrderService
}

func NewCartHandler(carts services.CartService, orders services.OrderService) *CartHandler {
	return &CartHandler{carts: carts, orders: orders}
}

func (h *CartHandler) Create(c *gin.Context) {
	crt, err := h.carts.Create(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) Get(c *gin.Context) {
	crt, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req struct {
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	crt, err := h.carts.AddItem(c.Request.Context(), c.Param("id"), req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

// UpdateQuantity applies a +/- step; a line that drops to zero is removed.
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	crt, err := h.carts.UpdateQuantity(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	crt, err := h.carts.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) Clear(c *gin.Context) {
	crt, err := h.carts.Clear(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	crt, err := h.carts.ApplyCoupon(c.Request.Context(), c.Param("id"), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	crt, err := h.carts.RemoveCoupon(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.carts.View(crt, orderTypeParam(c)))
}

func (h *CartHandler) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.orders.Checkout(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Persisted {
		status = http.StatusAccepted
	}
	c.JSON(status, result)
}

func orderTypeParam(c *gin.Context) models.OrderType {
	t := models.OrderType(c.Query("type"))
	if !t.IsValid() {
		return models.OrderDelivery
	}
	return t
}

func (h *CartHandler) Delete(c *gin.Context) {
	if err := h.carts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
