package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/services"
)

type OrderHandler struct {
	orders  services.OrderService
	receipt *ReceiptRenderer
}

func NewOrderHandler(orders services.OrderService, receipt *ReceiptRenderer) *OrderHandler {
	return &OrderHandler{orders: orders, receipt: receipt}
}

// Track looks an order up by the id from a tracking link. Both tid and the
// older trackId parameter are accepted.
func (h *OrderHandler) Track(c *gin.Context) {
	id := c.Query("tid")
	if id == "" {
		id = c.Query("trackId")
	}

	tracked, err := h.orders.Track(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tracked)
}

func (h *OrderHandler) Receipt(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	body, err := h.receipt.Render(order, h.orders.ReceiptQRURL(order.ID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}
