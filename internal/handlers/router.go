package handlers

import (
	"github.com/gin-gonic/gin"

	"storefront/internal/logger"
	"storefront/internal/services"
)

type RouterDeps struct {
	Storefront *StorefrontHandler
	Carts      *CartHandler
	Orders     *OrderHandler
	Admin      *AdminHandler
	Events     *EventsHandler
	WhatsApp   *WhatsAppHandler
	Auth       services.AuthService

	WebhookSecret string
}

func NewRouter(d RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(logger.GinLogger(), gin.Recovery())

	router.GET("/health", d.Storefront.Health)

	api := router.Group("/api")
	{
		api.GET("/status", d.Storefront.Status)
		api.GET("/menu", d.Storefront.Menu)
		api.GET("/menu/chefs-choice", d.Storefront.ChefsChoice)
		api.GET("/categories", d.Storefront.Categories)
		api.GET("/events", d.Events.Stream)

		api.POST("/carts", d.Carts.Create)
		api.GET("/carts/:id", d.Carts.Get)
		api.DELETE("/carts/:id", d.Carts.Delete)
		api.POST("/carts/:id/items", d.Carts.AddItem)
		api.DELETE("/carts/:id/items", d.Carts.Clear)
		api.PATCH("/carts/:id/items/:itemId", d.Carts.UpdateQuantity)
		api.DELETE("/carts/:id/items/:itemId", d.Carts.RemoveItem)
		api.POST("/carts/:id/coupon", d.Carts.ApplyCoupon)
		api.DELETE("/carts/:id/coupon", d.Carts.RemoveCoupon)
		api.POST("/carts/:id/checkout", d.Carts.Checkout)

		api.GET("/orders/track", d.Orders.Track)
		api.GET("/orders/:id/receipt", d.Orders.Receipt)

		api.POST("/admin/login", d.Admin.Login)
		api.POST("/whatsapp/webhook", WebhookAuth(d.WebhookSecret), d.WhatsApp.HandleWebhook)
	}

	admin := api.Group("/admin", AdminAuth(d.Auth))
	{
		admin.GET("/items", d.Admin.ListItems)
		admin.POST("/items", d.Admin.CreateItem)
		admin.GET("/items/:id", d.Admin.GetItem)
		admin.PUT("/items/:id", d.Admin.UpdateItem)
		admin.DELETE("/items/:id", d.Admin.DeleteItem)
		admin.PATCH("/items/:id/availability", d.Admin.SetAvailability)

		admin.GET("/categories", d.Admin.ListCategories)
		admin.POST("/categories", d.Admin.CreateCategory)
		admin.PUT("/categories/:name", d.Admin.UpdateCategory)
		admin.DELETE("/categories/:name", d.Admin.DeleteCategory)

		admin.GET("/coupons", d.Admin.ListCoupons)
		admin.POST("/coupons", d.Admin.CreateCoupon)
		admin.DELETE("/coupons/:id", d.Admin.DeleteCoupon)

		admin.GET("/settings", d.Admin.GetSettings)
		admin.PUT("/settings/store", d.Admin.UpdateStoreSettings)
		admin.PUT("/settings/promos", d.Admin.UpdatePromoSettings)

		admin.GET("/orders", d.Admin.ListOrders)
		admin.GET("/orders/:id", d.Admin.GetOrder)
		admin.PATCH("/orders/:id/status", d.Admin.UpdateOrderStatus)

		admin.GET("/stats", d.Admin.Stats)
		admin.POST("/reconnect", d.Admin.Reconnect)
		admin.POST("/whatsapp/send-message", d.WhatsApp.SendMessage)
	}

	return router
}
