package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/migrations"
	"storefront/internal/rabbitmq"
	"storefront/internal/redis"
	"storefront/internal/repository"
	"storefront/internal/services"
	"storefront/internal/storefront"
	"storefront/pkg/whatsapp"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	loc := cfg.Location()
	clock := services.SystemClock(loc)

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		var profile *config.Profile
		if cfg.StoreProfile != "" {
			if profile, err = config.LoadProfile(cfg.StoreProfile); err != nil {
				logrus.WithError(err).Fatal("failed to load store profile")
			}
		}
		if err := migrations.RunMigrations(context.Background(), db, profile, clock().Format(storefront.DateLayout)); err != nil {
			logrus.WithError(err).Fatal("failed to migrate database")
		}
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()

	// Optional broker and gateway
	var broker rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		if broker, err = rabbitmq.Dial(cfg.RabbitMQURL); err != nil {
			logrus.WithError(err).Fatal("failed to connect to rabbitmq")
		}
		defer broker.Close()
	}

	var sender services.MessageSender
	if cfg.WhatsAppAPIURL != "" {
		sender = whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath, cfg.DefaultCountryCode)
	}

	// Initialize repositories
	menuRepo := repository.NewMenuItemRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	conn := services.NewConnectivity()
	settingsService := services.NewSettingsService(settingsRepo, conn, redisClient, clock)
	categoryService := services.NewCategoryService(categoryRepo, conn, redisClient)
	couponService := services.NewCouponService(couponRepo, conn, redisClient)
	menuService := services.NewMenuService(menuRepo, settingsService, categoryService, conn, redisClient, clock)
	cartService := services.NewCartService(redisClient, menuService, settingsService, categoryService, couponService,
		time.Duration(cfg.CartTTL)*time.Second, cfg.DeliveryFee, clock)
	notificationService := services.NewNotificationService(sender, broker, cfg.StoreName, cfg.WhatsAppNotifyBaseURL, cfg.DefaultCountryCode)
	orderService := services.NewOrderService(orderRepo, cartService, menuService, categoryService, notificationService, conn, redisClient, clock, services.OrderConfig{
		StoreName:    cfg.StoreName,
		StorePhone:   cfg.StoreWhatsAppNumber,
		ChatBaseURL:  cfg.WhatsAppBaseURL,
		TrackingURL:  cfg.PublicBaseURL,
		QRServiceURL: cfg.QRServiceURL,
		DeliveryFee:  cfg.DeliveryFee,
	})
	authService, err := services.NewAuthService(cfg.AdminPassphrase, cfg.AdminPassphraseHash, cfg.JWTSecret,
		time.Duration(cfg.AdminTokenTTL)*time.Minute)
	if err != nil {
		logrus.WithError(err).Fatal("failed to configure admin auth")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := services.NewStatusWatcher(settingsService, redisClient, time.Duration(cfg.StatusWatchInterval)*time.Second)
	go watcher.Run(ctx)

	// Initialize handlers
	router := handlers.NewRouter(handlers.RouterDeps{
		Storefront: handlers.NewStorefrontHandler(settingsService, menuService, categoryService, conn, map[string]handlers.HealthCheck{
			"database": func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"redis": redisClient.Ping,
		}),
		Carts:    handlers.NewCartHandler(cartService, orderService),
		Orders:   handlers.NewOrderHandler(orderService, handlers.NewReceiptRenderer(cfg.StoreName, cfg.StoreAddress)),
		Admin:    handlers.NewAdminHandler(authService, menuService, categoryService, couponService, settingsService, orderService, conn),
		Events:   handlers.NewEventsHandler(redisClient, 25*time.Second),
		WhatsApp: handlers.NewWhatsAppHandler(sender, orderService, cfg.StoreName),
		Auth:     authService,

		WebhookSecret: cfg.WhatsAppWebhookSecret,
	})

	// No write timeout: /api/events streams for as long as the client stays.
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logrus.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("error during shutdown")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"port":     cfg.ServerPort,
		"timezone": loc.String(),
		"broker":   broker != nil,
		"gateway":  sender != nil,
	}).Info("storefront starting")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server error")
	}
}
