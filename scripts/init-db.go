package main

import (
	"context"
	"flag"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/migrations"
	"storefront/internal/storefront"
)

func main() {
	reset := flag.Bool("reset", false, "drop all storefront tables before migrating")
	flag.Parse()

	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	defer database.Close(db)

	if *reset {
		logrus.Warn("dropping existing tables")
		if err := migrations.Reset(db); err != nil {
			logrus.WithError(err).Fatal("failed to reset database")
		}
	}

	var profile *config.Profile
	if cfg.StoreProfile != "" {
		if profile, err = config.LoadProfile(cfg.StoreProfile); err != nil {
			logrus.WithError(err).Fatal("failed to load store profile")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	today := time.Now().In(cfg.Location()).Format(storefront.DateLayout)
	if err := migrations.RunMigrations(ctx, db, profile, today); err != nil {
		logrus.WithError(err).Fatal("failed to migrate database")
	}

	logrus.Info("database initialized")
}
