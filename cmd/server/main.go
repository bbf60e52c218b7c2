package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/technotronz/symposium/internal/config"
	"github.com/technotronz/symposium/internal/database"
	"github.com/technotronz/symposium/internal/handlers"
	"github.com/technotronz/symposium/internal/routes"
	"github.com/technotronz/symposium/internal/services"
)

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("database unavailable")
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cache, err := services.NewStatusCacheFromURL(ctx, cfg.RedisURL, cfg.StatusCacheTTL)
	cancel()
	if err != nil {
		logrus.WithError(err).Warn("redis unavailable, payment status cache disabled")
		cache = services.NoopStatusCache{}
	}

	payApp := services.NewPayAppClient(services.PayAppConfig{
		ClientID:     cfg.PayAppClientID,
		ClientSecret: cfg.PayAppClientSecret,
		EncryptURL:   cfg.PayAppEncryptURL,
		DecryptURL:   cfg.PayAppDecryptURL,
		PayURL:       cfg.PayAppPayURL,
		Timeout:      cfg.PayAppTimeout,
	})

	app := fiber.New(fiber.Config{
		AppName:      "Technotronz Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, routes.Dependencies{
		DB:       db,
		Config:   cfg,
		PayApp:   payApp,
		Cache:    cache,
		Notifier: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
		Mailer: services.NewMailer(services.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}),
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("shutdown failed")
		}
	}()

	logrus.Infof("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		logrus.WithError(err).Fatal("fiber.Listen error")
	}
}
