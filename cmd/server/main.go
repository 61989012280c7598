// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/database"
	"github.com/javajoker/shop-backend/internal/handlers"
	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/middleware"
	"github.com/javajoker/shop-backend/internal/repository"
	"github.com/javajoker/shop-backend/internal/router"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

const version = "1.0.0"

func setupLogging(cfg config.LoggingConfig) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.Logging)

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		logrus.Fatalf("Failed to initialize i18n: %v", err)
	}

	// Relational store
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.Admin); err != nil {
		logrus.Fatalf("Failed to seed admin: %v", err)
	}

	// Catalog store
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer database.DisconnectMongo(context.Background(), mongoClient)

	if err := database.EnsureIndexes(ctx, mongoDB); err != nil {
		logrus.WithError(err).Warn("Failed to create catalog indexes")
	}

	// Services
	images, err := services.NewImageStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize image store: %v", err)
	}
	tokens := utils.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)
	notifier := services.NewNotificationService(services.NewMailer(cfg.Email), cfg.Frontend.BaseURL)
	products := repository.NewProductRepository(mongoDB)

	authService := services.NewAuthService(db, tokens, images, notifier)
	userService := services.NewUserService(db, images)
	productService := services.NewProductService(products, images, cfg.Catalog)
	reviewService := services.NewReviewService(products)
	orderService := services.NewOrderService(db, products, cfg.Payment.TaxPercent)
	paymentService := services.NewPaymentService(db, services.NewStripeGateway(cfg.Payment.StripeSecretKey), cfg.Payment)
	adminService := services.NewAdminService(db, products)

	health := handlers.NewHealthHandler(version)
	health.Register("postgres", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	health.Register("mongo", func(ctx context.Context) error {
		return mongoClient.Ping(ctx, nil)
	})

	limiters := middleware.NewLimiters(cfg.RateLimit)
	limiters.Cleanup(ctx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(router.Dependencies{
		Config:   cfg,
		Tokens:   tokens,
		Users:    userService,
		Audit:    adminService,
		Limiters: limiters,
	}, router.Handlers{
		Auth:    handlers.NewAuthHandler(authService, cfg.Cookie),
		User:    handlers.NewUserHandler(userService),
		Product: handlers.NewProductHandler(productService),
		Review:  handlers.NewReviewHandler(reviewService),
		Order:   handlers.NewOrderHandler(orderService, paymentService),
		Payment: handlers.NewPaymentHandler(paymentService),
		Admin:   handlers.NewAdminHandler(adminService),
		Health:  health,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
