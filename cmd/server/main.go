package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/shopcart-backend/config"
	"github.com/ikkim/shopcart-backend/internal/app/controller"
	"github.com/ikkim/shopcart-backend/internal/app/repository"
	"github.com/ikkim/shopcart-backend/internal/app/service"
	"github.com/ikkim/shopcart-backend/internal/cache"
	"github.com/ikkim/shopcart-backend/internal/db"
	"github.com/ikkim/shopcart-backend/internal/middleware"
	"github.com/ikkim/shopcart-backend/internal/router"
	"github.com/ikkim/shopcart-backend/internal/scheduler"
	"github.com/ikkim/shopcart-backend/internal/storage"
	"github.com/ikkim/shopcart-backend/internal/websocket"
	"github.com/ikkim/shopcart-backend/pkg/logger"
	"github.com/ikkim/shopcart-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Server.LogFormat,
		EnableColor: cfg.Server.LogFormat == "console",
	})

	logger.Info("Starting shopcart backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if cfg.Server.Environment == "development" {
		if err := db.Seed(); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	healthChecks := map[string]router.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.GetDB().DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	// Without Redis, display data is read straight from the product store.
	var productCache cache.ProductCache = cache.NoopProductCache{}
	redisUp := true
	if err := redis.Init(&cfg.Redis); err != nil {
		redisUp = false
		logger.Warn("Redis unavailable, product display cache disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer redis.Close()
		productCache = cache.NewRedisProductCache(redis.GetClient(), cfg.ProductCache.TTL, cfg.ProductCache.Jitter)
		healthChecks["redis"] = redis.Ping
	}
	catalog := cache.NewCachedCatalog(productCache, productRepo)

	if redisUp {
		warmer := scheduler.NewCacheWarmScheduler(productRepo, catalog)
		if err := warmer.Start(cfg.Scheduler.CacheWarmSpec); err != nil {
			logger.Fatal("Failed to start cache warm scheduler", err)
		}
		defer warmer.Stop()
	}

	images := storage.NewS3Storage(ctx, storage.S3Options{
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		BaseURL:         cfg.S3.BaseURL,
		PresignExpiry:   cfg.S3.PresignExpiry,
	})

	hub := websocket.NewHub()
	go hub.Run(ctx)

	lookup := service.NewProductLookup(productRepo, service.ProductLookupConfig{
		Timeout:                cfg.Cart.ProductLookupTimeout,
		MaxConsecutiveFailures: cfg.Breaker.MaxConsecutiveFailures,
		OpenTimeout:            cfg.Breaker.OpenTimeout,
	})

	cartOpts := []service.CartServiceOption{
		service.WithProductCatalog(catalog),
		service.WithImageResolver(images),
		service.WithCartNotifier(hub),
	}

	cartService := service.NewCartService(cartRepo, lookup, service.CartServiceConfig{
		DefaultMaxOrderQuantity: cfg.Cart.DefaultMaxOrderQuantity,
		LockWait:                cfg.Cart.LockWait,
		MaxSaveRetries:          cfg.Cart.MaxSaveRetries,
	}, cartOpts...)
	productService := service.NewProductService(productRepo, catalog)

	cartController := controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins)
	productController := controller.NewProductController(productService, images, cfg.Cart.DefaultMaxOrderQuantity)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	r := router.NewRouter(productController, cartController, authMiddleware, healthChecks, cfg)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}

	logger.Info("Server stopped successfully")
}
