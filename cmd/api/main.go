package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oluwatobiadeoye/kolamart-backend/api/routes"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/cart"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/checkout"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/listings"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/loyalty"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/orders"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/products"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/stores"
	"github.com/oluwatobiadeoye/kolamart-backend/internal/wallet"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/db"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/logger"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/metrics"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/migrate"
	"github.com/oluwatobiadeoye/kolamart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	gormDB := dbClient.DB()
	storeRepo := stores.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)

	engine, err := loyalty.NewEngine(cfg.Loyalty)
	if err != nil {
		logg.Error(context.Background(), "failed to build loyalty engine", err)
		os.Exit(1)
	}

	storeService, err := stores.NewService(storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create store service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo, storeRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	walletService, err := wallet.NewService(walletRepo, dbClient, redisClient, cfg.Wallet, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orderRepo, storeRepo, engine, walletService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		cartRepo,
		storeRepo,
		orderRepo,
		walletRepo,
		walletService,
		engine,
		dbClient,
		redisClient,
		checkoutMetrics,
		cfg.Handoff,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	listingService, err := listings.NewService(productRepo, storeRepo, cfg.Listing)
	if err != nil {
		logg.Error(context.Background(), "failed to create listing service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
		Stores:   storeService,
		Products: productService,
		Cart:     cartService,
		Checkout: checkoutService,
		Wallet:   walletService,
		Orders:   orderService,
		Listings: listingService,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
