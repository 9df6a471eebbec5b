package main

import (
	"context"
	"net/http"
	"os"

	"github.com/angelmondragon/shopfront-backend/api/routes"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/browse"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/internal/checkout"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/kv"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
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

	kvClient, err := kv.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap key-value store", err)
		os.Exit(1)
	}
	defer func() {
		if err := kvClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing key-value store", err)
		}
	}()

	// The catalog client and the session manager are mutually dependent:
	// the client pulls its bearer token from the manager, the manager
	// drives login/refresh through the client. The token source is bound
	// late to break the cycle.
	var sessionManager *auth.Manager
	catalogClient, err := catalog.NewClient(cfg.Catalog, catalog.TokenSourceFunc(func(ctx context.Context) string {
		if sessionManager == nil {
			return ""
		}
		return sessionManager.AccessToken(ctx)
	}), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog client", err)
		os.Exit(1)
	}

	sessionManager, err = auth.NewManager(auth.ManagerParams{
		KV:       kvClient,
		Catalog:  catalogClient,
		Logger:   logg,
		TokenTTL: cfg.Session.TokenTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	browseService, err := browse.NewService(catalogClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create browse service", err)
		os.Exit(1)
	}

	cartRepo, err := cart.NewRepository(cart.RepositoryParams{
		KV:     kvClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart repository", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewStore(context.Background(), cart.StoreParams{
		Repo:    cartRepo,
		Catalog: catalogClient,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to load cart", err)
		os.Exit(1)
	}
	defer cartStore.Flush()

	checkoutService, err := checkout.NewService(checkout.Params{
		Cart:   cartStore,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	requestMetrics := metrics.NewRequestMetrics(registry)

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

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			KV:       kvClient,
			Catalog:  catalogClient,
			Browse:   browseService,
			Cart:     cartStore,
			CartRepo: cartRepo,
			Session:  sessionManager,
			Checkout: checkoutService,
			Metrics:  requestMetrics,
			Registry: registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
