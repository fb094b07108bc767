package main

import (
	"context"
	"fmt"
	"log"

	"github.com/nutriscan/backend/config"
	httpDelivery "github.com/nutriscan/backend/internal/delivery/http"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/cache"
	"github.com/nutriscan/backend/internal/infrastructure/provider"
	"github.com/nutriscan/backend/internal/infrastructure/storage"
	"github.com/nutriscan/backend/internal/logger"
	"github.com/nutriscan/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Infow("starting nutriscan backend",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"providers", cfg.Providers.Order,
	)

	// Persistence
	db, err := storage.Open(cfg.Database, zlog)
	if err != nil {
		zlog.Fatalw("database setup failed", "error", err)
	}

	productRepo := storage.NewProductRepository(db)
	scoreRepo := storage.NewScoreRepository(db)
	profileRepo := storage.NewProfileRepository(db)
	ruleRepo := storage.NewRuleRepository(db)

	// Rule catalog: seed the built-in defaults on first start, then load
	// whatever the table holds; the catalog is read-only from here on.
	ctx := context.Background()
	if err := ruleRepo.SeedDefaults(ctx, domain.DefaultRuleCatalog()); err != nil {
		zlog.Fatalw("rule catalog seeding failed", "error", err)
	}
	catalog, err := ruleRepo.LoadCatalog(ctx)
	if err != nil {
		zlog.Fatalw("rule catalog load failed", "error", err)
	}

	rulesEngine, err := usecase.NewRulesEngine(catalog)
	if err != nil {
		zlog.Fatalw("rule catalog is malformed", "error", err)
	}
	zlog.Infow("rule catalog loaded", "rules", len(catalog))

	// Provider adapters in configured priority order
	adapters := make([]domain.ProviderAdapter, 0, len(cfg.Providers.Order))
	for _, name := range cfg.Providers.Order {
		switch name {
		case provider.ProviderOpenFoodFacts:
			adapters = append(adapters, provider.NewOpenFoodFactsClient(
				cfg.Providers.OpenFoodFacts.BaseURL, cfg.Providers.Timeout, cfg.Providers.MaxRetries, zlog))
		case provider.ProviderUSDA:
			adapters = append(adapters, provider.NewUSDAClient(
				cfg.Providers.USDA.APIKey, cfg.Providers.USDA.BaseURL,
				cfg.Providers.Timeout, cfg.Providers.MaxRetries, zlog))
		}
	}
	aggregator := provider.NewAggregator(adapters, cfg.Providers.ResolveDeadline, zlog)

	// Usecase layer
	service := usecase.NewProductService(
		cache.NewProductMemoryCache(),
		productRepo,
		scoreRepo,
		profileRepo,
		aggregator,
		rulesEngine,
		usecase.NewPersonalizationEngine(),
		zlog,
		usecase.ProductServiceConfig{
			CacheTTL:  cfg.Cache.TTL,
			SwapLimit: cfg.Scoring.SwapLimit,
		},
	)

	// HTTP delivery
	handler := httpDelivery.NewHandler(service, zlog)
	router := httpDelivery.SetupRouter(cfg, handler, zlog)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Infow("server listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		zlog.Fatalw("server stopped", "error", err)
	}
}
