package di

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domain "github.com/opmgear/api/internal/domain"
	"github.com/opmgear/api/internal/platform/config"
	"github.com/opmgear/api/internal/platform/observability"
	"github.com/opmgear/api/internal/platform/pricecache"
	"github.com/opmgear/api/internal/platform/requestctx"
	"github.com/opmgear/api/internal/repositories"
	"github.com/opmgear/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Catalog services.PriceCatalogAdmin
	Pricing services.PricingService
	Quotes  services.QuoteService
}

// Container wires the price table source, cache, and services for runtime
// use.
type Container struct {
	Config   config.Config
	Source   repositories.PriceTableRepository
	Services Services
}

// NewContainer constructs the runtime dependencies over the provided
// price table source. The logger is the fallback for code paths without a
// request-scoped logger.
func NewContainer(cfg config.Config, source repositories.PriceTableRepository, logger *zap.Logger) (*Container, error) {
	if source == nil {
		return nil, errors.New("price table source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	logEvent := eventLogger(logger)

	catalog, err := services.NewPriceCatalogService(services.PriceCatalogServiceDeps{
		Source: source,
		Cache:  pricecache.New[domain.PriceTable](),
		Logger: logEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("build price catalog service: %w", err)
	}

	engine, err := services.NewCapPricingEngine(services.CapPricingEngineDeps{
		Catalog:          catalog,
		FreeFabrics:      cfg.Pricing.FreeFabrics,
		FreeClosures:     cfg.Pricing.FreeClosures,
		PatchLogoMethods: cfg.Pricing.PatchLogoMethods,
		Logger:           logEvent,
	})
	if err != nil {
		return nil, fmt.Errorf("build pricing engine: %w", err)
	}

	quotes, err := services.NewCapQuoteService(services.CapQuoteServiceDeps{
		Pricing: engine,
	})
	if err != nil {
		return nil, fmt.Errorf("build quote service: %w", err)
	}

	return &Container{
		Config: cfg,
		Source: source,
		Services: Services{
			Catalog: catalog,
			Pricing: engine,
			Quotes:  quotes,
		},
	}, nil
}

// eventLogger adapts the zap logger to the event-style logging the
// services expect, preferring the request-scoped logger when present.
func eventLogger(fallback *zap.Logger) func(context.Context, string, map[string]any) {
	return func(ctx context.Context, event string, fields map[string]any) {
		logger := observability.FromContext(ctx)
		if logger == nil || logger == requestctx.NoopLogger() {
			logger = fallback
		}
		zapFields := make([]zap.Field, 0, len(fields))
		for key, value := range fields {
			zapFields = append(zapFields, zap.Any(key, value))
		}
		logger.Warn(event, zapFields...)
	}
}
