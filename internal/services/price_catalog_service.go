package services

import (
	"context"
	"errors"

	domain "github.com/opmgear/api/internal/domain"
	"github.com/opmgear/api/internal/platform/pricecache"
	"github.com/opmgear/api/internal/repositories"
)

// PriceCatalogService memoises price tables loaded from the backing
// source. An unreachable source degrades to an empty table so an estimate
// returns zeros instead of failing the request; the miss is not cached,
// so the next call retries the source.
type PriceCatalogService struct {
	source repositories.PriceTableRepository
	cache  *pricecache.Cache[domain.PriceTable]
	logger func(context.Context, string, map[string]any)
}

type PriceCatalogServiceDeps struct {
	Source repositories.PriceTableRepository
	Cache  *pricecache.Cache[domain.PriceTable]
	Logger func(context.Context, string, map[string]any)
}

func NewPriceCatalogService(deps PriceCatalogServiceDeps) (*PriceCatalogService, error) {
	if deps.Source == nil {
		return nil, errors.New("price catalog service: source repository is required")
	}
	if deps.Cache == nil {
		deps.Cache = pricecache.New[domain.PriceTable]()
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &PriceCatalogService{
		source: deps.Source,
		cache:  deps.Cache,
		logger: logger,
	}, nil
}

// Table returns the cached table for the category, loading it on first
// use.
func (s *PriceCatalogService) Table(ctx context.Context, category PriceCategory) (PriceTable, error) {
	table, err := s.cache.GetOrLoad(ctx, string(category), func(ctx context.Context) (domain.PriceTable, error) {
		return s.source.LoadTable(ctx, category)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPriceSourceUnavailable) {
			s.logger(ctx, "price_source_unavailable", map[string]any{"category": string(category), "error": err.Error()})
			return domain.PriceTable{}, nil
		}
		return nil, err
	}
	return table, nil
}

// ClearCache drops every memoised table.
func (s *PriceCatalogService) ClearCache() {
	s.cache.Clear()
}

// Refresh clears the cache and re-warms every category. The first
// category that fails to load aborts the warm-up; already warmed
// categories stay cached.
func (s *PriceCatalogService) Refresh(ctx context.Context) error {
	s.cache.Clear()
	for _, category := range domain.AllPriceCategories {
		if _, err := s.cache.GetOrLoad(ctx, string(category), func(ctx context.Context) (domain.PriceTable, error) {
			return s.source.LoadTable(ctx, category)
		}); err != nil {
			return err
		}
	}
	return nil
}

// CacheGeneration reports how many times the cache has been cleared.
func (s *PriceCatalogService) CacheGeneration() uint64 {
	return s.cache.Generation()
}
