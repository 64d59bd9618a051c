package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/opmgear/api/internal/domain"
	"github.com/opmgear/api/internal/repositories"
)

type stubPriceTableSource struct {
	tables map[domain.PriceCategory]domain.PriceTable
	err    error
	loads  int
}

func (s *stubPriceTableSource) LoadTable(_ context.Context, category domain.PriceCategory) (domain.PriceTable, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	table, ok := s.tables[category]
	if !ok {
		return domain.PriceTable{}, nil
	}
	return table, nil
}

func TestNewPriceCatalogService(t *testing.T) {
	if _, err := NewPriceCatalogService(PriceCatalogServiceDeps{}); err == nil {
		t.Fatalf("expected error when source missing")
	}
}

func TestPriceCatalogServiceCachesTables(t *testing.T) {
	source := &stubPriceTableSource{tables: map[domain.PriceCategory]domain.PriceTable{
		domain.PriceCategoryFabric: testTable(domain.PriceRow{Name: "Acrylic", Prices: map[int]int64{48: 100}}),
	}}
	svc, err := NewPriceCatalogService(PriceCatalogServiceDeps{Source: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		table, err := svc.Table(context.Background(), domain.PriceCategoryFabric)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := table.Row("Acrylic"); !ok {
			t.Fatalf("expected Acrylic row on call %d", i)
		}
	}
	if source.loads != 1 {
		t.Fatalf("expected a single source load, got %d", source.loads)
	}
}

func TestPriceCatalogServiceDegradesUnavailableSource(t *testing.T) {
	source := &stubPriceTableSource{
		err: repositories.NewPriceSourceError(domain.PriceCategoryFabric, errors.New("connection refused")),
	}
	var logged []string
	svc, err := NewPriceCatalogService(PriceCatalogServiceDeps{
		Source: source,
		Logger: func(_ context.Context, event string, _ map[string]any) {
			logged = append(logged, event)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table, err := svc.Table(context.Background(), domain.PriceCategoryFabric)
	if err != nil {
		t.Fatalf("expected degraded load to succeed, got %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("expected empty table, got %d rows", len(table))
	}
	if len(logged) != 1 || logged[0] != "price_source_unavailable" {
		t.Fatalf("expected one unavailable log event, got %v", logged)
	}

	// Failures are not cached; recovery is picked up on the next call.
	source.err = nil
	source.tables = map[domain.PriceCategory]domain.PriceTable{
		domain.PriceCategoryFabric: testTable(domain.PriceRow{Name: "Acrylic", Prices: map[int]int64{48: 100}}),
	}
	table, err = svc.Table(context.Background(), domain.PriceCategoryFabric)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := table.Row("Acrylic"); !ok {
		t.Fatalf("expected recovered source to serve rows")
	}
	if source.loads != 2 {
		t.Fatalf("expected two source loads, got %d", source.loads)
	}
}

func TestPriceCatalogServiceClearCacheForcesReload(t *testing.T) {
	source := &stubPriceTableSource{}
	svc, err := NewPriceCatalogService(PriceCatalogServiceDeps{Source: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Table(context.Background(), domain.PriceCategoryClosure); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	generation := svc.CacheGeneration()
	svc.ClearCache()
	if svc.CacheGeneration() != generation+1 {
		t.Fatalf("expected generation to advance on clear")
	}
	if _, err := svc.Table(context.Background(), domain.PriceCategoryClosure); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.loads != 2 {
		t.Fatalf("expected reload after clear, got %d loads", source.loads)
	}
}

func TestPriceCatalogServiceRefresh(t *testing.T) {
	source := &stubPriceTableSource{}
	svc, err := NewPriceCatalogService(PriceCatalogServiceDeps{Source: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := source.loads, len(domain.AllPriceCategories); got != want {
		t.Fatalf("expected %d warm-up loads, got %d", want, got)
	}

	// Warmed tables serve from cache.
	if _, err := svc.Table(context.Background(), domain.PriceCategoryDelivery); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := source.loads, len(domain.AllPriceCategories); got != want {
		t.Fatalf("expected cached read after refresh, got %d loads", got)
	}
}

func TestPriceCatalogServiceRefreshPropagatesErrors(t *testing.T) {
	source := &stubPriceTableSource{
		err: repositories.NewPriceSourceError(domain.PriceCategoryBaseProduct, errors.New("disk gone")),
	}
	svc, err := NewPriceCatalogService(PriceCatalogServiceDeps{Source: source})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Refresh(context.Background()); !errors.Is(err, repositories.ErrPriceSourceUnavailable) {
		t.Fatalf("expected source unavailable error, got %v", err)
	}
}
