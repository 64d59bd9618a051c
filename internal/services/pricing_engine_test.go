package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/opmgear/api/internal/domain"
)

type stubPriceCatalog struct {
	tables map[domain.PriceCategory]domain.PriceTable
	err    error
	calls  []domain.PriceCategory
}

func (s *stubPriceCatalog) Table(_ context.Context, category domain.PriceCategory) (domain.PriceTable, error) {
	s.calls = append(s.calls, category)
	if s.err != nil {
		return nil, s.err
	}
	table, ok := s.tables[category]
	if !ok {
		return domain.PriceTable{}, nil
	}
	return table, nil
}

func testTable(rows ...domain.PriceRow) domain.PriceTable {
	table := make(domain.PriceTable, len(rows))
	for _, row := range rows {
		table[domain.NormalizeItemName(row.Name)] = row
	}
	return table
}

func testCatalog() *stubPriceCatalog {
	return &stubPriceCatalog{tables: map[domain.PriceCategory]domain.PriceTable{
		domain.PriceCategoryBaseProduct: testTable(
			domain.PriceRow{Name: "Tier 1", Prices: map[int]int64{48: 450, 144: 425, 576: 400, 1152: 375, 2880: 350, 10000: 325}},
			domain.PriceRow{Name: "Tier 2", Prices: map[int]int64{48: 500, 144: 475, 576: 450, 1152: 425, 2880: 400, 10000: 375}},
			domain.PriceRow{Name: "Tier 3", Prices: map[int]int64{48: 550, 144: 525, 576: 500, 1152: 475, 2880: 450, 10000: 425}},
		),
		domain.PriceCategoryLogoMethod: testTable(
			domain.PriceRow{Name: "3D Embroidery Small", Prices: map[int]int64{48: 120, 144: 100, 576: 80}},
			domain.PriceRow{Name: "Leather Patch Small", Prices: map[int]int64{48: 150, 144: 125, 576: 100}},
		),
		domain.PriceCategoryMoldCharge: testTable(
			domain.PriceRow{Name: "Leather Patch", Prices: map[int]int64{48: 5000}},
		),
		domain.PriceCategoryFabric: testTable(
			domain.PriceRow{Name: "Acrylic", Prices: map[int]int64{48: 100, 144: 90}},
			domain.PriceRow{Name: "Suede Cotton", Prices: map[int]int64{48: 125, 144: 110}},
		),
		domain.PriceCategoryClosure: testTable(
			domain.PriceRow{Name: "Flexfit", Prices: map[int]int64{48: 75, 144: 60}},
		),
		domain.PriceCategoryAccessory: testTable(
			domain.PriceRow{Name: "Hang Tag", Prices: map[int]int64{48: 35, 144: 30}},
		),
		domain.PriceCategoryService: testTable(
			domain.PriceRow{Name: "Graphics", Prices: map[int]int64{48: 50, 144: 50}},
		),
		domain.PriceCategoryDelivery: testTable(
			domain.PriceRow{Name: "Regular Delivery", Prices: map[int]int64{48: 300, 144: 266, 2880: 200}},
		),
	}}
}

func newTestEngine(t *testing.T, catalog PriceCatalog) *CapPricingEngine {
	t.Helper()
	engine, err := NewCapPricingEngine(CapPricingEngineDeps{Catalog: catalog})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return engine
}

func TestNewCapPricingEngine(t *testing.T) {
	if _, err := NewCapPricingEngine(CapPricingEngineDeps{}); err == nil {
		t.Fatalf("expected error when catalog missing")
	}
}

func TestEstimateBaseProductAtExactBreakpoint(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	estimate, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 144, PanelCount: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryBaseProduct), int64(144*425); got != want {
		t.Fatalf("expected base subtotal %d, got %d", want, got)
	}
	if got, want := estimate.Breakdown.Total, int64(61200); got != want {
		t.Fatalf("expected total %d, got %d", want, got)
	}
	if got, want := estimate.CostPerUnit, int64(425); got != want {
		t.Fatalf("expected cost per unit %d, got %d", want, got)
	}
}

func TestEstimateQuantityBetweenBreakpointsUsesLowerTier(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	estimate, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 150, PanelCount: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 150 prices at the 144 breakpoint, not 576.
	if got, want := estimate.Breakdown.Total, int64(150*425); got != want {
		t.Fatalf("expected total %d, got %d", want, got)
	}
}

func TestEstimatePanelCountSelectsTier(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	cases := []struct {
		name string
		req  OrderRequirements
		unit int64
	}{
		{name: "six panel tier 2", req: OrderRequirements{Quantity: 144, PanelCount: 6}, unit: 475},
		{name: "seven panel tier 3", req: OrderRequirements{Quantity: 144, PanelCount: 7}, unit: 525},
		{name: "explicit tier overrides panels", req: OrderRequirements{Quantity: 144, PanelCount: 6, Tier: domain.PriceTierThree}, unit: 525},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			estimate, err := engine.Estimate(context.Background(), tc.req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryBaseProduct), tc.unit*144; got != want {
				t.Fatalf("expected base subtotal %d, got %d", want, got)
			}
		})
	}
}

func TestEstimateMoldChargeDeduplicated(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	req := OrderRequirements{
		Quantity:   144,
		PanelCount: 5,
		Logos: []LogoPlacement{
			{Position: "Front", Method: "Leather Patch", Size: "Small"},
			{Position: "Back", Method: "Leather Patch", Size: "Small"},
		},
	}
	estimate, err := engine.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Setup is charged once per placement, the mold exactly once.
	if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryLogoSetup), int64(2*144*125); got != want {
		t.Fatalf("expected logo setup subtotal %d, got %d", want, got)
	}
	if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryMoldCharge), int64(5000); got != want {
		t.Fatalf("expected mold charge %d, got %d", want, got)
	}
}

func TestEstimateMoldChargePerDistinctSize(t *testing.T) {
	catalog := testCatalog()
	catalog.tables[domain.PriceCategoryLogoMethod] = testTable(
		domain.PriceRow{Name: "Leather Patch Small", Prices: map[int]int64{48: 150, 144: 125}},
		domain.PriceRow{Name: "Leather Patch Large", Prices: map[int]int64{48: 200, 144: 175}},
	)
	engine := newTestEngine(t, catalog)

	req := OrderRequirements{
		Quantity:   144,
		PanelCount: 5,
		Logos: []LogoPlacement{
			{Position: "Front", Method: "Leather Patch", Size: "Small"},
			{Position: "Back", Method: "Leather Patch", Size: "Large"},
		},
	}
	estimate, err := engine.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryMoldCharge), int64(10000); got != want {
		t.Fatalf("expected one mold charge per size, total %d, got %d", want, got)
	}
}

func TestEstimateNonPatchLogoSkipsMold(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	req := OrderRequirements{
		Quantity:   144,
		PanelCount: 5,
		Logos:      []LogoPlacement{{Position: "Front", Method: "3D Embroidery", Size: "Small"}},
	}
	estimate, err := engine.Estimate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := estimate.Breakdown.Subtotal(domain.CostCategoryMoldCharge); got != 0 {
		t.Fatalf("expected no mold charge, got %d", got)
	}
	if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryLogoSetup), int64(144*100); got != want {
		t.Fatalf("expected logo setup %d, got %d", want, got)
	}
}

func TestEstimateFabricPremiums(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	t.Run("free fabric costs nothing", func(t *testing.T) {
		estimate, err := engine.Estimate(context.Background(), OrderRequirements{
			Quantity:   144,
			PanelCount: 5,
			Fabric:     FabricSelection{Front: "Polyester"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := estimate.Breakdown.Subtotal(domain.CostCategoryFabricPremium); got != 0 {
			t.Fatalf("expected zero fabric premium, got %d", got)
		}
	})

	t.Run("dual fabric sums both premiums", func(t *testing.T) {
		estimate, err := engine.Estimate(context.Background(), OrderRequirements{
			Quantity:   144,
			PanelCount: 5,
			Fabric:     FabricSelection{Front: "Acrylic", Back: "Suede Cotton"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryFabricPremium), int64(144*(90+110)); got != want {
			t.Fatalf("expected fabric premium %d, got %d", want, got)
		}
	})

	t.Run("premium front with free back", func(t *testing.T) {
		estimate, err := engine.Estimate(context.Background(), OrderRequirements{
			Quantity:   144,
			PanelCount: 5,
			Fabric:     FabricSelection{Front: "Acrylic", Back: "Chino Twill"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryFabricPremium), int64(144*90); got != want {
			t.Fatalf("expected fabric premium %d, got %d", want, got)
		}
	})
}

func TestEstimateClosurePremium(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	t.Run("free closure", func(t *testing.T) {
		estimate, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 144, PanelCount: 5, Closure: "Snapback"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := estimate.Breakdown.Subtotal(domain.CostCategoryClosurePremium); got != 0 {
			t.Fatalf("expected zero closure premium, got %d", got)
		}
	})

	t.Run("premium closure", func(t *testing.T) {
		estimate, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 144, PanelCount: 5, Closure: "Flexfit"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := estimate.Breakdown.Subtotal(domain.CostCategoryClosurePremium), int64(144*60); got != want {
			t.Fatalf("expected closure premium %d, got %d", want, got)
		}
	})
}

func TestEstimateUnknownItemsContributeZero(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	base, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 144, PanelCount: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withUnknown, err := engine.Estimate(context.Background(), OrderRequirements{
		Quantity:    144,
		PanelCount:  5,
		Fabric:      FabricSelection{Front: "Unobtainium"},
		Closure:     "Mystery Clasp",
		Accessories: []string{"Nonexistent Tag"},
		Delivery:    "Teleport",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if withUnknown.Breakdown.Total != base.Breakdown.Total {
		t.Fatalf("expected unknown items to add nothing, got %d vs %d", withUnknown.Breakdown.Total, base.Breakdown.Total)
	}
}

func TestEstimateZeroQuantity(t *testing.T) {
	catalog := testCatalog()
	engine := newTestEngine(t, catalog)

	estimate, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 0, PanelCount: 5, Closure: "Flexfit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimate.Breakdown.Total != 0 {
		t.Fatalf("expected zero total, got %d", estimate.Breakdown.Total)
	}
	if estimate.CostPerUnit != 0 {
		t.Fatalf("expected zero cost per unit, got %d", estimate.CostPerUnit)
	}
	if len(catalog.calls) != 0 {
		t.Fatalf("expected no catalog loads for zero quantity, got %v", catalog.calls)
	}
}

func TestEstimateRejectsExcessiveQuantity(t *testing.T) {
	catalog := testCatalog()
	engine := newTestEngine(t, catalog)

	_, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: maxEstimateQuantity + 1, PanelCount: 5})
	if !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}
	if len(catalog.calls) != 0 {
		t.Fatalf("expected no catalog loads for rejected quantity, got %v", catalog.calls)
	}

	if _, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: maxEstimateQuantity, PanelCount: 5}); err != nil {
		t.Fatalf("quantity at the maximum should price, got %v", err)
	}
}

func TestEstimateTotalsAreConsistent(t *testing.T) {
	engine := newTestEngine(t, testCatalog())

	estimate, err := engine.Estimate(context.Background(), OrderRequirements{
		Quantity:    2880,
		PanelCount:  6,
		Closure:     "Flexfit",
		Fabric:      FabricSelection{Front: "Acrylic"},
		Logos:       []LogoPlacement{{Position: "Front", Method: "Leather Patch", Size: "Small"}},
		Accessories: []string{"Hang Tag"},
		Services:    []string{"Graphics"},
		Delivery:    "Regular Delivery",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var fromSubtotals int64
	for _, category := range domain.AllCostCategories {
		subtotal := estimate.Breakdown.Subtotal(category)
		if subtotal < 0 {
			t.Fatalf("negative subtotal for %s: %d", category, subtotal)
		}
		fromSubtotals += subtotal
	}
	if fromSubtotals != estimate.Breakdown.Total {
		t.Fatalf("subtotals sum %d does not match total %d", fromSubtotals, estimate.Breakdown.Total)
	}

	var fromLines int64
	for _, line := range estimate.Breakdown.Lines {
		fromLines += line.Subtotal
	}
	if fromLines != estimate.Breakdown.Total {
		t.Fatalf("line sum %d does not match total %d", fromLines, estimate.Breakdown.Total)
	}
}

func TestEstimateCostPerUnitRoundsHalfUp(t *testing.T) {
	catalog := &stubPriceCatalog{tables: map[domain.PriceCategory]domain.PriceTable{
		domain.PriceCategoryBaseProduct: testTable(
			domain.PriceRow{Name: "Tier 1", Prices: map[int]int64{48: 333}},
		),
		domain.PriceCategoryMoldCharge: testTable(
			domain.PriceRow{Name: "Leather Patch", Prices: map[int]int64{48: 100}},
		),
	}}
	engine := newTestEngine(t, catalog)

	estimate, err := engine.Estimate(context.Background(), OrderRequirements{
		Quantity:   48,
		PanelCount: 5,
		Logos:      []LogoPlacement{{Position: "Front", Method: "Leather Patch", Size: "Small"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 48*333 + 100 = 16084; 16084/48 = 335.08, rounds to 335.
	if got, want := estimate.CostPerUnit, int64(335); got != want {
		t.Fatalf("expected cost per unit %d, got %d", want, got)
	}
}

func TestEstimatePropagatesCatalogErrors(t *testing.T) {
	catalog := &stubPriceCatalog{err: errors.New("boom")}
	engine := newTestEngine(t, catalog)

	if _, err := engine.Estimate(context.Background(), OrderRequirements{Quantity: 144, PanelCount: 5}); err == nil {
		t.Fatalf("expected catalog error to propagate")
	}
}
