package domain

import "testing"

func fullRow() PriceRow {
	return PriceRow{
		Name: "Tier 2",
		Prices: map[int]int64{
			48:    600,
			144:   425,
			576:   400,
			1152:  380,
			2880:  350,
			10000: 320,
			20000: 300,
		},
	}
}

func TestUnitPriceAtBoundariesAreExact(t *testing.T) {
	row := fullRow()
	for breakpoint, want := range row.Prices {
		got := row.UnitPriceAt(breakpoint)
		if got != want {
			t.Fatalf("quantity %d: want %d, got %d", breakpoint, want, got)
		}
	}
}

func TestUnitPriceAtBetweenBreakpoints(t *testing.T) {
	row := fullRow()
	cases := []struct {
		quantity int
		want     int64
	}{
		{0, 600},    // below lowest tier uses the lowest tier
		{1, 600},
		{47, 600},
		{150, 425},  // just above 144 stays on the 144 tier
		{575, 425},
		{2879, 380},
		{2880, 350}, // exact boundary resolves to its own tier
		{9999, 350},
		{19999, 320},
		{50000, 300},
	}
	for _, tc := range cases {
		if got := row.UnitPriceAt(tc.quantity); got != tc.want {
			t.Fatalf("quantity %d: want %d, got %d", tc.quantity, tc.want, got)
		}
	}
}

func TestUnitPriceAtMissingBreakpointFallsBackLower(t *testing.T) {
	row := PriceRow{
		Name: "Acrylic",
		Prices: map[int]int64{
			48:    100,
			144:   80,
			10000: 50,
		},
	}

	// 576, 1152 and 2880 are unpopulated; they reuse the 144 price.
	for _, quantity := range []int{576, 1152, 2880, 3000} {
		if got := row.UnitPriceAt(quantity); got != 80 {
			t.Fatalf("quantity %d: want fallback price 80, got %d", quantity, got)
		}
	}

	// Absent 20000 column reuses the 10000 price.
	if got := row.UnitPriceAt(25000); got != 50 {
		t.Fatalf("quantity 25000: want 50, got %d", got)
	}
}

func TestUnitPriceAtEmptyRowIsZero(t *testing.T) {
	row := PriceRow{Name: "Unknown"}
	for _, quantity := range []int{0, 48, 144, 100000} {
		if got := row.UnitPriceAt(quantity); got != 0 {
			t.Fatalf("quantity %d: want 0 for empty row, got %d", quantity, got)
		}
	}
	if got := row.UnitPriceAt(-5); got != 0 {
		t.Fatalf("negative quantity: want 0, got %d", got)
	}
}

func TestFlatPriceUsesLowestPopulatedBreakpoint(t *testing.T) {
	row := PriceRow{Name: "Leather", Prices: map[int]int64{144: 8000, 576: 8000}}
	if got := row.FlatPrice(); got != 8000 {
		t.Fatalf("want 8000, got %d", got)
	}
	if got := (PriceRow{}).FlatPrice(); got != 0 {
		t.Fatalf("empty row flat price: want 0, got %d", got)
	}
}

func TestPriceTableRowNormalisesLookups(t *testing.T) {
	table := PriceTable{
		NormalizeItemName("3D Embroidery"): {Name: "3D Embroidery", Prices: map[int]int64{48: 150}},
	}

	for _, name := range []string{"3D Embroidery", "3d embroidery", "  3D EMBROIDERY  "} {
		if _, ok := table.Row(name); !ok {
			t.Fatalf("expected lookup %q to match", name)
		}
	}
	if _, ok := table.Row("3D"); ok {
		t.Fatalf("partial names must not match")
	}
}

func TestTierForPanelCount(t *testing.T) {
	cases := map[int]PriceTier{
		4: PriceTierOne,
		5: PriceTierOne,
		6: PriceTierTwo,
		7: PriceTierThree,
		8: PriceTierOne,
	}
	for panels, want := range cases {
		if got := TierForPanelCount(panels); got != want {
			t.Fatalf("panel count %d: want %s, got %s", panels, want, got)
		}
	}
}

func TestResolvedTierPrefersExplicitOverride(t *testing.T) {
	req := OrderRequirements{PanelCount: 6, Tier: PriceTierThree}
	if got := req.ResolvedTier(); got != PriceTierThree {
		t.Fatalf("want explicit tier, got %s", got)
	}
	req.Tier = ""
	if got := req.ResolvedTier(); got != PriceTierTwo {
		t.Fatalf("want derived Tier 2, got %s", got)
	}
}
