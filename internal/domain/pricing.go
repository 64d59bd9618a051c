package domain

import "strings"

// QuantityBreakpoints is the fixed ascending set of volume-discount
// breakpoints shared by every price table. The 20000 column is optional
// per row; rows without it reuse the nearest lower populated breakpoint.
var QuantityBreakpoints = []int{48, 144, 576, 1152, 2880, 10000, 20000}

// PriceCategory identifies one dimension of the cap cost model. Each
// category is backed by its own price table in the source data.
type PriceCategory string

const (
	PriceCategoryBaseProduct PriceCategory = "baseProduct"
	PriceCategoryLogoMethod  PriceCategory = "logoMethod"
	PriceCategoryFabric      PriceCategory = "fabric"
	PriceCategoryClosure     PriceCategory = "closure"
	PriceCategoryAccessory   PriceCategory = "accessory"
	PriceCategoryService     PriceCategory = "service"
	PriceCategoryDelivery    PriceCategory = "delivery"
	PriceCategoryMoldCharge  PriceCategory = "moldCharge"
)

// AllPriceCategories lists every category the catalog loads, in the
// order admin refresh operations walk them.
var AllPriceCategories = []PriceCategory{
	PriceCategoryBaseProduct,
	PriceCategoryLogoMethod,
	PriceCategoryFabric,
	PriceCategoryClosure,
	PriceCategoryAccessory,
	PriceCategoryService,
	PriceCategoryDelivery,
	PriceCategoryMoldCharge,
}

// IsValidPriceCategory reports whether the value names a known category.
func IsValidPriceCategory(value PriceCategory) bool {
	for _, category := range AllPriceCategories {
		if category == value {
			return true
		}
	}
	return false
}

// PriceRow holds the tiered unit prices for one named item. Prices are
// minor currency units (cents) keyed by quantity breakpoint; breakpoints
// the source never supplied are simply absent from the map.
type PriceRow struct {
	Name   string
	Prices map[int]int64
}

// UnitPriceAt resolves the applicable unit price for the quantity.
// Breakpoints are examined highest to lowest and the first breakpoint
// satisfying quantity >= breakpoint wins, so boundary quantities resolve
// to their own tier. Quantities below the lowest breakpoint use the
// lowest tier. A breakpoint without a stored price falls back to the
// nearest lower populated breakpoint, or zero when none exists.
func (r PriceRow) UnitPriceAt(quantity int) int64 {
	if quantity < 0 {
		return 0
	}

	applicable := 0
	for i := len(QuantityBreakpoints) - 1; i >= 0; i-- {
		if quantity >= QuantityBreakpoints[i] {
			applicable = i
			break
		}
	}

	for i := applicable; i >= 0; i-- {
		if price, ok := r.Prices[QuantityBreakpoints[i]]; ok {
			return price
		}
	}
	return 0
}

// FlatPrice returns the quantity-independent price of the row: the value
// stored at the lowest populated breakpoint. Used for one-time charges
// such as patch-logo molds.
func (r PriceRow) FlatPrice() int64 {
	for _, breakpoint := range QuantityBreakpoints {
		if price, ok := r.Prices[breakpoint]; ok {
			return price
		}
	}
	return 0
}

// PriceTable maps normalised item names to their tiered price rows.
type PriceTable map[string]PriceRow

// Row looks up the named item, normalising the key the same way the
// loaders do. The boolean reports whether the item is known.
func (t PriceTable) Row(name string) (PriceRow, bool) {
	row, ok := t[NormalizeItemName(name)]
	return row, ok
}

// NormalizeItemName produces the lookup key for an item name: trimmed
// and case-folded, never matched by substring.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
