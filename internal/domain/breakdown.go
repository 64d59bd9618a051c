package domain

// CostCategory labels one bucket of the aggregated cost breakdown.
type CostCategory string

const (
	CostCategoryBaseProduct    CostCategory = "baseProduct"
	CostCategoryLogoSetup      CostCategory = "logoSetup"
	CostCategoryMoldCharge     CostCategory = "moldCharge"
	CostCategoryFabricPremium  CostCategory = "fabricPremium"
	CostCategoryClosurePremium CostCategory = "closurePremium"
	CostCategoryAccessories    CostCategory = "accessories"
	CostCategoryServices       CostCategory = "services"
	CostCategoryDelivery       CostCategory = "delivery"
)

// AllCostCategories enumerates the breakdown buckets in presentation
// order.
var AllCostCategories = []CostCategory{
	CostCategoryBaseProduct,
	CostCategoryLogoSetup,
	CostCategoryMoldCharge,
	CostCategoryFabricPremium,
	CostCategoryClosurePremium,
	CostCategoryAccessories,
	CostCategoryServices,
	CostCategoryDelivery,
}

// CostLine records one priced component for itemised quote rendering.
// Amounts are minor currency units (cents). One-time charges carry a
// Quantity of 1 with Subtotal equal to UnitPrice.
type CostLine struct {
	Category  CostCategory
	Name      string
	UnitPrice int64
	Quantity  int
	Subtotal  int64
}

// CostBreakdown aggregates the per-category subtotals of one estimate.
// Invariant: Total equals the exact sum of Subtotals, and every subtotal
// is non-negative.
type CostBreakdown struct {
	Subtotals map[CostCategory]int64
	Lines     []CostLine
	Total     int64
}

// Subtotal returns the bucket's value, zero when the bucket is absent.
func (b CostBreakdown) Subtotal(category CostCategory) int64 {
	if b.Subtotals == nil {
		return 0
	}
	return b.Subtotals[category]
}

// CostEstimate is the external result of pricing one requirements
// object: the breakdown plus derived per-unit cost in cents, rounded
// half up. A non-positive quantity produces an all-zero estimate.
type CostEstimate struct {
	Quantity    int
	Breakdown   CostBreakdown
	CostPerUnit int64
}
