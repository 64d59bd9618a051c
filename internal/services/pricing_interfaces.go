package services

import (
	"context"
	"time"

	domain "github.com/opmgear/api/internal/domain"
)

// Type aliases expose domain models to the services package without
// reversing dependency direction.
type (
	PriceCategory     = domain.PriceCategory
	PriceTable        = domain.PriceTable
	PriceRow          = domain.PriceRow
	PriceTier         = domain.PriceTier
	OrderRequirements = domain.OrderRequirements
	FabricSelection   = domain.FabricSelection
	LogoPlacement     = domain.LogoPlacement
	CostCategory      = domain.CostCategory
	CostLine          = domain.CostLine
	CostBreakdown     = domain.CostBreakdown
	CostEstimate      = domain.CostEstimate
)

// PriceCatalog serves loaded price tables to the pricing engine.
// Implementations memoise loads and degrade an unreachable source to an
// empty table so pricing never hard-fails on data problems.
type PriceCatalog interface {
	Table(ctx context.Context, category PriceCategory) (PriceTable, error)
}

// PriceCatalogAdmin extends the catalog with the operational cache
// controls exposed to admin tooling.
type PriceCatalogAdmin interface {
	PriceCatalog
	// ClearCache drops every memoised table; the next Table call
	// reloads from the backing source.
	ClearCache()
	// Refresh clears the cache and re-warms every category.
	Refresh(ctx context.Context) error
	// CacheGeneration reports how many times the cache has been
	// cleared since startup.
	CacheGeneration() uint64
}

// PricingService is the single estimate entry point shared by checkout,
// the AI quoting flow and the quantity comparison endpoint.
type PricingService interface {
	Estimate(ctx context.Context, req OrderRequirements) (CostEstimate, error)
}

// QuoteService layers quote identity and quantity comparison over the
// pricing service.
type QuoteService interface {
	BuildQuote(ctx context.Context, req OrderRequirements) (Quote, error)
	CompareQuantities(ctx context.Context, req OrderRequirements, quantities []int) ([]QuantityBreak, error)
}

// Quote is one identified, timestamped estimate returned to the AI
// quoting and checkout flows.
type Quote struct {
	ID           string
	CreatedAt    time.Time
	Requirements OrderRequirements
	Estimate     CostEstimate
}

// QuantityBreak is one row of a price-break schedule.
type QuantityBreak struct {
	Quantity    int
	Total       int64
	CostPerUnit int64
}

// BuildInfo identifies the running binary for health reporting.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}
