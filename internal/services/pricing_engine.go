package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/opmgear/api/internal/domain"
)

// ErrPricingInvalidInput signals requirements the engine refuses to
// price, such as a quantity beyond the order maximum.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// maxEstimateQuantity caps a single estimate. The largest real order on
// record is four digits; the cap keeps subtotal arithmetic far from
// int64 overflow.
const maxEstimateQuantity = 1_000_000

// Default zero-premium selections and patch-type logo methods. Overridable
// through configuration for seasonal promotions.
var (
	defaultFreeFabrics      = []string{"Polyester", "Chino Twill"}
	defaultFreeClosures     = []string{"Snapback", "Velcro", "Buckle"}
	defaultPatchLogoMethods = []string{"Leather", "Rubber", "Woven"}
)

// CapPricingEngine computes tiered cost estimates for custom cap orders.
// Every cost component resolves through the shared price catalog so the
// checkout flow, the AI assistant and quote regeneration price identically.
type CapPricingEngine struct {
	catalog      PriceCatalog
	freeFabrics  map[string]struct{}
	freeClosures map[string]struct{}
	patchMethods map[string]struct{}
	logger       func(context.Context, string, map[string]any)
}

type CapPricingEngineDeps struct {
	Catalog PriceCatalog
	// FreeFabrics and FreeClosures carry no premium. Matching is
	// case-insensitive on the whole name.
	FreeFabrics  []string
	FreeClosures []string
	// PatchLogoMethods incur a one-time mold charge per distinct
	// method and size combination.
	PatchLogoMethods []string
	Logger           func(context.Context, string, map[string]any)
}

func NewCapPricingEngine(deps CapPricingEngineDeps) (*CapPricingEngine, error) {
	if deps.Catalog == nil {
		return nil, errors.New("cap pricing engine: price catalog is required")
	}
	if len(deps.FreeFabrics) == 0 {
		deps.FreeFabrics = defaultFreeFabrics
	}
	if len(deps.FreeClosures) == 0 {
		deps.FreeClosures = defaultFreeClosures
	}
	if len(deps.PatchLogoMethods) == 0 {
		deps.PatchLogoMethods = defaultPatchLogoMethods
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &CapPricingEngine{
		catalog:      deps.Catalog,
		freeFabrics:  normalizedSet(deps.FreeFabrics),
		freeClosures: normalizedSet(deps.FreeClosures),
		patchMethods: normalizedSet(deps.PatchLogoMethods),
		logger:       logger,
	}, nil
}

// Estimate prices the requirements at their quantity tier. A quantity of
// zero or less yields an all-zero estimate rather than an error, matching
// what the storefront shows for an empty configurator. Quantities above
// maxEstimateQuantity are rejected with ErrPricingInvalidInput.
func (e *CapPricingEngine) Estimate(ctx context.Context, req OrderRequirements) (CostEstimate, error) {
	if req.Quantity > maxEstimateQuantity {
		return CostEstimate{}, fmt.Errorf("%w: quantity %d exceeds the maximum of %d", ErrPricingInvalidInput, req.Quantity, maxEstimateQuantity)
	}

	breakdown := emptyBreakdown()
	if req.Quantity <= 0 {
		return CostEstimate{Quantity: req.Quantity, Breakdown: breakdown}, nil
	}

	if err := e.addBaseProduct(ctx, &breakdown, req); err != nil {
		return CostEstimate{}, err
	}
	if err := e.addLogoCosts(ctx, &breakdown, req); err != nil {
		return CostEstimate{}, err
	}
	if err := e.addFabricPremiums(ctx, &breakdown, req); err != nil {
		return CostEstimate{}, err
	}
	if err := e.addClosurePremium(ctx, &breakdown, req); err != nil {
		return CostEstimate{}, err
	}
	if err := e.addItemList(ctx, &breakdown, domain.PriceCategoryAccessory, domain.CostCategoryAccessories, req.Accessories, req.Quantity); err != nil {
		return CostEstimate{}, err
	}
	if err := e.addItemList(ctx, &breakdown, domain.PriceCategoryService, domain.CostCategoryServices, req.Services, req.Quantity); err != nil {
		return CostEstimate{}, err
	}
	if err := e.addDelivery(ctx, &breakdown, req); err != nil {
		return CostEstimate{}, err
	}

	return CostEstimate{
		Quantity:    req.Quantity,
		Breakdown:   breakdown,
		CostPerUnit: costPerUnit(breakdown.Total, req.Quantity),
	}, nil
}

func (e *CapPricingEngine) addBaseProduct(ctx context.Context, breakdown *CostBreakdown, req OrderRequirements) error {
	table, err := e.catalog.Table(ctx, domain.PriceCategoryBaseProduct)
	if err != nil {
		return err
	}
	tier := req.ResolvedTier()
	row, ok := table.Row(string(tier))
	if !ok {
		e.logger(ctx, "pricing_row_missing", map[string]any{"category": string(domain.PriceCategoryBaseProduct), "name": string(tier)})
		return nil
	}
	addLine(breakdown, domain.CostCategoryBaseProduct, row.Name, row.UnitPriceAt(req.Quantity), req.Quantity)
	return nil
}

// addLogoCosts prices every placement at the quantity tier and adds a
// one-time mold charge per distinct patch method and size pair. Two
// placements of the same leather patch size pay the setup twice but the
// mold only once.
func (e *CapPricingEngine) addLogoCosts(ctx context.Context, breakdown *CostBreakdown, req OrderRequirements) error {
	if len(req.Logos) == 0 {
		return nil
	}

	methods, err := e.catalog.Table(ctx, domain.PriceCategoryLogoMethod)
	if err != nil {
		return err
	}

	var molds domain.PriceTable
	charged := make(map[string]struct{})

	for _, logo := range req.Logos {
		method := strings.TrimSpace(logo.Method)
		if method == "" {
			continue
		}

		if row, ok := lookupVariant(methods, method, logo.Size); ok {
			addLine(breakdown, domain.CostCategoryLogoSetup, row.Name, row.UnitPriceAt(req.Quantity), req.Quantity)
		} else {
			e.logger(ctx, "pricing_row_missing", map[string]any{"category": string(domain.PriceCategoryLogoMethod), "name": method})
		}

		if !e.isPatchMethod(method) {
			continue
		}
		moldKey := domain.NormalizeItemName(method) + "|" + domain.NormalizeItemName(logo.Size)
		if _, done := charged[moldKey]; done {
			continue
		}
		charged[moldKey] = struct{}{}

		if molds == nil {
			molds, err = e.catalog.Table(ctx, domain.PriceCategoryMoldCharge)
			if err != nil {
				return err
			}
		}
		if row, ok := lookupVariant(molds, method, logo.Size); ok {
			addLine(breakdown, domain.CostCategoryMoldCharge, row.Name, row.FlatPrice(), 1)
		}
	}
	return nil
}

func (e *CapPricingEngine) addFabricPremiums(ctx context.Context, breakdown *CostBreakdown, req OrderRequirements) error {
	selections := req.Fabric.Selections()
	if len(selections) == 0 {
		return nil
	}

	table, err := e.catalog.Table(ctx, domain.PriceCategoryFabric)
	if err != nil {
		return err
	}
	for _, fabric := range selections {
		if _, free := e.freeFabrics[domain.NormalizeItemName(fabric)]; free {
			continue
		}
		row, ok := table.Row(fabric)
		if !ok {
			e.logger(ctx, "pricing_row_missing", map[string]any{"category": string(domain.PriceCategoryFabric), "name": fabric})
			continue
		}
		addLine(breakdown, domain.CostCategoryFabricPremium, row.Name, row.UnitPriceAt(req.Quantity), req.Quantity)
	}
	return nil
}

func (e *CapPricingEngine) addClosurePremium(ctx context.Context, breakdown *CostBreakdown, req OrderRequirements) error {
	closure := strings.TrimSpace(req.Closure)
	if closure == "" {
		return nil
	}
	if _, free := e.freeClosures[domain.NormalizeItemName(closure)]; free {
		return nil
	}

	table, err := e.catalog.Table(ctx, domain.PriceCategoryClosure)
	if err != nil {
		return err
	}
	row, ok := table.Row(closure)
	if !ok {
		e.logger(ctx, "pricing_row_missing", map[string]any{"category": string(domain.PriceCategoryClosure), "name": closure})
		return nil
	}
	addLine(breakdown, domain.CostCategoryClosurePremium, row.Name, row.UnitPriceAt(req.Quantity), req.Quantity)
	return nil
}

func (e *CapPricingEngine) addItemList(ctx context.Context, breakdown *CostBreakdown, price domain.PriceCategory, cost domain.CostCategory, names []string, quantity int) error {
	if len(names) == 0 {
		return nil
	}
	table, err := e.catalog.Table(ctx, price)
	if err != nil {
		return err
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		row, ok := table.Row(name)
		if !ok {
			e.logger(ctx, "pricing_row_missing", map[string]any{"category": string(price), "name": name})
			continue
		}
		addLine(breakdown, cost, row.Name, row.UnitPriceAt(quantity), quantity)
	}
	return nil
}

func (e *CapPricingEngine) addDelivery(ctx context.Context, breakdown *CostBreakdown, req OrderRequirements) error {
	delivery := strings.TrimSpace(req.Delivery)
	if delivery == "" {
		return nil
	}
	table, err := e.catalog.Table(ctx, domain.PriceCategoryDelivery)
	if err != nil {
		return err
	}
	row, ok := table.Row(delivery)
	if !ok {
		e.logger(ctx, "pricing_row_missing", map[string]any{"category": string(domain.PriceCategoryDelivery), "name": delivery})
		return nil
	}
	addLine(breakdown, domain.CostCategoryDelivery, row.Name, row.UnitPriceAt(req.Quantity), req.Quantity)
	return nil
}

func (e *CapPricingEngine) isPatchMethod(method string) bool {
	normalized := domain.NormalizeItemName(method)
	if _, ok := e.patchMethods[normalized]; ok {
		return true
	}
	// "Leather Patch" still counts as the leather patch family.
	for patch := range e.patchMethods {
		if strings.Contains(normalized, patch) {
			return true
		}
	}
	return false
}

// lookupVariant resolves "Leather Patch" + "Small" against rows named
// either "Leather Patch Small" or just "Leather Patch".
func lookupVariant(table domain.PriceTable, name, size string) (domain.PriceRow, bool) {
	if size = strings.TrimSpace(size); size != "" {
		if row, ok := table.Row(name + " " + size); ok {
			return row, true
		}
	}
	return table.Row(name)
}

func emptyBreakdown() CostBreakdown {
	subtotals := make(map[domain.CostCategory]int64, len(domain.AllCostCategories))
	for _, category := range domain.AllCostCategories {
		subtotals[category] = 0
	}
	return CostBreakdown{Subtotals: subtotals}
}

func addLine(breakdown *CostBreakdown, category domain.CostCategory, name string, unitPrice int64, quantity int) {
	subtotal := unitPrice * int64(quantity)
	breakdown.Lines = append(breakdown.Lines, domain.CostLine{
		Category:  category,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Subtotal:  subtotal,
	})
	breakdown.Subtotals[category] += subtotal
	breakdown.Total += subtotal
}

// costPerUnit rounds half a cent up.
func costPerUnit(total int64, quantity int) int64 {
	if quantity <= 0 {
		return 0
	}
	q := int64(quantity)
	return (total + q/2) / q
}

func normalizedSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		normalized := domain.NormalizeItemName(name)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}
