package domain

import "strings"

// PriceTier names the base-product row applied to an order. Tiers map to
// cap construction complexity rather than volume; volume discounts are
// handled by the breakpoints inside each row.
type PriceTier string

const (
	PriceTierOne   PriceTier = "Tier 1"
	PriceTierTwo   PriceTier = "Tier 2"
	PriceTierThree PriceTier = "Tier 3"
)

// TierForPanelCount derives the price tier from the cap's panel count:
// 6-panel caps price as Tier 2, 7-panel as Tier 3, everything else as
// Tier 1.
func TierForPanelCount(panelCount int) PriceTier {
	switch panelCount {
	case 6:
		return PriceTierTwo
	case 7:
		return PriceTierThree
	default:
		return PriceTierOne
	}
}

// FabricSelection captures the front and, for dual-fabric caps, back
// fabric choices. A single-fabric cap leaves Back empty.
type FabricSelection struct {
	Front string
	Back  string
}

// Selections returns the non-empty fabric names in front/back order.
func (f FabricSelection) Selections() []string {
	var names []string
	if strings.TrimSpace(f.Front) != "" {
		names = append(names, f.Front)
	}
	if strings.TrimSpace(f.Back) != "" {
		names = append(names, f.Back)
	}
	return names
}

// LogoPlacement describes one decorated position on the cap.
type LogoPlacement struct {
	Position string
	Method   string
	Size     string
}

// OrderRequirements is the structured input to a pricing computation,
// constructed fresh per request from already-parsed user input and
// treated as immutable for the duration of one estimate call.
type OrderRequirements struct {
	Quantity    int
	PanelCount  int
	BillShape   string
	Profile     string
	Structure   string
	Closure     string
	Fabric      FabricSelection
	Logos       []LogoPlacement
	Accessories []string
	Services    []string
	Delivery    string

	// Tier overrides the panel-count derivation when set; admin quote
	// tooling uses this to pin an order to a specific base row.
	Tier PriceTier
}

// ResolvedTier returns the explicit tier when present, otherwise the
// tier derived from the panel count.
func (r OrderRequirements) ResolvedTier() PriceTier {
	if strings.TrimSpace(string(r.Tier)) != "" {
		return r.Tier
	}
	return TierForPanelCount(r.PanelCount)
}
