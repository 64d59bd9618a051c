package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

const quoteIDPrefix = "qt_"

// CapQuoteService wraps the pricing engine with quote identity and
// quantity comparison.
type CapQuoteService struct {
	pricing PricingService
	idGen   func() string
	now     func() time.Time
}

type CapQuoteServiceDeps struct {
	Pricing PricingService
	IDGen   func() string
	Now     func() time.Time
}

func NewCapQuoteService(deps CapQuoteServiceDeps) (*CapQuoteService, error) {
	if deps.Pricing == nil {
		return nil, errors.New("quote service: pricing service is required")
	}
	idGen := deps.IDGen
	if idGen == nil {
		idGen = func() string { return quoteIDPrefix + ulid.Make().String() }
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CapQuoteService{
		pricing: deps.Pricing,
		idGen:   idGen,
		now:     func() time.Time { return now().UTC() },
	}, nil
}

// BuildQuote prices the requirements once and wraps the estimate with an
// identifier and timestamp for the AI assistant and checkout flows.
func (s *CapQuoteService) BuildQuote(ctx context.Context, req OrderRequirements) (Quote, error) {
	estimate, err := s.pricing.Estimate(ctx, req)
	if err != nil {
		return Quote{}, fmt.Errorf("quote service: estimate: %w", err)
	}
	return Quote{
		ID:           s.idGen(),
		CreatedAt:    s.now(),
		Requirements: req,
		Estimate:     estimate,
	}, nil
}

// CompareQuantities prices the same requirements at each candidate
// quantity and returns the schedule in ascending quantity order.
// Non-positive and duplicate candidates are dropped.
func (s *CapQuoteService) CompareQuantities(ctx context.Context, req OrderRequirements, quantities []int) ([]QuantityBreak, error) {
	seen := make(map[int]struct{}, len(quantities))
	candidates := make([]int, 0, len(quantities))
	for _, quantity := range quantities {
		if quantity <= 0 {
			continue
		}
		if _, dup := seen[quantity]; dup {
			continue
		}
		seen[quantity] = struct{}{}
		candidates = append(candidates, quantity)
	}
	sort.Ints(candidates)

	breaks := make([]QuantityBreak, 0, len(candidates))
	for _, quantity := range candidates {
		scoped := req
		scoped.Quantity = quantity
		estimate, err := s.pricing.Estimate(ctx, scoped)
		if err != nil {
			return nil, fmt.Errorf("quote service: estimate quantity %d: %w", quantity, err)
		}
		breaks = append(breaks, QuantityBreak{
			Quantity:    quantity,
			Total:       estimate.Breakdown.Total,
			CostPerUnit: estimate.CostPerUnit,
		})
	}
	return breaks, nil
}
