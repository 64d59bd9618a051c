package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/opmgear/api/internal/domain"
	"github.com/opmgear/api/internal/platform/httpx"
	"github.com/opmgear/api/internal/services"
)

const (
	maxPricingBodySize = 64 * 1024
	maxCompareOptions  = 25
)

// PricingHandlers exposes the cost estimation and quoting endpoints.
type PricingHandlers struct {
	pricing      services.PricingService
	quotes       services.QuoteService
	catalog      services.PriceCatalog
	quoteLimiter rateLimiter
}

// PricingHandlersOption customises optional handler behaviour.
type PricingHandlersOption func(*PricingHandlers)

// WithQuoteRateLimit caps quote creation per client within the window.
func WithQuoteRateLimit(limit int, window time.Duration) PricingHandlersOption {
	return func(h *PricingHandlers) {
		h.quoteLimiter = newWindowLimiter(limit, window, nil)
	}
}

// NewPricingHandlers constructs a new PricingHandlers instance.
func NewPricingHandlers(pricing services.PricingService, quotes services.QuoteService, catalog services.PriceCatalog, opts ...PricingHandlersOption) *PricingHandlers {
	h := &PricingHandlers{
		pricing: pricing,
		quotes:  quotes,
		catalog: catalog,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the /pricing endpoints.
func (h *PricingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/estimate", h.estimate)
	r.Post("/quantities", h.compareQuantities)
	r.Post("/quotes", h.createQuote)
	r.Get("/tables/{category}", h.priceTable)
}

func (h *PricingHandlers) estimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req estimateRequest
	if !decodePricingRequest(ctx, w, r, &req) {
		return
	}

	estimate, err := h.pricing.Estimate(ctx, req.toRequirements())
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildEstimatePayload(estimate))
}

func (h *PricingHandlers) compareQuantities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req compareQuantitiesRequest
	if !decodePricingRequest(ctx, w, r, &req) {
		return
	}
	if len(req.Quantities) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantities is required", http.StatusBadRequest))
		return
	}
	if len(req.Quantities) > maxCompareOptions {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("at most %d quantities per request", maxCompareOptions), http.StatusBadRequest))
		return
	}

	breaks, err := h.quotes.CompareQuantities(ctx, req.toRequirements(), req.Quantities)
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	payload := compareQuantitiesResponse{Breaks: make([]quantityBreakPayload, 0, len(breaks))}
	for _, b := range breaks {
		payload.Breaks = append(payload.Breaks, quantityBreakPayload{
			Quantity:    b.Quantity,
			Total:       b.Total,
			CostPerUnit: b.CostPerUnit,
		})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *PricingHandlers) createQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.quotes == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "quote service unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.quoteLimiter != nil && !h.quoteLimiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many quote requests; retry later", http.StatusTooManyRequests))
		return
	}

	var req estimateRequest
	if !decodePricingRequest(ctx, w, r, &req) {
		return
	}

	quote, err := h.quotes.BuildQuote(ctx, req.toRequirements())
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildQuotePayload(quote))
}

func (h *PricingHandlers) priceTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "price catalog unavailable", http.StatusServiceUnavailable))
		return
	}

	category := domain.PriceCategory(strings.TrimSpace(chi.URLParam(r, "category")))
	if !domain.IsValidPriceCategory(category) {
		httpx.WriteError(ctx, w, httpx.NewError("unknown_price_category", fmt.Sprintf("unknown price category %q", category), http.StatusNotFound))
		return
	}

	table, err := h.catalog.Table(ctx, category)
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	payload := priceTableResponse{
		Category: string(category),
		Rows:     make([]priceRowPayload, 0, len(table)),
	}
	for _, row := range table {
		prices := make(map[string]int64, len(row.Prices))
		for breakpoint, cents := range row.Prices {
			prices[fmt.Sprintf("%d", breakpoint)] = cents
		}
		payload.Rows = append(payload.Rows, priceRowPayload{Name: row.Name, Prices: prices})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

// fabricSelection accepts either a single fabric name or an explicit
// front/back pair, matching what the storefront configurator sends.
type fabricSelection struct {
	Front string
	Back  string
}

func (f *fabricSelection) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*f = fabricSelection{}
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = fabricSelection{Front: strings.TrimSpace(single)}
		return nil
	}

	var pair struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.New("fabric must be a string or an object with front/back")
	}
	*f = fabricSelection{
		Front: strings.TrimSpace(pair.Front),
		Back:  strings.TrimSpace(pair.Back),
	}
	return nil
}

type logoPlacementRequest struct {
	Position string `json:"position"`
	Method   string `json:"method"`
	// Type is the legacy field name for the decoration method.
	Type string `json:"type"`
	Size string `json:"size"`
}

func (l logoPlacementRequest) method() string {
	if method := strings.TrimSpace(l.Method); method != "" {
		return method
	}
	return strings.TrimSpace(l.Type)
}

type estimateRequest struct {
	Quantity    int                    `json:"quantity"`
	PanelCount  int                    `json:"panelCount"`
	BillShape   string                 `json:"billShape"`
	Profile     string                 `json:"profile"`
	Structure   string                 `json:"structure"`
	Closure     string                 `json:"closure"`
	Fabric      fabricSelection        `json:"fabric"`
	Logos       []logoPlacementRequest `json:"logos"`
	Accessories []string               `json:"accessories"`
	Services    []string               `json:"services"`
	Delivery    string                 `json:"delivery"`
	Tier        string                 `json:"tier"`
}

func (req estimateRequest) toRequirements() domain.OrderRequirements {
	logos := make([]domain.LogoPlacement, 0, len(req.Logos))
	for _, logo := range req.Logos {
		logos = append(logos, domain.LogoPlacement{
			Position: strings.TrimSpace(logo.Position),
			Method:   logo.method(),
			Size:     strings.TrimSpace(logo.Size),
		})
	}
	return domain.OrderRequirements{
		Quantity:    req.Quantity,
		PanelCount:  req.PanelCount,
		BillShape:   strings.TrimSpace(req.BillShape),
		Profile:     strings.TrimSpace(req.Profile),
		Structure:   strings.TrimSpace(req.Structure),
		Closure:     strings.TrimSpace(req.Closure),
		Fabric:      domain.FabricSelection{Front: req.Fabric.Front, Back: req.Fabric.Back},
		Logos:       logos,
		Accessories: trimmedList(req.Accessories),
		Services:    trimmedList(req.Services),
		Delivery:    strings.TrimSpace(req.Delivery),
		Tier:        domain.PriceTier(strings.TrimSpace(req.Tier)),
	}
}

type compareQuantitiesRequest struct {
	estimateRequest
	Quantities []int `json:"quantities"`
}

type costLinePayload struct {
	Category  string `json:"category"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
}

type estimatePayload struct {
	Quantity    int               `json:"quantity"`
	Subtotals   map[string]int64  `json:"subtotals"`
	Lines       []costLinePayload `json:"lines"`
	Total       int64             `json:"total"`
	CostPerUnit int64             `json:"costPerUnit"`
}

type quantityBreakPayload struct {
	Quantity    int   `json:"quantity"`
	Total       int64 `json:"total"`
	CostPerUnit int64 `json:"costPerUnit"`
}

type compareQuantitiesResponse struct {
	Breaks []quantityBreakPayload `json:"breaks"`
}

type quotePayload struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"createdAt"`
	Estimate  estimatePayload `json:"estimate"`
}

type priceRowPayload struct {
	Name   string           `json:"name"`
	Prices map[string]int64 `json:"prices"`
}

type priceTableResponse struct {
	Category string            `json:"category"`
	Rows     []priceRowPayload `json:"rows"`
}

func buildEstimatePayload(estimate services.CostEstimate) estimatePayload {
	subtotals := make(map[string]int64, len(estimate.Breakdown.Subtotals))
	for category, subtotal := range estimate.Breakdown.Subtotals {
		subtotals[string(category)] = subtotal
	}
	lines := make([]costLinePayload, 0, len(estimate.Breakdown.Lines))
	for _, line := range estimate.Breakdown.Lines {
		lines = append(lines, costLinePayload{
			Category:  string(line.Category),
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal,
		})
	}
	return estimatePayload{
		Quantity:    estimate.Quantity,
		Subtotals:   subtotals,
		Lines:       lines,
		Total:       estimate.Breakdown.Total,
		CostPerUnit: estimate.CostPerUnit,
	}
}

func buildQuotePayload(quote services.Quote) quotePayload {
	return quotePayload{
		ID:        quote.ID,
		CreatedAt: formatTime(quote.CreatedAt),
		Estimate:  buildEstimatePayload(quote.Estimate),
	}
}

func decodePricingRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) bool {
	body, err := readLimitedBody(r, maxPricingBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(body, target); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return false
	}
	return true
}

func writePricingError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrPricingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("pricing_error", "failed to process pricing request", http.StatusInternalServerError))
	}
}

func trimmedList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
