package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opmgear/api/internal/platform/httpx"
	"github.com/opmgear/api/internal/services"
)

// AdminPricingHandlers exposes operational controls over the price table
// cache.
type AdminPricingHandlers struct {
	catalog services.PriceCatalogAdmin
}

// NewAdminPricingHandlers constructs a new AdminPricingHandlers instance.
func NewAdminPricingHandlers(catalog services.PriceCatalogAdmin) *AdminPricingHandlers {
	return &AdminPricingHandlers{catalog: catalog}
}

// Routes registers the /admin/pricing endpoints.
func (h *AdminPricingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/pricing/cache:clear", h.clearCache)
	r.Post("/pricing/cache:refresh", h.refreshCache)
}

func (h *AdminPricingHandlers) clearCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "price catalog unavailable", http.StatusServiceUnavailable))
		return
	}
	h.catalog.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminPricingHandlers) refreshCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "price catalog unavailable", http.StatusServiceUnavailable))
		return
	}
	if err := h.catalog.Refresh(ctx); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_refresh_failed", "failed to reload price tables", http.StatusBadGateway))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":     "refreshed",
		"generation": h.catalog.CacheGeneration(),
	})
}
