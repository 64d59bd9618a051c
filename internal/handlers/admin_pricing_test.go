package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type stubCatalogAdmin struct {
	stubCatalog
	cleared    int
	refreshed  int
	refreshErr error
	generation uint64
}

func (s *stubCatalogAdmin) ClearCache() {
	s.cleared++
	s.generation++
}

func (s *stubCatalogAdmin) Refresh(context.Context) error {
	s.refreshed++
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.generation++
	return nil
}

func (s *stubCatalogAdmin) CacheGeneration() uint64 {
	return s.generation
}

func newAdminRouter(catalog *stubCatalogAdmin) chi.Router {
	r := chi.NewRouter()
	NewAdminPricingHandlers(catalog).Routes(r)
	return r
}

func TestAdminClearCache(t *testing.T) {
	catalog := &stubCatalogAdmin{}
	router := newAdminRouter(catalog)

	req := httptest.NewRequest(http.MethodPost, "/pricing/cache:clear", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if catalog.cleared != 1 {
		t.Fatalf("expected one clear call, got %d", catalog.cleared)
	}
}

func TestAdminRefreshCache(t *testing.T) {
	catalog := &stubCatalogAdmin{generation: 3}
	router := newAdminRouter(catalog)

	req := httptest.NewRequest(http.MethodPost, "/pricing/cache:refresh", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload struct {
		Status     string `json:"status"`
		Generation uint64 `json:"generation"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if payload.Status != "refreshed" || payload.Generation != 4 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if catalog.refreshed != 1 {
		t.Fatalf("expected one refresh call, got %d", catalog.refreshed)
	}
}

func TestAdminRefreshCacheFailure(t *testing.T) {
	catalog := &stubCatalogAdmin{refreshErr: errors.New("source down")}
	router := newAdminRouter(catalog)

	req := httptest.NewRequest(http.MethodPost, "/pricing/cache:refresh", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rr.Code)
	}
}
