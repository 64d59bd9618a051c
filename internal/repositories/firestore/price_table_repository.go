// Package firestore implements the price table repository against the
// managed Firestore backing store.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	domain "github.com/opmgear/api/internal/domain"
	pfirestore "github.com/opmgear/api/internal/platform/firestore"
	"github.com/opmgear/api/internal/repositories"
)

const (
	priceTablesCollection = "priceTables"
	rowsSubcollection     = "rows"
	nameField             = "name"
)

// PriceTableRepository reads price rows from one subcollection per
// category: priceTables/{category}/rows.
type PriceTableRepository struct {
	provider *pfirestore.Provider
	rows     map[domain.PriceCategory]*pfirestore.BaseRepository[map[string]any]
}

// NewPriceTableRepository constructs the repository over the shared
// Firestore provider.
func NewPriceTableRepository(provider *pfirestore.Provider) (*PriceTableRepository, error) {
	if provider == nil {
		return nil, errors.New("price table repository requires firestore provider")
	}

	rows := make(map[domain.PriceCategory]*pfirestore.BaseRepository[map[string]any], len(domain.AllPriceCategories))
	for _, category := range domain.AllPriceCategories {
		collection := fmt.Sprintf("%s/%s/%s", priceTablesCollection, category, rowsSubcollection)
		rows[category] = pfirestore.NewBaseRepository(provider, collection, nil, pfirestore.MapDecoder())
	}
	return &PriceTableRepository{provider: provider, rows: rows}, nil
}

// LoadTable fetches every row document for the category. Connectivity
// failures report the source as unavailable; individual damaged fields
// coerce to zero the same way the CSV loader treats them.
func (r *PriceTableRepository) LoadTable(ctx context.Context, category domain.PriceCategory) (domain.PriceTable, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("price table repository not initialised")
	}

	repo, ok := r.rows[category]
	if !ok {
		return nil, repositories.NewPriceSourceError(category, fmt.Errorf("unknown category %q", category))
	}

	docs, err := repo.Query(ctx, nil)
	if err != nil {
		return nil, repositories.NewPriceSourceError(category, err)
	}

	table := make(domain.PriceTable, len(docs))
	for _, doc := range docs {
		name := rowName(doc.ID, doc.Data)
		if name == "" {
			continue
		}

		prices := make(map[int]int64)
		for field, value := range doc.Data {
			breakpoint, ok := repositories.PriceColumnBreakpoint(field)
			if !ok {
				continue
			}
			if cents, ok := priceCentsFromValue(value); ok {
				prices[breakpoint] = cents
			}
		}
		table[domain.NormalizeItemName(name)] = domain.PriceRow{Name: name, Prices: prices}
	}
	return table, nil
}

func rowName(docID string, data map[string]any) string {
	if raw, ok := data[nameField]; ok {
		if name, ok := raw.(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return strings.TrimSpace(docID)
}

// priceCentsFromValue accepts the numeric and string encodings the
// pricing documents have accumulated over time. Numbers are dollars, the
// unit the admin tooling writes.
func priceCentsFromValue(value any) (int64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, true
		}
		return int64(math.Round(v * 100)), true
	case int64:
		if v < 0 {
			return 0, true
		}
		return v * 100, true
	case int:
		if v < 0 {
			return 0, true
		}
		return int64(v) * 100, true
	case string:
		return repositories.ParsePriceCents(v)
	default:
		return 0, true
	}
}
