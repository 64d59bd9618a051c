// Package csvsource loads price tables from flat CSV files, the format
// operations exports from the pricing spreadsheets.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/opmgear/api/internal/domain"
	"github.com/opmgear/api/internal/repositories"
)

const nameColumn = "name"

// categoryFiles maps each price category to its file under the source
// directory.
var categoryFiles = map[domain.PriceCategory]string{
	domain.PriceCategoryBaseProduct: "base_product.csv",
	domain.PriceCategoryLogoMethod:  "logo_method.csv",
	domain.PriceCategoryFabric:      "fabric.csv",
	domain.PriceCategoryClosure:     "closure.csv",
	domain.PriceCategoryAccessory:   "accessory.csv",
	domain.PriceCategoryService:     "service.csv",
	domain.PriceCategoryDelivery:    "delivery.csv",
	domain.PriceCategoryMoldCharge:  "mold_charge.csv",
}

// PriceTableRepository reads one CSV file per category from a directory.
type PriceTableRepository struct {
	dir string
}

// NewPriceTableRepository constructs the repository rooted at dir.
func NewPriceTableRepository(dir string) (*PriceTableRepository, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, errors.New("csv price source: directory is required")
	}
	return &PriceTableRepository{dir: trimmed}, nil
}

// LoadTable parses the category's file into a price table. Rows with an
// empty name are skipped; malformed prices coerce to zero; empty price
// cells leave the breakpoint unpopulated. A missing or unreadable file
// reports the source as unavailable.
func (r *PriceTableRepository) LoadTable(ctx context.Context, category domain.PriceCategory) (domain.PriceTable, error) {
	if r == nil {
		return nil, errors.New("csv price source: repository not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filename, ok := categoryFiles[category]
	if !ok {
		return nil, repositories.NewPriceSourceError(category, fmt.Errorf("unknown category %q", category))
	}

	file, err := os.Open(filepath.Join(r.dir, filename))
	if err != nil {
		return nil, repositories.NewPriceSourceError(category, err)
	}
	defer file.Close()

	table, err := parseTable(file)
	if err != nil {
		return nil, repositories.NewPriceSourceError(category, err)
	}
	return table, nil
}

func parseTable(reader io.Reader) (domain.PriceTable, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.PriceTable{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	nameIdx := -1
	breakpointIdx := make(map[int]int)
	for idx, column := range header {
		if strings.EqualFold(strings.TrimSpace(column), nameColumn) {
			nameIdx = idx
			continue
		}
		if breakpoint, ok := repositories.PriceColumnBreakpoint(column); ok {
			breakpointIdx[idx] = breakpoint
		}
	}
	if nameIdx < 0 {
		return nil, errors.New("header missing name column")
	}

	table := make(domain.PriceTable)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if nameIdx >= len(record) {
			continue
		}

		name := strings.TrimSpace(record[nameIdx])
		if name == "" {
			continue
		}

		prices := make(map[int]int64, len(breakpointIdx))
		for idx, breakpoint := range breakpointIdx {
			if idx >= len(record) {
				continue
			}
			if cents, ok := repositories.ParsePriceCents(record[idx]); ok {
				prices[breakpoint] = cents
			}
		}

		table[domain.NormalizeItemName(name)] = domain.PriceRow{Name: name, Prices: prices}
	}
	return table, nil
}
