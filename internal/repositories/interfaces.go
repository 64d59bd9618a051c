package repositories

import (
	"context"

	domain "github.com/opmgear/api/internal/domain"
)

// PriceTableRepository loads tiered unit-price tables wholesale per
// category. Implementations exist for flat CSV files and Firestore; the
// pricing engine does not care which backs a deployment.
//
// LoadTable returns ErrPriceSourceUnavailable (wrapped) when the backing
// source cannot be reached at all. Data-quality problems inside a
// reachable source are not errors: malformed numeric fields coerce to
// zero and unknown columns are ignored, so a partially damaged table
// still loads.
type PriceTableRepository interface {
	LoadTable(ctx context.Context, category domain.PriceCategory) (domain.PriceTable, error)
}
