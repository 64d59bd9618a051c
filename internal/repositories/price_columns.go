package repositories

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/opmgear/api/internal/domain"
)

// PriceColumnBreakpoint maps a source column name such as "price144" to
// its quantity breakpoint. Column matching is case-insensitive.
func PriceColumnBreakpoint(column string) (int, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(column))
	if !strings.HasPrefix(trimmed, "price") {
		return 0, false
	}
	quantity, err := strconv.Atoi(strings.TrimPrefix(trimmed, "price"))
	if err != nil {
		return 0, false
	}
	for _, breakpoint := range domain.QuantityBreakpoints {
		if breakpoint == quantity {
			return breakpoint, true
		}
	}
	return 0, false
}

// PriceColumnName renders the canonical column name for a breakpoint.
func PriceColumnName(breakpoint int) string {
	return fmt.Sprintf("price%d", breakpoint)
}

// ParsePriceCents converts a decimal price string ("4.25", "$4.25",
// "4") to minor currency units. An empty value returns ok=false so the
// loader leaves the breakpoint unpopulated and lookups fall back to the
// nearest lower one; a present but malformed or negative value coerces
// to zero cents with ok=true, matching how the platform has always
// treated damaged rows.
func ParsePriceCents(raw string) (int64, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, false
	}

	if strings.HasPrefix(cleaned, "-") {
		return 0, true
	}

	whole := cleaned
	fraction := ""
	if idx := strings.IndexByte(cleaned, '.'); idx >= 0 {
		whole = cleaned[:idx]
		fraction = cleaned[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, true
	}

	// Normalise the fraction to exactly two digits, truncating extras.
	switch {
	case len(fraction) == 0:
		fraction = "00"
	case len(fraction) == 1:
		fraction += "0"
	case len(fraction) > 2:
		fraction = fraction[:2]
	}
	hundredths, err := strconv.ParseInt(fraction, 10, 64)
	if err != nil {
		return 0, true
	}

	return units*100 + hundredths, true
}
