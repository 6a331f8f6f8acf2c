// Package pricing turns a service's base price range into the final range
// quoted to the customer.
package pricing

import (
	"math"

	"estimate_portal_backend/internal/estimate/catalog"
)

const basisPoints = 10000

// ComputeFinalPrice scales both bounds of base by the multiplier for urgency
// and rounds each half-up to whole dollars. A missing multiplier counts as 1.0.
//
// Multipliers are applied in basis points so that 150 x 0.95 yields 143
// rather than the 142 that binary floating point would produce.
func ComputeFinalPrice(base catalog.PriceRange, urgency catalog.Urgency, table catalog.Multipliers) catalog.PriceRange {
	bp := toBasisPoints(table.For(urgency))
	return catalog.PriceRange{
		Min: scale(base.Min, bp),
		Max: scale(base.Max, bp),
	}
}

// ForService prices a descriptor. The returned error is non-nil when the
// descriptor's authored price was malformed; the range is still returned.
func ForService(svc catalog.ServiceDescriptor, urgency catalog.Urgency) (catalog.PriceRange, error) {
	return ComputeFinalPrice(svc.BasePrice, urgency, svc.UrgencyMultiplier), svc.PriceErr()
}

func toBasisPoints(multiplier float64) int64 {
	if multiplier < 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return basisPoints
	}
	return int64(math.Round(multiplier * basisPoints))
}

func scale(amount int, bp int64) int {
	v := int64(amount) * bp
	if v >= 0 {
		return int((v + basisPoints/2) / basisPoints)
	}
	return -int((-v + basisPoints/2) / basisPoints)
}
