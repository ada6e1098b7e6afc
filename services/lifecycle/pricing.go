package lifecycle

import (
	"math"

	"fieldly/models"
)

// IsImmediatePayment reports whether payment is authorized at booking time.
// Tiers 1-2 are hourly work with a known rate, so an estimated charge can be
// authorized up front; tiers 3-4 wait for a provider-specific proposal before
// any amount is known. This single predicate is the branch point for the
// booking submission protocol and must hold on every UI path.
func IsImmediatePayment(tier models.ServiceTier) bool {
	return tier <= models.TierExperienced
}

// PriorityMultiplier returns the tier-derived multiplier applied to the base
// rate when the booking is created.
func PriorityMultiplier(tier models.ServiceTier) float64 {
	switch tier {
	case models.TierGeneral:
		return 1.0
	case models.TierExperienced:
		return 1.25
	case models.TierCertified:
		return 1.5
	case models.TierEmergency:
		return 2.0
	}
	return 1.0
}

// EstimateRange returns the tier's default price band, shown before any
// provider proposal exists.
func EstimateRange(tier models.ServiceTier) models.PriceRange {
	switch tier {
	case models.TierGeneral:
		return models.PriceRange{Min: 40, Max: 80}
	case models.TierExperienced:
		return models.PriceRange{Min: 60, Max: 120}
	case models.TierCertified:
		return models.PriceRange{Min: 100, Max: 220}
	case models.TierEmergency:
		return models.PriceRange{Min: 150, Max: 350}
	}
	return models.PriceRange{}
}

// QuotedAmountCents computes the amount to authorize for an immediate-payment
// booking: the server estimate when present, otherwise the midpoint of the
// tier's price band.
func QuotedAmountCents(serverEstimate float64, band models.PriceRange) int64 {
	quoted := serverEstimate
	if quoted == 0 {
		quoted = band.Midpoint()
	}
	return int64(math.Round(quoted * 100))
}
