package lifecycle

import "fieldly/models"

// IsSubmittable reports whether every acknowledgment required for the tier has
// been given. The emergency SLA ack is required exactly when the tier is
// Emergency; the three base acks are always required. Pure: any UI control
// that flips a consent flag re-evaluates this before enabling submission.
func IsSubmittable(tier models.ServiceTier, consent models.ConsentRecord) bool {
	base := consent.IndependentProviderAck && consent.ScopeAck && consent.PricingAck
	if tier == models.TierEmergency {
		return base && consent.EmergencySlaAck
	}
	return base
}

// MissingConsents lists the acknowledgments still outstanding for the tier,
// for inline validation messages.
func MissingConsents(tier models.ServiceTier, consent models.ConsentRecord) []string {
	var missing []string
	if !consent.IndependentProviderAck {
		missing = append(missing, "independentProviderAck")
	}
	if !consent.ScopeAck {
		missing = append(missing, "scopeAck")
	}
	if !consent.PricingAck {
		missing = append(missing, "pricingAck")
	}
	if tier == models.TierEmergency && !consent.EmergencySlaAck {
		missing = append(missing, "emergencySlaAck")
	}
	return missing
}
