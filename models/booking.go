package models

import "time"

// ServiceTier is the ordinal service level chosen with the task. It is fixed
// once the task is selected and drives both consent requirements and the
// payment timing policy.
type ServiceTier int

const (
	TierGeneral     ServiceTier = 1
	TierExperienced ServiceTier = 2
	TierCertified   ServiceTier = 3
	TierEmergency   ServiceTier = 4
)

func (t ServiceTier) String() string {
	switch t {
	case TierGeneral:
		return "general"
	case TierExperienced:
		return "experienced"
	case TierCertified:
		return "certified"
	case TierEmergency:
		return "emergency"
	}
	return "unknown"
}

// Valid reports whether the tier is one of the four defined levels.
func (t ServiceTier) Valid() bool {
	return t >= TierGeneral && t <= TierEmergency
}

// ConsentRecord holds the legal/SLA acknowledgments collected before
// submission. The emergency SLA ack is only relevant for TierEmergency.
type ConsentRecord struct {
	IndependentProviderAck bool `json:"independentProviderAck"`
	ScopeAck               bool `json:"scopeAck"`
	PricingAck             bool `json:"pricingAck"`
	EmergencySlaAck        bool `json:"emergencySlaAck"`
}

// PriceRange is the tier-level estimate band shown before a provider proposal
// exists.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Midpoint returns the middle of the band, used as the quoted amount when the
// server returns a zero estimate.
func (r PriceRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Schedule is either an exact date/time or a "flexible" marker.
type Schedule struct {
	Flexible bool       `json:"flexible"`
	At       *time.Time `json:"at,omitempty"`
}

// Booking is assembled client-side during task selection and becomes the
// immutable input to submission. It is superseded by the Job projection the
// moment the server returns one.
type Booking struct {
	TaskID             string        `json:"taskId"`
	TaskName           string        `json:"taskName"`
	Tier               ServiceTier   `json:"tier"`
	Address            string        `json:"address"`
	Location           LatLng        `json:"location"`
	Schedule           Schedule      `json:"schedule"`
	PriorityMultiplier float64       `json:"priorityMultiplier"`
	Notes              []string      `json:"notes,omitempty"`
	EstimateRange      PriceRange    `json:"estimateRange"`
	Consent            ConsentRecord `json:"consent"`
}
