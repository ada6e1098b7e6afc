package models

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TrackingSnapshot is the ephemeral per-poll view of the assigned provider.
// It is replaced wholesale on every successful poll; a failed poll leaves the
// previous snapshot untouched. Owned exclusively by the active tracking
// session.
type TrackingSnapshot struct {
	ProviderName  string   `json:"providerName"`
	ProviderPhone string   `json:"providerPhone"`
	ProviderPos   *LatLng  `json:"providerPos,omitempty"`
	EtaMinutes    int      `json:"etaMinutes"`
	Route         []LatLng `json:"route,omitempty"`
}

// HasPosition reports whether the provider reported coordinates this tick.
func (s TrackingSnapshot) HasPosition() bool {
	return s.ProviderPos != nil
}
