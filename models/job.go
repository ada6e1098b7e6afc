package models

import "time"

// ClientStage is the coarse job lifecycle the UI reacts to. The server reports a
// much finer-grained status vocabulary; the client collapses it to these stages
// and never computes status on its own.
type ClientStage int

const (
	StagePending ClientStage = iota
	StageMatched
	StageEnRoute
	StageArrived
	StageInProgress
	StageCompleted
)

// StageSearchTimedOut sits outside the ordered progression. It is reachable only
// from StagePending, when the provider search budget elapses without a match.
const StageSearchTimedOut ClientStage = 100

func (s ClientStage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageMatched:
		return "matched"
	case StageEnRoute:
		return "en_route"
	case StageArrived:
		return "arrived"
	case StageInProgress:
		return "in_progress"
	case StageCompleted:
		return "completed"
	case StageSearchTimedOut:
		return "search_timed_out"
	}
	return "unknown"
}

// Ordered reports whether the stage participates in the monotonic progression.
func (s ClientStage) Ordered() bool {
	return s >= StagePending && s <= StageCompleted
}

// Before reports whether s precedes other in the fixed stage ordering.
// Only meaningful for ordered stages.
func (s ClientStage) Before(other ClientStage) bool {
	return s.Ordered() && other.Ordered() && s < other
}

// Terminal reports whether no further stage transitions can occur.
func (s ClientStage) Terminal() bool {
	return s == StageCompleted || s == StageSearchTimedOut
}

// Job is the client-side projection of the server-owned job aggregate. It is
// read-mostly: every field except Stage mirrors what the server last reported,
// and Stage is derived from RawStatus via the status mapper. Once the stage is
// terminal the projection is never updated again.
type Job struct {
	ID             string      `json:"id"`
	RawStatus      string      `json:"rawStatus"`
	Stage          ClientStage `json:"stage"`
	TaskName       string      `json:"taskName"`
	Address        string      `json:"address"`
	EstimatedPrice float64     `json:"estimatedPrice"`
	FinalPrice     float64     `json:"finalPrice,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// PendingProviderInfo describes the provider awaiting customer approval on a
// negotiated-tier job. Fetched separately because the status mapper collapses
// pending_approval into StageMatched.
type PendingProviderInfo struct {
	DisplayName     string `json:"displayName"`
	Level           string `json:"level"`
	YearsExperience int    `json:"yearsExperience"`
}
