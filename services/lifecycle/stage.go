package lifecycle

import (
	"strings"

	"fieldly/models"
)

// stageTable collapses the server's open status vocabulary onto the six client
// stages. Many-to-one on purpose: the UI reacts to coarse stages only, and new
// server values must never force a new client stage. Anything not listed here
// maps to StagePending.
var stageTable = map[string]models.ClientStage{
	"pending":       models.StagePending,
	"pending_match": models.StagePending,
	"searching":     models.StagePending,
	"queued":        models.StagePending,
	"requested":     models.StagePending,
	"created":       models.StagePending,

	"matched":           models.StageMatched,
	"pending_approval":  models.StageMatched,
	"awaiting_approval": models.StageMatched,
	"scheduled":         models.StageMatched,
	"accepted":          models.StageMatched,
	"provider_accepted": models.StageMatched,
	"assigned":          models.StageMatched,
	"confirmed":         models.StageMatched,

	"en_route":   models.StageEnRoute,
	"enroute":    models.StageEnRoute,
	"on_the_way": models.StageEnRoute,
	"departed":   models.StageEnRoute,

	"arrived":    models.StageArrived,
	"on_site":    models.StageArrived,
	"onsite":     models.StageArrived,
	"checked_in": models.StageArrived,

	"in_progress":  models.StageInProgress,
	"started":      models.StageInProgress,
	"work_started": models.StageInProgress,
	"working":      models.StageInProgress,

	"completed": models.StageCompleted,
	"done":      models.StageCompleted,
	"finished":  models.StageCompleted,
	"closed":    models.StageCompleted,
}

// pendingApprovalStatuses are the raw values that collapse to StageMatched but
// additionally gate the job on a customer approve/reject decision. The mapper
// loses this distinction deliberately; callers that care ask here.
var pendingApprovalStatuses = map[string]bool{
	"pending_approval":   true,
	"awaiting_approval":  true,
	"proposal_submitted": true,
}

// MapStatus maps a raw server status to a client stage. Total and
// case-insensitive: unrecognized values default to StagePending.
func MapStatus(raw string) models.ClientStage {
	if stage, ok := stageTable[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return stage
	}
	return models.StagePending
}

// IsPendingApproval reports whether the raw status requires the customer's
// approve/reject decision before the job proceeds.
func IsPendingApproval(raw string) bool {
	return pendingApprovalStatuses[strings.ToLower(strings.TrimSpace(raw))]
}

// ProviderFound reports whether a mapped stage means a provider is committed
// to the job, ending the search phase.
func ProviderFound(stage models.ClientStage) bool {
	return stage.Ordered() && stage >= models.StageMatched
}
