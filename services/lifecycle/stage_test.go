package lifecycle

import (
	"testing"

	"fieldly/models"
)

func TestMapStatusCollapsesVocabulary(t *testing.T) {
	cases := map[string]models.ClientStage{
		"pending":           models.StagePending,
		"pending_match":     models.StagePending,
		"matched":           models.StageMatched,
		"pending_approval":  models.StageMatched,
		"scheduled":         models.StageMatched,
		"accepted":          models.StageMatched,
		"provider_accepted": models.StageMatched,
		"en_route":          models.StageEnRoute,
		"on_the_way":        models.StageEnRoute,
		"arrived":           models.StageArrived,
		"on_site":           models.StageArrived,
		"in_progress":       models.StageInProgress,
		"work_started":      models.StageInProgress,
		"completed":         models.StageCompleted,
		"done":              models.StageCompleted,
	}
	for raw, want := range cases {
		if got := MapStatus(raw); got != want {
			t.Errorf("MapStatus(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestMapStatusDefaultsToPending(t *testing.T) {
	for _, raw := range []string{"", "unknown_status_v2", "provider_reimbursed", "cancelled", "???"} {
		if got := MapStatus(raw); got != models.StagePending {
			t.Errorf("MapStatus(%q) = %v, want StagePending", raw, got)
		}
	}
}

func TestMapStatusCaseInsensitive(t *testing.T) {
	if got := MapStatus("MATCHED"); got != models.StageMatched {
		t.Fatalf("MapStatus(MATCHED) = %v, want StageMatched", got)
	}
	if got := MapStatus("  In_Progress "); got != models.StageInProgress {
		t.Fatalf("MapStatus with padding = %v, want StageInProgress", got)
	}
}

func TestIsPendingApproval(t *testing.T) {
	if !IsPendingApproval("pending_approval") {
		t.Fatalf("expected pending_approval to gate on customer decision")
	}
	if !IsPendingApproval("Proposal_Submitted") {
		t.Fatalf("expected proposal_submitted to gate on customer decision")
	}
	if IsPendingApproval("matched") {
		t.Fatalf("matched must not require approval")
	}
}

func TestProviderFound(t *testing.T) {
	if ProviderFound(models.StagePending) {
		t.Fatalf("pending is still searching")
	}
	for _, s := range []models.ClientStage{
		models.StageMatched, models.StageEnRoute, models.StageArrived,
		models.StageInProgress, models.StageCompleted,
	} {
		if !ProviderFound(s) {
			t.Errorf("ProviderFound(%v) = false, want true", s)
		}
	}
	if ProviderFound(models.StageSearchTimedOut) {
		t.Fatalf("timed-out is not a found state")
	}
}

func TestStageOrdering(t *testing.T) {
	order := []models.ClientStage{
		models.StagePending, models.StageMatched, models.StageEnRoute,
		models.StageArrived, models.StageInProgress, models.StageCompleted,
	}
	for i := 0; i < len(order)-1; i++ {
		if !order[i].Before(order[i+1]) {
			t.Errorf("expected %v < %v", order[i], order[i+1])
		}
		if order[i+1].Before(order[i]) {
			t.Errorf("did not expect %v < %v", order[i+1], order[i])
		}
	}
	if models.StageSearchTimedOut.Before(models.StageCompleted) || models.StageCompleted.Before(models.StageSearchTimedOut) {
		t.Fatalf("search timeout must not participate in the ordering")
	}
}
