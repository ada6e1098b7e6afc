package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fieldly/api"
	"fieldly/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func testTiming() Timing {
	return Timing{
		PollInterval: testInterval,
		SearchBudget: testBudget,
		ElapsedTick:  5 * time.Millisecond,
	}
}

func newTestManager(client *fakeAPI, store *SessionStore) *SessionManager {
	return NewSessionManager(client, &fakeRoutes{}, store, &fakeGateway{}, "usd", testTiming(), zap.NewNop())
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

func TestSessionSearchHandsOffToTracking(t *testing.T) {
	client := &fakeAPI{trackingFn: func(call int) (api.TrackingResult, error) {
		switch {
		case call < 2:
			return api.TrackingResult{Status: "pending_match"}, nil
		case call < 4:
			return api.TrackingResult{Status: "matched", ProviderName: "Sam P."}, nil
		default:
			return api.TrackingResult{Status: "en_route", ProviderName: "Sam P."}, nil
		}
	}}
	m := newTestManager(client, nil)

	result, err := m.Submit(context.Background(), tierTwoBooking())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer m.Dispose(result.JobID)

	view, err := m.Status(result.JobID)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if view.Phase != "searching" || view.Stage != models.StagePending {
		t.Fatalf("fresh session must be searching from Pending, got %+v", view)
	}

	waitFor(t, testBudget, func() bool {
		v, _ := m.Status(result.JobID)
		return v.Phase == "tracking"
	}, "session never reached tracking")

	waitFor(t, testBudget, func() bool {
		v, _ := m.Status(result.JobID)
		return v.Stage == models.StageEnRoute
	}, "stage never advanced to EnRoute")

	view, _ = m.Status(result.JobID)
	if view.Snapshot.ProviderName != "Sam P." {
		t.Fatalf("snapshot must carry the matched provider, got %+v", view.Snapshot)
	}
	if view.ApprovalRequired {
		t.Fatalf("immediate tiers never require approval")
	}
}

func TestSessionTimeoutThenKeepWaiting(t *testing.T) {
	var matchNow int32
	client := &fakeAPI{trackingFn: func(int) (api.TrackingResult, error) {
		if atomic.LoadInt32(&matchNow) == 1 {
			return api.TrackingResult{Status: "matched"}, nil
		}
		return api.TrackingResult{Status: "pending_match"}, nil
	}}
	m := newTestManager(client, nil)

	result, err := m.Submit(context.Background(), tierTwoBooking())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer m.Dispose(result.JobID)

	// KeepWaiting is only valid once the search has actually timed out.
	if err := m.KeepWaiting(context.Background(), result.JobID); !IsValidation(err) {
		t.Fatalf("expected validation error before timeout, got %v", err)
	}

	waitFor(t, 4*testBudget, func() bool {
		v, _ := m.Status(result.JobID)
		return v.Phase == "timed_out"
	}, "search never timed out")

	view, _ := m.Status(result.JobID)
	if view.Stage != models.StageSearchTimedOut {
		t.Fatalf("expected SearchTimedOut stage, got %v", view.Stage)
	}

	// The explicit extension re-queues server-side and runs one fresh budget.
	atomic.StoreInt32(&matchNow, 1)
	if err := m.KeepWaiting(context.Background(), result.JobID); err != nil {
		t.Fatalf("keep waiting failed: %v", err)
	}
	if client.queueCalls != 1 {
		t.Fatalf("expected 1 queue request, got %d", client.queueCalls)
	}

	waitFor(t, testBudget, func() bool {
		v, _ := m.Status(result.JobID)
		return v.Phase == "tracking"
	}, "extended search never found the provider")
}

func TestSessionNegotiatedTierRoutesThroughApproval(t *testing.T) {
	var approved int32
	client := &fakeAPI{trackingFn: func(int) (api.TrackingResult, error) {
		if atomic.LoadInt32(&approved) == 1 {
			return api.TrackingResult{Status: "en_route", ProviderName: "Sam P."}, nil
		}
		return api.TrackingResult{Status: "pending_approval", ProviderName: "Sam P."}, nil
	}}
	m := newTestManager(client, nil)

	booking := tierTwoBooking()
	booking.Tier = models.TierCertified

	result, err := m.Submit(context.Background(), booking)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer m.Dispose(result.JobID)

	waitFor(t, testBudget, func() bool {
		v, _ := m.Status(result.JobID)
		return v.Phase == "awaiting_approval"
	}, "session never entered the approval phase")

	view, _ := m.Status(result.JobID)
	if !view.ApprovalRequired {
		t.Fatalf("approval gate must be raised, got %+v", view)
	}

	info, err := m.PendingProvider(context.Background(), result.JobID)
	if err != nil || info.DisplayName != "Sam P." {
		t.Fatalf("pending provider fetch failed: %v / %+v", err, info)
	}

	if err := m.Approve(context.Background(), result.JobID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	// The server acknowledges by moving the job forward; the next poll clears
	// the gate.
	atomic.StoreInt32(&approved, 1)

	waitFor(t, testBudget, func() bool {
		v, _ := m.Status(result.JobID)
		return v.Phase == "tracking" && !v.ApprovalRequired
	}, "approval gate never cleared")
}

func TestSessionCancelDisposesEverything(t *testing.T) {
	client := &fakeAPI{}
	m := newTestManager(client, nil)

	result, err := m.Submit(context.Background(), tierTwoBooking())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := m.Cancel(context.Background(), result.JobID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if client.cancelCalls != 1 {
		t.Fatalf("expected 1 cancel request, got %d", client.cancelCalls)
	}

	if _, err := m.Status(result.JobID); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("cancelled session must be gone, got %v", err)
	}

	// All timers are stopped: no polls after Cancel returns.
	settled := client.trackingCallCount()
	time.Sleep(4 * testInterval)
	if got := client.trackingCallCount(); got != settled {
		t.Fatalf("polling continued after cancel: %d -> %d", settled, got)
	}
}

func TestSessionOperationsOnUnknownJob(t *testing.T) {
	m := newTestManager(&fakeAPI{}, nil)

	if _, err := m.Status("nope"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if err := m.Approve(context.Background(), "nope"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if err := m.KeepWaiting(context.Background(), "nope"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestSessionChatDelegation(t *testing.T) {
	m := newTestManager(&fakeAPI{}, nil)

	result, err := m.Submit(context.Background(), tierTwoBooking())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	defer m.Dispose(result.JobID)

	msg, err := m.SendChat(context.Background(), result.JobID, "hello")
	if err != nil || msg.Delivery != models.ChatConfirmed {
		t.Fatalf("chat send failed: %v / %+v", err, msg)
	}

	msgs, err := m.ChatMessages(result.JobID)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("unexpected thread: %v / %v", err, msgs)
	}
}

func TestSessionResumeFromCheckpoint(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	store := NewSessionStore(cache, time.Hour)

	client := &fakeAPI{trackingFn: func(int) (api.TrackingResult, error) {
		return api.TrackingResult{Status: "en_route", ProviderName: "Sam P."}, nil
	}}
	m := newTestManager(client, store)

	ctx := context.Background()
	if err := store.Save(ctx, Checkpoint{JobID: "job-9", RawStatus: "en_route", Stage: models.StageEnRoute}); err != nil {
		t.Fatalf("seed checkpoint failed: %v", err)
	}

	if err := m.Resume(ctx, "job-9", tierTwoBooking()); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	defer m.Dispose("job-9")

	view, err := m.Status("job-9")
	if err != nil {
		t.Fatalf("status after resume failed: %v", err)
	}
	if view.Phase != "tracking" || view.Stage != models.StageEnRoute {
		t.Fatalf("resumed session must track from the checkpoint stage, got %+v", view)
	}
}

func TestSessionResumeWithoutCheckpoint(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	m := newTestManager(&fakeAPI{}, NewSessionStore(cache, time.Hour))

	err := m.Resume(context.Background(), "job-9", tierTwoBooking())
	if !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}
