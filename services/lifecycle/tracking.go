package lifecycle

import (
	"context"
	"sync"
	"time"

	"fieldly/api"
	"fieldly/models"

	"go.uber.org/zap"
)

// TrackingCallbacks is the UI-facing surface of a tracking session. All
// callbacks fire from the session's poll goroutine, never after Cancel has
// returned.
type TrackingCallbacks struct {
	OnStage    func(stage models.ClientStage)
	OnSnapshot func(snapshot models.TrackingSnapshot)
	OnElapsed  func(seconds int)
}

// TrackingSession polls job tracking from the moment a provider is matched
// until the job completes. It enforces the monotonic-stage invariant (a stale
// response can never move the displayed stage backward), replaces the
// provider snapshot wholesale each successful tick, runs a local elapsed-time
// counter while work is in progress, and requests a route whenever the
// provider's reported position changes.
type TrackingSession struct {
	api         api.Client
	routes      api.RouteProvider
	store       *SessionStore
	logger      *zap.Logger
	jobID       string
	dest        models.LatLng
	interval    time.Duration
	elapsedTick time.Duration
	callbacks   TrackingCallbacks

	mu             sync.Mutex
	stage          models.ClientStage
	snapshot       models.TrackingSnapshot
	elapsedSeconds int
	routeOrigin    *models.LatLng
	cancel         context.CancelFunc
	done           chan struct{}
}

// NewTrackingSession builds a session for one matched job. initial is the
// stage that ended the search; dest is the job's service address. store may
// be nil when checkpointing is disabled.
func NewTrackingSession(client api.Client, routes api.RouteProvider, store *SessionStore, logger *zap.Logger,
	jobID string, dest models.LatLng, initial models.ClientStage,
	interval, elapsedTick time.Duration, callbacks TrackingCallbacks) *TrackingSession {
	return &TrackingSession{
		api:         client,
		routes:      routes,
		store:       store,
		logger:      logger,
		jobID:       jobID,
		dest:        dest,
		interval:    interval,
		elapsedTick: elapsedTick,
		callbacks:   callbacks,
		stage:       initial,
	}
}

// Start begins polling: one immediate fetch, then one per interval, until the
// job completes or the session is cancelled.
func (s *TrackingSession) Start() {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
}

func (s *TrackingSession) run(ctx context.Context) {
	defer close(s.done)

	poll := time.NewTicker(s.interval)
	defer poll.Stop()

	// The elapsed counter ticks only while stage == InProgress. Its channel is
	// nil otherwise so the select never fires.
	var elapsed *time.Ticker
	var elapsedC <-chan time.Time
	stopElapsed := func() {
		if elapsed != nil {
			elapsed.Stop()
			elapsed = nil
			elapsedC = nil
		}
	}
	defer stopElapsed()

	syncElapsed := func() {
		inProgress := s.Stage() == models.StageInProgress
		switch {
		case inProgress && elapsed == nil:
			elapsed = time.NewTicker(s.elapsedTick)
			elapsedC = elapsed.C
		case !inProgress && elapsed != nil:
			stopElapsed()
			s.mu.Lock()
			s.elapsedSeconds = 0
			s.mu.Unlock()
		}
	}

	if s.pollOnce(ctx) {
		return
	}
	syncElapsed()

	for {
		select {
		case <-ctx.Done():
			return
		case <-elapsedC:
			s.mu.Lock()
			s.elapsedSeconds++
			n := s.elapsedSeconds
			s.mu.Unlock()
			if s.callbacks.OnElapsed != nil {
				s.callbacks.OnElapsed(n)
			}
		case <-poll.C:
			if s.pollOnce(ctx) {
				return
			}
			syncElapsed()
		}
	}
}

// pollOnce fetches one tracking tick and applies it. Returns true when
// polling must stop permanently (job completed or session cancelled). A
// failed poll leaves stage and snapshot untouched; the fixed interval itself
// is the retry policy.
func (s *TrackingSession) pollOnce(ctx context.Context) bool {
	res, err := s.api.JobTracking(ctx, s.jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		s.logger.Warn("Tracking poll failed, keeping last known state",
			zap.String("job", s.jobID), zap.Error(err))
		return false
	}
	if ctx.Err() != nil {
		return true
	}

	mapped := MapStatus(res.Status)

	s.mu.Lock()
	current := s.stage
	if mapped.Before(current) {
		s.mu.Unlock()
		s.logger.Debug("Discarded stale tracking response",
			zap.String("job", s.jobID),
			zap.String("reported", mapped.String()),
			zap.String("current", current.String()),
		)
		return false
	}
	changed := mapped != current
	s.stage = mapped
	s.mu.Unlock()

	snapshot := s.applySnapshot(ctx, res, mapped)

	if changed {
		s.logger.Info("Job stage advanced",
			zap.String("job", s.jobID),
			zap.String("from", current.String()),
			zap.String("to", mapped.String()),
		)
		s.checkpoint(ctx, res.Status, mapped, snapshot)
		if s.callbacks.OnStage != nil {
			s.callbacks.OnStage(mapped)
		}
	}
	if s.callbacks.OnSnapshot != nil {
		s.callbacks.OnSnapshot(snapshot)
	}

	if mapped == models.StageCompleted {
		s.mu.Lock()
		s.elapsedSeconds = 0
		s.mu.Unlock()
		return true
	}
	return false
}

// applySnapshot replaces the provider snapshot wholesale and refreshes the
// cached route when the provider's position changed. No partial merges.
func (s *TrackingSession) applySnapshot(ctx context.Context, res api.TrackingResult, stage models.ClientStage) models.TrackingSnapshot {
	next := models.TrackingSnapshot{
		ProviderName:  res.ProviderName,
		ProviderPhone: res.ProviderPhone,
		EtaMinutes:    res.EtaMinutes,
	}
	if res.ProviderLat != nil && res.ProviderLng != nil {
		next.ProviderPos = &models.LatLng{Lat: *res.ProviderLat, Lng: *res.ProviderLng}
	}

	s.mu.Lock()
	prevRoute := s.snapshot.Route
	origin := s.routeOrigin
	s.mu.Unlock()

	wantRoute := next.ProviderPos != nil &&
		stage != models.StageCompleted && stage != models.StageInProgress

	if wantRoute {
		if origin != nil && *origin == *next.ProviderPos {
			next.Route = prevRoute
		} else if s.routes != nil {
			path, err := s.routes.Route(ctx, *next.ProviderPos, s.dest)
			if err != nil {
				s.logger.Warn("Route derivation failed, keeping cached route",
					zap.String("job", s.jobID), zap.Error(err))
				next.Route = prevRoute
			} else {
				next.Route = path
			}
		}
	}

	s.mu.Lock()
	s.snapshot = next
	if next.ProviderPos != nil {
		pos := *next.ProviderPos
		s.routeOrigin = &pos
	}
	s.mu.Unlock()

	return next
}

// checkpoint persists the committed stage so a restarted gateway can resume
// the session. Best effort: a failed write is logged and ignored.
func (s *TrackingSession) checkpoint(ctx context.Context, raw string, stage models.ClientStage, snapshot models.TrackingSnapshot) {
	if s.store == nil {
		return
	}
	cp := Checkpoint{
		JobID:     s.jobID,
		RawStatus: raw,
		Stage:     stage,
		Snapshot:  snapshot,
		UpdatedAt: time.Now(),
	}
	if err := s.store.Save(ctx, cp); err != nil {
		s.logger.Warn("Session checkpoint failed", zap.String("job", s.jobID), zap.Error(err))
	}
}

// Cancel stops all session timers deterministically. It blocks until the poll
// goroutine has exited, so once it returns no callback can fire.
func (s *TrackingSession) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Stage returns the last committed stage.
func (s *TrackingSession) Stage() models.ClientStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Snapshot returns the last known provider snapshot.
func (s *TrackingSession) Snapshot() models.TrackingSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// ElapsedSeconds returns the in-progress counter value. Zero whenever the
// stage is not InProgress.
func (s *TrackingSession) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedSeconds
}
