package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"fieldly/api"
	"fieldly/config"
	"fieldly/models"
	"fieldly/services/payment"

	"go.uber.org/zap"
)

// Phase is the session-level lifecycle, one level above ClientStage: it also
// covers the search and approval periods the stage enum cannot express.
type Phase int

const (
	PhaseSearching Phase = iota
	PhaseAwaitingApproval
	PhaseTracking
	PhaseTimedOut
	PhaseCompleted
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "searching"
	case PhaseAwaitingApproval:
		return "awaiting_approval"
	case PhaseTracking:
		return "tracking"
	case PhaseTimedOut:
		return "timed_out"
	case PhaseCompleted:
		return "completed"
	case PhaseCancelled:
		return "cancelled"
	}
	return "unknown"
}

// JobSession owns every timer and collaborator for one job: the match poller,
// the tracking session, the approval flow, and the chat thread. It is
// constructed per job and disposed explicitly; there is no process-wide
// mutable registry behind it.
type JobSession struct {
	JobID   string
	Booking models.Booking

	mu       sync.Mutex
	phase    Phase
	approval bool // provider approval pending

	poller   *MatchPoller
	tracker  *TrackingSession
	approver *ApprovalFlow
	chat     *ChatThread
}

func (s *JobSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *JobSession) setPhase(p Phase) {
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
}

// StatusView is the read-only projection handed to the UI layer.
type StatusView struct {
	JobID            string                  `json:"jobId"`
	Phase            string                  `json:"phase"`
	Stage            models.ClientStage      `json:"stage"`
	StageName        string                  `json:"stageName"`
	MatchState       string                  `json:"matchState"`
	ApprovalRequired bool                    `json:"approvalRequired"`
	Snapshot         models.TrackingSnapshot `json:"snapshot"`
	ElapsedSeconds   int                     `json:"elapsedSeconds"`
}

// Timing bundles the poll cadence knobs so tests can shrink them.
type Timing struct {
	PollInterval time.Duration
	SearchBudget time.Duration
	ElapsedTick  time.Duration
}

// SessionManager creates, indexes, and disposes job sessions. One session per
// job id; the session exclusively owns the job's client-side state for its
// lifetime.
type SessionManager struct {
	api       api.Client
	routes    api.RouteProvider
	store     *SessionStore
	submitter *BookingSubmitter
	logger    *zap.Logger
	timing    Timing

	mu       sync.Mutex
	sessions map[string]*JobSession
}

func NewSessionManager(client api.Client, routes api.RouteProvider, store *SessionStore,
	gateway payment.Gateway, currency string, timing Timing, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		api:    client,
		routes: routes,
		store:  store,
		submitter: &BookingSubmitter{
			API:      client,
			Payments: gateway,
			Currency: currency,
			Logger:   logger,
		},
		logger:   logger,
		timing:   timing,
		sessions: make(map[string]*JobSession),
	}
}

// Submit runs the booking submission and, on success, opens a session and
// starts the provider search.
func (m *SessionManager) Submit(ctx context.Context, booking models.Booking) (*SubmitResult, error) {
	result, err := m.submitter.Submit(ctx, booking)
	if err != nil {
		return nil, err
	}

	sess := &JobSession{
		JobID:   result.JobID,
		Booking: booking,
		phase:   PhaseSearching,
	}
	sess.approver = NewApprovalFlow(m.api, m.logger, sess.JobID)
	sess.chat = NewChatThread(m.api, m.logger, sess.JobID)

	m.mu.Lock()
	m.sessions[sess.JobID] = sess
	m.mu.Unlock()

	m.startSearch(sess)
	return result, nil
}

// startSearch wires a fresh match poller with a full search budget.
func (m *SessionManager) startSearch(sess *JobSession) {
	sess.mu.Lock()
	sess.phase = PhaseSearching
	sess.poller = NewMatchPoller(m.api, m.logger, sess.JobID, m.timing.PollInterval, m.timing.SearchBudget,
		func(stage models.ClientStage, res api.TrackingResult) {
			m.onProviderFound(sess, stage, res)
		},
		func() {
			sess.setPhase(PhaseTimedOut)
		},
	)
	poller := sess.poller
	sess.mu.Unlock()

	poller.Start()
}

// onProviderFound hands the session from search to tracking, routing through
// the approval phase for negotiated tiers with a pending proposal.
func (m *SessionManager) onProviderFound(sess *JobSession, stage models.ClientStage, res api.TrackingResult) {
	negotiated := !IsImmediatePayment(sess.Booking.Tier)

	sess.mu.Lock()
	if negotiated && IsPendingApproval(res.Status) {
		sess.approval = true
		sess.phase = PhaseAwaitingApproval
		sess.poller.MarkAssigning()
	} else {
		sess.phase = PhaseTracking
		sess.poller.MarkConfirmed()
	}
	sess.mu.Unlock()

	m.startTracking(sess, stage)
}

// startTracking opens the post-match polling session.
func (m *SessionManager) startTracking(sess *JobSession, initial models.ClientStage) {
	tracker := NewTrackingSession(m.api, m.routes, m.store, m.logger,
		sess.JobID, sess.Booking.Location, initial,
		m.timing.PollInterval, m.timing.ElapsedTick,
		TrackingCallbacks{
			OnStage: func(stage models.ClientStage) {
				m.onStageAdvanced(sess, stage)
			},
		},
	)

	sess.mu.Lock()
	sess.tracker = tracker
	sess.mu.Unlock()

	tracker.Start()
}

func (m *SessionManager) onStageAdvanced(sess *JobSession, stage models.ClientStage) {
	sess.mu.Lock()
	if sess.approval && stage > models.StageMatched {
		// Server moved past the proposal, so the decision has been made
		// (or became moot); clear the approval gate.
		sess.approval = false
		sess.phase = PhaseTracking
		if sess.poller != nil {
			sess.poller.MarkConfirmed()
		}
	}
	if stage == models.StageCompleted {
		sess.phase = PhaseCompleted
	}
	sess.mu.Unlock()

	if stage == models.StageCompleted && m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.store.Delete(ctx, sess.JobID); err != nil {
			m.logger.Warn("Failed to drop session checkpoint", zap.String("job", sess.JobID), zap.Error(err))
		}
	}
}

// KeepWaiting is the user's explicit choice after a search timeout: re-queue
// the job server-side and run one fresh search budget. The budget does not
// renew on its own; each extension requires another explicit request.
func (m *SessionManager) KeepWaiting(ctx context.Context, jobID string) error {
	sess, err := m.session(jobID)
	if err != nil {
		return err
	}
	if sess.Phase() != PhaseTimedOut {
		return NewValidationError("job is not awaiting a search decision")
	}
	if err := m.api.QueueJob(ctx, jobID); err != nil {
		return translateAPIError(err)
	}
	m.startSearch(sess)
	return nil
}

// Cancel cancels the job server-side and disposes the session.
func (m *SessionManager) Cancel(ctx context.Context, jobID string) error {
	sess, err := m.session(jobID)
	if err != nil {
		return err
	}
	if err := m.api.CancelJob(ctx, jobID); err != nil {
		return translateAPIError(err)
	}

	sess.setPhase(PhaseCancelled)
	m.dispose(sess)
	if m.store != nil {
		if err := m.store.Delete(ctx, jobID); err != nil {
			m.logger.Warn("Failed to drop session checkpoint", zap.String("job", jobID), zap.Error(err))
		}
	}
	return nil
}

// Dispose tears the session down without touching the server, for when the
// owning screen goes away. Every timer is stopped before it returns.
func (m *SessionManager) Dispose(jobID string) {
	sess, err := m.session(jobID)
	if err != nil {
		return
	}
	m.dispose(sess)
}

func (m *SessionManager) dispose(sess *JobSession) {
	sess.mu.Lock()
	poller := sess.poller
	tracker := sess.tracker
	sess.mu.Unlock()

	if poller != nil {
		poller.Cancel()
	}
	if tracker != nil {
		tracker.Cancel()
	}

	m.mu.Lock()
	delete(m.sessions, sess.JobID)
	m.mu.Unlock()
}

// Approve delegates to the session's approval flow.
func (m *SessionManager) Approve(ctx context.Context, jobID string) error {
	sess, err := m.session(jobID)
	if err != nil {
		return err
	}
	return sess.approver.Approve(ctx)
}

// Reject delegates to the session's approval flow. confirmed must be true.
func (m *SessionManager) Reject(ctx context.Context, jobID string, confirmed bool) error {
	sess, err := m.session(jobID)
	if err != nil {
		return err
	}
	return sess.approver.Reject(ctx, confirmed)
}

// PendingProvider fetches the provider awaiting approval on the job.
func (m *SessionManager) PendingProvider(ctx context.Context, jobID string) (models.PendingProviderInfo, error) {
	sess, err := m.session(jobID)
	if err != nil {
		return models.PendingProviderInfo{}, err
	}
	return sess.approver.PendingProvider(ctx)
}

// SendChat sends a message on the job's thread.
func (m *SessionManager) SendChat(ctx context.Context, jobID, body string) (models.ChatMessage, error) {
	sess, err := m.session(jobID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	return sess.chat.Send(ctx, body), nil
}

// ChatMessages returns the job's thread.
func (m *SessionManager) ChatMessages(jobID string) ([]models.ChatMessage, error) {
	sess, err := m.session(jobID)
	if err != nil {
		return nil, err
	}
	return sess.chat.Messages(), nil
}

// Status returns the UI projection of the session.
func (m *SessionManager) Status(jobID string) (StatusView, error) {
	sess, err := m.session(jobID)
	if err != nil {
		return StatusView{}, err
	}

	sess.mu.Lock()
	view := StatusView{
		JobID:            sess.JobID,
		Phase:            sess.phase.String(),
		ApprovalRequired: sess.approval,
	}
	poller := sess.poller
	tracker := sess.tracker
	phase := sess.phase
	sess.mu.Unlock()

	if poller != nil {
		view.MatchState = poller.State().String()
	}
	if tracker != nil {
		view.Stage = tracker.Stage()
		view.Snapshot = tracker.Snapshot()
		view.ElapsedSeconds = tracker.ElapsedSeconds()
	} else if phase == PhaseTimedOut {
		view.Stage = models.StageSearchTimedOut
	} else {
		view.Stage = models.StagePending
	}
	view.StageName = view.Stage.String()
	return view, nil
}

// Resume rebuilds a tracking session from a persisted checkpoint, for a
// gateway restart while a job was live. No-op when a session is already
// active.
func (m *SessionManager) Resume(ctx context.Context, jobID string, booking models.Booking) error {
	if _, err := m.session(jobID); err == nil {
		return nil
	}
	if m.store == nil {
		return ErrUnknownSession
	}

	cp, err := m.store.Load(ctx, jobID)
	if err != nil {
		return translateAPIError(err)
	}
	if cp == nil {
		return ErrUnknownSession
	}
	if cp.JobID != jobID {
		// A checkpoint for a different job under this key means the store is
		// corrupted; raise loudly outside production.
		devPanic(m.logger, "session checkpoint job id mismatch",
			zap.String("want", jobID), zap.String("got", cp.JobID))
		return ErrUnknownSession
	}

	sess := &JobSession{
		JobID:   jobID,
		Booking: booking,
		phase:   PhaseTracking,
	}
	sess.approver = NewApprovalFlow(m.api, m.logger, jobID)
	sess.chat = NewChatThread(m.api, m.logger, jobID)

	m.mu.Lock()
	m.sessions[jobID] = sess
	m.mu.Unlock()

	m.startTracking(sess, cp.Stage)
	m.logger.Info("Resumed job session from checkpoint",
		zap.String("job", jobID), zap.String("stage", cp.Stage.String()))
	return nil
}

func (m *SessionManager) session(jobID string) (*JobSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[jobID]
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

func translateAPIError(err error) error {
	if api.IsAuthError(err) {
		return NewAuthError("session expired")
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return NewServiceError(apiErr.StatusCode, apiErr.Message)
	}
	return NewServiceError(0, err.Error())
}

// devPanic panics in development builds and logs in production.
func devPanic(logger *zap.Logger, msg string, fields ...zap.Field) {
	if !config.IsProduction() {
		panic(msg)
	}
	logger.Error(msg, fields...)
}
