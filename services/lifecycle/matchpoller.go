package lifecycle

import (
	"context"
	"sync"
	"time"

	"fieldly/api"
	"fieldly/models"

	"go.uber.org/zap"
)

// MatchState is the provider-search state machine.
type MatchState int

const (
	MatchSearching MatchState = iota
	MatchFound
	MatchAssigning
	MatchConfirmed
	MatchTimedOut
	MatchCancelled
)

func (s MatchState) String() string {
	switch s {
	case MatchSearching:
		return "searching"
	case MatchFound:
		return "found"
	case MatchAssigning:
		return "assigning"
	case MatchConfirmed:
		return "confirmed"
	case MatchTimedOut:
		return "timed_out"
	case MatchCancelled:
		return "cancelled"
	}
	return "unknown"
}

// MatchPoller polls job tracking until a provider is found or the search
// budget elapses. It owns its timers: after Cancel returns, no callback fires
// and no further poll is issued. Individual poll failures are logged and
// ignored; they neither count toward nor reset the budget.
type MatchPoller struct {
	api      api.Client
	logger   *zap.Logger
	jobID    string
	interval time.Duration
	budget   time.Duration

	onFound   func(stage models.ClientStage, res api.TrackingResult)
	onTimeout func()

	mu     sync.Mutex
	state  MatchState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMatchPoller builds a poller for one job. onFound receives the mapped
// stage and the tracking payload that ended the search; onTimeout fires once
// if the budget elapses while still searching.
func NewMatchPoller(client api.Client, logger *zap.Logger, jobID string, interval, budget time.Duration,
	onFound func(models.ClientStage, api.TrackingResult), onTimeout func()) *MatchPoller {
	return &MatchPoller{
		api:       client,
		logger:    logger,
		jobID:     jobID,
		interval:  interval,
		budget:    budget,
		onFound:   onFound,
		onTimeout: onTimeout,
		state:     MatchSearching,
	}
}

// Start begins polling: one immediate fetch, then one per interval.
func (p *MatchPoller) Start() {
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.state = MatchSearching
	p.mu.Unlock()

	go p.run(ctx)
}

func (p *MatchPoller) run(ctx context.Context) {
	defer close(p.done)

	deadline := time.NewTimer(p.budget)
	defer deadline.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.pollOnce(ctx) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			p.setState(MatchTimedOut)
			p.logger.Info("Provider search timed out", zap.String("job", p.jobID))
			if ctx.Err() == nil && p.onTimeout != nil {
				p.onTimeout()
			}
			return
		case <-ticker.C:
			if p.pollOnce(ctx) {
				return
			}
		}
	}
}

// pollOnce issues a single tracking fetch. Returns true when polling must
// stop. Polls run strictly sequentially: the next tick is not consumed until
// this one resolves, so responses cannot be applied out of order.
func (p *MatchPoller) pollOnce(ctx context.Context) bool {
	res, err := p.api.JobTracking(ctx, p.jobID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn("Match poll failed, retrying on next tick",
			zap.String("job", p.jobID), zap.Error(err))
		return false
	}

	stage := MapStatus(res.Status)
	if !ProviderFound(stage) {
		return false
	}
	if ctx.Err() != nil {
		return true
	}

	p.setState(MatchFound)
	p.logger.Info("Provider found", zap.String("job", p.jobID), zap.String("status", res.Status))
	if p.onFound != nil {
		p.onFound(stage, res)
	}
	return true
}

// Cancel stops polling deterministically. It blocks until the poll goroutine
// has exited, so once it returns no onFound/onTimeout invocation can occur.
func (p *MatchPoller) Cancel() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	if p.state == MatchSearching {
		p.state = MatchCancelled
	}
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// MarkAssigning records the handoff to the approval phase.
func (p *MatchPoller) MarkAssigning() {
	p.setState(MatchAssigning)
}

// MarkConfirmed records that the match is final and tracking owns the job.
func (p *MatchPoller) MarkConfirmed() {
	p.setState(MatchConfirmed)
}

// State returns the current search state.
func (p *MatchPoller) State() MatchState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *MatchPoller) setState(s MatchState) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}
