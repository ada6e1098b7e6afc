package lifecycle

import (
	"context"
	"errors"
	"sync"

	"fieldly/api"
	"fieldly/models"

	"go.uber.org/zap"
)

// ApprovalFlow manages the customer's accept/reject decision on a proposed
// provider for negotiated-pricing tiers. The server remains the sole
// authority on job state: neither action mutates the client-visible stage;
// the next poll reflects the outcome. Repeated taps while a request is
// outstanding are suppressed.
type ApprovalFlow struct {
	api    api.Client
	logger *zap.Logger
	jobID  string

	mu       sync.Mutex
	inFlight bool
}

func NewApprovalFlow(client api.Client, logger *zap.Logger, jobID string) *ApprovalFlow {
	return &ApprovalFlow{api: client, logger: logger, jobID: jobID}
}

// PendingProvider fetches the provider awaiting the customer's decision.
func (f *ApprovalFlow) PendingProvider(ctx context.Context) (models.PendingProviderInfo, error) {
	info, err := f.api.PendingProviderInfo(ctx, f.jobID)
	if err != nil {
		return models.PendingProviderInfo{}, f.translate(err)
	}
	return info, nil
}

// Approve accepts the proposed provider. On failure the caller may retry; no
// client-side job state changes either way.
func (f *ApprovalFlow) Approve(ctx context.Context) error {
	if !f.begin() {
		return ErrActionInFlight
	}
	defer f.end()

	if err := f.api.ApproveProvider(ctx, f.jobID); err != nil {
		f.logger.Warn("Provider approval failed", zap.String("job", f.jobID), zap.Error(err))
		return f.translate(err)
	}
	f.logger.Info("Provider approved", zap.String("job", f.jobID))
	return nil
}

// Reject declines the proposed provider, instructing the server to re-match.
// Destructive: the caller must have obtained explicit confirmation first and
// pass confirmed=true.
func (f *ApprovalFlow) Reject(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return NewValidationError("rejection requires explicit confirmation")
	}
	if !f.begin() {
		return ErrActionInFlight
	}
	defer f.end()

	if err := f.api.RejectProvider(ctx, f.jobID); err != nil {
		f.logger.Warn("Provider rejection failed", zap.String("job", f.jobID), zap.Error(err))
		return f.translate(err)
	}
	f.logger.Info("Provider rejected, server will re-match", zap.String("job", f.jobID))
	return nil
}

// begin acquires the single in-flight slot shared by both actions.
func (f *ApprovalFlow) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return false
	}
	f.inFlight = true
	return true
}

func (f *ApprovalFlow) end() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}

func (f *ApprovalFlow) translate(err error) error {
	if api.IsAuthError(err) {
		return NewAuthError("session expired")
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return NewServiceError(apiErr.StatusCode, apiErr.Message)
	}
	return NewServiceError(0, err.Error())
}
