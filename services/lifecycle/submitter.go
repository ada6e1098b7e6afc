package lifecycle

import (
	"context"
	"errors"

	"fieldly/api"
	"fieldly/models"
	"fieldly/services/payment"

	"go.uber.org/zap"
)

// SubmitResult is what the UI needs after a successful submission. Payment is
// nil when the tier defers payment or when intent creation failed; a missing
// payment never invalidates the created job.
type SubmitResult struct {
	JobID          string                      `json:"jobId"`
	EstimatedPrice float64                     `json:"estimatedPrice"`
	Payment        *models.PaymentIntentRecord `json:"payment,omitempty"`
	CustomerID     string                      `json:"customerId,omitempty"`
}

// BookingSubmitter orchestrates booking creation and, for immediate-payment
// tiers, upfront payment authorization. Job creation and payment are
// independent failure domains: once the server has created the job, no
// payment outcome can roll it back or hide it.
type BookingSubmitter struct {
	API        api.Client
	Payments   payment.Gateway
	Currency   string
	CustomerID string
	Logger     *zap.Logger
}

// Submit validates consent locally, creates the booking upstream, and for
// tiers 1-2 attempts payment-intent creation. Payment failures (including
// customer provisioning) are logged and swallowed.
func (s *BookingSubmitter) Submit(ctx context.Context, booking models.Booking) (*SubmitResult, error) {
	if !booking.Tier.Valid() {
		return nil, NewValidationError("invalid service tier")
	}
	if !IsSubmittable(booking.Tier, booking.Consent) {
		return nil, NewValidationError("missing required consent", MissingConsents(booking.Tier, booking.Consent)...)
	}

	created, err := s.API.CreateBooking(ctx, booking)
	if err != nil {
		if api.IsAuthError(err) {
			return nil, NewAuthError("session expired")
		}
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			return nil, NewServiceError(apiErr.StatusCode, apiErr.Message)
		}
		return nil, NewServiceError(0, err.Error())
	}

	result := &SubmitResult{
		JobID:          created.BookingID,
		EstimatedPrice: created.EstimatedPrice,
	}

	if IsImmediatePayment(booking.Tier) {
		s.authorizePayment(ctx, booking, result)
	}

	s.Logger.Info("Booking submitted",
		zap.String("job", result.JobID),
		zap.String("tier", booking.Tier.String()),
		zap.Bool("immediatePayment", IsImmediatePayment(booking.Tier)),
	)
	return result, nil
}

// authorizePayment attempts customer provisioning and intent creation. Every
// failure path is non-fatal: the job already exists and payment can be
// completed or retried later.
func (s *BookingSubmitter) authorizePayment(ctx context.Context, booking models.Booking, result *SubmitResult) {
	amount := QuotedAmountCents(result.EstimatedPrice, booking.EstimateRange)
	if amount <= 0 {
		return
	}

	customerID := s.CustomerID
	if customerID == "" {
		id, err := s.Payments.EnsureCustomer(ctx)
		if err != nil {
			s.Logger.Warn("customer provisioning failed, continuing without association",
				zap.String("job", result.JobID), zap.Error(err))
		} else {
			customerID = id
			result.CustomerID = id
		}
	}

	record, err := s.Payments.CreateIntent(ctx, result.JobID, amount, s.Currency, customerID)
	if err != nil {
		s.Logger.Warn("payment intent creation failed, job remains created",
			zap.String("job", result.JobID), zap.Error(err))
		return
	}
	result.Payment = record
}
