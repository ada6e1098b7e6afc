package payment

import (
	"context"
	"errors"
	"fmt"

	"fieldly/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// --- Interfaces ---
type Gateway interface {
	EnsureCustomer(ctx context.Context) (string, error)
	CreateIntent(ctx context.Context, jobID string, amountCents int64, currency, customerID string) (*models.PaymentIntentRecord, error)
}

// --- StripeGateway Implementation ---
type StripeGateway struct {
	logger *zap.Logger
}

// --- NewStripeGateway Constructor ---
func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{logger: logger}
}

// EnsureCustomer provisions a Stripe customer for the current user. Callers
// treat failure here as non-fatal: an intent can still be created without a
// customer association.
func (g *StripeGateway) EnsureCustomer(ctx context.Context) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to provision stripe customer: %w", err)
	}

	g.logger.Info("Stripe customer provisioned", zap.String("customer", c.ID))
	return c.ID, nil
}

// CreateIntent authorizes the quoted amount for an immediate-payment booking.
func (g *StripeGateway) CreateIntent(ctx context.Context, jobID string, amountCents int64, currency, customerID string) (*models.PaymentIntentRecord, error) {
	if amountCents <= 0 {
		return nil, errors.New("invalid payment amount")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("job_id", jobID)
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	record := &models.PaymentIntentRecord{
		JobID:            jobID,
		IntentID:         pi.ID,
		AmountCents:      amountCents,
		Currency:         currency,
		StripeCustomerID: customerID,
		Status:           string(pi.Status),
	}

	g.logger.Info("Payment intent created",
		zap.String("job", jobID),
		zap.String("intent", pi.ID),
		zap.Int64("amountCents", amountCents),
	)
	return record, nil
}
