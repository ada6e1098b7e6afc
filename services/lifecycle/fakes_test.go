package lifecycle

import (
	"context"
	"sync"

	"fieldly/api"
	"fieldly/models"
)

// fakeAPI is a scriptable marketplace client. Handlers default to benign
// no-ops; tests override the ones they exercise.
type fakeAPI struct {
	mu sync.Mutex

	createFn   func(models.Booking) (api.BookingResult, error)
	trackingFn func(call int) (api.TrackingResult, error)
	chatFn     func(body string) (string, error)

	approveFn  func() error
	approveErr error
	rejectErr  error
	queueErr   error

	trackingCalls int
	approveCalls  int
	rejectCalls   int
	queueCalls    int
	cancelCalls   int
}

func (f *fakeAPI) CreateBooking(_ context.Context, b models.Booking) (api.BookingResult, error) {
	if f.createFn != nil {
		return f.createFn(b)
	}
	return api.BookingResult{BookingID: "job-1", EstimatedPrice: 80}, nil
}

func (f *fakeAPI) JobDetail(_ context.Context, jobID string) (models.Job, error) {
	return models.Job{ID: jobID}, nil
}

func (f *fakeAPI) JobTracking(_ context.Context, _ string) (api.TrackingResult, error) {
	f.mu.Lock()
	call := f.trackingCalls
	f.trackingCalls++
	fn := f.trackingFn
	f.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return api.TrackingResult{Status: "pending_match"}, nil
}

func (f *fakeAPI) ApproveProvider(_ context.Context, _ string) error {
	f.mu.Lock()
	f.approveCalls++
	fn := f.approveFn
	f.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return f.approveErr
}

func (f *fakeAPI) RejectProvider(_ context.Context, _ string) error {
	f.mu.Lock()
	f.rejectCalls++
	f.mu.Unlock()
	return f.rejectErr
}

func (f *fakeAPI) PendingProviderInfo(_ context.Context, _ string) (models.PendingProviderInfo, error) {
	return models.PendingProviderInfo{DisplayName: "Sam P.", Level: "certified", YearsExperience: 7}, nil
}

func (f *fakeAPI) QueueJob(_ context.Context, _ string) error {
	f.mu.Lock()
	f.queueCalls++
	f.mu.Unlock()
	return f.queueErr
}

func (f *fakeAPI) CancelJob(_ context.Context, _ string) error {
	f.mu.Lock()
	f.cancelCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) SendChatMessage(_ context.Context, _, body string) (string, error) {
	if f.chatFn != nil {
		return f.chatFn(body)
	}
	return "srv-" + body, nil
}

func (f *fakeAPI) trackingCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trackingCalls
}

// fakeGateway records payment calls and fails on demand.
type fakeGateway struct {
	mu sync.Mutex

	customerID  string
	customerErr error
	intentErr   error

	ensureCalls int
	intentCalls int
	gotAmount   int64
	gotCurrency string
	gotCustomer string
}

func (g *fakeGateway) EnsureCustomer(_ context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureCalls++
	if g.customerErr != nil {
		return "", g.customerErr
	}
	if g.customerID == "" {
		g.customerID = "cus_test"
	}
	return g.customerID, nil
}

func (g *fakeGateway) CreateIntent(_ context.Context, jobID string, amountCents int64, currency, customerID string) (*models.PaymentIntentRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentCalls++
	g.gotAmount = amountCents
	g.gotCurrency = currency
	g.gotCustomer = customerID
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	return &models.PaymentIntentRecord{
		JobID:            jobID,
		IntentID:         "pi_test",
		AmountCents:      amountCents,
		Currency:         currency,
		StripeCustomerID: customerID,
		Status:           "requires_payment_method",
	}, nil
}

// fakeRoutes returns a canned path and counts invocations.
type fakeRoutes struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *fakeRoutes) Route(_ context.Context, origin, dest models.LatLng) ([]models.LatLng, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []models.LatLng{origin, dest}, nil
}

func (r *fakeRoutes) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// allConsent returns a fully acknowledged consent record.
func allConsent() models.ConsentRecord {
	return models.ConsentRecord{
		IndependentProviderAck: true,
		ScopeAck:               true,
		PricingAck:             true,
		EmergencySlaAck:        true,
	}
}
