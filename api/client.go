package api

import (
	"context"

	"fieldly/models"
)

// BookingResult is the server's answer to a booking creation call.
type BookingResult struct {
	BookingID      string  `json:"bookingId"`
	EstimatedPrice float64 `json:"estimatedPrice"`
}

// TrackingResult is one tick of the job tracking endpoint. Status carries the
// server's raw vocabulary; provider fields are only present once a provider is
// assigned.
type TrackingResult struct {
	Status        string   `json:"status"`
	ProviderName  string   `json:"providerName,omitempty"`
	ProviderPhone string   `json:"providerPhone,omitempty"`
	ProviderLat   *float64 `json:"providerLat,omitempty"`
	ProviderLng   *float64 `json:"providerLng,omitempty"`
	EtaMinutes    int      `json:"etaMinutes,omitempty"`
}

// Client is the upstream marketplace API consumed by the lifecycle core. The
// server behind it is the sole authority on job status; the client never
// writes status, it only reads and reacts.
type Client interface {
	CreateBooking(ctx context.Context, booking models.Booking) (BookingResult, error)
	JobDetail(ctx context.Context, jobID string) (models.Job, error)
	JobTracking(ctx context.Context, jobID string) (TrackingResult, error)
	ApproveProvider(ctx context.Context, jobID string) error
	RejectProvider(ctx context.Context, jobID string) error
	PendingProviderInfo(ctx context.Context, jobID string) (models.PendingProviderInfo, error)
	QueueJob(ctx context.Context, jobID string) error
	CancelJob(ctx context.Context, jobID string) error
	SendChatMessage(ctx context.Context, jobID, body string) (string, error)
}
