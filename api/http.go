package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fieldly/models"

	"go.uber.org/zap"
)

// HTTPClient talks to the marketplace API over REST.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient builds a client against the given base URL. The token, when
// set, is sent as a bearer credential on every request.
func NewHTTPClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return NewError(0, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		msg := errBody.Message
		if msg == "" {
			msg = errBody.Error
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return NewError(resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return NewError(0, fmt.Sprintf("failed to decode response: %v", err))
		}
	}
	return nil
}

func (c *HTTPClient) CreateBooking(ctx context.Context, booking models.Booking) (BookingResult, error) {
	var res BookingResult
	if err := c.do(ctx, http.MethodPost, "/api/bookings", booking, &res); err != nil {
		return BookingResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) JobDetail(ctx context.Context, jobID string) (models.Job, error) {
	var job models.Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+jobID, nil, &job); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

func (c *HTTPClient) JobTracking(ctx context.Context, jobID string) (TrackingResult, error) {
	var res TrackingResult
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+jobID+"/tracking", nil, &res); err != nil {
		return TrackingResult{}, err
	}
	return res, nil
}

func (c *HTTPClient) ApproveProvider(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+jobID+"/approve", nil, nil)
}

func (c *HTTPClient) RejectProvider(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+jobID+"/reject", nil, nil)
}

func (c *HTTPClient) PendingProviderInfo(ctx context.Context, jobID string) (models.PendingProviderInfo, error) {
	var info models.PendingProviderInfo
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+jobID+"/pending-provider", nil, &info); err != nil {
		return models.PendingProviderInfo{}, err
	}
	return info, nil
}

func (c *HTTPClient) QueueJob(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+jobID+"/queue", nil, nil)
}

func (c *HTTPClient) CancelJob(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+jobID+"/cancel", nil, nil)
}

func (c *HTTPClient) SendChatMessage(ctx context.Context, jobID, body string) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	payload := map[string]string{"body": body}
	if err := c.do(ctx, http.MethodPost, "/api/jobs/"+jobID+"/chat", payload, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}
