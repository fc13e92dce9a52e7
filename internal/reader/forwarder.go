package reader

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/remember-me/care-monitor/internal/auth"
	"github.com/remember-me/care-monitor/internal/models"
)

const tokenTTL = 5 * time.Minute

// Ack is the ingestion service's reply to a posted event.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BackendError is returned when the service answers with anything but 200.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Forwarder posts events to the ingestion service. Failed events are not retried.
type Forwarder struct {
	client      *resty.Client
	tokenSecret string
	deviceID    string
}

// NewForwarder creates a Forwarder for the service at baseURL.
func NewForwarder(baseURL string, timeout time.Duration) *Forwarder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Forwarder{client: client}
}

// WithDeviceToken signs every request with a short-lived token for deviceID.
func (f *Forwarder) WithDeviceToken(secret, deviceID string) *Forwarder {
	f.tokenSecret = secret
	f.deviceID = deviceID
	return f
}

// Forward posts one event and returns the service acknowledgement.
func (f *Forwarder) Forward(ctx context.Context, event models.CareEvent) (*Ack, error) {
	var ack, failure Ack
	req := f.client.R().
		SetContext(ctx).
		SetBody(event).
		SetResult(&ack).
		SetError(&failure)

	if f.tokenSecret != "" {
		token, err := auth.GenerateDeviceToken(f.tokenSecret, f.deviceID, tokenTTL)
		if err != nil {
			return nil, fmt.Errorf("sign device token: %w", err)
		}
		req.SetAuthToken(token)
	}

	resp, err := req.Post("/events")
	if err != nil {
		return nil, fmt.Errorf("post event: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &BackendError{StatusCode: resp.StatusCode(), Message: failure.Message}
	}
	return &ack, nil
}
