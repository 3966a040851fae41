// Package sink delivers tracked events to external analytics platforms.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/BarkinBalci/lifecycle-analytics-service/internal/domain"
)

// Well-known property keys set by the dispatcher
const (
	PropUserID    = "user_id"
	PropClientID  = "client_id"
	PropSessionID = "session_id"
	PropSegment   = "segment"
	PropEventID   = "event_id"
	PropTimestamp = "timestamp"
)

const maxErrorBody = 512

// Properties is the normalized payload handed to every sink
type Properties map[string]any

// String returns the string value of key, or "" when missing or not a string
func (p Properties) String(key string) string {
	v, _ := p[key].(string)
	return v
}

// Time returns the event timestamp, falling back to now
func (p Properties) Time(now func() time.Time) time.Time {
	if ts, ok := p[PropTimestamp].(time.Time); ok && !ts.IsZero() {
		return ts
	}
	return now()
}

// Sink is an analytics destination. A non-nil error from Send is always a *domain.SinkError.
type Sink interface {
	Name() string
	Send(ctx context.Context, eventName string, props Properties) error
}

// IDGenerator produces anonymous identifiers
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random v4 UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// postJSON sends body to url and returns the response payload. Non-2xx statuses become a SinkError.
func postJSON(ctx context.Context, client *http.Client, sinkName, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.SinkError{Sink: sinkName, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.SinkError{Sink: sinkName, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.SinkError{Sink: sinkName, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, &domain.SinkError{Sink: sinkName, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := respBody
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &domain.SinkError{
			Sink:       sinkName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", bytes.TrimSpace(snippet)),
		}
	}

	return respBody, nil
}

// recoverSend converts a panic inside an adapter into a SinkError
func recoverSend(sinkName string, err *error) {
	if r := recover(); r != nil {
		*err = &domain.SinkError{Sink: sinkName, Err: fmt.Errorf("panic during send: %v", r)}
	}
}
