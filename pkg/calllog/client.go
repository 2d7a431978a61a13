// Package calllog posts completed call records to the external
// call-log sink.
package calllog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dipsyai/voicebridge/internal/httpc"
)

// DefaultStatus is used when a record does not set one.
const DefaultStatus = "COMPLETED"

// DefaultTimeout bounds the POST so finalization cannot leak a session.
const DefaultTimeout = 15 * time.Second

// Record is the call-log payload. Absent optional fields serialize as
// explicit null, which the sink requires.
type Record struct {
	TwilioCallSid string  `json:"twilio_call_sid"`
	OrgID         *string `json:"org_id"`
	ProspectID    *string `json:"prospect_id"`
	Status        string  `json:"status"`
	Direction     string  `json:"direction"`
	ToNumber      *string `json:"to_number"`
	FromNumber    *string `json:"from_number"`
	Transcript    string  `json:"transcript"`
	AISummary     *string `json:"ai_summary"`
	StartedAt     *string `json:"started_at"`
	EndedAt       string  `json:"ended_at"`
	Model         string  `json:"model"`
	RecordingURL  *string `json:"recording_url"`
	RecordingDur  *int    `json:"recording_duration_seconds"`
}

// Client posts records to the sink. The sink authenticates every
// request with both the anon bearer key and a shared-secret header.
type Client struct {
	url          string
	anonKey      string
	sharedSecret string
	http         *http.Client
}

// NewClient creates a sink client.
func NewClient(url, anonKey, sharedSecret string) *Client {
	return &Client{
		url:          url,
		anonKey:      anonKey,
		sharedSecret: sharedSecret,
		http:         httpc.NewClient(DefaultTimeout),
	}
}

// Post sends one record. Non-2xx responses are returned as errors with
// the response body included.
func (c *Client) Post(ctx context.Context, rec *Record) error {
	if rec.Status == "" {
		rec.Status = DefaultStatus
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("calllog: marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calllog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.anonKey)
	req.Header.Set("x-shared-secret", c.sharedSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calllog: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("calllog: sink returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// StringPtr returns a pointer to s, or nil when s is empty. Used to
// build Record fields that must be null when absent.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
