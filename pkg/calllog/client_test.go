package calllog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostRecord(t *testing.T) {
	var gotBody map[string]json.RawMessage
	var gotHeader http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "anon-key", "shared-secret")
	summary := "a summary"
	err := client.Post(context.Background(), &Record{
		TwilioCallSid: "CA123",
		Direction:     "OUTBOUND",
		Transcript:    "Caller: hi",
		AISummary:     &summary,
		EndedAt:       "2026-08-06T12:00:00Z",
		Model:         "gpt-4o-mini",
		OrgID:         StringPtr("org-1"),
	})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	if gotHeader.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", gotHeader.Get("Content-Type"))
	}
	if gotHeader.Get("Authorization") != "Bearer anon-key" {
		t.Errorf("Authorization = %q", gotHeader.Get("Authorization"))
	}
	if gotHeader.Get("X-Shared-Secret") != "shared-secret" {
		t.Errorf("x-shared-secret = %q", gotHeader.Get("X-Shared-Secret"))
	}

	if string(gotBody["twilio_call_sid"]) != `"CA123"` {
		t.Errorf("twilio_call_sid = %s", gotBody["twilio_call_sid"])
	}
	if string(gotBody["status"]) != `"COMPLETED"` {
		t.Errorf("status = %s, want default COMPLETED", gotBody["status"])
	}
}

func TestAbsentFieldsSerializeAsNull(t *testing.T) {
	var raw string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raw = string(body)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	err := client.Post(context.Background(), &Record{
		TwilioCallSid: "CA123",
		Direction:     "INBOUND",
		Transcript:    "Caller: hi",
		EndedAt:       "2026-08-06T12:00:00Z",
		Model:         "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	for _, field := range []string{"ai_summary", "org_id", "prospect_id", "to_number", "from_number", "started_at", "recording_url", "recording_duration_seconds"} {
		if !strings.Contains(raw, `"`+field+`":null`) {
			t.Errorf("field %s should serialize as explicit null, body: %s", field, raw)
		}
	}
}

func TestPostNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s")
	err := client.Post(context.Background(), &Record{TwilioCallSid: "CA1"})
	if err == nil {
		t.Fatal("Post() should fail on non-2xx")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestStringPtr(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("StringPtr(\"\") should be nil")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Error("StringPtr should point at the value")
	}
}
