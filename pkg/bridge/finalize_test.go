package bridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dipsyai/voicebridge/pkg/calllog"
	"github.com/dipsyai/voicebridge/pkg/inference"
)

type fakeChat struct {
	calls    int
	lastReq  *inference.ChatRequest
	response string
	err      error
}

func (f *fakeChat) Chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &inference.ChatResponse{
		Message: inference.Message{Role: inference.RoleAssistant, Content: f.response},
	}, nil
}

type fakeSink struct {
	calls int
	last  *calllog.Record
	err   error
}

func (f *fakeSink) Post(ctx context.Context, rec *calllog.Record) error {
	f.calls++
	f.last = rec
	return f.err
}

func testLogger() *slog.Logger {
	return slog.Default()
}

var longTranscript = strings.Repeat("Caller: tell me more about the product\n", 3)

func TestFinalizerPostsSummaryAndRecord(t *testing.T) {
	chat := &fakeChat{response: "The caller asked about the product."}
	sink := &fakeSink{}
	f := NewFinalizer(chat, sink, "summarize this call", "gpt-4o-mini", "org-1")

	started := time.Now().Add(-time.Minute)
	f.Run(context.Background(), testLogger(), FinalizeInput{
		CallSid:    "CA1",
		Direction:  "OUTBOUND",
		Transcript: longTranscript,
		StartedAt:  started,
		EndedAt:    time.Now(),
	})

	if chat.calls != 1 {
		t.Fatalf("Chat calls = %d, want 1", chat.calls)
	}
	if chat.lastReq.Temperature != 0.4 || chat.lastReq.MaxTokens != 800 {
		t.Errorf("summary request params = %+v", chat.lastReq)
	}
	if len(chat.lastReq.Messages) != 2 ||
		chat.lastReq.Messages[0].Role != inference.RoleSystem ||
		!strings.Contains(chat.lastReq.Messages[1].Content, longTranscript) {
		t.Errorf("summary messages = %+v", chat.lastReq.Messages)
	}

	if sink.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", sink.calls)
	}
	rec := sink.last
	if rec.TwilioCallSid != "CA1" || rec.Direction != "OUTBOUND" {
		t.Errorf("record = %+v", rec)
	}
	if rec.AISummary == nil || *rec.AISummary != "The caller asked about the product." {
		t.Errorf("AISummary = %v", rec.AISummary)
	}
	if rec.OrgID == nil || *rec.OrgID != "org-1" {
		t.Errorf("OrgID = %v", rec.OrgID)
	}
	if rec.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", rec.Model)
	}
	if rec.StartedAt == nil {
		t.Error("StartedAt should be set")
	}
	if rec.EndedAt == "" {
		t.Error("EndedAt should be set")
	}
}

func TestFinalizerShortTranscriptSkipsSummary(t *testing.T) {
	chat := &fakeChat{response: "unused"}
	sink := &fakeSink{}
	f := NewFinalizer(chat, sink, "p", "m", "")

	f.Run(context.Background(), testLogger(), FinalizeInput{
		CallSid:    "CA1",
		Direction:  "INBOUND",
		Transcript: "Caller: hi", // trimmed length 10, below the threshold
		EndedAt:    time.Now(),
	})

	if chat.calls != 0 {
		t.Error("no summary request should be made for a short transcript")
	}
	if sink.calls != 1 {
		t.Fatal("the record must still be posted")
	}
	if sink.last.AISummary != nil {
		t.Errorf("AISummary = %v, want null", sink.last.AISummary)
	}
	if sink.last.OrgID != nil {
		t.Errorf("empty org id should serialize as null, got %v", sink.last.OrgID)
	}
}

func TestFinalizerSummaryFailureDegrades(t *testing.T) {
	chat := &fakeChat{err: errors.New("upstream 500")}
	sink := &fakeSink{}
	f := NewFinalizer(chat, sink, "p", "m", "")

	f.Run(context.Background(), testLogger(), FinalizeInput{
		CallSid:    "CA1",
		Direction:  "OUTBOUND",
		Transcript: longTranscript,
		EndedAt:    time.Now(),
	})

	if sink.calls != 1 {
		t.Fatal("summary failure must not abort the record post")
	}
	if sink.last.AISummary != nil {
		t.Errorf("AISummary = %v, want null after failure", sink.last.AISummary)
	}
}

func TestFinalizerSkipsWithoutCallSid(t *testing.T) {
	chat := &fakeChat{}
	sink := &fakeSink{}
	f := NewFinalizer(chat, sink, "p", "m", "")

	f.Run(context.Background(), testLogger(), FinalizeInput{
		CallSid:    "",
		Transcript: longTranscript,
		EndedAt:    time.Now(),
	})

	if chat.calls != 0 || sink.calls != 0 {
		t.Error("finalizer should make no HTTP calls without a call sid")
	}
}

func TestFinalizerSkipsEmptyTranscript(t *testing.T) {
	chat := &fakeChat{}
	sink := &fakeSink{}
	f := NewFinalizer(chat, sink, "p", "m", "")

	f.Run(context.Background(), testLogger(), FinalizeInput{
		CallSid: "CA1",
		EndedAt: time.Now(),
	})

	if chat.calls != 0 || sink.calls != 0 {
		t.Error("finalizer should make no HTTP calls for an empty transcript")
	}
}

func TestFinalizerSinkFailureIsContained(t *testing.T) {
	chat := &fakeChat{response: "summary"}
	sink := &fakeSink{err: errors.New("sink down")}
	f := NewFinalizer(chat, sink, "p", "m", "")

	// Must not panic or propagate.
	f.Run(context.Background(), testLogger(), FinalizeInput{
		CallSid:    "CA1",
		Direction:  "OUTBOUND",
		Transcript: longTranscript,
		EndedAt:    time.Now(),
	})
	if sink.calls != 1 {
		t.Error("sink should have been attempted")
	}
}
