package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/dipsyai/voicebridge/pkg/calllog"
	"github.com/dipsyai/voicebridge/pkg/inference"
)

// MinSummaryLength is the trimmed transcript length below which no
// summary request is made.
const MinSummaryLength = 40

// finalizeTimeout bounds the whole summary + call-log pipeline so an
// unresponsive endpoint cannot leak a session.
const finalizeTimeout = 60 * time.Second

// ChatService generates the post-call summary.
type ChatService interface {
	Chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error)
}

// RecordSink persists the finished call record.
type RecordSink interface {
	Post(ctx context.Context, rec *calllog.Record) error
}

// Finalizer runs the once-per-call post-call pipeline: summarize the
// transcript, then post the call-log record. Summary failures degrade to
// a null summary; they never abort the record write.
type Finalizer struct {
	llm           ChatService
	sink          RecordSink
	summaryPrompt string
	summaryModel  string
	orgID         string
}

// NewFinalizer creates a finalizer. summaryPrompt is the system prompt
// for the summarization request.
func NewFinalizer(llm ChatService, sink RecordSink, summaryPrompt, summaryModel, orgID string) *Finalizer {
	return &Finalizer{
		llm:           llm,
		sink:          sink,
		summaryPrompt: summaryPrompt,
		summaryModel:  summaryModel,
		orgID:         orgID,
	}
}

// FinalizeInput is everything the pipeline needs from a finished call.
type FinalizeInput struct {
	CallSid    string
	Direction  string
	Transcript string // already trimmed
	StartedAt  time.Time
	EndedAt    time.Time
}

// Run executes the pipeline. Missing preconditions (no call id, empty
// transcript) skip the write entirely; that is not an error.
func (f *Finalizer) Run(ctx context.Context, logger *slog.Logger, in FinalizeInput) {
	if in.CallSid == "" || in.Transcript == "" {
		logger.Info("finalize skipped",
			"has_call_sid", in.CallSid != "",
			"transcript_len", len(in.Transcript))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, finalizeTimeout)
	defer cancel()

	summary := f.summarize(ctx, logger, in.Transcript)

	rec := &calllog.Record{
		TwilioCallSid: in.CallSid,
		OrgID:         calllog.StringPtr(f.orgID),
		Direction:     in.Direction,
		Transcript:    in.Transcript,
		AISummary:     summary,
		StartedAt:     timePtr(in.StartedAt),
		EndedAt:       in.EndedAt.UTC().Format(time.RFC3339),
		Model:         f.summaryModel,
	}

	if err := f.sink.Post(ctx, rec); err != nil {
		logger.Error("call-log post failed", "error", err)
		return
	}
	logger.Info("call-log posted", "summary", summary != nil)
}

// summarize returns nil when the transcript is too short or the request
// fails for any reason.
func (f *Finalizer) summarize(ctx context.Context, logger *slog.Logger, transcript string) *string {
	if len(transcript) < MinSummaryLength {
		logger.Info("summary skipped, transcript too short", "transcript_len", len(transcript))
		return nil
	}

	resp, err := f.llm.Chat(ctx, &inference.ChatRequest{
		Model:       f.summaryModel,
		MaxTokens:   800,
		Temperature: 0.4,
		Messages: []inference.Message{
			inference.NewSystemMessage(f.summaryPrompt),
			inference.NewUserMessage("Call transcript:\n\n" + transcript),
		},
	})
	if err != nil {
		logger.Warn("summary request failed", "error", err)
		return nil
	}
	return &resp.Message.Content
}

func timePtr(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
