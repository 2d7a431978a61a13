// Package transcript assembles the interleaved call transcript.
package transcript

import "strings"

// Speaker labels used in the serialized transcript.
const (
	CallerLabel = "Caller"
	AgentLabel  = "Dipsy"
)

// Builder accumulates caller and agent lines in arrival order.
//
// Caller lines come from completed input transcriptions and are appended
// immediately. Agent text arrives as streaming deltas, which are held in
// a buffer and committed as a single line only when the response
// completes; a partial response never reaches the transcript.
//
// Builder is not goroutine-safe; the owning session serializes access.
type Builder struct {
	sb          strings.Builder
	agentBuffer strings.Builder
}

// AddCaller appends a caller line. Empty or whitespace-only text is
// dropped.
func (b *Builder) AddCaller(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.sb.WriteString("\n" + CallerLabel + ": " + text + "\n")
}

// AddAgentDelta buffers a streamed fragment of the agent's response.
func (b *Builder) AddAgentDelta(delta string) {
	b.agentBuffer.WriteString(delta)
}

// FlushAgent commits the buffered agent text as one line and clears the
// buffer. Flushing an empty buffer is a no-op, so a response-completed
// event after a previous flush does nothing.
func (b *Builder) FlushAgent() {
	text := strings.TrimSpace(b.agentBuffer.String())
	b.agentBuffer.Reset()
	if text == "" {
		return
	}
	b.sb.WriteString("\n" + AgentLabel + ": " + text + "\n")
}

// String returns the transcript assembled so far, with uncommitted agent
// deltas excluded and no outer trimming applied.
func (b *Builder) String() string {
	return b.sb.String()
}

// Final returns the transcript trimmed for transmission.
func (b *Builder) Final() string {
	return strings.TrimSpace(b.sb.String())
}

// Empty reports whether nothing has been committed yet.
func (b *Builder) Empty() bool {
	return b.sb.Len() == 0
}
