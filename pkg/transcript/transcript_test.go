package transcript

import "testing"

func TestInterleavedAssembly(t *testing.T) {
	var b Builder
	b.AddCaller("hello there")
	b.AddAgentDelta("Hi,")
	b.AddAgentDelta(" this is Dipsy")
	b.FlushAgent()

	want := "\nCaller: hello there\n\nDipsy: Hi, this is Dipsy\n"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPartialAgentTextNotCommitted(t *testing.T) {
	var b Builder
	b.AddAgentDelta("half a thou")

	if got := b.String(); got != "" {
		t.Errorf("unflushed deltas leaked into transcript: %q", got)
	}
}

func TestFlushEmptyBufferIsNoOp(t *testing.T) {
	var b Builder
	b.AddAgentDelta("done")
	b.FlushAgent()
	b.FlushAgent() // a second response-completed with nothing buffered

	want := "\nDipsy: done\n"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestWhitespaceOnlyAgentBufferDropped(t *testing.T) {
	var b Builder
	b.AddAgentDelta("   \n ")
	b.FlushAgent()

	if got := b.String(); got != "" {
		t.Errorf("whitespace-only agent line committed: %q", got)
	}
}

func TestCallerTextTrimmed(t *testing.T) {
	var b Builder
	b.AddCaller("  hi  ")

	if got := b.String(); got != "\nCaller: hi\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestEmptyCallerTextDropped(t *testing.T) {
	var b Builder
	b.AddCaller("   ")

	if !b.Empty() {
		t.Error("whitespace-only caller line should be dropped")
	}
}

func TestFinalTrims(t *testing.T) {
	var b Builder
	b.AddCaller("hi")

	if got := b.Final(); got != "Caller: hi" {
		t.Errorf("Final() = %q, want outer whitespace trimmed", got)
	}
}
