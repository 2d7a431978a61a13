package vad

import (
	"testing"
	"time"
)

// pcmFrame builds a little-endian PCM16 frame where every sample is v.
func pcmFrame(v int16, samples int) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

func TestEnergeticFrameStartsSpeech(t *testing.T) {
	d := New(0, 0)
	now := time.Now()

	if d.ProcessFrame(pcmFrame(1000, 160), now) != true {
		t.Error("frame above threshold should mark speaking")
	}
	if d.LastSpeechAt() != now {
		t.Error("speech timestamp should be stamped")
	}
}

func TestQuietFrameBelowThreshold(t *testing.T) {
	d := New(0, 0)

	if d.ProcessFrame(pcmFrame(100, 160), time.Now()) {
		t.Error("frame below threshold should not mark speaking")
	}
}

func TestHangoverClearsSpeech(t *testing.T) {
	d := New(0, 0)
	start := time.Now()

	d.ProcessFrame(pcmFrame(1000, 160), start)

	// Quiet frames inside the hangover keep the speaking state.
	if !d.ProcessFrame(pcmFrame(0, 160), start.Add(300*time.Millisecond)) {
		t.Error("speaking should persist inside the hangover window")
	}

	// Past the hangover, a quiet frame ends speech.
	if d.ProcessFrame(pcmFrame(0, 160), start.Add(700*time.Millisecond)) {
		t.Error("speaking should clear after the hangover window")
	}
}

func TestPeerEventsFuse(t *testing.T) {
	d := New(0, 0)
	now := time.Now()

	d.SpeechStarted(now)
	if !d.Speaking() {
		t.Error("peer speech-started should mark speaking")
	}
	if d.LastSpeechAt() != now {
		t.Error("peer speech-started should stamp the timestamp")
	}

	d.SpeechStopped()
	if d.Speaking() {
		t.Error("peer speech-stopped should clear speaking unconditionally")
	}
}

func TestPeerStopOverridesLocalEnergy(t *testing.T) {
	d := New(0, 0)
	now := time.Now()

	d.ProcessFrame(pcmFrame(2000, 160), now)
	d.SpeechStopped()
	if d.Speaking() {
		t.Error("peer stop should clear speaking even right after an energetic frame")
	}
}

func TestNegativeSamplesCountTowardEnergy(t *testing.T) {
	d := New(0, 0)

	if !d.ProcessFrame(pcmFrame(-1000, 160), time.Now()) {
		t.Error("mean absolute value should treat negative samples as energy")
	}
}

func TestEmptyFrameIsQuiet(t *testing.T) {
	d := New(0, 0)
	if d.ProcessFrame(nil, time.Now()) {
		t.Error("empty frame should not mark speaking")
	}
}

func TestCustomTunables(t *testing.T) {
	d := New(50, 100*time.Millisecond)
	start := time.Now()

	if !d.ProcessFrame(pcmFrame(60, 160), start) {
		t.Error("custom threshold should apply")
	}
	if d.ProcessFrame(pcmFrame(0, 160), start.Add(150*time.Millisecond)) {
		t.Error("custom hangover should apply")
	}
}
