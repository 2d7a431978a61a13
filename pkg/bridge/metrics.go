package bridge

import "sync/atomic"

// Metrics counts per-session frame traffic. Frames are never queued, so
// drops are the only visibility into lost audio; the counters are logged
// when the session closes.
type Metrics struct {
	framesIn         atomic.Uint64
	framesForwarded  atomic.Uint64
	framesDropped    atomic.Uint64 // ingress dropped: realtime not ready or send failed
	audioOut         atomic.Uint64
	audioDroppedGate atomic.Uint64 // egress dropped by the barge-in gate
}

// MarkFrameIn counts one inbound telephony media frame.
func (m *Metrics) MarkFrameIn() { m.framesIn.Add(1) }

// MarkFrameForwarded counts one frame forwarded to the realtime peer.
func (m *Metrics) MarkFrameForwarded() { m.framesForwarded.Add(1) }

// MarkFrameDropped counts one ingress frame dropped before forwarding.
func (m *Metrics) MarkFrameDropped() { m.framesDropped.Add(1) }

// MarkAudioOut counts one outbound media frame sent to telephony.
func (m *Metrics) MarkAudioOut() { m.audioOut.Add(1) }

// MarkAudioDroppedGate counts one audio delta suppressed by barge-in.
func (m *Metrics) MarkAudioDroppedGate() { m.audioDroppedGate.Add(1) }

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		FramesIn:         m.framesIn.Load(),
		FramesForwarded:  m.framesForwarded.Load(),
		FramesDropped:    m.framesDropped.Load(),
		AudioOut:         m.audioOut.Load(),
		AudioDroppedGate: m.audioDroppedGate.Load(),
	}
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	FramesIn         uint64
	FramesForwarded  uint64
	FramesDropped    uint64
	AudioOut         uint64
	AudioDroppedGate uint64
}
