// Package vad estimates whether the human caller is speaking.
//
// Two signals are fused: a cheap per-frame energy measurement on the
// 8kHz PCM, and the speech started/stopped events the realtime peer
// emits from its own server-side detector. The local estimator covers
// the gap before the peer commits a speech-started event, which is what
// makes barge-in gating respond fast enough to matter on a phone call.
package vad

import "time"

// Defaults for the fusion tunables.
const (
	DefaultEnergyThreshold = 500
	DefaultHangover        = 600 * time.Millisecond
)

// Detector tracks the human-speaking predicate for one call.
// It is not goroutine-safe; the owning session serializes access.
type Detector struct {
	energyThreshold int
	hangover        time.Duration

	speaking     bool
	lastSpeechAt time.Time
}

// New creates a Detector with the given tunables. Non-positive values
// fall back to the defaults.
func New(energyThreshold int, hangover time.Duration) *Detector {
	if energyThreshold <= 0 {
		energyThreshold = DefaultEnergyThreshold
	}
	if hangover <= 0 {
		hangover = DefaultHangover
	}
	return &Detector{
		energyThreshold: energyThreshold,
		hangover:        hangover,
	}
}

// ProcessFrame updates the detector from one frame of 8kHz little-endian
// PCM16 and returns the resulting speaking state. A frame whose mean
// absolute sample value exceeds the energy threshold marks the caller as
// speaking; otherwise speech ends once the hangover window has elapsed
// since the last energetic frame.
func (d *Detector) ProcessFrame(pcm []byte, now time.Time) bool {
	if energy(pcm) > d.energyThreshold {
		d.speaking = true
		d.lastSpeechAt = now
	} else if d.speaking && now.Sub(d.lastSpeechAt) > d.hangover {
		d.speaking = false
	}
	return d.speaking
}

// SpeechStarted records a speech-started event from the realtime peer.
func (d *Detector) SpeechStarted(now time.Time) {
	d.speaking = true
	d.lastSpeechAt = now
}

// SpeechStopped records a speech-stopped event from the realtime peer.
// The peer's end-of-speech decision is taken unconditionally.
func (d *Detector) SpeechStopped() {
	d.speaking = false
}

// Speaking reports the current fused speaking state.
func (d *Detector) Speaking() bool {
	return d.speaking
}

// LastSpeechAt returns the timestamp of the most recent speech evidence.
// The zero time means no speech has been observed yet.
func (d *Detector) LastSpeechAt() time.Time {
	return d.lastSpeechAt
}

// energy computes the mean absolute sample value of little-endian PCM16.
// A trailing odd byte is ignored.
func energy(pcm []byte) int {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum int64
	for i := 0; i < n; i++ {
		s := int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
		v := int64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return int(sum / int64(n))
}
