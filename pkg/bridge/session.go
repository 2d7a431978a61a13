// Package bridge runs one live phone call: it binds the telephony media
// stream to a realtime LLM session, arbitrates turn-taking so the agent
// does not speak over the caller, assembles the transcript, and runs the
// post-call pipeline exactly once when the call ends.
package bridge

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dipsyai/voicebridge/internal/log"
	"github.com/dipsyai/voicebridge/pkg/codec"
	"github.com/dipsyai/voicebridge/pkg/prompt"
	"github.com/dipsyai/voicebridge/pkg/realtime"
	"github.com/dipsyai/voicebridge/pkg/telephony"
	"github.com/dipsyai/voicebridge/pkg/transcript"
	"github.com/dipsyai/voicebridge/pkg/vad"
)

// State is the session lifecycle position.
type State int

const (
	StateInit State = iota
	StateConfiguring
	StateActive
	StateFinalizing
	StateClosed
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateConfiguring:
		return "CONFIGURING"
	case StateActive:
		return "ACTIVE"
	case StateFinalizing:
		return "FINALIZING"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// TelephonyWriter is the write side of the telephony WebSocket.
type TelephonyWriter interface {
	WriteJSON(v interface{}) error
}

// RealtimeLink is the session's handle on the realtime peer.
type RealtimeLink interface {
	Connect() error
	ConfigureSession(cfg realtime.SessionConfig) error
	SendAudio(pcm16 []byte) error
	CreateResponse(instructions string) error
	Close()
}

// Options configures a session. Everything is immutable for the
// session's lifetime.
type Options struct {
	OpenAIAPIKey       string
	RealtimeModel      string
	TranscriptionModel string
	Voice              string
	AgentPrompt        string

	EnergyThreshold int
	Hangover        time.Duration

	Finalizer *Finalizer

	// DialRealtime overrides how the realtime link is created. The
	// default dials the OpenAI Realtime API and binds the session's
	// event handlers. Tests substitute a fake.
	DialRealtime func(s *Session) RealtimeLink
}

// Session is the per-call orchestrator. One exists per accepted
// telephony connection.
//
// Two goroutines touch a session: the telephony read loop (the
// WebSocket handler) and the realtime client's read loop. All mutable
// state is guarded by mu.
type Session struct {
	mu sync.Mutex

	opts   Options
	logger *slog.Logger

	conn TelephonyWriter

	// Identifiers
	connectionID string
	streamSid    string
	callSid      string

	// Metadata
	direction      telephony.Direction
	callType       telephony.CallType
	lastSummary    string
	lastTranscript string
	startedAt      time.Time

	// Links
	rt      RealtimeLink
	rtReady bool

	// Turn-taking and transcript
	vad        *vad.Detector
	transcript transcript.Builder

	state     State
	finalized bool

	metrics Metrics
}

// NewSession creates a session for one accepted telephony connection.
func NewSession(conn TelephonyWriter, opts Options) *Session {
	s := &Session{
		opts:         opts,
		conn:         conn,
		connectionID: uuid.NewString(),
		direction:    telephony.DirectionOutbound,
		callType:     telephony.CallFirst,
		vad:          vad.New(opts.EnergyThreshold, opts.Hangover),
		state:        StateInit,
	}
	s.logger = log.With("component", "bridge", "call_id", s.connectionID)
	if s.opts.DialRealtime == nil {
		s.opts.DialRealtime = dialRealtime
	}
	return s
}

// dialRealtime creates the production realtime client with the
// session's handlers bound.
func dialRealtime(s *Session) RealtimeLink {
	c := realtime.NewClient(s.opts.OpenAIAPIKey, s.opts.RealtimeModel)
	c.OnSessionCreated = s.handleRealtimeReady
	c.OnSpeechStarted = s.handleSpeechStarted
	c.OnSpeechStopped = s.handleSpeechStopped
	c.OnAudioDelta = s.handleAudioDelta
	c.OnTextDelta = s.handleTextDelta
	c.OnResponseCompleted = s.handleResponseCompleted
	c.OnInputTranscript = s.handleInputTranscript
	c.OnError = s.handleRealtimeError
	c.OnDisconnect = s.handleRealtimeDisconnect
	return c
}

// CorrelationID is the first non-empty of call sid, stream sid, and the
// locally minted connection id. It is stable once the start event has
// been processed.
func (s *Session) CorrelationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correlationIDLocked()
}

func (s *Session) correlationIDLocked() string {
	if s.callSid != "" {
		return s.callSid
	}
	if s.streamSid != "" {
		return s.streamSid
	}
	return s.connectionID
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Metrics returns the session's frame counters.
func (s *Session) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// HandleTelephonyMessage processes one inbound WebSocket message from
// the telephony provider. Malformed frames are logged and dropped.
func (s *Session) HandleTelephonyMessage(data []byte) {
	frame, err := telephony.ParseFrame(data)
	if err != nil {
		s.logger.Warn("malformed telephony frame", "error", err)
		return
	}

	switch frame.Event {
	case telephony.EventStart:
		s.handleStart(frame.Start)
	case telephony.EventMedia:
		s.handleMedia(frame.Media)
	case telephony.EventMark:
		name := ""
		if frame.Mark != nil {
			name = frame.Mark.Name
		}
		s.logger.Debug("mark", "name", name)
	case telephony.EventStop:
		s.logger.Info("telephony stop")
		s.Shutdown()
	default:
		s.logger.Debug("unrecognized telephony event", "event", frame.Event)
	}
}

// handleStart captures call metadata and opens the realtime link.
func (s *Session) handleStart(start *telephony.StartPayload) {
	if start == nil {
		s.logger.Warn("start event without payload")
		return
	}

	s.mu.Lock()
	if s.state != StateInit {
		s.mu.Unlock()
		s.logger.Warn("duplicate start event ignored")
		return
	}
	s.streamSid = start.StreamSid
	s.callSid = start.CallSid
	s.direction = telephony.ParseDirection(start.CustomParameters.Direction)
	s.callType = telephony.ParseCallType(start.CustomParameters.CallType)
	s.lastSummary = start.CustomParameters.LastSummary
	s.lastTranscript = start.CustomParameters.LastTranscript
	s.startedAt = time.Now()
	s.state = StateConfiguring
	s.logger = log.With("component", "bridge", "call_id", s.correlationIDLocked())

	rt := s.opts.DialRealtime(s)
	s.rt = rt
	s.mu.Unlock()

	s.logger.Info("call started",
		"stream_sid", start.StreamSid,
		"direction", s.direction,
		"call_type", s.callType)

	if err := rt.Connect(); err != nil {
		s.logger.Error("realtime connect failed", "error", err)
		s.mu.Lock()
		s.rt = nil
		s.mu.Unlock()
	}
}

// handleRealtimeReady configures the session and requests the opening
// utterance. Audio is forwarded only after both messages are sent.
func (s *Session) handleRealtimeReady() {
	s.mu.Lock()
	rt := s.rt
	if rt == nil || s.state != StateConfiguring {
		s.mu.Unlock()
		return
	}
	instructions := prompt.Compose(s.opts.AgentPrompt, s.callType, s.lastSummary, s.lastTranscript)
	directive := prompt.OpeningDirective(s.direction, s.callType)
	s.mu.Unlock()

	if err := rt.ConfigureSession(realtime.SessionConfig{
		Instructions:       instructions,
		Voice:              s.opts.Voice,
		TranscriptionModel: s.opts.TranscriptionModel,
	}); err != nil {
		s.logger.Error("session configure failed", "error", err)
		return
	}
	if err := rt.CreateResponse(directive); err != nil {
		s.logger.Error("opening directive failed", "error", err)
		return
	}

	s.mu.Lock()
	s.rtReady = true
	s.state = StateActive
	s.mu.Unlock()

	s.logger.Info("realtime session active")
}

// handleMedia runs the audio ingress pipeline for one telephony frame:
// base64 decode, mu-law expand, VAD, upsample, forward. Frames arriving
// before the realtime link is ready are dropped; the telephony peer's
// pacing is the only rate source.
func (s *Session) handleMedia(media *telephony.MediaPayload) {
	s.metrics.MarkFrameIn()
	if media == nil {
		return
	}

	mulaw, err := base64.StdEncoding.DecodeString(media.Payload)
	if err != nil {
		s.logger.Warn("bad media payload", "error", err)
		return
	}

	pcm8k := codec.MuLawToPCM16(mulaw)

	s.mu.Lock()
	s.vad.ProcessFrame(pcm8k, time.Now())
	rt := s.rt
	ready := s.rtReady
	s.mu.Unlock()

	if !ready || rt == nil {
		s.metrics.MarkFrameDropped()
		return
	}

	if err := rt.SendAudio(codec.Upsample8kTo16k(pcm8k)); err != nil {
		s.logger.Warn("audio forward failed", "error", err)
		s.metrics.MarkFrameDropped()
		return
	}
	s.metrics.MarkFrameForwarded()
}

// handleAudioDelta applies the barge-in gate and forwards agent audio
// to the phone. The realtime stream keeps flushing buffered audio for a
// short window after the caller starts talking; dropping those frames
// here is what prevents talk-over at the handset.
func (s *Session) handleAudioDelta(audioB64 string) {
	s.mu.Lock()
	speaking := s.vad.Speaking()
	streamSid := s.streamSid
	conn := s.conn
	closed := s.state == StateClosed || s.state == StateFinalizing
	s.mu.Unlock()

	if closed {
		return
	}
	if speaking {
		s.metrics.MarkAudioDroppedGate()
		s.logger.Debug("agent audio suppressed, caller speaking")
		return
	}

	if err := conn.WriteJSON(telephony.NewOutboundMedia(streamSid, audioB64)); err != nil {
		s.logger.Warn("media write failed", "error", err)
		return
	}
	s.metrics.MarkAudioOut()
}

func (s *Session) handleSpeechStarted() {
	s.mu.Lock()
	s.vad.SpeechStarted(time.Now())
	s.mu.Unlock()
	s.logger.Debug("peer vad: speech started")
}

func (s *Session) handleSpeechStopped() {
	s.mu.Lock()
	s.vad.SpeechStopped()
	s.mu.Unlock()
	s.logger.Debug("peer vad: speech stopped")
}

func (s *Session) handleTextDelta(delta string) {
	s.mu.Lock()
	s.transcript.AddAgentDelta(delta)
	s.mu.Unlock()
}

func (s *Session) handleResponseCompleted() {
	s.mu.Lock()
	s.transcript.FlushAgent()
	s.mu.Unlock()
}

func (s *Session) handleInputTranscript(text string) {
	s.mu.Lock()
	s.transcript.AddCaller(text)
	s.mu.Unlock()
	s.logger.Debug("caller transcript", "len", len(text))
}

// handleRealtimeError logs peer errors; the call continues audio-only.
func (s *Session) handleRealtimeError(err error) {
	s.logger.Error("realtime peer error", "error", err)
}

// handleRealtimeDisconnect clears the link. The session itself stays
// up: remaining telephony traffic is drained until stop.
func (s *Session) handleRealtimeDisconnect(err error) {
	s.mu.Lock()
	s.rtReady = false
	s.rt = nil
	s.mu.Unlock()
	s.logger.Warn("realtime link lost", "error", err)
}

// Shutdown finalizes the call and closes the realtime link. It is safe
// to call more than once and from either goroutine; the pipeline runs
// exactly once. The telephony WebSocket handler calls it on stop and on
// socket close or error.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.finalized {
		s.mu.Unlock()
		return
	}
	s.finalized = true
	s.state = StateFinalizing
	s.rtReady = false
	rt := s.rt
	s.rt = nil

	in := FinalizeInput{
		CallSid:    s.callSid,
		Direction:  string(s.direction),
		Transcript: s.transcript.Final(),
		StartedAt:  s.startedAt,
		EndedAt:    time.Now(),
	}
	s.mu.Unlock()

	if s.opts.Finalizer != nil {
		s.opts.Finalizer.Run(context.Background(), s.logger, in)
	}

	if rt != nil {
		rt.Close()
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	snap := s.metrics.Snapshot()
	s.logger.Info("session closed",
		"frames_in", snap.FramesIn,
		"frames_forwarded", snap.FramesForwarded,
		"frames_dropped", snap.FramesDropped,
		"audio_out", snap.AudioOut,
		"audio_dropped_barge_in", snap.AudioDroppedGate)
}
