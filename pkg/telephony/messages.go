// Package telephony defines the media-stream wire format spoken by the
// telephony provider over its WebSocket: framed JSON events tagged with
// an "event" field, carrying base64 mu-law audio at 8kHz.
package telephony

import "encoding/json"

// Event tags on inbound frames.
const (
	EventStart = "start"
	EventMedia = "media"
	EventMark  = "mark"
	EventStop  = "stop"
)

// Direction is the call direction supplied on the start event.
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// ParseDirection maps the raw customParameters value to a Direction.
// Unknown values default to OUTBOUND.
func ParseDirection(s string) Direction {
	if s == string(DirectionInbound) {
		return DirectionInbound
	}
	return DirectionOutbound
}

// CallType distinguishes a first conversation from a follow-up.
type CallType string

const (
	CallFirst    CallType = "FIRST"
	CallFollowup CallType = "FOLLOWUP"
)

// ParseCallType maps the raw customParameters value to a CallType.
// Unknown values default to FIRST.
func ParseCallType(s string) CallType {
	if s == string(CallFollowup) {
		return CallFollowup
	}
	return CallFirst
}

// Frame is an inbound event from the telephony stream. Only the fields
// for the recognized event type are populated.
type Frame struct {
	Event string        `json:"event"`
	Start *StartPayload `json:"start,omitempty"`
	Media *MediaPayload `json:"media,omitempty"`
	Mark  *MarkPayload  `json:"mark,omitempty"`
}

// StartPayload carries the stream identifiers and the custom parameters
// the dialer attached to the call.
type StartPayload struct {
	StreamSid        string           `json:"streamSid"`
	CallSid          string           `json:"callSid"`
	CustomParameters CustomParameters `json:"customParameters"`
}

// CustomParameters is prior-call context passed through the dialer.
type CustomParameters struct {
	Direction      string `json:"direction"`
	CallType       string `json:"call_type"`
	LastSummary    string `json:"last_summary"`
	LastTranscript string `json:"last_transcript"`
}

// MediaPayload carries one frame of base64-encoded mu-law audio.
type MediaPayload struct {
	Payload string `json:"payload"`
}

// MarkPayload is a playback marker echoed back by the provider.
type MarkPayload struct {
	Name string `json:"name"`
}

// OutboundMedia is the frame the bridge sends back to the provider.
type OutboundMedia struct {
	Event     string       `json:"event"`
	StreamSid string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

// NewOutboundMedia builds a media frame for the given stream carrying
// base64 mu-law audio.
func NewOutboundMedia(streamSid, payload string) OutboundMedia {
	return OutboundMedia{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     MediaPayload{Payload: payload},
	}
}

// ParseFrame decodes one inbound WebSocket message.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
