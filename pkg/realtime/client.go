// Package realtime provides a client for OpenAI's Realtime API,
// carrying the speech-to-speech leg of a bridged phone call.
package realtime

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	RealtimeURL = "wss://api.openai.com/v1/realtime"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-realtime-preview-2024-12-17"
)

// ErrNotConnected is returned by sends before Connect or after Close.
var ErrNotConnected = errors.New("realtime: not connected")

// SessionConfig declares the audio formats, transcription, and turn
// detection for the session. It is sent as session.update immediately
// after the session is created, before any audio.
type SessionConfig struct {
	Instructions       string
	Voice              string
	TranscriptionModel string
}

// Client manages the WebSocket connection to the Realtime API.
// Incoming events are fanned out to the callbacks below, which are
// invoked from the client's single read goroutine.
type Client struct {
	apiKey  string
	model   string
	baseURL string

	ws   *websocket.Conn
	wsMu sync.Mutex

	connected bool
	closed    bool

	// Callbacks
	OnSessionCreated    func()
	OnSpeechStarted     func()
	OnSpeechStopped     func()
	OnAudioDelta        func(audioBase64 string)
	OnTextDelta         func(delta string)
	OnResponseCompleted func()
	OnInputTranscript   func(transcript string)
	OnError             func(err error)
	OnDisconnect        func(err error)
}

// NewClient creates a new Realtime API client.
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: RealtimeURL,
	}
}

// Connect establishes the WebSocket connection and starts the read loop.
func (c *Client) Connect() error {
	url := fmt.Sprintf("%s?model=%s", c.baseURL, c.model)

	header := make(map[string][]string)
	header["Authorization"] = []string{"Bearer " + c.apiKey}
	header["OpenAI-Beta"] = []string{"realtime=v1"}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	ws, _, err := dialer.Dial(url, header)
	if err != nil {
		return fmt.Errorf("realtime: connect: %w", err)
	}

	c.ws = ws
	c.connected = true

	go c.handleMessages()

	return nil
}

// ConfigureSession sends the session.update declaring PCM16 16kHz in,
// mu-law 8kHz out, input transcription, and server-side VAD.
func (c *Client) ConfigureSession(cfg SessionConfig) error {
	msg := map[string]interface{}{
		"type": "session.update",
		"session": map[string]interface{}{
			"modalities":          []string{"audio", "text"},
			"instructions":        cfg.Instructions,
			"voice":               cfg.Voice,
			"input_audio_format":  "pcm16",
			"output_audio_format": "g711_ulaw",
			"input_audio_transcription": map[string]interface{}{
				"model": cfg.TranscriptionModel,
			},
			"turn_detection": map[string]interface{}{
				"type":                "server_vad",
				"threshold":           0.5,
				"prefix_padding_ms":   300,
				"silence_duration_ms": 300,
			},
		},
	}

	return c.sendJSON(msg)
}

// SendAudio appends one frame of PCM16 16kHz audio to the input buffer.
func (c *Client) SendAudio(pcm16 []byte) error {
	if !c.connected {
		return ErrNotConnected
	}

	msg := map[string]interface{}{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm16),
	}

	return c.sendJSON(msg)
}

// CreateResponse asks the model to produce a response with the given
// turn instructions. Used for the opening utterance.
func (c *Client) CreateResponse(instructions string) error {
	msg := map[string]interface{}{
		"type": "response.create",
		"response": map[string]interface{}{
			"instructions": instructions,
		},
	}

	return c.sendJSON(msg)
}

// Close closes the WebSocket connection.
func (c *Client) Close() {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	c.closed = true
	c.connected = false
	if c.ws != nil {
		c.ws.Close()
	}
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	return c.connected && !c.closed
}

// handleMessages processes incoming WebSocket messages until the
// connection drops or Close is called.
func (c *Client) handleMessages() {
	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.connected = false
			if !c.closed && c.OnDisconnect != nil {
				c.OnDisconnect(err)
			}
			return
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		msgType, _ := msg["type"].(string)

		switch msgType {
		case "session.created":
			if c.OnSessionCreated != nil {
				c.OnSessionCreated()
			}

		case "input_audio_buffer.speech_started":
			if c.OnSpeechStarted != nil {
				c.OnSpeechStarted()
			}

		case "input_audio_buffer.speech_stopped":
			if c.OnSpeechStopped != nil {
				c.OnSpeechStopped()
			}

		case "response.audio.delta":
			if delta, ok := msg["delta"].(string); ok && c.OnAudioDelta != nil {
				c.OnAudioDelta(delta)
			}

		case "response.output_text.delta":
			if delta, ok := msg["delta"].(string); ok && c.OnTextDelta != nil {
				c.OnTextDelta(delta)
			}

		case "response.completed":
			if c.OnResponseCompleted != nil {
				c.OnResponseCompleted()
			}

		case "conversation.item.input_audio_transcription.completed":
			if transcript, ok := msg["transcript"].(string); ok && c.OnInputTranscript != nil {
				c.OnInputTranscript(transcript)
			}

		case "error":
			if c.OnError == nil {
				continue
			}
			if errData, ok := msg["error"].(map[string]interface{}); ok {
				errMsg, _ := errData["message"].(string)
				c.OnError(fmt.Errorf("realtime: API error: %s", errMsg))
			} else {
				c.OnError(fmt.Errorf("realtime: API error: %v", msg))
			}

		default:
			// All other event types are ignored.
		}
	}
}

// sendJSON sends a JSON message over the WebSocket.
func (c *Client) sendJSON(v interface{}) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil || c.closed {
		return ErrNotConnected
	}

	return c.ws.WriteJSON(v)
}
