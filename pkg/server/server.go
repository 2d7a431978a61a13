// Package server hosts the HTTP surface of the bridge: the health
// endpoints an external monitor polls and the telephony media-stream
// WebSocket that carries the calls.
package server

import (
	"fmt"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dipsyai/voicebridge/internal/config"
	"github.com/dipsyai/voicebridge/internal/log"
	"github.com/dipsyai/voicebridge/pkg/bridge"
)

// Version is reported on the health endpoint.
const Version = "0.1.0"

// MediaStreamPath is the WebSocket path the telephony provider dials.
const MediaStreamPath = "/media-stream"

// Server is the voicebridge HTTP/WebSocket server.
type Server struct {
	app         *fiber.App
	cfg         *config.Config
	agentPrompt string
	finalizer   *bridge.Finalizer
	started     time.Time
}

// New creates the server with routes registered.
func New(cfg *config.Config, agentPrompt string, finalizer *bridge.Finalizer) *Server {
	s := &Server{
		cfg:         cfg,
		agentPrompt: agentPrompt,
		finalizer:   finalizer,
		started:     time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "voicebridge",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/", s.handleRoot)
	app.Get("/health", s.handleHealth)

	app.Use(MediaStreamPath, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get(MediaStreamPath, websocket.New(s.handleMediaStream))

	s.app = app
	return s
}

// Listen starts serving on the configured port. It blocks.
func (s *Server) Listen() error {
	return s.app.Listen(fmt.Sprintf(":%d", s.cfg.Port))
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "voicebridge",
		"version": Version,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":             true,
		"service":        "voicebridge",
		"version":        Version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// handleMediaStream owns one telephony connection for its lifetime. The
// read loop below is the only reader of the socket; session state
// changes driven by realtime events happen on the realtime client's
// goroutine and are serialized inside the session.
func (s *Server) handleMediaStream(c *websocket.Conn) {
	sess := bridge.NewSession(c, bridge.Options{
		OpenAIAPIKey:       s.cfg.OpenAIAPIKey,
		RealtimeModel:      s.cfg.RealtimeModel,
		TranscriptionModel: s.cfg.TranscriptionModel,
		Voice:              s.cfg.Voice,
		AgentPrompt:        s.agentPrompt,
		EnergyThreshold:    s.cfg.VADEnergyThreshold,
		Hangover:           s.cfg.VADHangover,
		Finalizer:          s.finalizer,
	})

	log.Info("telephony connection accepted", "call_id", sess.CorrelationID())

	// Finalization on any exit: a stop event, a clean close, or a read
	// error all end the call.
	defer sess.Shutdown()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			log.Debug("telephony socket closed", "call_id", sess.CorrelationID(), "error", err)
			return
		}
		sess.HandleTelephonyMessage(data)
		if sess.State() == bridge.StateClosed {
			return
		}
	}
}
