// voicebridge: real-time voice bridge between a telephony media stream
// and the OpenAI Realtime API, with post-call summarization.
package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dipsyai/voicebridge/internal/config"
	"github.com/dipsyai/voicebridge/internal/log"
	"github.com/dipsyai/voicebridge/pkg/bridge"
	"github.com/dipsyai/voicebridge/pkg/calllog"
	"github.com/dipsyai/voicebridge/pkg/inference"
	"github.com/dipsyai/voicebridge/pkg/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)
	log.Info("voicebridge starting", "version", server.Version, "port", cfg.Port)

	agentPrompt, err := loadPrompt(cfg.AgentPromptPath)
	if err != nil {
		log.Error("agent prompt unreadable", "path", cfg.AgentPromptPath, "error", err)
		os.Exit(1)
	}
	summaryPrompt, err := loadPrompt(cfg.SummaryPromptPath)
	if err != nil {
		log.Error("summary prompt unreadable", "path", cfg.SummaryPromptPath, "error", err)
		os.Exit(1)
	}

	llm := inference.NewClient(
		inference.WithBaseURL(cfg.SummaryBaseURL),
		inference.WithAPIKey(cfg.OpenAIAPIKey),
		inference.WithModel(cfg.SummaryModel),
		inference.WithLogger(log.L()),
	)
	sink := calllog.NewClient(cfg.CallLogURL, cfg.CallLogAnonKey, cfg.SharedSecret)
	finalizer := bridge.NewFinalizer(llm, sink, summaryPrompt, cfg.SummaryModel, cfg.OrgID)

	srv := server.New(cfg, agentPrompt, finalizer)

	go func() {
		if err := srv.Listen(); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}

func loadPrompt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
