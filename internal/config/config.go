// Package config loads and validates the voicebridge configuration
// from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default model and audio settings.
const (
	DefaultRealtimeModel      = "gpt-4o-realtime-preview-2024-12-17"
	DefaultTranscriptionModel = "whisper-1"
	DefaultSummaryModel       = "gpt-4o-mini"
	DefaultVoice              = "alloy"
)

// Config holds all voicebridge settings. It is loaded once at startup
// and passed by reference; nothing mutates it afterwards.
type Config struct {
	// HTTP server
	Port     int
	LogLevel string

	// OpenAI
	OpenAIAPIKey       string
	RealtimeModel      string
	TranscriptionModel string
	Voice              string

	// Summarization
	SummaryModel   string
	SummaryBaseURL string

	// Call-log sink
	CallLogURL     string
	CallLogAnonKey string
	SharedSecret   string
	OrgID          string

	// Prompts
	AgentPromptPath   string
	SummaryPromptPath string

	// Turn-taking tunables
	VADEnergyThreshold int
	VADHangover        time.Duration
}

// Load reads configuration from the environment with defaults applied.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OPENAI_REALTIME_MODEL", DefaultRealtimeModel)
	v.SetDefault("OPENAI_TRANSCRIPTION_MODEL", DefaultTranscriptionModel)
	v.SetDefault("OPENAI_SUMMARY_MODEL", DefaultSummaryModel)
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("AGENT_VOICE", DefaultVoice)
	v.SetDefault("AGENT_PROMPT_PATH", "prompts/agent.txt")
	v.SetDefault("SUMMARY_PROMPT_PATH", "prompts/summary.txt")
	v.SetDefault("VAD_ENERGY_THRESHOLD", 500)
	v.SetDefault("VAD_HANGOVER_MS", 600)

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		RealtimeModel:      v.GetString("OPENAI_REALTIME_MODEL"),
		TranscriptionModel: v.GetString("OPENAI_TRANSCRIPTION_MODEL"),
		Voice:              v.GetString("AGENT_VOICE"),

		SummaryModel:   v.GetString("OPENAI_SUMMARY_MODEL"),
		SummaryBaseURL: strings.TrimSuffix(v.GetString("OPENAI_BASE_URL"), "/"),

		CallLogURL:     v.GetString("CALL_LOGS_URL"),
		CallLogAnonKey: v.GetString("CALL_LOGS_ANON_KEY"),
		SharedSecret:   sharedSecret(v),
		OrgID:          v.GetString("ORG_ID"),

		AgentPromptPath:   v.GetString("AGENT_PROMPT_PATH"),
		SummaryPromptPath: v.GetString("SUMMARY_PROMPT_PATH"),

		VADEnergyThreshold: v.GetInt("VAD_ENERGY_THRESHOLD"),
		VADHangover:        time.Duration(v.GetInt("VAD_HANGOVER_MS")) * time.Millisecond,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// sharedSecret resolves the call-log shared secret. Two variable names are
// accepted; CALL_LOGS_SHARED_SECRET wins over SHARED_SECRET.
func sharedSecret(v *viper.Viper) string {
	if s := v.GetString("CALL_LOGS_SHARED_SECRET"); s != "" {
		return s
	}
	return v.GetString("SHARED_SECRET")
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	var missing []string
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.CallLogURL == "" {
		missing = append(missing, "CALL_LOGS_URL")
	}
	if c.CallLogAnonKey == "" {
		missing = append(missing, "CALL_LOGS_ANON_KEY")
	}
	if c.SharedSecret == "" {
		missing = append(missing, "CALL_LOGS_SHARED_SECRET (or SHARED_SECRET)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if c.VADEnergyThreshold <= 0 {
		return errors.New("config: VAD_ENERGY_THRESHOLD must be positive")
	}
	if c.VADHangover <= 0 {
		return errors.New("config: VAD_HANGOVER_MS must be positive")
	}
	return nil
}
