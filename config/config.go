package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Recall   RecallConfig
	OpenAI   OpenAIConfig
	Coaching CoachingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	// ShutdownWaitSec bounds how long shutdown waits for in-flight
	// background analysis tasks after the listener stops.
	ShutdownWaitSec int
}

// RecallConfig holds transcription provider settings.
type RecallConfig struct {
	BaseURL string
	APIKey  string
	// WebhookSecret verifies signed deliveries. Unsigned realtime
	// transcript deliveries skip verification regardless.
	WebhookSecret string
	// WebhookURL is the publicly reachable ingress handed to the
	// provider at bot creation.
	WebhookURL string
	BotName    string
	TimeoutSec int
}

// OpenAIConfig holds LLM provider settings.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutSec int
}

// CoachingConfig holds dashboard read defaults.
type CoachingConfig struct {
	DefaultCoachingLimit   int
	DefaultTranscriptLimit int
}

// Timeout returns the provider call timeout as a duration.
func (c RecallConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Timeout returns the LLM call timeout as a duration.
func (c OpenAIConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			ShutdownWaitSec:    getEnvInt("SHUTDOWN_WAIT_SEC", 30),
		},
		Recall: RecallConfig{
			BaseURL:       strings.TrimRight(getEnv("RECALL_BASE_URL", "https://us-east-1.recall.ai"), "/"),
			APIKey:        getEnv("RECALL_API_KEY", ""),
			WebhookSecret: getEnv("RECALL_WEBHOOK_SECRET", ""),
			WebhookURL:    getEnv("RECALL_WEBHOOK_URL", ""),
			BotName:       getEnv("RECALL_BOT_NAME", "Coaching Notetaker"),
			TimeoutSec:    getEnvInt("RECALL_TIMEOUT_SEC", 30),
		},
		OpenAI: OpenAIConfig{
			BaseURL:    getEnv("OPENAI_BASE_URL", ""),
			APIKey:     getEnv("OPENAI_API_KEY", ""),
			Model:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			TimeoutSec: getEnvInt("OPENAI_TIMEOUT_SEC", 60),
		},
		Coaching: CoachingConfig{
			DefaultCoachingLimit:   getEnvInt("COACHING_LIMIT_DEFAULT", 5),
			DefaultTranscriptLimit: getEnvInt("TRANSCRIPT_LIMIT_DEFAULT", 20),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
