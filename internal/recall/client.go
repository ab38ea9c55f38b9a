// Package recall is the HTTP collaborator client for the meeting-bot
// transcription provider: bot provisioning and full-transcript fetch.
package recall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds provider connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	// WebhookURL is handed to the provider at bot creation so realtime
	// transcript events are delivered back to this service.
	WebhookURL string
	Timeout    time.Duration
}

// Client calls the transcription provider's REST API.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a provider client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

// Bot is the provider's bot resource. Its id doubles as the meeting
// identifier correlating all later webhook events.
type Bot struct {
	ID         string `json:"id"`
	MeetingURL string `json:"meeting_url"`
	Status     string `json:"status,omitempty"`
}

// createBotRequest is the provisioning payload.
type createBotRequest struct {
	MeetingURL            string          `json:"meeting_url"`
	BotName               string          `json:"bot_name"`
	RealTimeTranscription *realtimeConfig `json:"real_time_transcription,omitempty"`
}

type realtimeConfig struct {
	DestinationURL string `json:"destination_url"`
	PartialResults bool   `json:"partial_results"`
}

// CreateBot provisions a transcription bot into the given meeting and
// returns the provider-assigned bot resource.
func (c *Client) CreateBot(ctx context.Context, meetingURL, botName string) (*Bot, error) {
	reqBody := createBotRequest{MeetingURL: meetingURL, BotName: botName}
	if c.cfg.WebhookURL != "" {
		reqBody.RealTimeTranscription = &realtimeConfig{
			DestinationURL: c.cfg.WebhookURL,
			PartialResults: true,
		}
	}
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal create bot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/bot/", bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("create bot status %d: %s", resp.StatusCode, body)
	}

	var bot Bot
	if err := json.NewDecoder(resp.Body).Decode(&bot); err != nil {
		return nil, fmt.Errorf("decode bot: %w", err)
	}
	if bot.ID == "" {
		return nil, fmt.Errorf("provider returned bot without id")
	}
	c.logger.Info("bot provisioned", zap.String("bot_id", bot.ID))
	return &bot, nil
}

// TranscriptSegment is one finalized segment from the full-transcript
// endpoint. The provider identifies speakers either by display name or
// by numeric id depending on the meeting platform.
type TranscriptSegment struct {
	Text      string      `json:"text"`
	Speaker   string      `json:"speaker"`
	SpeakerID json.Number `json:"speaker_id"`
	Start     float64     `json:"start"`
}

// SpeakerName returns the best available speaker identifier, or "" when
// the provider supplied neither form.
func (s TranscriptSegment) SpeakerName() string {
	if s.Speaker != "" {
		return s.Speaker
	}
	return s.SpeakerID.String()
}

type transcriptResponse struct {
	Segments []TranscriptSegment `json:"segments"`
}

// GetTranscript fetches the complete finalized transcript for a bot.
// An absent segments array means "nothing to append" and returns nil
// without error.
func (c *Client) GetTranscript(ctx context.Context, botID string) ([]TranscriptSegment, error) {
	url := fmt.Sprintf("%s/api/v1/bot/%s/transcript/", c.cfg.BaseURL, botID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch transcript status %d", resp.StatusCode)
	}

	var parsed transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return parsed.Segments, nil
}
