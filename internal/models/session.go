package models

import (
	"time"
)

// SessionStatus is the lifecycle state of a coaching session.
// Transitions are forward-only: pending -> active -> ended.
type SessionStatus string

const (
	StatusPending SessionStatus = "pending"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// UnknownSpeaker is the sentinel speaker for segments that arrive without one.
const UnknownSpeaker = "Unknown"

// TranscriptSegment is one unit of transcribed speech, partial or final.
type TranscriptSegment struct {
	Text      string         `json:"text"`
	Speaker   string         `json:"speaker"`
	IsPartial bool           `json:"is_partial"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CoachingResult is one analysis output from the LLM collaborator,
// stored verbatim. No schema is enforced beyond "is a JSON object".
type CoachingResult struct {
	Result    map[string]any `json:"result"`
	Timestamp time.Time      `json:"timestamp"`
}

// Session aggregates all events observed for one meeting/bot identifier.
// The id is externally assigned by the bot provisioning provider.
type Session struct {
	ID            string              `json:"id"`
	Status        SessionStatus       `json:"status"`
	TranscriptLog []TranscriptSegment `json:"transcript_log"`
	CoachingLog   []CoachingResult    `json:"coaching_log"`
	Participants  []string            `json:"participants"`
	CreatedAt     time.Time           `json:"created_at"`
	LastUpdatedAt time.Time           `json:"last_updated_at"`
}

// SessionSummary is the dashboard listing projection of a session.
type SessionSummary struct {
	ID              string        `json:"id"`
	Status          SessionStatus `json:"status"`
	TranscriptCount int           `json:"transcript_count"`
	CoachingCount   int           `json:"coaching_count"`
	Participants    []string      `json:"participants"`
	CreatedAt       time.Time     `json:"created_at"`
	LastUpdatedAt   time.Time     `json:"last_updated_at"`
}
