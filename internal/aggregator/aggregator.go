// Package aggregator applies canonical webhook events to the session
// store and decides when enough context exists to trigger coaching
// analysis.
package aggregator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pitchlab/backend/internal/events"
	"github.com/pitchlab/backend/internal/models"
	"github.com/pitchlab/backend/internal/recall"
	"github.com/pitchlab/backend/internal/store"
)

// WindowSize is how many of the most recent segments (partial and final
// combined) are handed to analysis.
const WindowSize = 5

// MinWindowSegments is the minimum window size before analysis fires.
const MinWindowSegments = 3

// Analyzer dispatches a coaching analysis for a transcript window. The
// call must not block; results land in the store asynchronously.
type Analyzer interface {
	Analyze(meetingID string, window []models.TranscriptSegment, participants []string, duration time.Duration)
}

// TranscriptFetcher fetches the complete finalized transcript for a bot.
type TranscriptFetcher interface {
	GetTranscript(ctx context.Context, botID string) ([]recall.TranscriptSegment, error)
}

// Aggregator owns all session mutation. No other component writes to
// the store except the analyzer appending its own results.
type Aggregator struct {
	store    *store.Store
	analyzer Analyzer
	fetcher  TranscriptFetcher
	logger   *zap.Logger
}

// New creates an aggregator.
func New(st *store.Store, analyzer Analyzer, fetcher TranscriptFetcher, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: st, analyzer: analyzer, fetcher: fetcher, logger: logger}
}

// Apply routes one canonical event into the session store. Business
// conditions (empty text, unknown kinds, failed best-effort fetches)
// never produce an error; the webhook caller gets success once the
// event normalized.
func (a *Aggregator) Apply(ctx context.Context, ev events.CanonicalEvent) {
	if ev.Kind == events.KindUnrecognized {
		// Accepted for forward compatibility, mutates nothing. The
		// store is left entirely untouched (no implicit session).
		a.logger.Info("unrecognized event ignored",
			zap.String("meeting_id", ev.MeetingID),
			zap.String("event", ev.RawEventName),
		)
		return
	}

	sess := a.store.GetOrCreate(ev.MeetingID)

	switch ev.Kind {
	case events.KindTranscriptPartial, events.KindTranscriptFinal:
		a.applyTranscript(ev, sess)
	case events.KindTranscriptDone:
		a.applyTranscriptDone(ctx, ev)
	case events.KindBotActivated:
		a.store.MarkActive(ev.MeetingID)
	case events.KindBotEnded:
		a.store.MarkEnded(ev.MeetingID)
	}
}

// applyTranscript appends one segment and, on a finalized append,
// re-derives the recent window and triggers analysis when it holds
// enough segments. There is no cooldown: every qualifying append
// triggers again as the conversation progresses.
func (a *Aggregator) applyTranscript(ev events.CanonicalEvent, sess models.Session) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	speaker := ev.Speaker
	if speaker == "" {
		speaker = models.UnknownSpeaker
	}

	a.store.AppendSegment(ev.MeetingID, models.TranscriptSegment{
		Text:      text,
		Speaker:   speaker,
		IsPartial: ev.Kind == events.KindTranscriptPartial,
		Metadata:  ev.Metadata,
		Timestamp: time.Now(),
	})

	if ev.Kind != events.KindTranscriptFinal {
		return
	}

	window := a.store.Window(ev.MeetingID, WindowSize)
	if len(window) < MinWindowSegments {
		return
	}
	a.analyzer.Analyze(
		ev.MeetingID,
		window,
		a.store.Participants(ev.MeetingID),
		time.Since(sess.CreatedAt),
	)
}

// applyTranscriptDone performs the best-effort fetch of the complete
// finalized transcript and bulk-appends it. Any failure is logged and
// never surfaces to the webhook response.
func (a *Aggregator) applyTranscriptDone(ctx context.Context, ev events.CanonicalEvent) {
	segments, err := a.fetcher.GetTranscript(ctx, ev.MeetingID)
	if err != nil {
		a.logger.Error("full transcript fetch failed",
			zap.String("meeting_id", ev.MeetingID),
			zap.Error(err),
		)
		return
	}
	appended := 0
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		speaker := seg.SpeakerName()
		if speaker == "" {
			speaker = models.UnknownSpeaker
		}
		a.store.AppendSegment(ev.MeetingID, models.TranscriptSegment{
			Text:    text,
			Speaker: speaker,
			// Provider offsets are relative, so the segment keeps
			// server ingest time and records the source offset.
			Metadata:  map[string]any{"source": "full_transcript", "start": seg.Start},
			Timestamp: time.Now(),
		})
		appended++
	}
	a.logger.Info("full transcript appended",
		zap.String("meeting_id", ev.MeetingID),
		zap.Int("segments", appended),
	)
}
