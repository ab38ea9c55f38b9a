package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/backend/internal/events"
	"github.com/pitchlab/backend/internal/models"
	"github.com/pitchlab/backend/internal/recall"
	"github.com/pitchlab/backend/internal/store"
)

type analyzeCall struct {
	meetingID    string
	window       []models.TranscriptSegment
	participants []string
	duration     time.Duration
}

// analyzerSpy records trigger invocations synchronously.
type analyzerSpy struct {
	mu    sync.Mutex
	calls []analyzeCall
}

func (a *analyzerSpy) Analyze(meetingID string, window []models.TranscriptSegment, participants []string, duration time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, analyzeCall{meetingID, window, participants, duration})
}

func (a *analyzerSpy) Calls() []analyzeCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]analyzeCall(nil), a.calls...)
}

type fetcherStub struct {
	segments []recall.TranscriptSegment
	err      error
	calls    int
}

func (f *fetcherStub) GetTranscript(_ context.Context, _ string) ([]recall.TranscriptSegment, error) {
	f.calls++
	return f.segments, f.err
}

func newTestAggregator() (*Aggregator, *store.Store, *analyzerSpy, *fetcherStub) {
	st := store.New()
	spy := &analyzerSpy{}
	fetcher := &fetcherStub{}
	return New(st, spy, fetcher, nil), st, spy, fetcher
}

func finalEvent(id, speaker, text string) events.CanonicalEvent {
	return events.CanonicalEvent{
		MeetingID: id, Kind: events.KindTranscriptFinal,
		Speaker: speaker, Text: text, RawEventName: "transcript.data",
	}
}

func TestApply_WindowingTriggersFromThirdSegment(t *testing.T) {
	agg, _, spy, _ := newTestAggregator()
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		agg.Apply(ctx, finalEvent("m-1", "Rep", text))
	}

	// Appends #3, #4 and #5 each trigger; #1 and #2 do not.
	calls := spy.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[0].window, 3)
	assert.Len(t, calls[1].window, 4)
	assert.Len(t, calls[2].window, 5)
	assert.Equal(t, "a", calls[2].window[0].Text)
	assert.Equal(t, "e", calls[2].window[4].Text)
}

func TestApply_WindowCapsAtFiveSegments(t *testing.T) {
	agg, _, spy, _ := newTestAggregator()
	ctx := context.Background()

	for _, text := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		agg.Apply(ctx, finalEvent("m-1", "Rep", text))
	}

	calls := spy.Calls()
	require.Len(t, calls, 5)
	last := calls[len(calls)-1]
	require.Len(t, last.window, 5)
	assert.Equal(t, "c", last.window[0].Text)
	assert.Equal(t, "g", last.window[4].Text)
}

func TestApply_ThreeSegmentCoachingScenario(t *testing.T) {
	agg, _, spy, _ := newTestAggregator()
	ctx := context.Background()

	agg.Apply(ctx, finalEvent("m-1", "Rep", "How's your infra today?"))
	agg.Apply(ctx, finalEvent("m-1", "Customer", "It's a mess"))
	agg.Apply(ctx, finalEvent("m-1", "Rep", "Tell me more"))

	calls := spy.Calls()
	require.Len(t, calls, 1, "exactly one analysis for three appends")
	assert.Equal(t, "m-1", calls[0].meetingID)
	assert.Len(t, calls[0].window, 3)
	assert.ElementsMatch(t, []string{"Rep", "Customer"}, calls[0].participants)
}

func TestApply_PartialsCountTowardWindowButNeverTrigger(t *testing.T) {
	agg, st, spy, _ := newTestAggregator()
	ctx := context.Background()

	partial := finalEvent("m-1", "Rep", "working on")
	partial.Kind = events.KindTranscriptPartial
	agg.Apply(ctx, partial)
	partial2 := finalEvent("m-1", "Rep", "working on it")
	partial2.Kind = events.KindTranscriptPartial
	agg.Apply(ctx, partial2)
	assert.Empty(t, spy.Calls(), "partials alone never trigger")

	// The window is "last 5 regardless of partial/final", so one final
	// on top of two partials reaches the threshold.
	agg.Apply(ctx, finalEvent("m-1", "Customer", "sounds good"))
	calls := spy.Calls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].window, 3)

	// Both partial and final segments are retained, never merged.
	sess, ok := st.Get("m-1")
	require.True(t, ok)
	require.Len(t, sess.TranscriptLog, 3)
	assert.True(t, sess.TranscriptLog[0].IsPartial)
	assert.True(t, sess.TranscriptLog[1].IsPartial)
	assert.False(t, sess.TranscriptLog[2].IsPartial)
}

func TestApply_EmptyTextDiscardedSilently(t *testing.T) {
	agg, st, spy, _ := newTestAggregator()
	ctx := context.Background()

	agg.Apply(ctx, finalEvent("m-1", "Rep", "   "))
	agg.Apply(ctx, finalEvent("m-1", "Rep", ""))

	sess, ok := st.Get("m-1")
	require.True(t, ok, "session is still created")
	assert.Empty(t, sess.TranscriptLog)
	assert.Empty(t, spy.Calls())
}

func TestApply_SpeakerDefaultsToUnknown(t *testing.T) {
	agg, st, _, _ := newTestAggregator()
	agg.Apply(context.Background(), finalEvent("m-1", "", "hello"))

	sess, _ := st.Get("m-1")
	require.Len(t, sess.TranscriptLog, 1)
	assert.Equal(t, models.UnknownSpeaker, sess.TranscriptLog[0].Speaker)
}

func TestApply_UnrecognizedLeavesStoreUntouched(t *testing.T) {
	agg, st, spy, _ := newTestAggregator()
	agg.Apply(context.Background(), events.CanonicalEvent{
		MeetingID: "m-1", Kind: events.KindUnrecognized, RawEventName: "bot.future_thing",
	})

	_, ok := st.Get("m-1")
	assert.False(t, ok, "unrecognized events must not create sessions")
	assert.Empty(t, st.Summaries())
	assert.Empty(t, spy.Calls())
}

func TestApply_StatusLifecycle(t *testing.T) {
	agg, st, _, _ := newTestAggregator()
	ctx := context.Background()

	agg.Apply(ctx, events.CanonicalEvent{MeetingID: "m-1", Kind: events.KindBotActivated})
	sess, _ := st.Get("m-1")
	assert.Equal(t, models.StatusActive, sess.Status)

	agg.Apply(ctx, events.CanonicalEvent{MeetingID: "m-1", Kind: events.KindBotEnded})
	sess, _ = st.Get("m-1")
	assert.Equal(t, models.StatusEnded, sess.Status)

	// bot-ended is idempotent and terminal.
	agg.Apply(ctx, events.CanonicalEvent{MeetingID: "m-1", Kind: events.KindBotEnded})
	agg.Apply(ctx, events.CanonicalEvent{MeetingID: "m-1", Kind: events.KindBotActivated})
	sess, _ = st.Get("m-1")
	assert.Equal(t, models.StatusEnded, sess.Status)
}

func TestApply_TranscriptDoneBulkAppends(t *testing.T) {
	agg, st, _, fetcher := newTestAggregator()
	fetcher.segments = []recall.TranscriptSegment{
		{Text: "full segment one", Speaker: "Rep", Start: 1.5},
		{Text: "  ", Speaker: "Rep"},
		{Text: "full segment two", SpeakerID: "7", Start: 3.25},
	}

	agg.Apply(context.Background(), events.CanonicalEvent{MeetingID: "m-1", Kind: events.KindTranscriptDone})

	sess, ok := st.Get("m-1")
	require.True(t, ok)
	require.Len(t, sess.TranscriptLog, 2, "blank segments are skipped")
	assert.Equal(t, "Rep", sess.TranscriptLog[0].Speaker)
	assert.Equal(t, "7", sess.TranscriptLog[1].Speaker)
	assert.Equal(t, 1.5, sess.TranscriptLog[0].Metadata["start"])
	assert.Equal(t, "full_transcript", sess.TranscriptLog[0].Metadata["source"])
}

func TestApply_TranscriptDoneFetchFailureIsIsolated(t *testing.T) {
	agg, st, _, fetcher := newTestAggregator()
	fetcher.err = errors.New("provider unavailable")

	// Must not panic or surface the error; the webhook caller still
	// receives success.
	agg.Apply(context.Background(), events.CanonicalEvent{MeetingID: "m-1", Kind: events.KindTranscriptDone})

	sess, ok := st.Get("m-1")
	require.True(t, ok)
	assert.Empty(t, sess.TranscriptLog)
	assert.Equal(t, 1, fetcher.calls)
}
