package events

// Kind classifies a provider webhook delivery into the internal event
// vocabulary. Unknown provider event names map to KindUnrecognized,
// which is accepted but mutates nothing (forward compatibility).
type Kind string

const (
	KindTranscriptPartial Kind = "transcript-partial"
	KindTranscriptFinal   Kind = "transcript-final"
	KindTranscriptDone    Kind = "transcript-done"
	KindBotActivated      Kind = "bot-activated"
	KindBotEnded          Kind = "bot-ended"
	KindUnrecognized      Kind = "unrecognized"
)

// CanonicalEvent is the normalized internal representation of one
// webhook delivery, independent of which provider payload shape
// carried it.
type CanonicalEvent struct {
	MeetingID    string
	Kind         Kind
	Text         string
	Speaker      string
	Metadata     map[string]any
	RawEventName string
}
