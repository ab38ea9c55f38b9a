package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// kindTable maps known provider event-name strings to canonical kinds.
// Anything not listed here normalizes to KindUnrecognized.
var kindTable = map[string]Kind{
	"transcript.data":         KindTranscriptFinal,
	"transcript.partial_data": KindTranscriptPartial,
	"transcript.done":         KindTranscriptDone,
	"bot.transcription.done":  KindTranscriptDone,
	"bot.joined_call":         KindBotActivated,
	"bot.in_call_recording":   KindBotActivated,
	"bot.call_ended":          KindBotEnded,
	"bot.done":                KindBotEnded,
	"bot.fatal":               KindBotEnded,
}

// path addresses one candidate location in the decoded payload tree.
type path []string

// eventNamePaths, meetingIDPaths, textPaths and speakerPaths are the
// ordered extraction rules: for each field the first non-empty match
// wins. The order is total and deterministic, so the same value is
// resolved no matter which shape carried it.
var (
	eventNamePaths = []path{{"event"}, {"type"}}

	meetingIDPaths = []path{
		{"meeting_id"},
		{"bot_id"},
		{"data", "bot_id"},
		{"data", "bot", "id"},
		{"bot", "id"},
	}

	textPaths = []path{
		{"text"},
		{"data", "text"},
		{"data", "transcript", "text"},
	}

	speakerPaths = []path{
		{"speaker"},
		{"data", "speaker"},
		{"data", "transcript", "speaker"},
		{"data", "transcript", "speaker_id"},
	}

	metadataPaths = []path{
		{"metadata"},
		{"data", "metadata"},
	}

	// transcriptWordsPath is the word-array fallback for realtime
	// transcript payloads that carry no flat text field.
	transcriptWordsPath = path{"data", "transcript", "words"}
)

// NoMeetingIDError reports a payload in which no candidate field
// resolved to a meeting identifier. This is the only normalization
// failure; it is a client error, never a crash.
type NoMeetingIDError struct {
	// Candidates lists the payload locations that were checked, in
	// priority order, for diagnostics in the error response.
	Candidates []string
}

func (e *NoMeetingIDError) Error() string {
	return fmt.Sprintf("no meeting id found in payload (checked %s)", strings.Join(e.Candidates, ", "))
}

// Normalize maps a raw, untrusted webhook body to a canonical event.
// Unknown event names are not an error: they yield KindUnrecognized.
// The only failure is an unresolvable meeting id (including a body
// that is not a JSON object at all).
func Normalize(body []byte) (CanonicalEvent, error) {
	var tree map[string]any
	if err := json.Unmarshal(body, &tree); err != nil {
		return CanonicalEvent{}, &NoMeetingIDError{Candidates: describe(meetingIDPaths)}
	}

	meetingID := firstString(tree, meetingIDPaths)
	if meetingID == "" {
		return CanonicalEvent{}, &NoMeetingIDError{Candidates: describe(meetingIDPaths)}
	}

	rawName := firstString(tree, eventNamePaths)
	kind, ok := kindTable[rawName]
	if !ok {
		kind = KindUnrecognized
	}

	text := firstString(tree, textPaths)
	if text == "" {
		text = joinWords(tree)
	}

	ev := CanonicalEvent{
		MeetingID:    meetingID,
		Kind:         kind,
		Text:         text,
		Speaker:      firstString(tree, speakerPaths),
		Metadata:     firstMap(tree, metadataPaths),
		RawEventName: rawName,
	}
	return ev, nil
}

// firstString applies the ordered rules and returns the first non-empty
// string (or stringified number) match.
func firstString(tree map[string]any, rules []path) string {
	for _, p := range rules {
		if v, ok := lookup(tree, p); ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstMap(tree map[string]any, rules []path) map[string]any {
	for _, p := range rules {
		if v, ok := lookup(tree, p); ok {
			if m, ok := v.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// lookup walks one candidate path through nested JSON objects.
func lookup(tree map[string]any, p path) (any, bool) {
	var cur any = tree
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// asString accepts the string and numeric encodings providers use for
// identifiers. Other types never match.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// joinWords concatenates the realtime word array ({text} items) into a
// single utterance string.
func joinWords(tree map[string]any) string {
	v, ok := lookup(tree, transcriptWordsPath)
	if !ok {
		return ""
	}
	arr, ok := v.([]any)
	if !ok {
		return ""
	}
	var parts []string
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if w := asString(m["text"]); w != "" {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, " ")
}

func describe(rules []path) []string {
	out := make([]string, len(rules))
	for i, p := range rules {
		out[i] = strings.Join(p, ".")
	}
	return out
}
