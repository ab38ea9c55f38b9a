// Package coaching turns a window of transcript segments into a
// coaching result by prompting the LLM collaborator in the background.
package coaching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pitchlab/backend/internal/models"
	"github.com/pitchlab/backend/internal/store"
	"github.com/pitchlab/backend/internal/tasks"
)

// Completer is the LLM collaborator: one system+user exchange in, raw
// assistant text out.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Analyzer dispatches coaching analysis for a transcript window and
// writes the result back into the session store. The caller never waits
// on the LLM call.
type Analyzer struct {
	store     *store.Store
	prompts   *PromptStore
	completer Completer
	runner    *tasks.Runner
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(st *store.Store, prompts *PromptStore, completer Completer, runner *tasks.Runner, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{store: st, prompts: prompts, completer: completer, runner: runner, logger: logger}
}

// Analyze fires one background analysis for the given window. Every
// completed LLM call appends exactly one coaching result (real or
// fallback); only a transport/API failure produces no output.
func (a *Analyzer) Analyze(meetingID string, window []models.TranscriptSegment, participants []string, duration time.Duration) {
	// Prompt configuration is read at trigger time, not at call time.
	cfg := a.prompts.Get()
	systemPrompt := renderPrompt(cfg.SystemPrompt, meetingID, window, participants, duration)
	userPrompt := renderPrompt(cfg.UserPromptTemplate, meetingID, window, participants, duration)

	a.runner.Go("coaching-analysis", func(ctx context.Context) {
		raw, err := a.completer.Complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			a.logger.Error("coaching analysis failed",
				zap.String("meeting_id", meetingID),
				zap.Error(err),
			)
			return
		}

		result, ok := ExtractJSONObject(raw)
		if !ok {
			a.logger.Warn("coaching response was not valid JSON, using fallback",
				zap.String("meeting_id", meetingID),
			)
			result = FallbackResult()
		}

		a.store.AppendCoaching(meetingID, models.CoachingResult{
			Result:    result,
			Timestamp: time.Now(),
		})
		a.logger.Info("coaching result stored",
			zap.String("meeting_id", meetingID),
			zap.Int("window_size", len(window)),
		)
	})
}

// renderPrompt substitutes the fixed placeholder tokens into a template.
func renderPrompt(template, meetingID string, window []models.TranscriptSegment, participants []string, duration time.Duration) string {
	replacer := strings.NewReplacer(
		"{{TRANSCRIPT}}", renderTranscript(window),
		"{{MEETING_ID}}", meetingID,
		"{{PARTICIPANTS}}", strings.Join(participants, ", "),
		"{{DURATION}}", fmt.Sprintf("%d min", int(duration.Minutes())),
	)
	return replacer.Replace(template)
}

// renderTranscript formats a window as "Speaker: text" lines in
// chronological order. Partials are marked so the model can weigh them.
func renderTranscript(window []models.TranscriptSegment) string {
	lines := make([]string, 0, len(window))
	for _, seg := range window {
		line := fmt.Sprintf("%s: %s", seg.Speaker, seg.Text)
		if seg.IsPartial {
			line += " [partial]"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ExtractJSONObject pulls a single JSON object out of free-form model
// output, tolerating surrounding markdown fences and prose. Returns
// false when no object can be parsed.
func ExtractJSONObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)

	// Strip a ``` or ```json fence if present.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	var direct map[string]any
	if err := json.Unmarshal([]byte(s), &direct); err == nil {
		return direct, true
	}

	// Fall back to the outermost brace span.
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return nil, false
	}
	var inner map[string]any
	if err := json.Unmarshal([]byte(s[start:end+1]), &inner); err != nil {
		return nil, false
	}
	return inner, true
}

// FallbackResult is the fixed, schema-valid coaching result substituted
// when the model response cannot be parsed.
func FallbackResult() map[string]any {
	return map[string]any{
		"summary":     "Analysis unavailable for this transcript window.",
		"sentiment":   "neutral",
		"suggestions": []any{},
	}
}
