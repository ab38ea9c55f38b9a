package coaching

import "sync"

// DefaultSystemPrompt is the built-in system prompt used until an
// operator overrides it.
const DefaultSystemPrompt = `You are a real-time sales call coach. You observe a live meeting transcript and give the rep short, actionable coaching. Always respond with a single JSON object of the form {"summary": string, "sentiment": "positive"|"neutral"|"negative", "suggestions": [string]}. Do not include any text outside the JSON object.`

// DefaultUserPromptTemplate is the built-in user prompt. The
// {{TRANSCRIPT}}, {{MEETING_ID}}, {{PARTICIPANTS}} and {{DURATION}}
// tokens are substituted at trigger time.
const DefaultUserPromptTemplate = `Meeting {{MEETING_ID}} has been running for {{DURATION}}.
Participants: {{PARTICIPANTS}}

Most recent transcript:
{{TRANSCRIPT}}

Analyze this window and coach the rep.`

// PromptConfig is the process-wide prompt pair read by the analyzer at
// trigger time. There is no per-session override.
type PromptConfig struct {
	SystemPrompt       string `json:"system_prompt"`
	UserPromptTemplate string `json:"user_prompt_template"`
}

// PromptStore holds the singleton prompt configuration. Writes are rare
// and last-writer-wins.
type PromptStore struct {
	mu  sync.RWMutex
	cfg PromptConfig
}

// NewPromptStore creates a prompt store seeded with the defaults.
func NewPromptStore() *PromptStore {
	return &PromptStore{cfg: defaultPromptConfig()}
}

// Get returns the current configuration.
func (p *PromptStore) Get() PromptConfig {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg
}

// Set replaces the configuration.
func (p *PromptStore) Set(cfg PromptConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
}

// Reset restores the built-in defaults.
func (p *PromptStore) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = defaultPromptConfig()
}

func defaultPromptConfig() PromptConfig {
	return PromptConfig{
		SystemPrompt:       DefaultSystemPrompt,
		UserPromptTemplate: DefaultUserPromptTemplate,
	}
}
