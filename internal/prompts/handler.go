package prompts

import (
	"github.com/gin-gonic/gin"

	"github.com/pitchlab/backend/internal/coaching"
	"github.com/pitchlab/backend/pkg/response"
)

// Handler exposes the administrative prompt-configuration surface that
// gates what template the analyzer uses.
type Handler struct {
	store *coaching.PromptStore
}

// NewHandler creates a prompt-config handler.
func NewHandler(store *coaching.PromptStore) *Handler {
	return &Handler{store: store}
}

// Get handles GET /api/prompt-config.
func (h *Handler) Get(c *gin.Context) {
	response.OK(c, h.store.Get())
}

type updateRequest struct {
	SystemPrompt       string `json:"system_prompt" binding:"required"`
	UserPromptTemplate string `json:"user_prompt_template" binding:"required"`
}

// Update handles PUT /api/prompt-config. Both fields are required; the
// pair is replaced as a whole, last write wins.
func (h *Handler) Update(c *gin.Context) {
	var body updateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "system_prompt and user_prompt_template required")
		return
	}
	h.store.Set(coaching.PromptConfig{
		SystemPrompt:       body.SystemPrompt,
		UserPromptTemplate: body.UserPromptTemplate,
	})
	response.OK(c, h.store.Get())
}

// Reset handles DELETE /api/prompt-config, restoring the built-in
// defaults.
func (h *Handler) Reset(c *gin.Context) {
	h.store.Reset()
	response.OK(c, h.store.Get())
}
