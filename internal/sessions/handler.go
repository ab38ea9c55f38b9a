package sessions

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitchlab/backend/internal/recall"
	"github.com/pitchlab/backend/internal/store"
	"github.com/pitchlab/backend/pkg/response"
)

// BotProvisioner launches a transcription bot into a meeting.
type BotProvisioner interface {
	CreateBot(ctx context.Context, meetingURL, botName string) (*recall.Bot, error)
}

// Handler serves the dashboard read API and the bot launch endpoint.
type Handler struct {
	store           *store.Store
	bots            BotProvisioner
	botName         string
	coachingLimit   int
	transcriptLimit int
	logger          *zap.Logger
}

// NewHandler creates a sessions handler. The limits are the defaults
// for the latest-slice endpoint when the query omits them.
func NewHandler(st *store.Store, bots BotProvisioner, botName string, coachingLimit, transcriptLimit int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if coachingLimit <= 0 {
		coachingLimit = 5
	}
	if transcriptLimit <= 0 {
		transcriptLimit = 20
	}
	return &Handler{
		store:           st,
		bots:            bots,
		botName:         botName,
		coachingLimit:   coachingLimit,
		transcriptLimit: transcriptLimit,
		logger:          logger,
	}
}

type launchBotRequest struct {
	MeetingURL string `json:"meeting_url" binding:"required"`
}

// LaunchBot handles POST /api/bots. It provisions a transcription bot
// for the meeting URL and pre-creates the session under the
// provider-assigned bot id.
func (h *Handler) LaunchBot(c *gin.Context) {
	var body launchBotRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "meeting_url required")
		return
	}
	bot, err := h.bots.CreateBot(c.Request.Context(), body.MeetingURL, h.botName)
	if err != nil {
		h.logger.Error("bot provisioning failed", zap.Error(err))
		response.Internal(c, "failed to launch bot")
		return
	}
	sess := h.store.GetOrCreate(bot.ID)
	response.Created(c, gin.H{"bot_id": bot.ID, "session": sess})
}

// List handles GET /api/sessions.
func (h *Handler) List(c *gin.Context) {
	response.OK(c, h.store.Summaries())
}

// GetByID handles GET /api/sessions/:id. Unknown sessions are a 404,
// unlike the latest-slice endpoint.
func (h *Handler) GetByID(c *gin.Context) {
	sess, ok := h.store.Get(c.Param("id"))
	if !ok {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, sess)
}

// Latest handles GET /api/sessions/:id/latest?coaching=N&transcripts=M.
// It returns the most recent coaching results and transcript segments,
// most recent first. An unknown session yields empty collections with a
// 200, never a 404 — polling dashboards start before the first event
// arrives.
func (h *Handler) Latest(c *gin.Context) {
	id := c.Param("id")
	coachingLimit := queryInt(c, "coaching", h.coachingLimit)
	transcriptLimit := queryInt(c, "transcripts", h.transcriptLimit)

	response.OK(c, gin.H{
		"coaching":    h.store.LatestCoaching(id, coachingLimit),
		"transcripts": h.store.LatestSegments(id, transcriptLimit),
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
