package webhooks

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitchlab/backend/internal/aggregator"
	"github.com/pitchlab/backend/internal/events"
	"github.com/pitchlab/backend/pkg/response"
)

// Handler receives provider webhook deliveries (signed status events
// and unsigned realtime transcript events on the same route).
type Handler struct {
	agg    *aggregator.Aggregator
	secret string
	verify events.Verifier
	logger *zap.Logger
}

// NewHandler creates a webhook handler. verify may be nil to use the
// default HMAC scheme.
func NewHandler(agg *aggregator.Aggregator, secret string, verify events.Verifier, logger *zap.Logger) *Handler {
	if verify == nil {
		verify = events.Verify
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{agg: agg, secret: secret, verify: verify, logger: logger}
}

// Receive handles POST /webhooks/recall.
//
// Signature verification only applies when a secret is configured AND
// the delivery carried the signature triplet. The realtime transcript
// path delivers unsigned requests without the triplet, so those skip
// verification by design. A 200 here means the event was received and
// normalized, nothing more: downstream transcript storage and coaching
// are asynchronous and best-effort.
func (h *Handler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.BadRequest(c, "failed to read request body")
		return
	}

	hdr := events.HeadersFromRequest(c.Request.Header)
	if h.secret != "" && hdr.Present() {
		if !h.verify(body, hdr, h.secret) {
			h.logger.Warn("webhook signature verification failed",
				zap.String("webhook_id", hdr.ID),
			)
			response.Unauthorized(c, "invalid webhook signature")
			return
		}
	}

	ev, err := events.Normalize(body)
	if err != nil {
		var noID *events.NoMeetingIDError
		if errors.As(err, &noID) {
			response.BadRequest(c, "no meeting id in payload (checked: "+strings.Join(noID.Candidates, ", ")+")")
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	h.agg.Apply(c.Request.Context(), ev)

	status := "ok"
	if ev.Kind == events.KindUnrecognized {
		status = "ignored"
	}
	h.logger.Debug("webhook processed",
		zap.String("meeting_id", ev.MeetingID),
		zap.String("event", ev.RawEventName),
		zap.String("kind", string(ev.Kind)),
	)
	response.OK(c, gin.H{"status": status})
}
