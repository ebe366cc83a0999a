package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"callrelay/internal/callreport"
	"callrelay/internal/history"
	"callrelay/internal/live"
	"callrelay/internal/sink"
	"callrelay/internal/vapi"
	"callrelay/pkg/logger"
)

// Broadcaster fans events out to live viewers. Fire-and-forget.
type Broadcaster interface {
	Emit(event string, data any)
}

// Handler routes incoming provider events by their declared type.
//
// Only the end-of-call-report branch produces a CallResult and touches the
// sink; every event is additionally broadcast verbatim to viewers, and
// unknown types fall through to a no-op that still broadcasts. Sink and
// history failures are logged and swallowed so the provider's delivery is
// always acknowledged — failing the webhook would only make it redeliver
// through a transient sink outage.
type Handler struct {
	Sink      sink.Appender
	History   history.Repository
	Broadcast Broadcaster

	Now func() time.Time
}

type envelope struct {
	Message json.RawMessage `json:"message"`
}

func (h Handler) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	var env envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		log.Warn("webhook: invalid body", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	raw := env.Message
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}

	// A message that does not match the expected shape is dispatched as an
	// unknown type, not rejected.
	var msg vapi.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn("webhook: unparseable message, treating as unknown type", "err", err)
		msg = vapi.Message{}
	}

	switch msg.Type {
	case vapi.MessageTypeStatusUpdate:
		if msg.Call != nil {
			log.Info("call status update", "call_id", msg.Call.ID, "status", msg.Call.Status)
		}
	case vapi.MessageTypeTranscript:
		log.Debug("transcript fragment", "role", msg.Role, "transcript", msg.Transcript)
	case vapi.MessageTypeEndOfCallReport:
		h.handleEndOfCall(c.Request.Context(), log, &msg)
	case vapi.MessageTypeCallEnd:
		log.Info("call ended", "call_id", callID(&msg))
	case vapi.MessageTypeFunctionCall:
		log.Info("function call event", "call_id", callID(&msg))
	default:
		log.Debug("unhandled message type", "type", msg.Type)
	}

	if h.Broadcast != nil {
		h.Broadcast.Emit(live.EventVapi, raw)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h Handler) handleEndOfCall(ctx context.Context, log *slog.Logger, msg *vapi.Message) {
	now := h.Now
	if now == nil {
		now = time.Now
	}

	result, ok := callreport.Build(msg, now)
	if !ok {
		// No structured outputs: nothing to reconcile, nothing written.
		log.Info("end-of-call report without structured outputs", "call_id", callID(msg))
		return
	}

	if h.Sink != nil {
		if err := h.Sink.Append(ctx, result.Row()); err != nil {
			log.Error("sink append failed", "call_id", callID(msg), "err", err)
		}
	}

	if h.History != nil {
		rec := history.Record{
			ID:         uuid.NewString(),
			ReceivedAt: now().UTC(),
			Result:     result,
		}
		if err := h.History.Record(ctx, rec); err != nil {
			log.Error("history record failed", "call_id", callID(msg), "err", err)
		}
	}

	if h.Broadcast != nil {
		h.Broadcast.Emit(live.EventCallData, result)
	}
}

func callID(msg *vapi.Message) string {
	if msg == nil || msg.Call == nil {
		return ""
	}
	return msg.Call.ID
}
