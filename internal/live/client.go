package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"callrelay/internal/registry"
	"callrelay/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// The UI may be served from another origin during development; the channel
// carries no credentials, so origins are not restricted.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Handle upgrades the request and serves the viewer connection until it drops.
func (h *Hub) Handle(c *gin.Context) {
	log := logger.FromGin(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("live: upgrade failed", "err", err)
		return
	}

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(cl)

	hello, _ := json.Marshal(Frame{Event: EventConnected})
	select {
	case cl.send <- hello:
	default:
	}

	go cl.writePump()
	h.readPump(c, cl)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type callStartedData struct {
	CallID       string `json:"callId"`
	CustomerName string `json:"customerName"`
}

type callEndedData struct {
	CallID string `json:"callId"`
}

func (h *Hub) readPump(c *gin.Context, cl *client) {
	log := logger.FromGin(c)
	defer func() {
		h.unregister(cl)
		_ = cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("live: read failed", "err", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Warn("live: dropping malformed frame", "err", err)
			continue
		}
		h.handleViewerFrame(c, frame, log)
	}
}

func (h *Hub) handleViewerFrame(c *gin.Context, frame Frame, log *slog.Logger) {
	ctx := c.Request.Context()
	switch frame.Event {
	case eventCallStarted:
		var data callStartedData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.CallID == "" {
			log.Warn("live: bad call-started frame", "err", err)
			return
		}
		call := registry.ActiveCall{
			CustomerName: data.CustomerName,
			Status:       registry.StatusActive,
			StartedAt:    time.Now().UTC(),
		}
		if err := h.store.Set(ctx, data.CallID, call); err != nil {
			log.Warn("live: recording call start", "call_id", data.CallID, "err", err)
		}
	case eventCallEnded:
		var data callEndedData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.CallID == "" {
			log.Warn("live: bad call-ended frame", "err", err)
			return
		}
		call, ok, err := h.store.Get(ctx, data.CallID)
		if err != nil || !ok {
			if err != nil {
				log.Warn("live: loading call", "call_id", data.CallID, "err", err)
			}
			return
		}
		call.Status = registry.StatusCompleted
		call.EndedAt = time.Now().UTC()
		if err := h.store.Set(ctx, data.CallID, call); err != nil {
			log.Warn("live: recording call end", "call_id", data.CallID, "err", err)
		}
	default:
		// Viewers only drive the registry; everything else is ignored.
	}
}
