package main

import (
	"callrelay/internal/history"
	"callrelay/internal/httpapi"
	"callrelay/internal/live"
	"callrelay/internal/pbx"
	"callrelay/internal/sink"
	"callrelay/internal/vapi"
	"callrelay/internal/webhook"

	"github.com/gin-gonic/gin"
)

type deps struct {
	Vapi    *vapi.Client
	PBX     *pbx.Client
	Sink    sink.Appender
	History history.Repository
	Hub     *live.Hub
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d deps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhook (public). The provider retries on non-2xx, so the
	// handler acknowledges every well-formed delivery.
	wh := webhook.Handler{
		Sink:      d.Sink,
		History:   d.History,
		Broadcast: d.Hub,
	}
	r.POST("/api/webhook/vapi", wh.Handle)

	// Live viewer socket.
	r.GET("/ws", d.Hub.Handle)

	api := r.Group("/api")
	{
		h := httpapi.Handlers{
			Vapi:    d.Vapi,
			PBX:     d.PBX,
			Sink:    d.Sink,
			History: d.History,
		}

		api.GET("/config", h.GetConfig)
		api.GET("/test-call-results", h.TestCallResults)
		api.POST("/start-phone-call", h.StartPhoneCall)
		api.DELETE("/end-phone-call/:callId", h.EndPhoneCall)
		api.POST("/log-to-sheets", h.LogToSheets)
		api.GET("/call-results", h.ListCallResults)
	}
}
