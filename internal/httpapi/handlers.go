package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"callrelay/internal/callreport"
	"callrelay/internal/history"
	"callrelay/internal/pbx"
	"callrelay/internal/sink"
	"callrelay/internal/vapi"
	"callrelay/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal modules, return JSON.
type Handlers struct {
	Vapi    *vapi.Client
	PBX     *pbx.Client
	Sink    sink.Appender
	History history.Repository
}

// GetConfig hands the browser SDK its public identifiers. The private key
// never appears here.
func (h Handlers) GetConfig(c *gin.Context) {
	if h.Vapi == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "voice provider not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"publicKey":     h.Vapi.PublicKey,
		"assistantId":   h.Vapi.AssistantID,
		"phoneNumberId": h.Vapi.PhoneNumberID,
	})
}

// TestCallResults returns a canned record so the dashboard can be exercised
// without placing a real call.
func (h Handlers) TestCallResults(c *gin.Context) {
	c.JSON(http.StatusOK, callreport.CallResult{
		CustomerName:      "John Doe (Test)",
		CallTimestamp:     time.Now().UTC().Format(time.RFC3339),
		PolicyUsed:        "Premium Support Policy",
		Rating:            "4",
		CustomerFeedback:  "The service was good, but I had to wait a bit longer than expected.",
		CustomerSentiment: "positive",
		FeedbackScore:     "8",
		FeedbackSummary:   "Customer was satisfied with the overall service quality.",
		CallSummary:       "Customer called regarding account upgrade. Successfully processed request.",
		Callback:          false,
		CallbackAttempt:   1,
		Duration:          157,
	})
}

type startPhoneCallRequest struct {
	CustomerName string `json:"customerName"`
	PhoneNumber  string `json:"phoneNumber"`
}

func (h Handlers) StartPhoneCall(c *gin.Context) {
	log := logger.FromGin(c)

	var req startPhoneCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if req.CustomerName == "" || req.PhoneNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Customer name and phone number are required",
		})
		return
	}
	if h.Vapi == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "voice provider not configured"})
		return
	}

	res, err := h.Vapi.StartPhoneCall(c.Request.Context(), vapi.PhoneCallRequest{
		CustomerName: req.CustomerName,
		PhoneNumber:  req.PhoneNumber,
	})
	if err != nil {
		log.Error("start phone call failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"callId":  res.CallID,
		"message": "Phone call initiated successfully",
	})
}

type endPhoneCallRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

func (h Handlers) EndPhoneCall(c *gin.Context) {
	log := logger.FromGin(c)

	var req endPhoneCallRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PhoneNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Phone number is required to disconnect call",
		})
		return
	}
	if h.PBX == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "call control not configured"})
		return
	}

	err := h.PBX.DisconnectByNumber(c.Request.Context(), req.PhoneNumber)
	switch {
	case errors.Is(err, pbx.ErrCallNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "Call not found in active calls"})
		return
	case err != nil:
		log.Error("end phone call failed", "call_id", c.Param("callId"), "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Phone call disconnected successfully"})
}

// LogToSheets is the synchronous sink append for direct log requests. Unlike
// the webhook path, a failed write is reported to the caller here.
func (h Handlers) LogToSheets(c *gin.Context) {
	log := logger.FromGin(c)

	var result callreport.CallResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid json"})
		return
	}
	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "sheets sink not configured"})
		return
	}

	if err := h.Sink.Append(c.Request.Context(), result.Row()); err != nil {
		log.Error("sheets append failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListCallResults returns recent records from the local history copy.
func (h Handlers) ListCallResults(c *gin.Context) {
	if h.History == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history not configured"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	recs, err := h.History.ListRecent(c.Request.Context(), limit)
	if err != nil {
		logger.FromGin(c).Error("history list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing call results failed"})
		return
	}
	if recs == nil {
		recs = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"results": recs, "total": len(recs)})
}
