package vapi

import (
	"bytes"
	"encoding/json"
	"time"
)

// Webhook message types sent by the provider.
// Unknown values must be tolerated; the dispatcher falls through to a no-op.
const (
	MessageTypeStatusUpdate    = "status-update"
	MessageTypeTranscript      = "transcript"
	MessageTypeEndOfCallReport = "end-of-call-report"
	MessageTypeCallEnd         = "call-end"
	MessageTypeFunctionCall    = "function-call"
)

// EndedReasonHangup is the only end reason for which a call duration is
// computed; every other reason means the call ended abnormally.
const EndedReasonHangup = "hangup"

// Message captures the subset of the provider webhook payload we care about.
// The webhook body wraps it as {"message": {...}}.
// Keep it minimal and provider-adapter-only; business logic lives in
// internal/callreport.
type Message struct {
	Type       string    `json:"type"`
	Role       string    `json:"role,omitempty"`
	Transcript string    `json:"transcript,omitempty"`
	Timestamp  EventTime `json:"timestamp,omitempty"`
	Call       *Call     `json:"call,omitempty"`
	Artifact   *Artifact `json:"artifact,omitempty"`
}

// Call is the provider's call record embedded in webhook events.
type Call struct {
	ID                 string         `json:"id,omitempty"`
	Status             string         `json:"status,omitempty"`
	StartedAt          EventTime      `json:"startedAt,omitempty"`
	EndedReason        string         `json:"endedReason,omitempty"`
	Customer           *Customer      `json:"customer,omitempty"`
	Variables          map[string]any `json:"variables,omitempty"`
	Transcript         string         `json:"transcript,omitempty"`
	StereoRecordingURL string         `json:"stereoRecordingUrl,omitempty"`
}

type Customer struct {
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
}

// Artifact is the richer per-call payload attached to end-of-call reports.
// StructuredOutputs is kept raw: the provider delivers it either as an
// ordered array or as a mapping keyed by an opaque ID.
type Artifact struct {
	StructuredOutputs  json.RawMessage `json:"structuredOutputs,omitempty"`
	Summary            string          `json:"summary,omitempty"`
	Transcript         string          `json:"transcript,omitempty"`
	StereoRecordingURL string          `json:"stereoRecordingUrl,omitempty"`
}

// VariableString reads a call-start variable as a string, tolerating absent
// variables and non-string values.
func (c *Call) VariableString(key string) string {
	if c == nil || c.Variables == nil {
		return ""
	}
	if s, ok := c.Variables[key].(string); ok {
		return s
	}
	return ""
}

// EventTime accepts the provider's two timestamp encodings: an RFC3339-ish
// string or a millisecond epoch number. The zero value means "absent".
type EventTime struct {
	time.Time
}

func (t *EventTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

func (t EventTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
