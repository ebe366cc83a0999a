package callreport

import (
	"math"
	"time"

	"callrelay/internal/vapi"
)

// Human-readable labels the provider's post-call analysis uses for its
// structured outputs. Lookup is case-insensitive.
const (
	labelCustomerName     = "Customer Name"
	labelPolicyUsed       = "Policy Used"
	labelRating           = "Rating"
	labelCustomerFeedback = "Customer Feedback"
	labelSentiment        = "Customer Sentiment"
	labelFeedbackScore    = "Feedback Score"
	labelFeedbackSummary  = "Feedback Summary"
	labelCallSummary      = "Call Summary"
	labelCallback         = "Callback"
	labelCallbackSchedule = "Callback Schedule"
	labelCallbackAttempt  = "Callback Attempt"
)

// Build reconciles an end-of-call report into the canonical CallResult.
//
// It runs only when the artifact carries a structuredOutputs payload; for
// anything else it reports false and the caller must neither write the sink
// nor emit a record (the raw event is still broadcast upstream of here).
//
// Per-field selection tries the structured output first, then a
// field-specific fallback, then the type default. now supplies the clock for
// the timestamp-of-last-resort and must not be nil.
func Build(msg *vapi.Message, now func() time.Time) (CallResult, bool) {
	if msg == nil || msg.Artifact == nil {
		return CallResult{}, false
	}
	raw := msg.Artifact.StructuredOutputs
	if len(raw) == 0 || string(raw) == "null" {
		return CallResult{}, false
	}
	outputs := FlattenOutputs(raw)

	r := CallResult{}

	// customerName: analysis -> call record's customer -> call-start variable.
	if v, ok := outputs.String(labelCustomerName); ok && v != "" {
		r.CustomerName = v
	} else if msg.Call != nil && msg.Call.Customer != nil && msg.Call.Customer.Name != "" {
		r.CustomerName = msg.Call.Customer.Name
	} else {
		r.CustomerName = msg.Call.VariableString("customerName")
	}

	r.PolicyUsed, _ = outputs.String(labelPolicyUsed)
	r.Rating, _ = outputs.String(labelRating)
	r.CustomerFeedback, _ = outputs.String(labelCustomerFeedback)
	r.CustomerSentiment, _ = outputs.String(labelSentiment)
	r.FeedbackScore, _ = outputs.String(labelFeedbackScore)
	r.FeedbackSummary, _ = outputs.String(labelFeedbackSummary)
	r.CallbackSchedule, _ = outputs.String(labelCallbackSchedule)

	// callSummary: analysis -> provider-generated summary.
	if v, ok := outputs.String(labelCallSummary); ok && v != "" {
		r.CallSummary = v
	} else {
		r.CallSummary = msg.Artifact.Summary
	}

	// callback: an explicit false from the analysis is preserved, not
	// re-defaulted. Absent or uncoercible means false.
	r.Callback, _ = outputs.Bool(labelCallback)

	if v, ok := outputs.Int(labelCallbackAttempt); ok && v != 0 {
		r.CallbackAttempt = v
	} else {
		r.CallbackAttempt = 1
	}

	// callTimestamp: call start -> event time -> processing clock.
	startedAt := callStart(msg, now)
	r.CallTimestamp = startedAt.UTC().Format(time.RFC3339)

	// duration is only computed for a normal hangup. Any other end reason
	// leaves it at 0, which downstream reads as "ended abnormally".
	if msg.Call != nil && msg.Call.EndedReason == vapi.EndedReasonHangup && !msg.Timestamp.IsZero() {
		secs := int(math.Round(msg.Timestamp.Sub(startedAt).Seconds()))
		if secs < 0 {
			secs = 0
		}
		r.Duration = secs
	}

	// Artifact carries the richer payload; the call record keeps flatter
	// legacy copies of both fields.
	r.TranscriptText = msg.Artifact.Transcript
	if r.TranscriptText == "" && msg.Call != nil {
		r.TranscriptText = msg.Call.Transcript
	}
	r.StereoRecordingURL = msg.Artifact.StereoRecordingURL
	if r.StereoRecordingURL == "" && msg.Call != nil {
		r.StereoRecordingURL = msg.Call.StereoRecordingURL
	}

	return r, true
}

func callStart(msg *vapi.Message, now func() time.Time) time.Time {
	if msg.Call != nil && !msg.Call.StartedAt.IsZero() {
		return msg.Call.StartedAt.Time
	}
	if !msg.Timestamp.IsZero() {
		return msg.Timestamp.Time
	}
	return now()
}
