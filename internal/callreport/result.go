package callreport

import (
	"fmt"
	"strconv"
)

// CallResult is the canonical record produced for one finished call.
// Every field has a defined default (empty string, 0, false, 1) so the
// record is always fully populated and the sink always receives a
// fixed-width row. Built once per end-of-call event; never mutated after.
//
// Rating and FeedbackScore are kept as canonical text ("" when the analysis
// extracted nothing) because the sheet stores cells as text and the provider
// delivers them as either numbers or strings.
type CallResult struct {
	CustomerName       string `json:"customerName"`
	CallTimestamp      string `json:"callTimestamp"`
	PolicyUsed         string `json:"policyUsed"`
	Rating             string `json:"rating"`
	CustomerFeedback   string `json:"customerFeedback"`
	CustomerSentiment  string `json:"customerSentiment"`
	FeedbackScore      string `json:"feedbackScore"`
	FeedbackSummary    string `json:"feedbackSummary"`
	CallSummary        string `json:"callSummary"`
	Callback           bool   `json:"callback"`
	CallbackSchedule   string `json:"callbackSchedule"`
	CallbackAttempt    int    `json:"callbackAttempt"`
	Duration           int    `json:"duration"`
	TranscriptText     string `json:"transcriptText"`
	StereoRecordingURL string `json:"stereoRecordingUrl"`
}

// RowWidth is the fixed number of sink columns (sheet columns A through M).
const RowWidth = 13

// Row renders the record as the fixed-order sink row:
// customerName, callTimestamp, policyUsed, rating, customerFeedback,
// customerSentiment, callSummary, callback, callbackSchedule,
// callbackAttempt, duration, transcriptText, stereoRecordingUrl.
// FeedbackScore and FeedbackSummary are not part of the sheet layout.
func (r CallResult) Row() []string {
	callback := "FALSE"
	if r.Callback {
		callback = "TRUE"
	}
	return []string{
		r.CustomerName,
		r.CallTimestamp,
		r.PolicyUsed,
		r.Rating,
		r.CustomerFeedback,
		r.CustomerSentiment,
		r.CallSummary,
		callback,
		r.CallbackSchedule,
		strconv.Itoa(r.CallbackAttempt),
		strconv.Itoa(r.Duration),
		r.TranscriptText,
		r.StereoRecordingURL,
	}
}

// FromRow parses a sink row back by column position. It reverses Row for the
// thirteen sheet columns; FeedbackScore and FeedbackSummary are not stored
// in the sheet and come back empty.
func FromRow(row []string) (CallResult, error) {
	if len(row) != RowWidth {
		return CallResult{}, fmt.Errorf("callreport: expected %d columns, got %d", RowWidth, len(row))
	}
	attempt, err := strconv.Atoi(row[9])
	if err != nil {
		return CallResult{}, fmt.Errorf("callreport: callbackAttempt column: %w", err)
	}
	duration, err := strconv.Atoi(row[10])
	if err != nil {
		return CallResult{}, fmt.Errorf("callreport: duration column: %w", err)
	}
	return CallResult{
		CustomerName:       row[0],
		CallTimestamp:      row[1],
		PolicyUsed:         row[2],
		Rating:             row[3],
		CustomerFeedback:   row[4],
		CustomerSentiment:  row[5],
		CallSummary:        row[6],
		Callback:           row[7] == "TRUE",
		CallbackSchedule:   row[8],
		CallbackAttempt:    attempt,
		Duration:           duration,
		TranscriptText:     row[11],
		StereoRecordingURL: row[12],
	}, nil
}
