package callreport

import "testing"

func TestRow_FixedWidthAndOrder(t *testing.T) {
	r := CallResult{
		CustomerName:       "Ada",
		CallTimestamp:      "2024-01-15T10:00:00Z",
		PolicyUsed:         "Premium Support Policy",
		Rating:             "4",
		CustomerFeedback:   "good service",
		CustomerSentiment:  "positive",
		CallSummary:        "upgrade processed",
		Callback:           true,
		CallbackSchedule:   "2024-01-16T09:00:00Z",
		CallbackAttempt:    2,
		Duration:           157,
		TranscriptText:     "hello",
		StereoRecordingURL: "https://cdn/rec.wav",
	}

	row := r.Row()
	if len(row) != RowWidth {
		t.Fatalf("expected %d columns, got %d", RowWidth, len(row))
	}
	if row[0] != "Ada" || row[1] != "2024-01-15T10:00:00Z" || row[6] != "upgrade processed" {
		t.Fatalf("unexpected column order: %v", row)
	}
	if row[7] != "TRUE" {
		t.Fatalf("expected callback TRUE, got %q", row[7])
	}
	if row[9] != "2" || row[10] != "157" {
		t.Fatalf("expected numeric columns as text, got %q %q", row[9], row[10])
	}
}

func TestRow_RoundTripsByPosition(t *testing.T) {
	orig := CallResult{
		CustomerName:       "Grace",
		CallTimestamp:      "2024-01-15T10:00:00Z",
		Rating:             "5",
		CustomerSentiment:  "neutral",
		CallSummary:        "billing question",
		Callback:           false,
		CallbackAttempt:    1,
		Duration:           42,
		TranscriptText:     "transcript text",
		StereoRecordingURL: "https://cdn/rec.wav",
	}

	parsed, err := FromRow(orig.Row())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if parsed != orig {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", parsed, orig)
	}
}

func TestFromRow_RejectsWrongWidth(t *testing.T) {
	if _, err := FromRow(make([]string, 5)); err == nil {
		t.Fatalf("expected width error")
	}
}

func TestFromRow_RejectsBadNumericColumns(t *testing.T) {
	row := (CallResult{CallbackAttempt: 1}).Row()
	row[10] = "not-a-number"
	if _, err := FromRow(row); err == nil {
		t.Fatalf("expected duration parse error")
	}
}
