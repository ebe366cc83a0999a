package history

import (
	"context"
	"database/sql"
	"fmt"

	"callrelay/internal/callreport"
)

// PostgresRepo persists call results to the optional local database.
// Schema (applied out of band):
//
//	CREATE TABLE IF NOT EXISTS call_results (
//	    id                   TEXT PRIMARY KEY,
//	    received_at          TIMESTAMPTZ NOT NULL,
//	    customer_name        TEXT NOT NULL DEFAULT '',
//	    call_timestamp       TEXT NOT NULL DEFAULT '',
//	    policy_used          TEXT NOT NULL DEFAULT '',
//	    rating               TEXT NOT NULL DEFAULT '',
//	    customer_feedback    TEXT NOT NULL DEFAULT '',
//	    customer_sentiment   TEXT NOT NULL DEFAULT '',
//	    feedback_score       TEXT NOT NULL DEFAULT '',
//	    feedback_summary     TEXT NOT NULL DEFAULT '',
//	    call_summary         TEXT NOT NULL DEFAULT '',
//	    callback             BOOLEAN NOT NULL DEFAULT FALSE,
//	    callback_schedule    TEXT NOT NULL DEFAULT '',
//	    callback_attempt     INTEGER NOT NULL DEFAULT 1,
//	    duration_seconds     INTEGER NOT NULL DEFAULT 0,
//	    transcript_text      TEXT NOT NULL DEFAULT '',
//	    stereo_recording_url TEXT NOT NULL DEFAULT ''
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Record(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrInvalidRecord
	}
	const q = `
		INSERT INTO call_results (
			id, received_at, customer_name, call_timestamp, policy_used,
			rating, customer_feedback, customer_sentiment, feedback_score,
			feedback_summary, call_summary, callback, callback_schedule,
			callback_attempt, duration_seconds, transcript_text,
			stereo_recording_url
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`

	res := rec.Result
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.ReceivedAt,
		res.CustomerName, res.CallTimestamp, res.PolicyUsed,
		res.Rating, res.CustomerFeedback, res.CustomerSentiment, res.FeedbackScore,
		res.FeedbackSummary, res.CallSummary, res.Callback, res.CallbackSchedule,
		res.CallbackAttempt, res.Duration, res.TranscriptText,
		res.StereoRecordingURL,
	)
	if err != nil {
		return fmt.Errorf("history: inserting call result: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, received_at, customer_name, call_timestamp, policy_used,
		       rating, customer_feedback, customer_sentiment, feedback_score,
		       feedback_summary, call_summary, callback, callback_schedule,
		       callback_attempt, duration_seconds, transcript_text,
		       stereo_recording_url
		FROM call_results
		ORDER BY received_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("history: listing call results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var res callreport.CallResult
		if err := rows.Scan(
			&rec.ID, &rec.ReceivedAt,
			&res.CustomerName, &res.CallTimestamp, &res.PolicyUsed,
			&res.Rating, &res.CustomerFeedback, &res.CustomerSentiment, &res.FeedbackScore,
			&res.FeedbackSummary, &res.CallSummary, &res.Callback, &res.CallbackSchedule,
			&res.CallbackAttempt, &res.Duration, &res.TranscriptText,
			&res.StereoRecordingURL,
		); err != nil {
			return nil, fmt.Errorf("history: scanning call result: %w", err)
		}
		rec.Result = res
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterating call results: %w", err)
	}
	return out, nil
}
