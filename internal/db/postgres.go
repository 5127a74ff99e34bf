package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawblock/honeypot-engine/pkg/models"
)

// schemaSQL is compiled into the binary at build time.
// This ensures schema init works inside the Docker runtime image which
// does not copy internal/db/schema.sql into the final stage.
//
//go:embed schema.sql
var schemaSQL string

const queryTimeout = 5 * time.Second

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for Honeypot Engine")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *PostgresStore) InitSchema() error {
	_, err := s.pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Honeypot Engine schema initialized")
	return nil
}

// SaveFinalReport upserts a delivered terminal report.
func (s *PostgresStore) SaveFinalReport(report models.FinalOutput) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	intel, err := json.Marshal(report.ExtractedIntelligence)
	if err != nil {
		return fmt.Errorf("failed to marshal intelligence: %v", err)
	}

	sql := `
		INSERT INTO final_reports
			(session_id, scam_detected, scam_type, confidence, total_messages,
			 duration_secs, intelligence, agent_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_id) DO UPDATE SET
			scam_detected = EXCLUDED.scam_detected,
			scam_type = EXCLUDED.scam_type,
			confidence = EXCLUDED.confidence,
			total_messages = EXCLUDED.total_messages,
			duration_secs = EXCLUDED.duration_secs,
			intelligence = EXCLUDED.intelligence,
			agent_notes = EXCLUDED.agent_notes;
	`
	_, err = s.pool.Exec(ctx, sql,
		report.SessionID,
		report.ScamDetected,
		report.ScamType,
		report.ConfidenceLevel,
		report.TotalMessagesExchanged,
		report.EngagementDuration,
		intel,
		report.AgentNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert final report: %v", err)
	}
	return nil
}

// SaveCallbackAttempt appends one callback delivery attempt.
func (s *PostgresStore) SaveCallbackAttempt(rec models.CallbackRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %v", err)
	}

	sql := `
		INSERT INTO callback_attempts
			(attempt_id, session_id, attempt, success, response_status, response_text, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = s.pool.Exec(ctx, sql,
		rec.ID,
		rec.SessionID,
		rec.Attempt,
		rec.Success,
		rec.ResponseStatus,
		rec.ResponseText,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert callback attempt: %v", err)
	}
	return nil
}

// ReportSummary is one row of the delivered-report listing.
type ReportSummary struct {
	SessionID     string    `json:"sessionId"`
	ScamDetected  bool      `json:"scamDetected"`
	ScamType      string    `json:"scamType"`
	Confidence    float64   `json:"confidence"`
	TotalMessages int       `json:"totalMessages"`
	DurationSecs  int       `json:"durationSecs"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RecentReports lists the most recently delivered reports.
func (s *PostgresStore) RecentReports(ctx context.Context, limit int) ([]ReportSummary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	sql := `
		SELECT session_id, scam_detected, scam_type, confidence,
		       total_messages, duration_secs, created_at
		FROM final_reports
		ORDER BY created_at DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]ReportSummary, 0)
	for rows.Next() {
		var r ReportSummary
		if err := rows.Scan(&r.SessionID, &r.ScamDetected, &r.ScamType,
			&r.Confidence, &r.TotalMessages, &r.DurationSecs, &r.CreatedAt); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return reports, nil
}
