package fraud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/fingaurd/fraudscore/internal/idgen"
	"github.com/lib/pq"
)

// PostgresStore archives analyses and alerts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed analysis archive.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the archive tables if they don't exist. The goose
// migrations in migrations/ are the canonical schema; this exists so
// the server can self-provision in development.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fraud_analyses (
			id             VARCHAR(40) PRIMARY KEY,
			transaction_id VARCHAR(64),
			risk_score     NUMERIC(5,4) NOT NULL CHECK (risk_score >= 0 AND risk_score <= 1),
			is_fraud       BOOLEAN NOT NULL,
			anomalies      TEXT[] NOT NULL DEFAULT '{}',
			confidence     NUMERIC(5,4) NOT NULL,
			model_version  VARCHAR(32) NOT NULL,
			details        JSONB NOT NULL DEFAULT '{}',
			evaluated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_fraud_analyses_evaluated_at
			ON fraud_analyses (evaluated_at DESC);

		CREATE TABLE IF NOT EXISTS fraud_alerts (
			id             VARCHAR(40) PRIMARY KEY,
			transaction_id VARCHAR(64),
			risk_score     NUMERIC(5,4) NOT NULL,
			anomalies      TEXT[] NOT NULL DEFAULT '{}',
			confidence     NUMERIC(5,4) NOT NULL,
			model_version  VARCHAR(32) NOT NULL,
			details        JSONB NOT NULL DEFAULT '{}',
			reviewed       BOOLEAN NOT NULL DEFAULT FALSE,
			evaluated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_fraud_alerts_pending
			ON fraud_alerts (evaluated_at DESC) WHERE NOT reviewed;
	`)
	return err
}

func (s *PostgresStore) RecordAnalysis(ctx context.Context, res *Result) error {
	detailsJSON, err := json.Marshal(res.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fraud_analyses
			(id, transaction_id, risk_score, is_fraud, anomalies, confidence, model_version, details, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		idgen.WithPrefix("fa_"),
		res.TransactionID,
		res.RiskScore,
		res.IsFraud,
		pq.Array(res.DetectedAnomalies),
		res.Confidence,
		res.ModelVersion,
		detailsJSON,
		res.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordAlert(ctx context.Context, res *Result) error {
	detailsJSON, err := json.Marshal(res.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fraud_alerts
			(id, transaction_id, risk_score, anomalies, confidence, model_version, details, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		idgen.WithPrefix("alert_"),
		res.TransactionID,
		res.RiskScore,
		pq.Array(res.DetectedAnomalies),
		res.Confidence,
		res.ModelVersion,
		detailsJSON,
		res.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record alert: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAlerts(ctx context.Context, limit int) ([]*Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, risk_score, anomalies, confidence, model_version, details, evaluated_at
		FROM fraud_alerts
		ORDER BY evaluated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Result
	for rows.Next() {
		var res Result
		var detailsJSON []byte
		if err := rows.Scan(
			&res.TransactionID,
			&res.RiskScore,
			pq.Array(&res.DetectedAnomalies),
			&res.Confidence,
			&res.ModelVersion,
			&detailsJSON,
			&res.EvaluatedAt,
		); err != nil {
			continue
		}
		res.IsFraud = true
		res.Details = make(map[string]float64)
		_ = json.Unmarshal(detailsJSON, &res.Details)
		out = append(out, &res)
	}
	return out, rows.Err()
}
