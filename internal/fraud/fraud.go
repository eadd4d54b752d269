// Package fraud implements real-time fraud risk scoring for financial
// transactions.
//
// Every transaction is evaluated against 5 weighted factors: amount,
// time-of-day, per-user velocity, category, and description pattern.
// Scores range from 0.0 (safe) to 1.0 (high risk). Transactions at or
// above the fraud threshold are flagged, never rejected here — the
// decision is handed back to the caller along with an explanation.
package fraud

import (
	"context"
	"time"
)

// Default configuration. All of these are overridable via config.
const (
	DefaultThreshold    = 0.7
	DefaultModelVersion = "1.0.0"

	DefaultVelocityWindow = 60 * time.Second
	DefaultVelocityMax    = 3
)

// Factor weights. They sum to exactly 1.0, so the combined score is in
// [0, 1] by construction.
const (
	weightAmount    = 0.30
	weightTimeOfDay = 0.15
	weightVelocity  = 0.25
	weightCategory  = 0.15
	weightPattern   = 0.15
)

// TransactionType distinguishes money in from money out. It is carried
// through for archival but does not affect scoring.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Transaction carries the attributes needed to score one transaction.
// Immutable once constructed; Timestamp zero value means "now".
type Transaction struct {
	ID          string
	UserID      string
	Amount      float64
	Type        TransactionType
	Category    string
	Timestamp   time.Time
	Description string
}

// Result is the outcome of analyzing a single transaction.
type Result struct {
	TransactionID     string             `json:"transaction_id,omitempty"`
	RiskScore         float64            `json:"risk_score"`
	IsFraud           bool               `json:"is_fraud"`
	DetectedAnomalies []string           `json:"detected_anomalies"`
	Confidence        float64            `json:"confidence"`
	ModelVersion      string             `json:"model_version"`
	Details           map[string]float64 `json:"details"`
	EvaluatedAt       time.Time          `json:"evaluated_at"`
}

// LegacyResult is the response shape of the backward-compatible detect
// endpoint. Reason is the anomaly list joined by "; ", empty when none.
type LegacyResult struct {
	IsFraudulent bool    `json:"is_fraudulent"`
	Reason       string  `json:"reason,omitempty"`
	RiskScore    float64 `json:"risk_score"`
}

// Store archives analysis results and fraud alerts. Implementations must
// be safe for concurrent use. Archival is best-effort: the engine and
// handlers never fail a request because a Record call failed.
type Store interface {
	RecordAnalysis(ctx context.Context, res *Result) error
	RecordAlert(ctx context.Context, res *Result) error
	ListAlerts(ctx context.Context, limit int) ([]*Result, error)
}
