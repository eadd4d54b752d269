package fraud

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// Engine combines the five factor scorers into a single risk assessment.
// One engine instance serves all requests; the only shared state is the
// injected velocity tracker.
type Engine struct {
	tracker      *VelocityTracker
	velocityMax  int
	threshold    float64
	modelVersion string
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine creates a scoring engine around the given velocity tracker.
func NewEngine(tracker *VelocityTracker) *Engine {
	return &Engine{
		tracker:      tracker,
		velocityMax:  DefaultVelocityMax,
		threshold:    DefaultThreshold,
		modelVersion: DefaultModelVersion,
		logger:       slog.Default(),
		now:          time.Now,
	}
}

// WithThreshold overrides the fraud decision threshold.
func (e *Engine) WithThreshold(t float64) *Engine {
	e.threshold = t
	return e
}

// WithVelocityMax overrides the per-window transaction count considered normal.
func (e *Engine) WithVelocityMax(max int) *Engine {
	if max > 0 {
		e.velocityMax = max
	}
	return e
}

// WithModelVersion overrides the version tag stamped on results.
func (e *Engine) WithModelVersion(v string) *Engine {
	e.modelVersion = v
	return e
}

// WithLogger sets a custom logger.
func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	e.logger = l
	return e
}

// WithClock overrides the time source (for tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Threshold returns the configured fraud decision threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// ModelVersion returns the configured version tag.
func (e *Engine) ModelVersion() string { return e.modelVersion }

// Analyze scores a single transaction. It always returns a well-formed
// result: inputs that escape upstream validation produce the fail-safe
// result (zero score, not fraud) rather than an error, and a missing
// timestamp defaults to the current instant.
//
// Analyze must be called exactly once per transaction — the velocity
// factor records the transaction as a side effect of scoring it.
func (e *Engine) Analyze(ctx context.Context, tx Transaction) *Result {
	if tx.UserID == "" || tx.Amount <= 0 || math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) {
		e.logger.Warn("analysis failed, returning fail-safe result",
			"transaction_id", tx.ID,
			"user_id", tx.UserID,
			"amount", tx.Amount,
		)
		return e.failSafe(tx.ID)
	}

	ts := tx.Timestamp
	if ts.IsZero() {
		ts = e.now()
	}
	ts = ts.UTC()

	var anomalies []string
	details := make(map[string]float64, 5)

	amountScore := scoreAmount(tx.Amount)
	details["amount"] = amountScore
	if amountScore > 0.3 {
		anomalies = append(anomalies, "High transaction amount: $"+formatAmount(tx.Amount))
	}

	timeScore := scoreTimeOfDay(ts)
	details["time_of_day"] = timeScore
	if timeScore > 0.3 {
		anomalies = append(anomalies, "Suspicious transaction time: "+ts.Format("15:04")+" UTC")
	}

	count := e.tracker.RecordAndCount(tx.UserID, ts)
	velocityScore := scoreVelocityCount(count, e.velocityMax)
	details["velocity"] = velocityScore
	if velocityScore > 0.3 {
		anomalies = append(anomalies, "Rapid transaction activity detected")
	}

	categoryScore := scoreCategory(tx.Category)
	details["category"] = categoryScore
	if categoryScore > 0.3 {
		anomalies = append(anomalies, "High-risk category: "+tx.Category)
	}

	patternScore := scorePattern(tx.Description, tx.Amount)
	details["pattern"] = patternScore
	if patternScore > 0.3 {
		anomalies = append(anomalies, "Suspicious transaction pattern")
	}

	score := amountScore*weightAmount +
		timeScore*weightTimeOfDay +
		velocityScore*weightVelocity +
		categoryScore*weightCategory +
		patternScore*weightPattern
	score = round4(clamp01(score))

	isFraud := score >= e.threshold

	agreeing := 0
	for _, s := range details {
		if s > 0.1 {
			agreeing++
		}
	}
	var confidence float64
	if isFraud {
		confidence = math.Min(0.99, 0.6+0.08*float64(agreeing))
	} else {
		confidence = math.Min(0.99, 0.7+0.06*float64(5-agreeing))
	}

	if anomalies == nil {
		anomalies = []string{}
	}

	return &Result{
		TransactionID:     tx.ID,
		RiskScore:         score,
		IsFraud:           isFraud,
		DetectedAnomalies: anomalies,
		Confidence:        round4(confidence),
		ModelVersion:      e.modelVersion,
		Details:           details,
		EvaluatedAt:       e.now().UTC(),
	}
}

// AnalyzeLegacy scores a transaction in the shape the legacy detect
// endpoint accepts: integer user id, float amount, ISO-8601 timestamp.
// Type, category, and description default to empty; a timestamp that
// fails to parse falls back to the current instant.
func (e *Engine) AnalyzeLegacy(ctx context.Context, userID int64, amount float64, timestamp string) LegacyResult {
	ts, err := parseISOTimestamp(timestamp)
	if err != nil {
		ts = e.now().UTC()
	}

	res := e.Analyze(ctx, Transaction{
		UserID:    strconv.FormatInt(userID, 10),
		Amount:    amount,
		Type:      TypeExpense,
		Timestamp: ts,
	})

	return LegacyResult{
		IsFraudulent: res.IsFraud,
		Reason:       strings.Join(res.DetectedAnomalies, "; "),
		RiskScore:    res.RiskScore,
	}
}

func (e *Engine) failSafe(txID string) *Result {
	return &Result{
		TransactionID:     txID,
		RiskScore:         0.0,
		IsFraud:           false,
		DetectedAnomalies: []string{"Analysis error occurred"},
		Confidence:        0.0,
		ModelVersion:      e.modelVersion,
		Details:           map[string]float64{},
		EvaluatedAt:       e.now().UTC(),
	}
}

// parseISOTimestamp accepts RFC 3339 timestamps, with or without
// fractional seconds; a timestamp without an offset is taken as UTC.
func parseISOTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// formatAmount renders an amount with minimal decimals: 6000 not
// 6000.000000, 19.99 unchanged.
func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', -1, 64)
}

func clamp01(x float64) float64 {
	if x > 1.0 {
		return 1.0
	}
	if x < 0.0 {
		return 0.0
	}
	return x
}

// round4 rounds half away from zero to 4 decimal places.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
