package anomaly

import (
	"context"
	"time"

	"github.com/fingaurd/fraudscore/internal/circuitbreaker"
)

// Guard wraps a Predictor with a circuit breaker so a struggling model
// service stops eating the per-request timeout on every analysis. While
// the circuit is open Predict fails fast with ErrUnavailable.
type Guard struct {
	inner   Predictor
	breaker *circuitbreaker.Breaker
}

// NewGuard wraps p with a circuit breaker that opens after threshold
// consecutive failures and probes again after openDuration.
func NewGuard(p Predictor, threshold int, openDuration time.Duration) *Guard {
	return &Guard{
		inner:   p,
		breaker: circuitbreaker.New("anomaly_model", threshold, openDuration),
	}
}

// Predict delegates to the wrapped predictor when the circuit allows it.
func (g *Guard) Predict(ctx context.Context, f Features) (float64, error) {
	if !g.breaker.Allow() {
		return 0, ErrUnavailable
	}

	score, err := g.inner.Predict(ctx, f)
	if err != nil {
		g.breaker.RecordFailure()
		return 0, err
	}
	g.breaker.RecordSuccess()
	return score, nil
}
