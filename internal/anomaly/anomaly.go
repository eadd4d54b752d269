// Package anomaly defines the contract with the external statistical
// anomaly model and the feature vector the scoring engine supplies to it.
//
// The model's training and loading lifecycle lives entirely in the
// collaborating service; this package only knows how to ask it for a
// score. A predictor that is absent or failing disables blending, it
// never fails an analysis.
package anomaly

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrUnavailable is returned when the model cannot produce a score —
// not loaded, unreachable, or timed out. Callers treat it as "no score".
var ErrUnavailable = errors.New("anomaly model unavailable")

// Features is the vector derived from a transaction for the model.
type Features struct {
	Amount    float64 `json:"amount"`
	HourOfDay int     `json:"hour_of_day"`
	DayOfWeek int     `json:"day_of_week"`
	AmountLog float64 `json:"amount_log"`
}

// Predictor produces an anomaly score in [0,1] for a feature vector.
type Predictor interface {
	Predict(ctx context.Context, f Features) (float64, error)
}

// FeaturesFrom derives the model features from a transaction's amount
// and its normalized UTC timestamp. DayOfWeek counts Monday as 0, and
// AmountLog is ln(1+|amount|).
func FeaturesFrom(amount float64, ts time.Time) Features {
	ts = ts.UTC()
	return Features{
		Amount:    amount,
		HourOfDay: ts.Hour(),
		DayOfWeek: (int(ts.Weekday()) + 6) % 7,
		AmountLog: math.Log1p(math.Abs(amount)),
	}
}
