package anomaly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds how long an analysis request may wait on the
// model service before proceeding unblended.
const DefaultTimeout = 500 * time.Millisecond

// Client calls an external anomaly-model service over HTTP. The service
// exposes POST {baseURL}/predict accepting the feature vector and
// returning {"anomaly_score": <float|null>}.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a predictor client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Predict asks the model service to score the features. Every failure
// mode — transport error, non-200, malformed body, null score — maps to
// ErrUnavailable so callers have exactly one condition to handle.
func (c *Client) Predict(ctx context.Context, f Features) (float64, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("%w: encode features: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out struct {
		AnomalyScore *float64 `json:"anomaly_score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if out.AnomalyScore == nil {
		return 0, ErrUnavailable
	}

	score := *out.AnomalyScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
