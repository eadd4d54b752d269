package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Config holds the configuration for connecting to the fraud scoring service.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8000"
}

// FraudClient is a pure HTTP client for the fraud scoring API.
type FraudClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewFraudClient creates a new client for the fraud scoring service.
func NewFraudClient(cfg Config) *FraudClient {
	return &FraudClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the service.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request to the service and returns the response body.
func (c *FraudClient) doRequest(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}

// AnalyzeTransaction runs a full fraud analysis on one transaction.
func (c *FraudClient) AnalyzeTransaction(ctx context.Context, tx map[string]any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, "/api/v1/fraud/analyze", nil, tx)
}

// Detect calls the legacy detection endpoint.
func (c *FraudClient) Detect(ctx context.Context, userID int64, amount float64, timestamp string) (json.RawMessage, error) {
	body := map[string]any{
		"user_id": userID,
		"amount":  amount,
	}
	if timestamp != "" {
		body["timestamp"] = timestamp
	}
	return c.doRequest(ctx, http.MethodPost, "/detect", nil, body)
}

// GetModelInfo returns the scoring model configuration.
func (c *FraudClient) GetModelInfo(ctx context.Context) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, "/api/v1/fraud/models", nil, nil)
}

// ListAlerts returns recent fraud alerts, most recent first.
func (c *FraudClient) ListAlerts(ctx context.Context, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return c.doRequest(ctx, http.MethodGet, "/api/v1/fraud/alerts", q, nil)
}
