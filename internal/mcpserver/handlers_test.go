package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func makeRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	if args == nil {
		args = map[string]any{}
	}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content block")
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func TestHandleAnalyzeTransaction(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/fraud/analyze", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "user-1", body["user_id"])
		require.Equal(t, 30000.0, body["amount"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"transaction_id":     "tx-1",
			"risk_score":         0.78,
			"is_fraud":           true,
			"detected_anomalies": []string{"High transaction amount: $30000"},
			"confidence":         0.68,
			"model_version":      "1.0.0",
			"details":            map[string]float64{"amount": 1.0, "velocity": 0.0},
		})
	}))
	defer ts.Close()

	h := NewHandlers(NewFraudClient(Config{APIURL: ts.URL}))
	result, err := h.HandleAnalyzeTransaction(context.Background(), makeRequest(map[string]any{
		"user_id": "user-1",
		"amount":  30000.0,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, "Decision: FRAUD")
	require.Contains(t, text, "High transaction amount")
	require.Contains(t, text, "amount: 1.00")
}

func TestHandleAnalyzeTransaction_Validation(t *testing.T) {
	h := NewHandlers(NewFraudClient(Config{APIURL: "http://unused"}))

	result, err := h.HandleAnalyzeTransaction(context.Background(), makeRequest(map[string]any{
		"amount": 100.0,
	}))
	require.NoError(t, err)
	require.True(t, result.IsError, "missing user_id must produce an error result")

	result, err = h.HandleAnalyzeTransaction(context.Background(), makeRequest(map[string]any{
		"user_id": "u1",
		"amount":  -5.0,
	}))
	require.NoError(t, err)
	require.True(t, result.IsError, "negative amount must produce an error result")
}

func TestHandleDetectFraud(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/detect", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"is_fraudulent": false,
			"reason":        "",
			"risk_score":    0.12,
		})
	}))
	defer ts.Close()

	h := NewHandlers(NewFraudClient(Config{APIURL: ts.URL}))
	result, err := h.HandleDetectFraud(context.Background(), makeRequest(map[string]any{
		"user_id": 42.0,
		"amount":  50.0,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	text := resultText(t, result)
	require.Contains(t, text, "Not fraudulent")
	require.Contains(t, text, "0.1200")
}

func TestHandleListAlerts_Empty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"alerts": []any{}, "count": 0})
	}))
	defer ts.Close()

	h := NewHandlers(NewFraudClient(Config{APIURL: ts.URL}))
	result, err := h.HandleListAlerts(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.Contains(t, resultText(t, result), "No fraud alerts")
}

func TestHandleListAlerts_Formats(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"alerts": []map[string]any{
				{
					"transaction_id":     "tx-9",
					"risk_score":         0.84,
					"confidence":         0.99,
					"detected_anomalies": []string{"Rapid transaction activity detected"},
					"evaluated_at":       "2024-05-01T02:00:00Z",
				},
			},
			"count": 1,
		})
	}))
	defer ts.Close()

	h := NewHandlers(NewFraudClient(Config{APIURL: ts.URL}))
	result, err := h.HandleListAlerts(context.Background(), makeRequest(map[string]any{"limit": 5.0}))
	require.NoError(t, err)

	text := resultText(t, result)
	require.Contains(t, text, "tx-9")
	require.Contains(t, text, "Rapid transaction activity detected")
}

func TestHandleGetModelInfo_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal_error", "message": "boom"})
	}))
	defer ts.Close()

	h := NewHandlers(NewFraudClient(Config{APIURL: ts.URL}))
	result, err := h.HandleGetModelInfo(context.Background(), makeRequest(nil))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Contains(t, resultText(t, result), "boom")
}
