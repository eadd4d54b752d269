package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *FraudClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *FraudClient) *Handlers {
	return &Handlers{client: client}
}

// HandleAnalyzeTransaction runs a full fraud analysis.
func (h *Handlers) HandleAnalyzeTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "")
	if userID == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	amount := req.GetFloat("amount", 0)
	if amount <= 0 {
		return mcp.NewToolResultError("amount must be greater than zero"), nil
	}

	tx := map[string]any{
		"user_id": userID,
		"amount":  amount,
	}
	if v := req.GetString("category", ""); v != "" {
		tx["category"] = v
	}
	if v := req.GetString("description", ""); v != "" {
		tx["description"] = v
	}
	if v := req.GetString("timestamp", ""); v != "" {
		tx["timestamp"] = v
	}
	if v := req.GetString("type", ""); v != "" {
		tx["type"] = v
	}

	raw, err := h.client.AnalyzeTransaction(ctx, tx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}

	text, err := formatAnalysis(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse analysis: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleDetectFraud runs the simplified legacy detection.
func (h *Handlers) HandleDetectFraud(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetInt("user_id", 0)
	if userID == 0 {
		return mcp.NewToolResultError("user_id is required"), nil
	}
	amount := req.GetFloat("amount", 0)
	if amount <= 0 {
		return mcp.NewToolResultError("amount must be greater than zero"), nil
	}
	timestamp := req.GetString("timestamp", "")

	raw, err := h.client.Detect(ctx, int64(userID), amount, timestamp)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Detection failed: %v", err)), nil
	}

	var res struct {
		IsFraudulent bool    `json:"is_fraudulent"`
		Reason       string  `json:"reason"`
		RiskScore    float64 `json:"risk_score"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse detection: %v", err)), nil
	}

	var sb strings.Builder
	if res.IsFraudulent {
		sb.WriteString("FRAUDULENT\n")
	} else {
		sb.WriteString("Not fraudulent\n")
	}
	fmt.Fprintf(&sb, "Risk score: %.4f\n", res.RiskScore)
	if res.Reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", res.Reason)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// HandleGetModelInfo returns the scoring model configuration.
func (h *Handlers) HandleGetModelInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.GetModelInfo(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get model info: %v", err)), nil
	}

	return mcp.NewToolResultText(formatJSON(raw)), nil
}

// HandleListAlerts lists recent fraud alerts.
func (h *Handlers) HandleListAlerts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)

	raw, err := h.client.ListAlerts(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list alerts: %v", err)), nil
	}

	text, err := formatAlertList(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse alerts: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- Formatting helpers ---

type analysisResult struct {
	TransactionID     string             `json:"transaction_id"`
	RiskScore         float64            `json:"risk_score"`
	IsFraud           bool               `json:"is_fraud"`
	DetectedAnomalies []string           `json:"detected_anomalies"`
	Confidence        float64            `json:"confidence"`
	ModelVersion      string             `json:"model_version"`
	Details           map[string]float64 `json:"details"`
	EvaluatedAt       string             `json:"evaluated_at"`
}

func formatAnalysis(raw json.RawMessage) (string, error) {
	var res analysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", err
	}

	var sb strings.Builder
	if res.IsFraud {
		sb.WriteString("Decision: FRAUD\n")
	} else {
		sb.WriteString("Decision: OK\n")
	}
	fmt.Fprintf(&sb, "Risk score: %.4f (confidence %.2f)\n", res.RiskScore, res.Confidence)
	if res.TransactionID != "" {
		fmt.Fprintf(&sb, "Transaction: %s\n", res.TransactionID)
	}
	fmt.Fprintf(&sb, "Model: %s\n", res.ModelVersion)

	if len(res.DetectedAnomalies) > 0 {
		sb.WriteString("\nAnomalies:\n")
		for _, a := range res.DetectedAnomalies {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}

	if len(res.Details) > 0 {
		sb.WriteString("\nFactor scores:\n")
		for _, factor := range []string{"amount", "time_of_day", "velocity", "category", "pattern"} {
			if v, ok := res.Details[factor]; ok {
				fmt.Fprintf(&sb, "- %s: %.2f\n", factor, v)
			}
		}
	}

	return sb.String(), nil
}

func formatAlertList(raw json.RawMessage) (string, error) {
	var wrapper struct {
		Alerts []analysisResult `json:"alerts"`
		Count  int              `json:"count"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return "", err
	}
	if len(wrapper.Alerts) == 0 {
		return "No fraud alerts recorded.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d alert(s):\n\n", len(wrapper.Alerts))
	for i, a := range wrapper.Alerts {
		fmt.Fprintf(&sb, "%d. Transaction %s\n", i+1, orUnknown(a.TransactionID))
		fmt.Fprintf(&sb, "   Risk: %.4f | Confidence: %.2f | At: %s\n", a.RiskScore, a.Confidence, a.EvaluatedAt)
		if len(a.DetectedAnomalies) > 0 {
			fmt.Fprintf(&sb, "   Anomalies: %s\n", strings.Join(a.DetectedAnomalies, "; "))
		}
		if i < len(wrapper.Alerts)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}

// formatJSON pretty-prints raw JSON, falling back to the raw string.
func formatJSON(raw json.RawMessage) string {
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}
