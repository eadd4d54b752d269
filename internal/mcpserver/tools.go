package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the fraud scoring MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolAnalyzeTransaction = mcp.NewTool("analyze_transaction",
	mcp.WithDescription(
		"Run a full fraud risk analysis on a financial transaction. "+
			"Returns a risk score between 0.0 and 1.0, a fraud decision, "+
			"human-readable anomaly explanations, and per-factor score details."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Identifier of the user making the transaction")),
	mcp.WithNumber("amount",
		mcp.Required(),
		mcp.Description("Transaction amount, must be greater than zero")),
	mcp.WithString("category",
		mcp.Description("Merchant category (e.g. 'groceries', 'cryptocurrency', 'gambling')")),
	mcp.WithString("description",
		mcp.Description("Free-text transaction description")),
	mcp.WithString("timestamp",
		mcp.Description("ISO 8601 transaction time. Defaults to now when omitted.")),
	mcp.WithString("type",
		mcp.Description("Transaction direction"),
		mcp.Enum("INCOME", "EXPENSE")),
)

var ToolDetectFraud = mcp.NewTool("detect_fraud",
	mcp.WithDescription(
		"Quick fraud check using only a numeric user id, amount, and timestamp. "+
			"This is the simplified legacy interface: it returns a yes/no decision, "+
			"a reason string, and the risk score. Prefer analyze_transaction when "+
			"category or description are available."),
	mcp.WithNumber("user_id",
		mcp.Required(),
		mcp.Description("Numeric user identifier")),
	mcp.WithNumber("amount",
		mcp.Required(),
		mcp.Description("Transaction amount, must be greater than zero")),
	mcp.WithString("timestamp",
		mcp.Description("ISO 8601 transaction time (e.g. '2024-05-01T03:15:00Z')")),
)

var ToolGetModelInfo = mcp.NewTool("get_model_info",
	mcp.WithDescription(
		"Get the scoring model configuration: model version, fraud threshold, "+
			"per-factor weights, and whether anomaly model blending is enabled."),
)

var ToolListAlerts = mcp.NewTool("list_fraud_alerts",
	mcp.WithDescription(
		"List recently flagged transactions (fraud alerts), most recent first. "+
			"Each alert includes the risk score, anomaly explanations, and confidence."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of alerts to return (default 20)")),
)
