package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all fraud scoring tools registered.
func NewMCPServer(cfg Config) *server.MCPServer {
	s := server.NewMCPServer("fraudscore", "1.0.0")
	client := NewFraudClient(cfg)
	h := NewHandlers(client)

	s.AddTool(ToolAnalyzeTransaction, h.HandleAnalyzeTransaction)
	s.AddTool(ToolDetectFraud, h.HandleDetectFraud)
	s.AddTool(ToolGetModelInfo, h.HandleGetModelInfo)
	s.AddTool(ToolListAlerts, h.HandleListAlerts)

	return s
}
