package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/compliance-assistant/internal/core/ports"
)

const (
	toolAskQuestion      = "ask_compliance_question"
	toolClassifyQuestion = "classify_question"
)

type mcpTools struct {
	query      ports.QueryExecutor
	classifier ports.RouteClassifier
}

func newMCPServer(query ports.QueryExecutor, classifier ports.RouteClassifier) *server.MCPServer {
	tools := &mcpTools{query: query, classifier: classifier}
	s := server.NewMCPServer("compliance-assistant", "1.0.0", server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool(toolAskQuestion,
		mcp.WithDescription("Answer a question about the compliance guide. Returns the result envelope as JSON: answer, confidence, sources and backend."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question in natural language, may name section codes such as TVI3 or ADA-GEN12")),
	), tools.ask)
	s.AddTool(mcp.NewTool(toolClassifyQuestion,
		mcp.WithDescription("Show how a question would be routed (database, rag or hybrid) without answering it."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question to classify")),
	), tools.classify)
	return s
}

func newMCPHandler(query ports.QueryExecutor, classifier ports.RouteClassifier) http.Handler {
	return server.NewStreamableHTTPServer(newMCPServer(query, classifier))
}

func (t *mcpTools) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	env, err := t.query.Execute(ctx, question, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(env)
}

func (t *mcpTools) classify(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonToolResult(newClassifyResponse(t.classifier.Classify(question)))
}

func jsonToolResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
