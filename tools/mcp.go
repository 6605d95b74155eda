package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mealresolver"
)

// RegisterMCP exposes every registry tool on an MCP server.
func RegisterMCP(server *mcp.Server, r *Registry) {
	for _, t := range r.GetTools() {
		server.AddTool(&mcp.Tool{
			Name:         t.Name(),
			Description:  t.Description(),
			InputSchema:  t.InputSchema(),
			OutputSchema: t.OutputSchema(),
			Annotations:  &mcp.ToolAnnotations{Title: t.Title()},
		}, mcpHandler(r, t.Name()))
		slog.Info("MCP: Registered tool", "name", t.Name())
	}
}

// mcpHandler adapts a registry call to MCP. Tool failures are reported to the
// client as error results carrying only the public message.
func mcpHandler(r *Registry, name string) mcp.ToolHandler {
	return func(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
		out, err := r.Execute(ctx, Call{Name: name, Input: params.Arguments})
		if err != nil {
			slog.Error("MCP: Tool call failed", "name", name, "error", err)
			return &mcp.CallToolResultFor[any]{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: mealresolver.PublicMessage(err)}},
			}, nil
		}

		text, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResultFor[any]{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
			StructuredContent: out,
		}, nil
	}
}
