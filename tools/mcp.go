package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"nutricoach"
)

// NewServer returns an MCP server exposing every tool in r.
func NewServer(r *Registry, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "nutricoach", Version: version}, nil)
	for _, t := range r.GetTools() {
		server.AddTool(&mcp.Tool{
			Name:         t.Name(),
			Title:        t.Title(),
			Description:  t.Description(),
			InputSchema:  t.InputSchema(),
			OutputSchema: t.OutputSchema(),
		}, handlerFor(r, t.Name()))
	}
	return server
}

// Serve runs the MCP server over stdio until ctx ends or the client disconnects.
func Serve(ctx context.Context, r *Registry, version string) error {
	slog.Info("TOOLS: Serving MCP over stdio", "tools_len", len(*r))
	return NewServer(r, version).Run(ctx, &mcp.StdioTransport{})
}

func handlerFor(r *Registry, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := map[string]any{}
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
				return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
			}
		}

		slog.Info("TOOLS: Running tool", "name", name, "input", input)
		out, err := r.Execute(ctx, Call{Name: name, Input: input})
		if err != nil {
			if nutricoach.IsNotFound(err) {
				slog.Info("TOOLS: Tool found nothing", "name", name, "error", err)
			} else {
				slog.Warn("TOOLS: Tool failed", "name", name, "error", err)
			}
			return toolError(err), nil
		}

		text, err := json.Marshal(out)
		if err != nil {
			return nil, err
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(text)}},
			StructuredContent: out,
		}, nil
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
