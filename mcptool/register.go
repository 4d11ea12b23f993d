// Package mcptool exposes element-context capture as MCP tools so agent
// clients can grab elements by selector and receive the rendered protocol
// text directly.
package mcptool

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// textHandler produces the tool's text payload from decoded arguments.
type textHandler[Req any] func(ctx context.Context, req *Req) (string, error)

// registerTextTool registers a tool whose result is a single text block.
// Decode and handler failures become tool errors, not protocol errors.
func registerTextTool[Req any](srv *mcp.Server, tool *mcp.Tool, handler textHandler[Req]) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r Req
		if err := unmarshalArgs(req, &r); err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &res, nil
		}

		text, err := handler(ctx, &r)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	})
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}
