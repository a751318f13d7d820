package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/knowstore/internal/dispatch"
	"github.com/ziadkadry99/knowstore/internal/knowledge"
)

// handleDiscoverTools lists the registered tools.
func (s *Server) handleDiscoverTools(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := request.GetString("category", "")
	pattern := request.GetString("pattern", "")

	tools := s.dispatcher.DiscoverTools(category, pattern)

	return jsonResult(map[string]any{
		"tools": tools,
		"count": len(tools),
	})
}

// handleGetToolSpec returns one tool's full specification.
func (s *Server) handleGetToolSpec(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("tool_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: tool_name"), nil
	}

	spec, err := s.dispatcher.GetToolSpec(name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(spec)
}

// handleExecuteTool validates and runs one tool, returning the uniform
// result/error envelope as JSON.
func (s *Server) handleExecuteTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("tool_name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: tool_name"), nil
	}

	var params map[string]any
	if raw, ok := request.GetArguments()["parameters"]; ok && raw != nil {
		params, ok = raw.(map[string]any)
		if !ok {
			return mcp.NewToolResultError("parameters must be an object"), nil
		}
	}

	env := s.dispatcher.Execute(ctx, name, params)
	data, err := json.Marshal(env)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	if env.Error != nil {
		result := mcp.NewToolResultText(string(data))
		result.IsError = true
		return result, nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// jsonResult encodes v as a JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult encodes a typed error as an error envelope, flagged as a tool
// error so callers don't mistake it for data.
func errorResult(err error) (*mcp.CallToolResult, error) {
	env := dispatch.Envelope{Error: knowledge.Convert(err)}
	data, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = true
	return result, nil
}
