package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/ziadkadry99/knowstore/internal/dispatch"
	"github.com/ziadkadry99/knowstore/internal/knowledge"
)

// mcpProtocolVersion is the MCP protocol revision this endpoint speaks.
const mcpProtocolVersion = "2024-11-05"

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

// metaToolList is the static tools/list payload: the three meta-tools. Store
// operations are reached through execute_tool, so this list never changes.
var metaToolList = []map[string]any{
	{
		"name": "discover_tools",
		"description": "Discover knowledge store tools for storing and retrieving learned patterns. " +
			"Call this first to see available operations across crud, search and analytics.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{"type": "string", "description": "Only list tools in this category"},
				"pattern":  map[string]any{"type": "string", "description": "Substring filter on name or description"},
			},
		},
	},
	{
		"name": "get_tool_spec",
		"description": "Get the full specification for one tool: parameter schema, result schema and examples. " +
			"Call after discover_tools, before execute_tool.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tool_name": map[string]any{"type": "string"},
			},
			"required": []string{"tool_name"},
		},
	},
	{
		"name": "execute_tool",
		"description": "Execute a knowledge store operation: add, search or update entries, find duplicates, get stats. " +
			"Parameters are validated against the tool's schema before anything runs.",
		"inputSchema": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tool_name":  map[string]any{"type": "string"},
				"parameters": map[string]any{"type": "object"},
			},
			"required": []string{"tool_name"},
		},
	},
}

// handleRPC implements the minimal MCP JSON-RPC surface over HTTP.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}

	switch req.Method {
	case "initialize":
		sessionID := uuid.New().String()
		w.Header().Set("MCP-Session-Id", sessionID)
		w.Header().Set("MCP-Protocol-Version", mcpProtocolVersion)
		writeResult(w, req.ID, map[string]any{
			"protocolVersion": mcpProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{"listChanged": false}},
			"serverInfo":      map[string]any{"name": "knowstore", "version": Version},
		})

	case "notifications/initialized":
		writeResult(w, req.ID, map[string]any{})

	case "tools/list":
		writeResult(w, req.ID, map[string]any{"tools": metaToolList})

	case "tools/call":
		s.handleToolCall(w, r, req)

	case "resources/list", "resources/templates/list":
		writeResult(w, req.ID, map[string]any{"resources": []any{}})

	case "prompts/list":
		writeResult(w, req.ID, map[string]any{"prompts": []any{}})

	default:
		writeJSON(w, http.StatusBadRequest, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32601, Message: "method not found: " + req.Method},
		})
	}
}

// handleToolCall routes tools/call to the three meta-tools.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request, req rpcRequest) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			writeJSON(w, http.StatusBadRequest, rpcResponse{
				JSONRPC: "2.0",
				ID:      req.ID,
				Error:   &rpcError{Code: -32602, Message: "invalid params"},
			})
			return
		}
	}
	args := params.Arguments
	if args == nil {
		args = map[string]any{}
	}

	var payload any
	isError := false

	switch params.Name {
	case "discover_tools":
		category, _ := args["category"].(string)
		pattern, _ := args["pattern"].(string)
		tools := s.dispatcher.DiscoverTools(category, pattern)
		payload = map[string]any{"tools": tools, "count": len(tools)}

	case "get_tool_spec":
		name, _ := args["tool_name"].(string)
		spec, err := s.dispatcher.GetToolSpec(name)
		if err != nil {
			payload = dispatch.Envelope{Error: knowledge.Convert(err)}
			isError = true
		} else {
			payload = spec
		}

	case "execute_tool":
		name, _ := args["tool_name"].(string)
		toolParams, _ := args["parameters"].(map[string]any)
		env := s.dispatcher.Execute(r.Context(), name, toolParams)
		payload = env
		isError = env.Error != nil

	default:
		writeJSON(w, http.StatusOK, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32602, Message: "unknown tool: " + params.Name},
		})
		return
	}

	text, err := json.Marshal(payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: -32603, Message: err.Error()},
		})
		return
	}

	writeResult(w, req.ID, map[string]any{
		"content": []map[string]any{{"type": "text", "text": string(text)}},
		"isError": isError,
	})
}

func writeResult(w http.ResponseWriter, id, result any) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}
