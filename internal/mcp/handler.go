package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tomislavmiksik/phoenix-be/internal/service"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// requireID extracts a required positive integer id argument.
func requireID(request mcp.CallToolRequest) (int64, error) {
	v, err := request.RequireFloat("id")
	if err != nil {
		return 0, fmt.Errorf("missing required parameter %q", "id")
	}
	if v != float64(int64(v)) || v <= 0 {
		return 0, fmt.Errorf("parameter %q must be a positive integer", "id")
	}
	return int64(v), nil
}

// optionalFloat returns a pointer to the named numeric argument, or nil if
// the argument is absent.
func optionalFloat(request mcp.CallToolRequest, key string) (*float64, error) {
	args := request.GetArguments()
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("parameter %q must be a number", key)
		}
		return &f, nil
	}
	return nil, fmt.Errorf("parameter %q must be a number", key)
}

// optionalTime parses the named RFC 3339 argument, or returns nil if absent.
func optionalTime(request mcp.CallToolRequest, key string) (*time.Time, error) {
	raw := request.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parameter %q must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// serviceError renders a service failure as a tool error. Field-level
// validation messages are appended so the caller can correct its input.
func serviceError(err error) (*mcp.CallToolResult, error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindUnexpected {
		return toolError("An unexpected error occurred")
	}
	if len(se.Fields) == 0 {
		return toolError("%s", se.Message)
	}
	return toolError("%s: %v", se.Message, se.Fields)
}
