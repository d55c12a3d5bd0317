package protocol

// ToolDefinition describes a tool exposed to an outer agent framework.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolCallRequest is the body of POST /api/tools/{name}.
type ToolCallRequest struct {
	Params map[string]any `json:"params"`
}

// ToolCallResult is the response to a tool invocation. Output is the raw
// tool output (a JSON-encoded response envelope for every incident tool).
type ToolCallResult struct {
	RequestID string `json:"request_id"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}
