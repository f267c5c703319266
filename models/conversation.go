package models

// Roles used in the conversation log.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one immutable entry in a conversation log. Tool turns carry the
// serialized result envelope in Content and point back at the request that
// produced them via ToolRequestID.
type Turn struct {
	Role          string        `json:"role"`
	Content       string        `json:"content,omitempty"`
	ToolRequests  []ToolRequest `json:"tool_requests,omitempty"`
	ToolRequestID string        `json:"tool_request_id,omitempty"`
}

// ToolRequest is a model-issued intent to call a tool. Arguments is the raw
// JSON string exactly as the model emitted it and may be malformed.
type ToolRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Envelope is the uniform failure shape for tool invocations. Successful
// results carry their own domain fields alongside "success": true.
type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type ChatResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

type ResetRequest struct {
	SessionID string `json:"session_id"`
}
