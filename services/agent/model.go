package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddc002021/MapServerMCP/models"

	"github.com/invopop/jsonschema"
)

// ToolSpec is the provider-neutral descriptor of one catalog entry.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// ModelReply is the provider-neutral result of one completion round.
type ModelReply struct {
	Content      string
	ToolRequests []models.ToolRequest
}

// ModelClient is the completion endpoint boundary. transcript starts with a
// system turn; any transport, auth, or quota error is fatal to the round.
type ModelClient interface {
	Complete(ctx context.Context, transcript []models.Turn, tools []ToolSpec) (*ModelReply, error)
}

// schemaProperties converts a reflected schema into the plain map shape the
// provider SDKs expect.
func schemaProperties(schema *jsonschema.Schema) (map[string]any, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool schema: %w", err)
	}

	var decoded struct {
		Properties map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode tool schema: %w", err)
	}

	if decoded.Properties == nil {
		decoded.Properties = map[string]any{}
	}
	return decoded.Properties, nil
}
