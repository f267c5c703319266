package agent

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
)

// AgentTool is one entry of the tool catalog. Call receives the raw argument
// JSON emitted by the model and returns a serialized result envelope; it
// reports an error only for faults it could not translate itself (the
// dispatcher converts those into failure envelopes).
type AgentTool interface {
	Name() string
	Description() string
	Call(ctx context.Context, input string) (string, error)
	InputSchema() *jsonschema.Schema
}

// Registry is the immutable tool catalog. All registration happens at
// process initialization; afterwards it is read-only and safe to share
// across sessions.
type Registry struct {
	tools  []AgentTool
	byName map[string]AgentTool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]AgentTool)}
}

// Register adds a tool. Duplicate names are a configuration error.
func (r *Registry) Register(tool AgentTool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.byName[name] = tool
	r.tools = append(r.tools, tool)
	return nil
}

func (r *Registry) Lookup(name string) (AgentTool, bool) {
	tool, ok := r.byName[name]
	return tool, ok
}

// Catalog returns the tool specs presented to the model, in registration
// order.
func (r *Registry) Catalog() []ToolSpec {
	specs := make([]ToolSpec, 0, len(r.tools))
	for _, tool := range r.tools {
		specs = append(specs, ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Schema:      tool.InputSchema(),
		})
	}
	return specs
}
