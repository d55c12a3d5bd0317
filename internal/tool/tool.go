package tool

import "context"

// Tool is the interface every incident tool implements. Parameters returns
// the JSON Schema the outer agent framework uses to validate and describe
// the tool's inputs.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, params map[string]any) (string, error)
}
