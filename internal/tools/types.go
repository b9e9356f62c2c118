// Package tools provides the tool surface the conversational agent invokes
// against the catalog and the order ledger. Tools are registered in a
// Registry per session and exposed to the generation backend as function
// specs; each execution returns a spoken-confirmation string for the agent
// to relay, alongside the typed error kind when the operation failed.
package tools

import (
	"context"
	"fmt"
)

// Property describes a single parameter for the tool's JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	// Items describes array element schema (required for type="array").
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// Schema defines the expected arguments of a tool.
type Schema struct {
	Required   []string            `json:"required"`
	Properties map[string]Property `json:"properties"`
}

// Parameters renders the schema as a JSON-schema object for the backend.
func (s Schema) Parameters() map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Items != nil {
			prop["items"] = map[string]any{"type": p.Items.Type}
		}
		props[name] = prop
	}
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// ExecuteFunc runs a tool. The string result is the spoken confirmation
// (or refusal) for the agent; err carries the distinguishable failure kind
// when the operation did not apply.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one operation of the tool surface.
type Tool struct {
	Name        string
	Description string
	Schema      Schema
	Execute     ExecuteFunc
}

// Validate checks the tool definition.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// Result wraps one execution with metadata.
type Result struct {
	ToolName   string
	Output     string
	Err        error
	DurationMs int64
}

// IsSuccess reports whether the tool executed without error.
func (r *Result) IsSuccess() bool { return r.Err == nil }

func (r *Result) String() string {
	if r.Output != "" {
		return r.Output
	}
	if r.Err != nil {
		return fmt.Sprintf("error: %v", r.Err)
	}
	return ""
}
