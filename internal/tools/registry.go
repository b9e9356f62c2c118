package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"drivethru/internal/llm"
)

// Registry holds one session's tools. There is no process-wide registry:
// each session constructs its own so tools can close over that session's
// ledger.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registering a duplicate name fails.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// MustRegister registers a tool and panics on error. Use for static
// registration at session construction.
func (r *Registry) MustRegister(tool *Tool) {
	if err := r.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Get returns a tool by name, or nil if not found.
func (r *Registry) Get(name string) *Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Specs renders every tool as a backend function spec, in name order.
func (r *Registry) Specs() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]llm.ToolSpec, len(names))
	for i, name := range names {
		t := r.tools[name]
		specs[i] = llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema.Parameters(),
		}
	}
	return specs
}

// Execute runs a tool by name. Returns ErrToolNotFound for an unknown
// name; otherwise the Result carries both the spoken output and the typed
// error, so the caller can relay the one and branch on the other.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*Result, error) {
	tool := r.Get(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	start := time.Now()

	if err := validateArgs(tool, args); err != nil {
		return &Result{
			ToolName:   tool.Name,
			Err:        err,
			DurationMs: time.Since(start).Milliseconds(),
		}, err
	}

	output, err := tool.Execute(ctx, args)
	return &Result{
		ToolName:   tool.Name,
		Output:     output,
		Err:        err,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// validateArgs checks that all required arguments are present.
func validateArgs(tool *Tool, args map[string]any) error {
	for _, required := range tool.Schema.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}
	return nil
}
