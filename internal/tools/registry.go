// Package tools implements the pluggable tool registry exposed by the
// service. Tools are opaque named capabilities; executing an unknown
// tool is a failed result, not an error condition.
package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pagehound/scraperd/internal/scraper"
)

// Tool is one registered capability.
type Tool struct {
	Description string
	Schema      map[string]any
	Run         func(ctx context.Context, params map[string]any) (map[string]any, error)
}

// Registry holds named tools and implements scraper.ToolExecutor.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds or replaces a tool under the given name.
func (r *Registry) Register(name string, tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = tool
}

// Execute runs the named tool. Unknown names and tool failures are
// reported in the result, never as panics.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (scraper.ToolResult, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return scraper.ToolResult{
			Success: false,
			Result:  map[string]any{"error": fmt.Sprintf("unknown tool %q", name)},
		}, nil
	}
	out, err := tool.Run(ctx, params)
	if err != nil {
		return scraper.ToolResult{
			Success: false,
			Result:  map[string]any{"error": err.Error()},
		}, nil
	}
	return scraper.ToolResult{Success: true, Result: out}, nil
}

// ListTools returns all registered tool names, sorted.
func (r *Registry) ListTools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllSchemas returns the schema of every registered tool keyed by name.
func (r *Registry) AllSchemas() map[string]map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]map[string]any, len(r.tools))
	for name, tool := range r.tools {
		schema := map[string]any{"description": tool.Description}
		for k, v := range tool.Schema {
			schema[k] = v
		}
		out[name] = schema
	}
	return out
}
