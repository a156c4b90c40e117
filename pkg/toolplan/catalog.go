// Package toolplan composes the planner, validator and executor
// packages into a single SDK surface, and holds the read-only tool
// catalog each execution runs against.
package toolplan

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Mindburn-Labs/toolplan/pkg/contracts"
)

// Catalog is a registry of named tools. It is safe for concurrent use
// during registration; once built it is treated as read-only and may be
// shared across concurrent plan executions.
type Catalog struct {
	mu    sync.RWMutex
	tools map[string]contracts.Tool
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tools: make(map[string]contracts.Tool)}
}

// Register adds or replaces a tool definition.
func (c *Catalog) Register(tool contracts.Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("toolplan: tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("toolplan: tool %q has no handler", tool.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools[tool.Name] = tool
	return nil
}

// Get looks up a tool by name.
func (c *Catalog) Get(name string) (contracts.Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tools[name]
	return t, ok
}

// Snapshot returns a copy of the catalog's current tools, keyed by name,
// suitable for passing to the validator and executor.
func (c *Catalog) Snapshot() map[string]contracts.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]contracts.Tool, len(c.tools))
	for k, v := range c.tools {
		out[k] = v
	}
	return out
}

// Search returns every registered tool whose name or description
// contains query, case-insensitively.
func (c *Catalog) Search(query string) []contracts.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	query = strings.ToLower(query)
	var out []contracts.Tool
	for _, t := range c.tools {
		if strings.Contains(strings.ToLower(t.Name), query) || strings.Contains(strings.ToLower(t.Description), query) {
			out = append(out, t)
		}
	}
	return out
}
