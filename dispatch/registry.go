package dispatch

import (
	"context"
	"sort"
	"sync"
)

// Capability is the concrete implementation behind a tool name.
// Implementations are responsible for their own thread-safety unless
// registered with Serialize, in which case the dispatcher serializes
// calls to them.
type Capability interface {
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// CapabilityFunc adapts a plain function to the Capability interface.
type CapabilityFunc func(ctx context.Context, args map[string]any) (string, error)

func (f CapabilityFunc) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return f(ctx, args)
}

// ToolDefinition is the serializable metadata for a registered tool.
type ToolDefinition struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Schema        Schema `json:"schema,omitempty"`
	SideEffecting bool   `json:"side_effecting,omitempty"`
	Serialize     bool   `json:"serialize,omitempty"`
}

// RegisteredTool pairs a tool definition with its capability.
type RegisteredTool struct {
	Definition ToolDefinition
	Capability Capability

	// invokeMu serializes calls for capabilities that declared
	// themselves non-concurrent.
	invokeMu sync.Mutex
}

// invoke runs the capability, honoring the Serialize flag.
func (t *RegisteredTool) invoke(ctx context.Context, args map[string]any) (string, error) {
	if t.Definition.Serialize {
		t.invokeMu.Lock()
		defer t.invokeMu.Unlock()
	}
	return t.Capability.Invoke(ctx, args)
}

// Registry maps tool names to capabilities. It is built at startup and
// shared read-only by all running flows.
type Registry struct {
	tools map[string]*RegisteredTool
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*RegisteredTool),
	}
}

// Register binds a unique tool name to a capability. Re-registering an
// existing name fails with a *DuplicateToolError.
func (r *Registry) Register(def ToolDefinition, capability Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[def.Name]; exists {
		return newDuplicateToolError(def.Name)
	}
	r.tools[def.Name] = &RegisteredTool{
		Definition: def,
		Capability: capability,
	}
	return nil
}

// MustRegister is Register for startup wiring where a duplicate name is
// a programming error.
func (r *Registry) MustRegister(def ToolDefinition, capability Capability) {
	if err := r.Register(def, capability); err != nil {
		panic(err)
	}
}

// Get returns a registered tool by name, or nil if not found.
func (r *Registry) Get(name string) *RegisteredTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Definitions returns all tool definitions in name order.
func (r *Registry) Definitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// DefinitionsFor returns the definitions of tools the caller may request.
func (r *Registry) DefinitionsFor(caller Caller) []ToolDefinition {
	all := r.Definitions()
	allowed := make([]ToolDefinition, 0, len(all))
	for _, def := range all {
		if caller.Allowed(def.Name) {
			allowed = append(allowed, def)
		}
	}
	return allowed
}

// Names returns the names of all registered tools in sorted order.
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
