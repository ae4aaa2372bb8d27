package sandbox

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ToolFunc is the host implementation of a tool. It receives the call
// arguments in declaration order.
type ToolFunc func(args []any) (any, error)

// ToolArg describes one parameter of a tool.
type ToolArg struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
}

// ToolInfo describes a tool exposed to sandboxed code.
type ToolInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Args        []ToolArg `json:"args,omitempty"`
	Returns     string    `json:"returns,omitempty"`
}

// NewToolInfo creates a ToolInfo with the given name and description.
func NewToolInfo(name, description string) ToolInfo {
	return ToolInfo{Name: name, Description: description}
}

// Arg appends a required argument descriptor.
func (t ToolInfo) Arg(name, typ, description string) ToolInfo {
	t.Args = append(t.Args, ToolArg{Name: name, Type: typ, Required: true, Description: description})
	return t
}

// OptArg appends an optional argument descriptor.
func (t ToolInfo) OptArg(name, typ, description string) ToolInfo {
	t.Args = append(t.Args, ToolArg{Name: name, Type: typ, Required: false, Description: description})
	return t
}

// WithReturns sets the return type tag.
func (t ToolInfo) WithReturns(typ string) ToolInfo {
	t.Returns = typ
	return t
}

// Signature renders the tool's call signature, e.g.
// "search(query: string) -> string".
func (t ToolInfo) Signature() string {
	params := make([]string, len(t.Args))
	for i, a := range t.Args {
		p := a.Name + ": " + a.Type
		if !a.Required {
			p += "?"
		}
		params[i] = p
	}
	sig := fmt.Sprintf("%s(%s)", t.Name, strings.Join(params, ", "))
	if t.Returns != "" {
		sig += " -> " + t.Returns
	}
	return sig
}

// registeredTool pairs a descriptor with its implementation.
type registeredTool struct {
	info ToolInfo
	fn   ToolFunc
}

// Registry manages tool registration and lookup.
type Registry struct {
	tools map[string]*registeredTool
	mu    sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*registeredTool),
	}
}

// Register adds or replaces a tool in the registry.
func (r *Registry) Register(info ToolInfo, fn ToolFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[info.Name] = &registeredTool{info: info, fn: fn}
}

// Unregister removes a tool from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns a tool's descriptor and implementation by name.
func (r *Registry) Get(name string) (ToolInfo, ToolFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return ToolInfo{}, nil, false
	}
	return t.info, t.fn, true
}

// Has reports whether a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Infos returns all tool descriptors sorted by name.
func (r *Registry) Infos() []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, t.info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Clone returns a copy of the registry sharing the tool implementations.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewRegistry()
	for name, t := range r.tools {
		copied := *t
		clone.tools[name] = &copied
	}
	return clone
}

// Describe renders documentation for every registered tool, one block per
// tool in name order: signature line, description, then parameter docs.
func (r *Registry) Describe() string {
	infos := r.Infos()
	var sb strings.Builder
	for i, info := range infos {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(info.Signature())
		sb.WriteString("\n")
		if info.Description != "" {
			sb.WriteString("  " + info.Description + "\n")
		}
		for _, a := range info.Args {
			req := "required"
			if !a.Required {
				req = "optional"
			}
			line := fmt.Sprintf("    %s (%s, %s)", a.Name, a.Type, req)
			if a.Description != "" {
				line += ": " + a.Description
			}
			sb.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
