package tools

import (
	"fmt"
	"sync"
)

type entry struct {
	info    Info
	factory Factory
}

// Registry maps tool ids to factories. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Default returns a registry with the built-in tools.
func Default() *Registry {
	r := NewRegistry()
	for _, t := range []struct {
		info    Info
		factory Factory
	}{
		{EditorInfo, newEditor},
		{SignInfo, newSigner},
		{WatermarkInfo, newWatermark},
		{ToJPEGInfo, newPageExporter},
		{FromImagesInfo, newImageCollector},
		{CompressInfo, newCompressor},
		{ImageCompressInfo, newImageCompressor},
	} {
		if err := r.Register(t.info, t.factory); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool. Ids must be unique.
func (r *Registry) Register(info Info, f Factory) error {
	if info.ID == "" || f == nil {
		return fmt.Errorf("tool registration needs an id and a factory")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[info.ID]; ok {
		return fmt.Errorf("tool %s is already registered", info.ID)
	}
	r.tools[info.ID] = entry{info: info, factory: f}
	r.order = append(r.order, info.ID)
	return nil
}

// Lookup returns the description of a tool.
func (r *Registry) Lookup(id string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[id]
	return e.info, ok
}

// New builds the tool registered under id.
func (r *Registry) New(id string, env Env) (Tool, error) {
	r.mu.RLock()
	e, ok := r.tools[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, id)
	}
	return e.factory(env)
}

// List returns every tool in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.tools[id].info)
	}
	return out
}
