package model

import (
	"fmt"
	"sync"
)

// Registry is the set of models a compiler resolves names against. It is
// safe for concurrent use; models are usually defined once at startup.
type Registry struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Define creates and registers a model.
func (r *Registry) Define(name string, attrs []Attribute, opts ...Option) (*Model, error) {
	m, err := New(name, attrs, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds an existing model.
func (r *Registry) Register(m *Model) error {
	if m == nil {
		return fmt.Errorf("model cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.models[m.Name]; exists {
		return fmt.Errorf("model %q is already defined", m.Name)
	}
	r.models[m.Name] = m
	r.order = append(r.order, m.Name)
	return nil
}

// Model looks up a model by name.
func (r *Registry) Model(name string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[name]
	return m, ok
}

// MustModel looks up a model by name and panics if it is missing.
func (r *Registry) MustModel(name string) *Model {
	m, ok := r.Model(name)
	if !ok {
		panic(fmt.Sprintf("model %q is not defined", name))
	}
	return m
}

// ByTable looks up a model by table name.
func (r *Registry) ByTable(table string) (*Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if m := r.models[name]; m.TableName == table {
			return m, true
		}
	}
	return nil, false
}

// Models returns the models in definition order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Model, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}
