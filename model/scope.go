package model

import (
	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/types"
)

// DefaultScope is applied to every query unless the query is unscoped.
const DefaultScope = "defaultScope"

// Scope is a named, reusable set of find options. Exactly one of Options or
// Func is set; Func receives the arguments of the scope reference.
type Scope struct {
	Options types.FindOptions
	Func    func(args ...any) (types.FindOptions, error)
}

// AddScope registers a scope. Redefining a scope requires override.
func (m *Model) AddScope(name string, scope Scope, override bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.scopes[name]; exists && !override {
		return render.ScopeRedefinitionError{Model: m.Name, Scope: name}
	}
	m.scopes[name] = scope
	return nil
}

// SetDefaultScope replaces the default scope.
func (m *Model) SetDefaultScope(opts types.FindOptions) {
	_ = m.AddScope(DefaultScope, Scope{Options: opts}, true) //nolint:errcheck // override never fails
}

// HasScope reports whether a scope is registered.
func (m *Model) HasScope(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scopes[name]
	return ok
}

// ResolveScope returns the find options a scope reference expands to. The
// returned predicates are copies and may be modified by the caller.
func (m *Model) ResolveScope(ref types.ScopeRef) (types.FindOptions, error) {
	m.mu.RLock()
	scope, ok := m.scopes[ref.Name]
	m.mu.RUnlock()
	if !ok {
		return types.FindOptions{}, render.UnknownScopeError{Model: m.Name, Scope: ref.Name}
	}

	opts := scope.Options
	if scope.Func != nil {
		var err error
		opts, err = scope.Func(ref.Args...)
		if err != nil {
			return types.FindOptions{}, err
		}
	}
	return cloneFindOptions(opts), nil
}

func cloneFindOptions(o types.FindOptions) types.FindOptions {
	o.Where = types.ClonePredicate(o.Where)
	o.Having = types.ClonePredicate(o.Having)
	if o.Include != nil {
		o.Include = cloneIncludes(o.Include)
	}
	if o.Group != nil {
		o.Group = append([]any(nil), o.Group...)
	}
	if o.Order != nil {
		o.Order = append([]types.OrderItem(nil), o.Order...)
	}
	return o
}

func cloneIncludes(in []types.Include) []types.Include {
	out := make([]types.Include, len(in))
	for i, inc := range in {
		inc.Where = types.ClonePredicate(inc.Where)
		if inc.Include != nil {
			inc.Include = cloneIncludes(inc.Include)
		}
		if inc.Through != nil {
			through := *inc.Through
			through.Where = types.ClonePredicate(through.Where)
			inc.Through = &through
		}
		out[i] = inc
	}
	return out
}
