package model

import (
	"fmt"

	"github.com/go-openapi/inflect"
	"github.com/zoobzio/stmtql/internal/render"
)

// Kind is the cardinality of an association.
type Kind int

const (
	BelongsTo Kind = iota + 1
	HasOne
	HasMany
	BelongsToMany
)

func (k Kind) String() string {
	switch k {
	case BelongsTo:
		return "BelongsTo"
	case HasOne:
		return "HasOne"
	case HasMany:
		return "HasMany"
	case BelongsToMany:
		return "BelongsToMany"
	}
	return "Unknown"
}

// ParseKind resolves an association kind name such as "hasMany".
func ParseKind(name string) (Kind, error) {
	switch inflect.Camelize(name) {
	case "BelongsTo":
		return BelongsTo, nil
	case "HasOne":
		return HasOne, nil
	case "HasMany":
		return HasMany, nil
	case "BelongsToMany":
		return BelongsToMany, nil
	}
	return 0, fmt.Errorf("unknown association kind %q", name)
}

// Association links a source model to a target model.
//
// ForeignKey lives on Source for BelongsTo, on Target for HasOne and
// HasMany, and on Through for BelongsToMany, where OtherKey is the Through
// attribute referencing Target.
type Association struct {
	Kind       Kind
	Source     *Model
	Target     *Model
	As         string
	ForeignKey string
	SourceKey  string
	TargetKey  string
	Through    *Model
	OtherKey   string
}

// Multiple reports whether the association can yield many rows per source.
func (a *Association) Multiple() bool {
	return a.Kind == HasMany || a.Kind == BelongsToMany
}

// AssociationOptions overrides derived association names.
type AssociationOptions struct {
	As         string
	ForeignKey string
	SourceKey  string
	TargetKey  string
	OtherKey   string
}

// BelongsTo declares that m holds a foreign key to target.
func (m *Model) BelongsTo(target *Model, opts AssociationOptions) (*Association, error) {
	targetKey, err := keyOf(target, opts.TargetKey)
	if err != nil {
		return nil, err
	}
	as := defaultString(opts.As, inflect.CamelizeDownFirst(target.Name))
	a := &Association{
		Kind:       BelongsTo,
		Source:     m,
		Target:     target,
		As:         as,
		ForeignKey: defaultString(opts.ForeignKey, inflect.CamelizeDownFirst(as)+inflect.Capitalize(targetKey.Name)),
		TargetKey:  targetKey.Name,
	}
	m.ensureAttribute(a.ForeignKey, targetKey.Type)
	return a, m.addAssociation(a)
}

// HasOne declares that target holds a foreign key to m, one row per m.
func (m *Model) HasOne(target *Model, opts AssociationOptions) (*Association, error) {
	return m.hasAssociation(HasOne, target, opts, inflect.CamelizeDownFirst(target.Name))
}

// HasMany declares that target holds a foreign key to m, many rows per m.
func (m *Model) HasMany(target *Model, opts AssociationOptions) (*Association, error) {
	return m.hasAssociation(HasMany, target, opts, inflect.Pluralize(inflect.CamelizeDownFirst(target.Name)))
}

func (m *Model) hasAssociation(kind Kind, target *Model, opts AssociationOptions, defaultAs string) (*Association, error) {
	sourceKey, err := keyOf(m, opts.SourceKey)
	if err != nil {
		return nil, err
	}
	a := &Association{
		Kind:       kind,
		Source:     m,
		Target:     target,
		As:         defaultString(opts.As, defaultAs),
		ForeignKey: defaultString(opts.ForeignKey, inflect.CamelizeDownFirst(m.Name)+inflect.Capitalize(sourceKey.Name)),
		SourceKey:  sourceKey.Name,
	}
	target.ensureAttribute(a.ForeignKey, sourceKey.Type)
	return a, m.addAssociation(a)
}

// BelongsToMany declares a many-to-many association through a junction model.
func (m *Model) BelongsToMany(target, through *Model, opts AssociationOptions) (*Association, error) {
	if through == nil {
		return nil, fmt.Errorf("model %q: belongsToMany %q requires a through model", m.Name, target.Name)
	}
	sourceKey, err := keyOf(m, opts.SourceKey)
	if err != nil {
		return nil, err
	}
	targetKey, err := keyOf(target, opts.TargetKey)
	if err != nil {
		return nil, err
	}
	a := &Association{
		Kind:       BelongsToMany,
		Source:     m,
		Target:     target,
		As:         defaultString(opts.As, inflect.Pluralize(inflect.CamelizeDownFirst(target.Name))),
		ForeignKey: defaultString(opts.ForeignKey, inflect.CamelizeDownFirst(m.Name)+inflect.Capitalize(sourceKey.Name)),
		OtherKey:   defaultString(opts.OtherKey, inflect.CamelizeDownFirst(target.Name)+inflect.Capitalize(targetKey.Name)),
		SourceKey:  sourceKey.Name,
		TargetKey:  targetKey.Name,
		Through:    through,
	}
	through.ensureAttribute(a.ForeignKey, sourceKey.Type)
	through.ensureAttribute(a.OtherKey, targetKey.Type)
	return a, m.addAssociation(a)
}

func (m *Model) addAssociation(a *Association) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byAlias[a.As]; exists {
		return render.DuplicateAliasError{Alias: a.As, Parent: m.Name}
	}
	m.associations = append(m.associations, a)
	m.byAlias[a.As] = a
	return nil
}

// Associations returns the associations in declaration order.
func (m *Model) Associations() []*Association {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Association, len(m.associations))
	copy(out, m.associations)
	return out
}

// Association looks up an association by alias.
func (m *Model) Association(as string) (*Association, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byAlias[as]
	return a, ok
}

// AssociationTo finds the association to a target model. When as is empty
// the target must be associated exactly once.
func (m *Model) AssociationTo(target, as string) (*Association, bool) {
	var found *Association
	for _, a := range m.Associations() {
		if a.Target.Name != target || (as != "" && a.As != as) {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = a
	}
	return found, found != nil
}

func keyOf(m *Model, name string) (*Attribute, error) {
	if name != "" {
		a, ok := m.Attribute(name)
		if !ok {
			return nil, fmt.Errorf("model %q has no attribute %q", m.Name, name)
		}
		return a, nil
	}
	pk, ok := m.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("model %q needs a single primary key or an explicit key", m.Name)
	}
	return pk, nil
}

func defaultString(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
