package stmtql

import (
	"github.com/zoobzio/stmtql/internal/types"
	"github.com/zoobzio/stmtql/model"
)

// mergeScopes folds the scopes a descriptor applies, then the descriptor's
// own find options. Without explicit scopes the default scope applies
// unless the descriptor is unscoped.
func mergeScopes(m *model.Model, q QueryDescriptor) (FindOptions, error) {
	var refs []ScopeRef
	switch {
	case q.Unscoped:
	case q.Scopes == nil:
		if m.HasScope(model.DefaultScope) {
			refs = []ScopeRef{{Name: model.DefaultScope}}
		}
	default:
		refs = q.Scopes
	}

	parts := make([]FindOptions, 0, len(refs)+1)
	for _, ref := range refs {
		opts, err := m.ResolveScope(ref)
		if err != nil {
			return FindOptions{}, err
		}
		parts = append(parts, opts)
	}
	parts = append(parts, q.FindOptions)
	return MergeFindOptions(parts...), nil
}

// MergeFindOptions left-folds find options. Where and having are combined
// into one flat and-list; attribute include and exclude lists are unioned
// with include winning; eager loads merge by association; group lists
// concatenate; everything else is last-write-wins. Inputs are not modified.
func MergeFindOptions(opts ...FindOptions) FindOptions {
	var acc FindOptions
	for _, o := range opts {
		acc = mergeFind(acc, o)
	}
	return acc
}

func mergeFind(acc, o FindOptions) FindOptions {
	acc.Where = andMerge(acc.Where, o.Where)
	acc.Having = andMerge(acc.Having, o.Having)
	acc.Attributes = mergeAttributes(acc.Attributes, o.Attributes)
	acc.Include = mergeIncludes(acc.Include, o.Include)
	if len(o.Group) > 0 {
		acc.Group = append(append([]any(nil), acc.Group...), o.Group...)
	}
	if o.Order != nil {
		acc.Order = append([]types.OrderItem(nil), o.Order...)
	}
	if o.Limit != nil {
		acc.Limit = o.Limit
	}
	if o.Offset != nil {
		acc.Offset = o.Offset
	}
	if o.Lock != "" {
		acc.Lock = o.Lock
	}
	if o.Distinct {
		acc.Distinct = true
	}
	if o.SubQuery != nil {
		acc.SubQuery = o.SubQuery
	}
	return acc
}

// andMerge combines two predicates. The first non-empty predicate seeds the
// result; later ones join a flat and-list.
func andMerge(a, b any) any {
	if types.IsEmptyPredicate(b) {
		return a
	}
	if types.IsEmptyPredicate(a) {
		return types.ClonePredicate(b)
	}
	conjuncts := append(unpackAnd(a), unpackAnd(b)...)
	return types.WhereOptions{types.OpAnd: conjuncts}
}

// unpackAnd returns the conjuncts of a predicate. Only a lone and-list or an
// And node is flattened; anything else is one opaque conjunct.
func unpackAnd(v any) []any {
	switch p := v.(type) {
	case types.WhereOptions:
		if parts, ok := p.OnlyAnd(); ok {
			return types.ClonePredicate(parts).([]any)
		}
		return []any{types.ClonePredicate(p)}
	case types.And:
		return append([]any(nil), p.Children...)
	}
	return []any{types.ClonePredicate(v)}
}

func mergeAttributes(a, b *types.AttributeOptions) *types.AttributeOptions {
	if b == nil {
		return a
	}
	out := &types.AttributeOptions{}
	if a != nil {
		out.Only = a.Only
		out.Include = append(out.Include, a.Include...)
		out.Exclude = append(out.Exclude, a.Exclude...)
	}
	if b.Only != nil {
		out.Only = append([]any(nil), b.Only...)
	}

	seen := make(map[string]bool, len(out.Include))
	for _, item := range out.Include {
		if key, ok := attributeKey(item); ok {
			seen[key] = true
		}
	}
	for _, item := range b.Include {
		if key, ok := attributeKey(item); ok {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out.Include = append(out.Include, item)
	}

	excluded := make(map[string]bool, len(out.Exclude)+len(b.Exclude))
	var exclude []string
	for _, name := range append(out.Exclude, b.Exclude...) {
		if excluded[name] || seen[name] {
			continue
		}
		excluded[name] = true
		exclude = append(exclude, name)
	}
	out.Exclude = exclude
	return out
}

// attributeKey identifies plain attribute names in a selection list.
func attributeKey(item any) (string, bool) {
	if s, ok := item.(string); ok {
		return s, true
	}
	return "", false
}

// mergeIncludes merges b into a by include key. Entries repeated inside b
// are kept as they are, so resolution reports them as a duplicate alias.
func mergeIncludes(a, b []types.Include) []types.Include {
	if len(b) == 0 {
		return a
	}
	out := append([]types.Include(nil), a...)
	index := make(map[string]int, len(out))
	for i, inc := range out {
		index[inc.Key()] = i
	}
	merged := make(map[string]bool, len(b))
	for _, inc := range b {
		key := inc.Key()
		i, ok := index[key]
		if !ok || merged[key] {
			out = append(out, inc)
			merged[key] = true
			continue
		}
		merged[key] = true
		out[i] = mergeInclude(out[i], inc)
	}
	return out
}

func mergeInclude(a, b types.Include) types.Include {
	out := a
	out.Where = andMerge(a.Where, b.Where)
	out.Include = mergeIncludes(a.Include, b.Include)
	if b.Required != nil {
		out.Required = b.Required
	}
	if b.Attributes != nil {
		out.Attributes = b.Attributes
	}
	if b.Through != nil {
		through := *b.Through
		if a.Through != nil {
			through.Where = andMerge(a.Through.Where, b.Through.Where)
			if through.Attributes == nil {
				through.Attributes = a.Through.Attributes
			}
		}
		out.Through = &through
	}
	if b.All {
		out.All, out.AllKind, out.Nested = true, b.AllKind, b.Nested
	}
	return out
}
