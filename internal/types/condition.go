package types

import (
	"reflect"
	"sort"
)

// WhereOptions is the plain-map predicate shorthand. Keys are attribute
// names (string) or operators (Operator); values are scalars, slices,
// expressions or nested WhereOptions.
type WhereOptions map[any]any

// SortedKeys returns attribute keys in lexical order followed by operator
// keys in operator order. Keys of any other type are returned last.
func (w WhereOptions) SortedKeys() []any {
	var attrs []string
	var ops []Operator
	var other []any
	for k := range w {
		switch key := k.(type) {
		case string:
			attrs = append(attrs, key)
		case Operator:
			ops = append(ops, key)
		default:
			other = append(other, k)
		}
	}
	sort.Strings(attrs)
	sort.Slice(ops, func(i, j int) bool { return ops[i].Rank() < ops[j].Rank() })

	keys := make([]any, 0, len(w))
	for _, a := range attrs {
		keys = append(keys, a)
	}
	for _, o := range ops {
		keys = append(keys, o)
	}
	return append(keys, other...)
}

// OnlyAnd returns the conjunct list when the map holds a single OpAnd key.
func (w WhereOptions) OnlyAnd() ([]any, bool) {
	if len(w) != 1 {
		return nil, false
	}
	v, ok := w[OpAnd]
	if !ok {
		return nil, false
	}
	switch parts := v.(type) {
	case []any:
		return parts, true
	case []WhereOptions:
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, true
	case WhereOptions:
		return []any{parts}, true
	}
	return nil, false
}

// ClonePredicate deep-copies maps and slices of a predicate tree. Expression
// nodes are immutable and shared.
func ClonePredicate(v any) any {
	switch val := v.(type) {
	case WhereOptions:
		out := make(WhereOptions, len(val))
		for k, child := range val {
			out[k] = ClonePredicate(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = ClonePredicate(child)
		}
		return out
	case []WhereOptions:
		out := make([]WhereOptions, len(val))
		for i, child := range val {
			out[i] = ClonePredicate(child).(WhereOptions)
		}
		return out
	}
	return v
}

// IsEmptyPredicate reports whether a predicate compiles to no clause.
func IsEmptyPredicate(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case WhereOptions:
		return len(val) == 0
	case And:
		return len(val.Children) == 0
	}
	return false
}

// AsSlice returns the elements of a slice or array value. Byte slices are
// values, not lists.
func AsSlice(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
