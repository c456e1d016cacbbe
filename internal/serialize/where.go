package serialize

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/types"
)

// clause is a rendered predicate. or marks a top-level disjunction, which
// needs parentheses when it becomes a conjunct.
type clause struct {
	sql string
	or  bool
}

// Predicate compiles a where or having predicate. An empty predicate
// compiles to the empty string. Clause names the clause in errors.
func (c *Context) Predicate(clauseName string, pred any) (string, error) {
	cl, err := c.top(clauseName, pred)
	return cl.sql, err
}

// Conjunct compiles a predicate that will be joined to others with AND,
// parenthesizing a top-level disjunction.
func (c *Context) Conjunct(clauseName string, pred any) (string, error) {
	cl, err := c.top(clauseName, pred)
	if err != nil || !cl.or {
		return cl.sql, err
	}
	return "(" + cl.sql + ")", nil
}

// Clause compiles a predicate and reports whether it is a top-level
// disjunction.
func (c *Context) Clause(clauseName string, pred any) (string, bool, error) {
	cl, err := c.top(clauseName, pred)
	return cl.sql, cl.or, err
}

func (c *Context) top(clauseName string, pred any) (clause, error) {
	switch p := pred.(type) {
	case string:
		return clause{}, render.InvalidPredicateShapeError{
			Clause: clauseName,
			Got:    "string",
			Hint:   "raw SQL must be wrapped in Literal or Raw",
		}
	case map[string]any:
		pred = fromMap(p)
	default:
		if _, ok := types.AsSlice(pred); ok {
			return clause{}, render.InvalidPredicateShapeError{
				Clause: clauseName,
				Got:    fmt.Sprintf("%T", pred),
				Hint:   "combine predicates with And or Or",
			}
		}
	}
	return c.predicate(pred)
}

func fromMap(m map[string]any) types.WhereOptions {
	out := make(types.WhereOptions, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Context) predicate(v any) (clause, error) {
	switch p := v.(type) {
	case nil:
		return clause{}, nil
	case types.WhereOptions:
		return c.whereMap(p)
	case map[string]any:
		return c.whereMap(fromMap(p))
	case types.And:
		return c.logical(p.Children, " AND ")
	case types.Or:
		return c.logical(p.Children, " OR ")
	case types.Not:
		return c.not(p.Child)
	case types.Where:
		return c.where(p)
	case types.Expression:
		sql, err := c.Expr(p)
		return clause{sql: sql}, err
	}
	return clause{}, render.InvalidPredicateShapeError{Clause: "where", Got: fmt.Sprintf("%T", v)}
}

func (c *Context) not(child any) (clause, error) {
	inner, err := c.predicate(child)
	if err != nil || inner.sql == "" {
		return clause{}, err
	}
	return clause{sql: "NOT (" + inner.sql + ")"}, nil
}

func (c *Context) logical(children []any, sep string) (clause, error) {
	parts := make([]clause, 0, len(children))
	for _, child := range children {
		cl, err := c.predicate(child)
		if err != nil {
			return clause{}, err
		}
		parts = append(parts, cl)
	}
	return join(parts, sep), nil
}

func join(parts []clause, sep string) clause {
	var kept []clause
	for _, p := range parts {
		if p.sql != "" {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return clause{}
	case 1:
		return kept[0]
	}
	sqls := make([]string, len(kept))
	for i, p := range kept {
		if sep == " AND " && p.or {
			sqls[i] = "(" + p.sql + ")"
			continue
		}
		sqls[i] = p.sql
	}
	return clause{sql: strings.Join(sqls, sep), or: sep == " OR "}
}

// operands splits the value of an and/or key into predicates. A map is
// split into one predicate per key.
func operands(v any) []any {
	switch val := v.(type) {
	case types.WhereOptions:
		keys := val.SortedKeys()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = types.WhereOptions{k: val[k]}
		}
		return out
	case map[string]any:
		return operands(fromMap(val))
	}
	if items, ok := types.AsSlice(v); ok {
		return items
	}
	return []any{v}
}

func (c *Context) whereMap(m types.WhereOptions) (clause, error) {
	parts := make([]clause, 0, len(m))
	for _, key := range m.SortedKeys() {
		val := m[key]
		var (
			cl  clause
			err error
		)
		switch k := key.(type) {
		case string:
			cl, err = c.attributeCondition(k, val)
		case types.Operator:
			switch k {
			case types.OpAnd:
				cl, err = c.logical(operands(val), " AND ")
			case types.OpOr:
				cl, err = c.logical(operands(val), " OR ")
			case types.OpNot:
				cl, err = c.not(val)
			default:
				err = fmt.Errorf("operator %q needs an attribute", string(k))
			}
		default:
			err = fmt.Errorf("unsupported where key of type %T", key)
		}
		if err != nil {
			return clause{}, err
		}
		parts = append(parts, cl)
	}
	return join(parts, " AND "), nil
}

// resolveKey maps a where key to its column. $path.attr$ keys address a
// column of an included table.
func (c *Context) resolveKey(key string) (string, types.DataType, error) {
	if len(key) > 2 && strings.HasPrefix(key, "$") && strings.HasSuffix(key, "$") {
		inner := key[1 : len(key)-1]
		dot := strings.LastIndexByte(inner, '.')
		if dot <= 0 {
			return "", "", fmt.Errorf("nested where key %q needs the form $include.attribute$", key)
		}
		path, attr := inner[:dot], inner[dot+1:]
		t, ok := c.Paths[path]
		if !ok {
			return "", "", fmt.Errorf("nested where key %q references %q, which is not included", key, path)
		}
		sql, dt := c.Attribute(t, attr)
		return sql, dt, nil
	}
	sql, dt := c.Attribute(c.Table, key)
	return sql, dt, nil
}

func (c *Context) attributeCondition(key string, val any) (clause, error) {
	left, dt, err := c.resolveKey(key)
	if err != nil {
		return clause{}, err
	}
	return c.condition(left, dt, val)
}

func (c *Context) where(w types.Where) (clause, error) {
	var (
		left string
		dt   types.DataType
		err  error
	)
	switch l := w.Left.(type) {
	case string:
		left, dt, err = c.resolveKey(l)
	default:
		left, err = c.Expr(l)
	}
	if err != nil {
		return clause{}, err
	}
	if w.Op == "" {
		return c.condition(left, dt, w.Right)
	}
	return c.operator(left, dt, w.Op, w.Right)
}

// condition applies the shorthand value of an attribute key to left.
func (c *Context) condition(left string, dt types.DataType, val any) (clause, error) {
	switch v := val.(type) {
	case nil:
		return clause{sql: left + " IS NULL"}, nil
	case map[string]any:
		return clause{}, fmt.Errorf("operator maps must be keyed by Operator, got map[string]any")
	case types.WhereOptions:
		parts := make([]clause, 0, len(v))
		for _, key := range v.SortedKeys() {
			op, ok := key.(types.Operator)
			if !ok {
				return clause{}, fmt.Errorf("nested where on %s: key %v is not an operator", left, key)
			}
			var (
				cl  clause
				err error
			)
			switch op {
			case types.OpAnd, types.OpOr:
				sep := " AND "
				if op == types.OpOr {
					sep = " OR "
				}
				items := operands(v[key])
				sub := make([]clause, 0, len(items))
				for _, item := range items {
					var s clause
					if s, err = c.condition(left, dt, item); err != nil {
						return clause{}, err
					}
					sub = append(sub, s)
				}
				cl = join(sub, sep)
			case types.OpNot:
				if inner, isMap := v[key].(types.WhereOptions); isMap {
					cl, err = c.condition(left, dt, inner)
					if err == nil && cl.sql != "" {
						cl = clause{sql: "NOT (" + cl.sql + ")"}
					}
					break
				}
				cl, err = c.operator(left, dt, op, v[key])
			default:
				cl, err = c.operator(left, dt, op, v[key])
			}
			if err != nil {
				return clause{}, err
			}
			parts = append(parts, cl)
		}
		return join(parts, " AND "), nil
	case types.Expression:
		return c.operator(left, dt, types.OpEq, v)
	}
	if _, ok := types.AsSlice(val); ok {
		return c.operator(left, dt, types.OpIn, val)
	}
	return c.operator(left, dt, types.OpEq, val)
}
