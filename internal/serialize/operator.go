package serialize

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/types"
)

var comparisons = map[types.Operator]string{
	types.OpEq:      "=",
	types.OpNe:      "!=",
	types.OpGt:      ">",
	types.OpGte:     ">=",
	types.OpLt:      "<",
	types.OpLte:     "<=",
	types.OpLike:    "LIKE",
	types.OpNotLike: "NOT LIKE",
}

// operator renders left <op> val.
func (c *Context) operator(left string, dt types.DataType, op types.Operator, val any) (clause, error) {
	if sym, ok := comparisons[op]; ok {
		if val == nil {
			switch op {
			case types.OpEq:
				return clause{sql: left + " IS NULL"}, nil
			case types.OpNe:
				return clause{sql: left + " IS NOT NULL"}, nil
			}
		}
		return c.binary(left, sym, dt, val)
	}

	switch op {
	case types.OpIs, types.OpNot:
		return c.is(left, dt, op, val)
	case types.OpIn, types.OpNotIn:
		return c.in(left, dt, op, val)
	case types.OpBetween, types.OpNotBetween:
		return c.between(left, dt, op, val)
	case types.OpILike, types.OpNotILike:
		if !c.Caps.CaseInsensitiveLike {
			return clause{}, c.unsupported(op)
		}
		sym := "ILIKE"
		if op == types.OpNotILike {
			sym = "NOT ILIKE"
		}
		return c.binary(left, sym, dt, val)
	case types.OpStartsWith, types.OpEndsWith, types.OpSubstring:
		s, ok := val.(string)
		if !ok {
			return clause{}, fmt.Errorf("operator %s needs a string, got %T", string(op), val)
		}
		switch op {
		case types.OpStartsWith:
			s += "%"
		case types.OpEndsWith:
			s = "%" + s
		default:
			s = "%" + s + "%"
		}
		return c.binary(left, "LIKE", dt, s)
	case types.OpRegexp, types.OpNotRegexp, types.OpIRegexp, types.OpNotIRegexp:
		sym, err := c.regexp(op)
		if err != nil {
			return clause{}, err
		}
		return c.binary(left, sym, dt, val)
	case types.OpOverlap, types.OpContains, types.OpContained, types.OpAny:
		return c.array(left, dt, op, val)
	case types.OpCol:
		ref, ok := val.(string)
		if !ok {
			return clause{}, fmt.Errorf("operator col needs a column name, got %T", val)
		}
		return clause{sql: left + " = " + c.columnRef(ref)}, nil
	case types.OpAnd, types.OpOr:
		return c.condition(left, dt, types.WhereOptions{op: val})
	}
	return clause{}, fmt.Errorf("unknown operator %q", string(op))
}

func (c *Context) binary(left, sym string, dt types.DataType, val any) (clause, error) {
	right, err := c.Value(val, dt)
	if err != nil {
		return clause{}, err
	}
	return clause{sql: left + " " + sym + " " + right}, nil
}

func (c *Context) unsupported(op types.Operator) error {
	return render.NewUnsupportedOptionError(c.Caps.Name(), "where", []string{"operator " + string(op)})
}

// is renders IS / IS NOT against null or a boolean. Dialects without IS
// TRUE compare against the boolean literal instead. Not with any other
// value is inequality.
func (c *Context) is(left string, dt types.DataType, op types.Operator, val any) (clause, error) {
	negate := op == types.OpNot
	switch v := val.(type) {
	case nil:
		if negate {
			return clause{sql: left + " IS NOT NULL"}, nil
		}
		return clause{sql: left + " IS NULL"}, nil
	case bool:
		lit := c.Caps.BoolFalse
		if v {
			lit = c.Caps.BoolTrue
		}
		switch {
		case c.Caps.BooleanIs && negate:
			return clause{sql: left + " IS NOT " + lit}, nil
		case c.Caps.BooleanIs:
			return clause{sql: left + " IS " + lit}, nil
		case negate:
			return clause{sql: left + " != " + lit}, nil
		}
		return clause{sql: left + " = " + lit}, nil
	}
	if negate {
		return c.binary(left, "!=", dt, val)
	}
	return clause{}, fmt.Errorf("operator is accepts only null or a boolean, got %T", val)
}

func (c *Context) in(left string, dt types.DataType, op types.Operator, val any) (clause, error) {
	sym := "IN"
	if op == types.OpNotIn {
		sym = "NOT IN"
	}
	if e, ok := val.(types.Expression); ok {
		right, err := c.Expr(e)
		if err != nil {
			return clause{}, err
		}
		return clause{sql: left + " " + sym + " " + right}, nil
	}
	items, ok := types.AsSlice(val)
	if !ok {
		return clause{}, fmt.Errorf("operator %s needs a list, got %T", string(op), val)
	}
	if len(items) == 0 {
		if op == types.OpNotIn {
			return clause{sql: "1 = 1"}, nil
		}
		return clause{sql: "0 = 1"}, nil
	}
	list, err := c.list(items, dt)
	if err != nil {
		return clause{}, err
	}
	return clause{sql: left + " " + sym + " (" + list + ")"}, nil
}

func (c *Context) list(items []any, dt types.DataType) (string, error) {
	parts := make([]string, len(items))
	for i, item := range items {
		s, err := c.Value(item, dt)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func (c *Context) between(left string, dt types.DataType, op types.Operator, val any) (clause, error) {
	items, ok := types.AsSlice(val)
	if !ok || len(items) != 2 {
		return clause{}, fmt.Errorf("operator %s needs exactly two values", string(op))
	}
	lo, err := c.Value(items[0], dt)
	if err != nil {
		return clause{}, err
	}
	hi, err := c.Value(items[1], dt)
	if err != nil {
		return clause{}, err
	}
	sym := "BETWEEN"
	if op == types.OpNotBetween {
		sym = "NOT BETWEEN"
	}
	return clause{sql: left + " " + sym + " " + lo + " AND " + hi}, nil
}

func (c *Context) regexp(op types.Operator) (string, error) {
	if !c.Caps.RegexOperators {
		return "", c.unsupported(op)
	}
	insensitive := op == types.OpIRegexp || op == types.OpNotIRegexp
	if insensitive && !c.Caps.CaseInsensitiveRegex {
		return "", c.unsupported(op)
	}
	if c.Caps.Dialect == render.Postgres {
		return map[types.Operator]string{
			types.OpRegexp:     "~",
			types.OpNotRegexp:  "!~",
			types.OpIRegexp:    "~*",
			types.OpNotIRegexp: "!~*",
		}[op], nil
	}
	if op == types.OpNotRegexp {
		return "NOT REGEXP", nil
	}
	return "REGEXP", nil
}

func (c *Context) array(left string, dt types.DataType, op types.Operator, val any) (clause, error) {
	if !c.Caps.ArrayOperators {
		return clause{}, c.unsupported(op)
	}
	var right string
	if items, ok := types.AsSlice(val); ok {
		if len(items) == 0 {
			return clause{}, fmt.Errorf("operator %s needs a non-empty array", string(op))
		}
		list, err := c.list(items, dt)
		if err != nil {
			return clause{}, err
		}
		right = "ARRAY[" + list + "]"
	} else {
		s, err := c.Value(val, dt)
		if err != nil {
			return clause{}, err
		}
		right = s
	}
	switch op {
	case types.OpOverlap:
		return clause{sql: left + " && " + right}, nil
	case types.OpContains:
		return clause{sql: left + " @> " + right}, nil
	case types.OpContained:
		return clause{sql: left + " <@ " + right}, nil
	}
	return clause{sql: left + " = ANY (" + right + ")"}, nil
}

// columnRef renders "alias.column" or "column" as a quoted reference. An
// include path in the alias part uses "->" like the join aliases.
func (c *Context) columnRef(ref string) string {
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 {
		return c.Column("", ref)
	}
	return c.Column(ref[:dot], ref[dot+1:])
}
