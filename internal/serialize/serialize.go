// Package serialize renders expression nodes and where shorthand to SQL
// text for one dialect and one bind context.
package serialize

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql/internal/bind"
	"github.com/zoobzio/stmtql/internal/encode"
	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/sqltext"
	"github.com/zoobzio/stmtql/internal/types"
	"github.com/zoobzio/stmtql/model"
)

// Table is a table in scope. Attributes resolve through Model when set;
// columns are qualified with Alias when it is not empty.
type Table struct {
	Alias string
	Model *model.Model
}

// Context carries everything needed to serialize within one compile call.
type Context struct {
	Caps         render.Capabilities
	Binds        *bind.Context
	Replacement  bool
	Replacements map[string]any

	// Table resolves bare attribute names. Paths resolves $path.attr$ keys
	// by dot-joined include path.
	Table Table
	Paths map[string]Table
}

// WithTable returns a copy of c resolving bare attributes against t.
func (c *Context) WithTable(t Table) *Context {
	cp := *c
	cp.Table = t
	return &cp
}

// Quote quotes an identifier, doubling any closing quote inside it.
func (c *Context) Quote(name string) string {
	closing := string(c.Caps.QuoteClose)
	return string(c.Caps.QuoteOpen) + strings.ReplaceAll(name, closing, closing+closing) + closing
}

// QuoteTable quotes a table name with its schema. Dialects without schemas
// get schema and table as one identifier.
func (c *Context) QuoteTable(ref types.TableRef) string {
	if ref.Schema == "" {
		return c.Quote(ref.Name)
	}
	if !c.Caps.Schemas {
		return c.Quote(ref.Schema + "." + ref.Name)
	}
	return c.Quote(ref.Schema) + "." + c.Quote(ref.Name)
}

// Column renders a possibly qualified column.
func (c *Context) Column(qualifier, name string) string {
	col := "*"
	if name != "*" {
		col = c.Quote(name)
	}
	if qualifier == "" {
		return col
	}
	return c.Quote(qualifier) + "." + col
}

// Attribute resolves an attribute of t to its column and declared type.
func (c *Context) Attribute(t Table, name string) (string, types.DataType) {
	if t.Model == nil {
		return c.Column(t.Alias, name), ""
	}
	a, ok := t.Model.Attribute(name)
	if !ok {
		return c.Column(t.Alias, name), ""
	}
	return c.Column(t.Alias, a.Field), a.Type
}

// Value renders a value as a bind placeholder or, in replacement style, an
// inline literal. Expressions are serialized instead.
func (c *Context) Value(v any, dt types.DataType) (string, error) {
	if e, ok := v.(types.Expression); ok {
		return c.Expr(e)
	}
	v, err := encode.Coerce(v, dt)
	if err != nil {
		return "", err
	}
	if c.Replacement {
		return encode.Literal(v, c.Caps)
	}
	bv, err := encode.Bindable(v, c.Caps)
	if err != nil {
		return "", err
	}
	return c.Binds.Reserve(bv), nil
}

// Expr serializes a node. Values that are not nodes are rendered with Value.
func (c *Context) Expr(v any) (string, error) {
	switch n := v.(type) {
	case types.Fragment:
		return n.SQL, nil
	case types.Literal:
		return c.substitute(n.SQL, c.Replacements, false)
	case types.Raw:
		return c.substitute(n.SQL, c.mergedReplacements(n.Replacements), true)
	case types.Value:
		return c.Value(n.V, "")
	case types.Column:
		return c.Column(n.Table, n.Name), nil
	case types.Attribute:
		sql, _ := c.Attribute(c.Table, n.Name)
		return sql, nil
	case types.Fn:
		return c.fn(n)
	case types.Cast:
		inner, err := c.Expr(n.Expr)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("CAST(%s AS %s)", inner, strings.ToUpper(n.Type)), nil
	case types.Where, types.And, types.Or, types.Not:
		return c.Predicate("where", n)
	}
	return c.Value(v, "")
}

func (c *Context) fn(n types.Fn) (string, error) {
	args := make([]string, len(n.Args))
	for i, arg := range n.Args {
		s, err := c.Expr(arg)
		if err != nil {
			return "", fmt.Errorf("%s argument %d: %w", n.Name, i+1, err)
		}
		args[i] = s
	}
	return n.Name + "(" + strings.Join(args, ", ") + ")", nil
}

func (c *Context) mergedReplacements(own map[string]any) map[string]any {
	if len(own) == 0 {
		return c.Replacements
	}
	out := make(map[string]any, len(c.Replacements)+len(own))
	for k, v := range c.Replacements {
		out[k] = v
	}
	for k, v := range own {
		out[k] = v
	}
	return out
}

// substitute replaces :name tokens with literals. Positional tokens are
// rejected; $n references to user binds pass through only for Raw.
func (c *Context) substitute(sql string, replacements map[string]any, raw bool) (string, error) {
	phs := sqltext.Scan(sql, bind.ScanOptions(c.Caps))
	named := phs[:0:0]
	for _, ph := range phs {
		switch ph.Kind {
		case sqltext.Question:
			return "", render.AmbiguousPositionalReplacementError{Placeholder: ph.Text(), Fragment: sql}
		case sqltext.DollarPositional:
			if !raw {
				return "", render.AmbiguousPositionalReplacementError{Placeholder: ph.Text(), Fragment: sql}
			}
		case sqltext.Named:
			named = append(named, ph)
		}
	}
	return sqltext.Replace(sql, named, func(ph sqltext.Placeholder) (string, error) {
		v, ok := replacements[ph.Name]
		if !ok {
			return "", render.MissingReplacementError{Name: ph.Name}
		}
		return encode.Literal(v, c.Caps)
	})
}
