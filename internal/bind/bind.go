// Package bind allocates generated bind parameters for one compile call and
// maps compiled statements to the placeholder syntax of each driver.
package bind

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/sqltext"
	"github.com/zoobzio/stmtql/internal/types"
)

// Context collects generated bind values for exactly one compile call. It is
// not safe for concurrent use; each compile owns its own.
type Context struct {
	values map[string]any
	next   int
}

// NewContext creates an empty bind context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Reserve registers a value and returns its placeholder token.
func (c *Context) Reserve(v any) string {
	c.next++
	name := types.BindPrefix + strconv.Itoa(c.next)
	c.values[name] = v
	return "$" + name
}

// Len returns the number of reserved values.
func (c *Context) Len() int {
	return len(c.values)
}

// Finalize renumbers generated placeholders in order of first appearance in
// query, dropping reservations that never made it into the text.
func (c *Context) Finalize(query string, opts sqltext.Options) (string, map[string]any, error) {
	phs := generated(sqltext.Scan(query, opts))
	out := make(map[string]any, len(c.values))
	renamed := make(map[string]string, len(c.values))
	n := 0

	rewritten, err := sqltext.Replace(query, phs, func(ph sqltext.Placeholder) (string, error) {
		if name, ok := renamed[ph.Name]; ok {
			return "$" + name, nil
		}
		v, ok := c.values[ph.Name]
		if !ok {
			return "", fmt.Errorf("bind parameter %q was not reserved", ph.Name)
		}
		n++
		name := types.BindPrefix + strconv.Itoa(n)
		renamed[ph.Name] = name
		out[name] = v
		return "$" + name, nil
	})
	if err != nil {
		return "", nil, err
	}
	return rewritten, out, nil
}

func generated(phs []sqltext.Placeholder) []sqltext.Placeholder {
	out := phs[:0:0]
	for _, ph := range phs {
		if ph.Kind == sqltext.DollarNamed && strings.HasPrefix(ph.Name, types.BindPrefix) {
			out = append(out, ph)
		}
	}
	return out
}

// MergeUserBind combines generated binds with user-supplied ones. User binds
// are either a slice (referenced as $1, $2, ...) or a map keyed by name.
func MergeUserBind(generated map[string]any, user any) (map[string]any, error) {
	out := make(map[string]any, len(generated))
	for k, v := range generated {
		out[k] = v
	}
	if user == nil {
		return out, nil
	}

	var reserved []string
	switch u := user.(type) {
	case map[string]any:
		for k, v := range u {
			if strings.HasPrefix(k, types.BindPrefix) {
				reserved = append(reserved, k)
				continue
			}
			out[k] = v
		}
	default:
		items, ok := types.AsSlice(user)
		if !ok {
			return nil, fmt.Errorf("bind must be a slice or a map[string]any, got %T", user)
		}
		for i, v := range items {
			out[strconv.Itoa(i+1)] = v
		}
	}

	if len(reserved) > 0 {
		sort.Strings(reserved)
		return nil, render.ReservedBindNameError{Names: reserved}
	}
	return out, nil
}

// ScanOptions returns the lexer options for a dialect's compiled text.
func ScanOptions(caps render.Capabilities) sqltext.Options {
	return sqltext.Options{
		BackslashEscapes:   caps.BackslashEscapes,
		BracketIdentifiers: caps.QuoteOpen == '[',
	}
}

// Materialize rewrites canonical $name tokens into the dialect's bind style
// and returns the driver arguments in placeholder order.
func Materialize(query string, values map[string]any, caps render.Capabilities) (string, []any, error) {
	phs := sqltext.Scan(query, ScanOptions(caps))
	refs := phs[:0:0]
	for _, ph := range phs {
		if ph.Kind == sqltext.DollarNamed || ph.Kind == sqltext.DollarPositional {
			refs = append(refs, ph)
		}
	}
	if len(refs) == 0 {
		return query, nil, nil
	}
	if caps.Bind == render.BindNone {
		return "", nil, fmt.Errorf("%s does not support bind parameters", caps.Name())
	}

	lookup := func(name string) (any, error) {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("bind parameter $%s has no value", name)
		}
		return v, nil
	}

	var args []any
	position := make(map[string]int)

	rewritten, err := sqltext.Replace(query, refs, func(ph sqltext.Placeholder) (string, error) {
		v, err := lookup(ph.Name)
		if err != nil {
			return "", err
		}
		switch caps.Bind {
		case render.BindDollarPositional:
			if idx, ok := position[ph.Name]; ok {
				return "$" + strconv.Itoa(idx), nil
			}
			args = append(args, v)
			position[ph.Name] = len(args)
			return "$" + strconv.Itoa(len(args)), nil
		case render.BindQuestionMark:
			args = append(args, v)
			return "?", nil
		case render.BindDollarNamed, render.BindAtNamed:
			name := namedArg(ph.Name)
			if _, ok := position[name]; !ok {
				args = append(args, sql.Named(name, v))
				position[name] = len(args)
			}
			if caps.Bind == render.BindAtNamed {
				return "@" + name, nil
			}
			return "$" + name, nil
		}
		return "", fmt.Errorf("unsupported bind style %s", caps.Bind)
	})
	if err != nil {
		return "", nil, err
	}
	return rewritten, args, nil
}

// namedArg gives positional user binds a valid parameter name.
func namedArg(name string) string {
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		return "p" + name
	}
	return name
}
