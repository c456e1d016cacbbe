package stmtql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/serialize"
	"github.com/zoobzio/stmtql/internal/types"
	"github.com/zoobzio/stmtql/model"
)

// minifier hands out short column aliases and remembers the originals.
type minifier struct {
	next     int
	short    map[string]string
	original map[string]string
}

func newMinifier() *minifier {
	return &minifier{short: make(map[string]string), original: make(map[string]string)}
}

func (m *minifier) alias(name string) string {
	if s, ok := m.short[name]; ok {
		return s
	}
	s := "_" + strconv.Itoa(m.next)
	m.next++
	m.short[name] = s
	m.original[s] = name
	return s
}

// columnAlias returns the alias a selected column is exposed as. Only
// include columns are minified.
func (cp *compilation) columnAlias(prefix, name string) string {
	if cp.aliases == nil || prefix == "" {
		return prefix + name
	}
	return cp.aliases.alias(prefix + name)
}

// selection lists the attributes to select from m. Without a model only
// explicit items are returned, or * when there are none.
func selection(m *model.Model, opts *types.AttributeOptions) []any {
	var items []any
	switch {
	case opts != nil && opts.Only != nil:
		items = append(items, opts.Only...)
	case m != nil:
		for _, a := range m.Attributes() {
			items = append(items, a.Name)
		}
	default:
		items = []any{"*"}
	}
	if opts == nil {
		return items
	}
	items = append(items, opts.Include...)
	if len(opts.Exclude) == 0 {
		return items
	}
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		excluded[name] = true
	}
	kept := items[:0]
	for _, item := range items {
		if name, ok := item.(string); ok && excluded[name] {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// selectedNames returns the plain attribute names of a selection.
func selectedNames(items []any) map[string]bool {
	names := make(map[string]bool, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok {
			names[name] = true
		}
	}
	return names
}

// column renders one selected item of t. prefix is prepended to the alias
// of every named column, for include columns such as posts.title.
func (cp *compilation) column(ser *serialize.Context, t serialize.Table, item any, prefix string) (string, error) {
	switch v := item.(type) {
	case string:
		if v == "*" {
			return ser.Column(t.Alias, "*"), nil
		}
		field := v
		if t.Model != nil {
			if a, ok := t.Model.Attribute(v); ok {
				field = a.Field
			}
		}
		col := ser.Column(t.Alias, field)
		if prefix == "" && field == v {
			return col, nil
		}
		return col + " AS " + ser.Quote(cp.columnAlias(prefix, v)), nil
	case types.As:
		return cp.aliased(ser, t, v.Expr, v.Alias, prefix)
	case []any:
		if len(v) == 2 {
			if alias, ok := v[1].(string); ok {
				return cp.aliased(ser, t, v[0], alias, prefix)
			}
		}
		return "", fmt.Errorf("attribute tuples take an expression and an alias, got %d items", len(v))
	case types.Expression:
		return ser.WithTable(t).Expr(v)
	}
	return "", fmt.Errorf("unsupported attribute %T", item)
}

func (cp *compilation) aliased(ser *serialize.Context, t serialize.Table, expr any, alias, prefix string) (string, error) {
	if alias == "" {
		return "", fmt.Errorf("attribute alias must not be empty")
	}
	var (
		sql string
		err error
	)
	if name, ok := expr.(string); ok {
		sql, _ = ser.Attribute(t, name)
	} else {
		sql, err = ser.WithTable(t).Expr(expr)
	}
	if err != nil {
		return "", err
	}
	return sql + " AS " + ser.Quote(cp.columnAlias(prefix, alias)), nil
}

// columns renders a selection of t.
func (cp *compilation) columns(t serialize.Table, items []any, prefix string) ([]string, error) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		col, err := cp.column(cp.ser, t, item, prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

// pagination is the rendered limit of a SELECT: a TOP prefix, a trailing
// clause and an ORDER BY the trailing clause depends on.
type pagination struct {
	top   string
	tail  string
	order string
}

// paginate renders limit and offset. A zero offset is ignored.
// defaultOrder is used by dialects that need ORDER BY to skip rows.
func (cp *compilation) paginate(limit, offset *int, hasOrder bool, defaultOrder string) (pagination, error) {
	var p pagination
	if offset != nil && *offset == 0 {
		offset = nil
	}
	if limit == nil && offset == nil {
		return p, nil
	}
	if limit != nil && *limit < 0 {
		return p, fmt.Errorf("limit must not be negative, got %d", *limit)
	}
	if offset != nil && *offset < 0 {
		return p, fmt.Errorf("offset must not be negative, got %d", *offset)
	}

	caps := cp.c.caps
	switch caps.Limit {
	case render.LimitOffset:
		switch {
		case limit != nil && offset != nil:
			p.tail = fmt.Sprintf(" LIMIT %d OFFSET %d", *limit, *offset)
		case limit != nil:
			p.tail = fmt.Sprintf(" LIMIT %d", *limit)
		case caps.MaxLimit != "":
			p.tail = fmt.Sprintf(" LIMIT %s OFFSET %d", caps.MaxLimit, *offset)
		default:
			p.tail = fmt.Sprintf(" OFFSET %d", *offset)
		}
	case render.LimitTop:
		if offset == nil {
			p.top = fmt.Sprintf("TOP(%d) ", *limit)
			break
		}
		if !caps.OffsetSupported() {
			return p, render.NewUnsupportedOptionError(caps.Name(), "select", []string{"offset"},
				"OFFSET FETCH needs a newer server version")
		}
		if !hasOrder {
			p.order = " ORDER BY " + defaultOrder
		}
		p.tail = fmt.Sprintf(" OFFSET %d ROWS", *offset)
		if limit != nil {
			p.tail += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", *limit)
		}
	case render.LimitFetchNext:
		if offset != nil {
			p.tail = fmt.Sprintf(" OFFSET %d ROWS", *offset)
		}
		if limit != nil {
			p.tail += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", *limit)
		}
	default:
		return p, render.NewUnsupportedOptionError(caps.Name(), "select", []string{"limit"})
	}
	return p, nil
}

var orderDirections = map[string]bool{
	"ASC":              true,
	"DESC":             true,
	"ASC NULLS FIRST":  true,
	"ASC NULLS LAST":   true,
	"DESC NULLS FIRST": true,
	"DESC NULLS LAST":  true,
	"NULLS FIRST":      true,
	"NULLS LAST":       true,
}

func (cp *compilation) direction(dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	d := strings.ToUpper(strings.Join(strings.Fields(dir), " "))
	if !orderDirections[d] {
		return "", fmt.Errorf("invalid order direction %q", dir)
	}
	if strings.Contains(d, "NULLS") && !cp.c.caps.NullsOrdering {
		return "", render.NewUnsupportedOptionError(cp.c.caps.Name(), "select", []string{"order " + d})
	}
	return " " + d, nil
}

// orderBy renders an ORDER BY list against the main table and the include
// tree. byName addresses main attributes by name, as the outer query of a
// subquery select sees them.
func (cp *compilation) orderBy(items []types.OrderItem, main serialize.Table, nodes []*includeNode, byName bool) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		dir, err := cp.direction(item.Direction)
		if err != nil {
			return "", err
		}
		var sql string
		switch {
		case item.Expr != nil:
			sql, err = cp.ser.WithTable(main).Expr(item.Expr)
		case len(item.Path) > 0:
			n, ok := findPath(nodes, item.Path)
			if !ok {
				return "", render.InvalidAssociationReferenceError{
					Model:     cp.targetName(),
					Reference: strings.Join(item.Path, "."),
					Option:    "order",
				}
			}
			sql, _ = cp.ser.Attribute(serialize.Table{Alias: n.alias, Model: n.target()}, item.Attribute)
		case item.Attribute == "":
			return "", fmt.Errorf("order items need an attribute or an expression")
		case byName:
			sql = cp.ser.Column(main.Alias, item.Attribute)
		default:
			sql, _ = cp.ser.Attribute(main, item.Attribute)
		}
		if err != nil {
			return "", err
		}
		parts = append(parts, sql+dir)
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// groupBy renders a GROUP BY list. Strings name attributes of main.
func (cp *compilation) groupBy(items []any, main serialize.Table) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok {
			sql, _ := cp.ser.Attribute(main, name)
			parts = append(parts, sql)
			continue
		}
		sql, err := cp.ser.WithTable(main).Expr(item)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	return " GROUP BY " + strings.Join(parts, ", "), nil
}

func (cp *compilation) lock(mode types.LockMode) (string, error) {
	if mode == "" {
		return "", nil
	}
	caps := cp.c.caps
	switch mode {
	case types.LockUpdate, types.LockShare:
		if caps.RowLocking >= render.RowLockingBasic {
			return " FOR " + string(mode), nil
		}
	case types.LockNoKeyUpdate, types.LockKeyShare:
		if caps.RowLocking >= render.RowLockingFull {
			return " FOR " + string(mode), nil
		}
	default:
		return "", fmt.Errorf("invalid lock mode %q", string(mode))
	}
	return "", render.NewUnsupportedOptionError(caps.Name(), "select", []string{"lock " + string(mode)})
}

// limitOne renders a single-row limit as a TOP prefix or a trailing clause.
func (cp *compilation) limitOne() (top, tail string) {
	switch cp.c.caps.Limit {
	case render.LimitTop:
		return "TOP(1) ", ""
	case render.LimitFetchNext:
		return "", " FETCH NEXT 1 ROWS ONLY"
	}
	return "", " LIMIT 1"
}

// targetName names the compiled model or table in errors.
func (cp *compilation) targetName() string {
	if cp.model != nil {
		return cp.model.Name
	}
	return cp.table.Name
}
