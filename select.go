package stmtql

import (
	"strings"

	"github.com/zoobzio/stmtql/internal/serialize"
	"github.com/zoobzio/stmtql/model"
)

// selectQuery compiles a SELECT. Includes become joins; when a limit would
// cut multiplied rows the main table is paginated in a derived table and
// the joins are applied outside it.
func (cp *compilation) selectQuery() (string, error) {
	q := cp.q
	main := serialize.Table{Alias: cp.table.As, Model: cp.model}
	if cp.model != nil {
		main.Alias = cp.model.Name
	}
	cp.ser.Table = main

	var nodes []*includeNode
	if len(q.Include) > 0 {
		var err error
		if nodes, err = resolveIncludes(cp.model, nil, q.Include); err != nil {
			return "", err
		}
		cp.ser.Paths = includePaths(nodes)
	}

	subQuery := false
	if len(nodes) > 0 {
		if q.SubQuery != nil {
			subQuery = *q.SubQuery
		} else {
			subQuery = q.Limit != nil && hasMultiple(nodes)
		}
	}
	if subQuery {
		return cp.subQuerySelect(main, nodes)
	}

	selected := main
	if len(nodes) == 0 {
		selected.Alias = ""
	}
	cols, err := cp.columns(selected, selection(cp.model, q.Attributes), "")
	if err != nil {
		return "", err
	}
	incCols, err := cp.includeColumns(nodes)
	if err != nil {
		return "", err
	}
	joins, err := cp.joins(nodes, main, false)
	if err != nil {
		return "", err
	}
	where, err := cp.ser.Predicate("where", q.Where)
	if err != nil {
		return "", err
	}
	tail, err := cp.selectTail(main, nodes, false, where, true)
	if err != nil {
		return "", err
	}
	pag, err := cp.paginate(q.Limit, q.Offset, len(q.Order) > 0, cp.defaultOrder(main))
	if err != nil {
		return "", err
	}
	lock, err := cp.lock(q.Lock)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(pag.top)
	sb.WriteString(strings.Join(append(cols, incCols...), ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(cp.quoteTarget(main.Alias))
	sb.WriteString(joins)
	sb.WriteString(tail)
	sb.WriteString(pag.order)
	sb.WriteString(pag.tail)
	sb.WriteString(lock)
	return sb.String(), nil
}

// selectTail renders WHERE, GROUP BY, HAVING and ORDER BY. Order items
// addressing includes are skipped unless withPaths is set.
func (cp *compilation) selectTail(main serialize.Table, nodes []*includeNode, byName bool, where string, withPaths bool) (string, error) {
	q := cp.q
	var sb strings.Builder
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	group, err := cp.groupBy(q.Group, main)
	if err != nil {
		return "", err
	}
	sb.WriteString(group)
	having, err := cp.ser.Predicate("having", q.Having)
	if err != nil {
		return "", err
	}
	if having != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(having)
	}
	items := q.Order
	if !withPaths {
		items = items[:0:0]
		for _, item := range q.Order {
			if len(item.Path) == 0 {
				items = append(items, item)
			}
		}
	}
	order, err := cp.orderBy(items, main, nodes, byName)
	if err != nil {
		return "", err
	}
	sb.WriteString(order)
	return sb.String(), nil
}

// subQuerySelect paginates the main table in a derived table. Required
// includes filter the inner rows through correlated subqueries.
func (cp *compilation) subQuerySelect(main serialize.Table, nodes []*includeNode) (string, error) {
	q := cp.q
	items := selection(cp.model, q.Attributes)
	names := selectedNames(items)
	for _, n := range nodes {
		key := n.assoc.SourceKey
		if n.assoc.Kind == model.BelongsTo {
			key = n.assoc.ForeignKey
		}
		if !names[key] && !names["*"] {
			names[key] = true
			items = append(items, key)
		}
	}
	cols, err := cp.columns(main, items, "")
	if err != nil {
		return "", err
	}

	var conds []string
	where, or, err := cp.ser.Clause("where", q.Where)
	if err != nil {
		return "", err
	}
	if where != "" {
		conds = append(conds, where)
	}
	for _, n := range nodes {
		if !n.required {
			continue
		}
		filter, err := cp.requiredFilter(main, n)
		if err != nil {
			return "", err
		}
		conds = append(conds, filter)
	}
	if or && len(conds) > 1 {
		conds[0] = "(" + conds[0] + ")"
	}
	innerTail, err := cp.selectTail(main, nodes, false, strings.Join(conds, " AND "), false)
	if err != nil {
		return "", err
	}
	hasOrder := false
	for _, item := range q.Order {
		hasOrder = hasOrder || len(item.Path) == 0
	}
	pag, err := cp.paginate(q.Limit, q.Offset, hasOrder, cp.defaultOrder(main))
	if err != nil {
		return "", err
	}

	var inner strings.Builder
	inner.WriteString("SELECT ")
	if q.Distinct {
		inner.WriteString("DISTINCT ")
	}
	inner.WriteString(pag.top)
	inner.WriteString(strings.Join(cols, ", "))
	inner.WriteString(" FROM ")
	inner.WriteString(cp.quoteTarget(main.Alias))
	inner.WriteString(innerTail)
	inner.WriteString(pag.order)
	inner.WriteString(pag.tail)

	incCols, err := cp.includeColumns(nodes)
	if err != nil {
		return "", err
	}
	joins, err := cp.joins(nodes, main, true)
	if err != nil {
		return "", err
	}
	outerOrder, err := cp.orderBy(q.Order, main, nodes, true)
	if err != nil {
		return "", err
	}
	lock, err := cp.lock(q.Lock)
	if err != nil {
		return "", err
	}

	outerCols := append([]string{cp.ser.Column(main.Alias, "*")}, incCols...)
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(outerCols, ", "))
	sb.WriteString(" FROM (")
	sb.WriteString(inner.String())
	sb.WriteString(") AS ")
	sb.WriteString(cp.ser.Quote(main.Alias))
	sb.WriteString(joins)
	sb.WriteString(outerOrder)
	sb.WriteString(lock)
	return sb.String(), nil
}

// requiredFilter renders a correlated subquery that is non-null when the
// parent row has at least one matching included row.
func (cp *compilation) requiredFilter(main serialize.Table, n *includeNode) (string, error) {
	a := n.assoc
	target := serialize.Table{Alias: n.alias, Model: n.target()}
	from := cp.ser.QuoteTable(a.Target.Table()) + " AS " + cp.ser.Quote(n.alias)

	var sel, cond string
	switch a.Kind {
	case model.BelongsTo:
		sel, _ = cp.ser.Attribute(target, a.TargetKey)
		fk, _ := cp.ser.Attribute(main, a.ForeignKey)
		cond = sel + " = " + fk
	case model.HasOne, model.HasMany:
		sel, _ = cp.ser.Attribute(target, a.ForeignKey)
		pk, _ := cp.ser.Attribute(main, a.SourceKey)
		cond = sel + " = " + pk
	case model.BelongsToMany:
		through := serialize.Table{Alias: n.throughAlias, Model: a.Through}
		sel, _ = cp.ser.Attribute(through, a.ForeignKey)
		pk, _ := cp.ser.Attribute(main, a.SourceKey)
		other, _ := cp.ser.Attribute(through, a.OtherKey)
		tk, _ := cp.ser.Attribute(target, a.TargetKey)
		from = cp.ser.QuoteTable(a.Through.Table()) + " AS " + cp.ser.Quote(n.throughAlias) +
			" INNER JOIN " + from + " ON " + tk + " = " + other
		cond = sel + " = " + pk
		var err error
		if cond, err = cp.extend(cond, through, n.throughWhere); err != nil {
			return "", err
		}
	}
	cond, err := cp.extend(cond, target, n.where)
	if err != nil {
		return "", err
	}
	top, tail := cp.limitOne()
	return "( SELECT " + top + sel + " FROM " + from + " WHERE (" + cond + ")" + tail + " ) IS NOT NULL", nil
}

// includeColumns renders the columns of every include, depth first, with
// junction columns after their target's.
func (cp *compilation) includeColumns(nodes []*includeNode) ([]string, error) {
	var out []string
	for _, n := range nodes {
		cols, err := cp.columns(serialize.Table{Alias: n.alias, Model: n.target()}, selection(n.target(), n.attrs), n.path+".")
		if err != nil {
			return nil, err
		}
		out = append(out, cols...)
		if n.throughAlias != "" {
			through := serialize.Table{Alias: n.throughAlias, Model: n.assoc.Through}
			cols, err := cp.columns(through, selection(n.assoc.Through, n.throughAttrs), n.throughPath+".")
			if err != nil {
				return nil, err
			}
			out = append(out, cols...)
		}
		children, err := cp.includeColumns(n.children)
		if err != nil {
			return nil, err
		}
		out = append(out, children...)
	}
	return out, nil
}

// joins renders the join of every include, each followed by its children.
// byName addresses parent attributes by name, for joins against a derived
// table.
func (cp *compilation) joins(nodes []*includeNode, parent serialize.Table, byName bool) (string, error) {
	parentColumn := func(name string) string {
		if byName {
			return cp.ser.Column(parent.Alias, name)
		}
		sql, _ := cp.ser.Attribute(parent, name)
		return sql
	}

	var sb strings.Builder
	for _, n := range nodes {
		a := n.assoc
		keyword := " LEFT OUTER JOIN "
		if n.required {
			keyword = " INNER JOIN "
		}
		target := serialize.Table{Alias: n.alias, Model: n.target()}

		var on string
		switch a.Kind {
		case model.BelongsTo:
			tk, _ := cp.ser.Attribute(target, a.TargetKey)
			on = parentColumn(a.ForeignKey) + " = " + tk
		case model.HasOne, model.HasMany:
			fk, _ := cp.ser.Attribute(target, a.ForeignKey)
			on = parentColumn(a.SourceKey) + " = " + fk
		case model.BelongsToMany:
			through := serialize.Table{Alias: n.throughAlias, Model: a.Through}
			fk, _ := cp.ser.Attribute(through, a.ForeignKey)
			junction, err := cp.extend(parentColumn(a.SourceKey)+" = "+fk, through, n.throughWhere)
			if err != nil {
				return "", err
			}
			sb.WriteString(keyword)
			sb.WriteString(cp.ser.QuoteTable(a.Through.Table()) + " AS " + cp.ser.Quote(n.throughAlias))
			sb.WriteString(" ON " + junction)
			tk, _ := cp.ser.Attribute(target, a.TargetKey)
			other, _ := cp.ser.Attribute(through, a.OtherKey)
			on = tk + " = " + other
		}
		on, err := cp.extend(on, target, n.where)
		if err != nil {
			return "", err
		}
		sb.WriteString(keyword)
		sb.WriteString(cp.ser.QuoteTable(a.Target.Table()) + " AS " + cp.ser.Quote(n.alias))
		sb.WriteString(" ON " + on)

		children, err := cp.joins(n.children, target, false)
		if err != nil {
			return "", err
		}
		sb.WriteString(children)
	}
	return sb.String(), nil
}

// extend ANDs a predicate over t onto a join condition.
func (cp *compilation) extend(cond string, t serialize.Table, pred any) (string, error) {
	extra, err := cp.ser.WithTable(t).Conjunct("where", pred)
	if err != nil || extra == "" {
		return cond, err
	}
	return cond + " AND " + extra, nil
}

// defaultOrder is the ORDER BY used when a dialect needs one to paginate.
func (cp *compilation) defaultOrder(main serialize.Table) string {
	if cp.model != nil {
		if pk, ok := cp.model.PrimaryKey(); ok {
			sql, _ := cp.ser.Attribute(main, pk.Name)
			return sql
		}
	}
	return "(SELECT NULL)"
}
