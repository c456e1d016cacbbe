package stmtql

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/serialize"
)

// mutationLimit is the rendered limit of an UPDATE or DELETE.
type mutationLimit struct {
	top   string // TOP(n) after the verb
	where string // where clause, possibly rewritten through the primary key
	tail  string // ORDER BY and LIMIT after the where clause
}

// limitMutation applies the limit, offset and order of op to where.
func (cp *compilation) limitMutation(op, where string) (mutationLimit, error) {
	q := cp.q
	m := mutationLimit{where: where}
	if q.Limit == nil {
		if q.Offset != nil && *q.Offset != 0 {
			cp.opts.Add("offset")
		}
		return m, nil
	}
	if *q.Limit < 0 {
		return m, fmt.Errorf("limit must not be negative, got %d", *q.Limit)
	}
	hasOffset := q.Offset != nil && *q.Offset != 0
	main := serialize.Table{Model: cp.model}
	order, err := cp.orderBy(q.Order, main, nil, false)
	if err != nil {
		return m, err
	}

	caps := cp.c.caps
	switch caps.MutationLimit {
	case render.LimitOffset:
		if hasOffset {
			cp.opts.Add("offset")
		}
		m.tail = order + fmt.Sprintf(" LIMIT %d", *q.Limit)
		return m, nil
	case render.LimitTop:
		if !hasOffset && order == "" {
			m.top = fmt.Sprintf("TOP(%d) ", *q.Limit)
			return m, nil
		}
	case render.LimitRowIDSubquery:
	default:
		cp.opts.Add("limit")
		return m, nil
	}
	return cp.rowIDLimit(op, where, order)
}

// rowIDLimit rewrites a limited mutation to pk IN (SELECT pk ... LIMIT n).
func (cp *compilation) rowIDLimit(op, where, order string) (mutationLimit, error) {
	caps := cp.c.caps
	if cp.model == nil {
		return mutationLimit{}, render.LimitRequiresModelError{Operation: op, Dialect: caps.Name()}
	}
	pk, ok := cp.model.PrimaryKey()
	if !ok {
		return mutationLimit{}, render.NewUnsupportedOptionError(caps.Name(), op, []string{"limit"},
			"limited mutations need a single-column primary key")
	}
	col := cp.ser.Quote(pk.Field)
	pag, err := cp.paginate(cp.q.Limit, cp.q.Offset, order != "", col)
	if err != nil {
		return mutationLimit{}, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + pag.top + col + " FROM " + cp.quoteTarget(""))
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}
	sb.WriteString(order)
	sb.WriteString(pag.order)
	sb.WriteString(pag.tail)
	return mutationLimit{where: col + " IN (" + sb.String() + ")"}, nil
}

// updateQuery compiles an UPDATE.
func (cp *compilation) updateQuery() (string, error) {
	q := cp.q
	names, err := cp.valueColumns(q.Values)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("update needs at least one value")
	}
	sets := make([]string, len(names))
	for i, name := range names {
		v, err := cp.ser.Value(q.Values[name], cp.attributeType(name))
		if err != nil {
			return "", fmt.Errorf("value of %q: %w", name, err)
		}
		sets[i] = cp.ser.Quote(cp.field(name)) + "=" + v
	}
	where, err := cp.ser.Predicate("where", q.Where)
	if err != nil {
		return "", err
	}
	lim, err := cp.limitMutation("update", where)
	if err != nil {
		return "", err
	}
	ret, err := cp.returning("update")
	if err != nil {
		return "", err
	}
	if err := cp.opts.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("UPDATE " + lim.top + cp.quoteTarget(""))
	sb.WriteString(" SET " + strings.Join(sets, ","))
	sb.WriteString(ret.output)
	if lim.where != "" {
		sb.WriteString(" WHERE " + lim.where)
	}
	sb.WriteString(lim.tail)
	sb.WriteString(ret.suffix)
	return ret.wrap(sb.String()), nil
}

// deleteQuery compiles a DELETE, or a TRUNCATE when requested.
func (cp *compilation) deleteQuery() (string, error) {
	q := cp.q
	if q.Truncate {
		return cp.truncate()
	}
	where, err := cp.ser.Predicate("where", q.Where)
	if err != nil {
		return "", err
	}
	lim, err := cp.limitMutation("delete", where)
	if err != nil {
		return "", err
	}
	ret, err := cp.returning("delete")
	if err != nil {
		return "", err
	}
	if err := cp.opts.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("DELETE " + lim.top + "FROM " + cp.quoteTarget(""))
	sb.WriteString(ret.output)
	if lim.where != "" {
		sb.WriteString(" WHERE " + lim.where)
	}
	sb.WriteString(lim.tail)
	sb.WriteString(ret.suffix)
	return ret.wrap(sb.String()), nil
}

// truncate empties the table. Dialects without TRUNCATE delete every row.
func (cp *compilation) truncate() (string, error) {
	q := cp.q
	caps := cp.c.caps
	if q.Returning != nil {
		cp.opts.Add("returning")
	}
	if !caps.TruncateCascade {
		if q.Cascade {
			cp.opts.Add("cascade")
		}
		if q.RestartIdentity {
			cp.opts.Add("restartIdentity")
		}
	}
	if err := cp.opts.Err(); err != nil {
		return "", err
	}
	if !caps.Truncate {
		return "DELETE FROM " + cp.quoteTarget(""), nil
	}
	if !caps.TruncateCascade {
		return "TRUNCATE TABLE " + cp.quoteTarget(""), nil
	}
	stmt := "TRUNCATE " + cp.quoteTarget("")
	if q.RestartIdentity {
		stmt += " RESTART IDENTITY"
	}
	if q.Cascade {
		stmt += " CASCADE"
	}
	return stmt, nil
}
