package stmtql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
)

func unknownAttribute(modelName, name string) error {
	return fmt.Errorf("model %q has no attribute %q", modelName, name)
}

// valueColumns orders the attribute names present in any of rows: model
// declaration order, or sorted for a bare table.
func (cp *compilation) valueColumns(rows ...map[string]any) ([]string, error) {
	present := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			present[k] = true
		}
	}
	if cp.model == nil {
		names := make([]string, 0, len(present))
		for k := range present {
			names = append(names, k)
		}
		sort.Strings(names)
		return names, nil
	}
	for k := range present {
		if _, ok := cp.model.Attribute(k); !ok {
			return nil, unknownAttribute(cp.model.Name, k)
		}
	}
	names := make([]string, 0, len(present))
	for _, a := range cp.model.Attributes() {
		if present[a.Name] {
			names = append(names, a.Name)
		}
	}
	return names, nil
}

func (cp *compilation) quotedFields(names []string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = cp.ser.Quote(cp.field(name))
	}
	return out
}

// row renders one VALUES tuple. Missing columns get DEFAULT, or NULL where
// the dialect does not allow DEFAULT in a multi-row insert.
func (cp *compilation) row(names []string, values map[string]any) (string, error) {
	missing := "NULL"
	if cp.c.caps.BulkDefault {
		missing = "DEFAULT"
	}
	parts := make([]string, len(names))
	for i, name := range names {
		v, ok := values[name]
		if !ok {
			parts[i] = missing
			continue
		}
		sql, err := cp.ser.Value(v, cp.attributeType(name))
		if err != nil {
			return "", fmt.Errorf("value of %q: %w", name, err)
		}
		parts[i] = sql
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}

// ignoreDuplicates returns the INSERT verb and suffix skipping duplicates.
func (cp *compilation) ignoreDuplicates() (verb, suffix string) {
	verb = "INSERT INTO "
	if !cp.q.IgnoreDuplicates {
		return verb, ""
	}
	switch cp.c.caps.Ignore {
	case render.IgnoreInsertIgnore:
		return "INSERT IGNORE INTO ", ""
	case render.IgnoreInsertOrIgnore:
		return "INSERT OR IGNORE INTO ", ""
	case render.IgnoreOnConflictDoNothing:
		return verb, " ON CONFLICT DO NOTHING"
	}
	cp.opts.Add("ignoreDuplicates")
	return verb, ""
}

// insertQuery compiles a single-row INSERT.
func (cp *compilation) insertQuery() (string, error) {
	names, err := cp.valueColumns(cp.q.Values)
	if err != nil {
		return "", err
	}
	verb, ignore := cp.ignoreDuplicates()
	ret, err := cp.returning("insert")
	if err != nil {
		return "", err
	}
	if err := cp.opts.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(verb)
	sb.WriteString(cp.quoteTarget(""))
	if len(names) == 0 {
		sb.WriteString(ret.output)
		sb.WriteString(" " + cp.c.caps.EmptyInsert)
	} else {
		values, err := cp.row(names, cp.q.Values)
		if err != nil {
			return "", err
		}
		sb.WriteString(" (" + strings.Join(cp.quotedFields(names), ",") + ")")
		sb.WriteString(ret.output)
		sb.WriteString(" VALUES " + values)
	}
	sb.WriteString(ignore)
	sb.WriteString(ret.suffix)
	return ret.wrap(sb.String()), nil
}

// bulkInsertQuery compiles a multi-row INSERT over the union of row keys.
func (cp *compilation) bulkInsertQuery() (string, error) {
	q := cp.q
	if len(q.Rows) == 0 {
		return "", fmt.Errorf("bulk insert needs at least one row")
	}
	if q.IgnoreDuplicates && len(q.UpdateOnDuplicate) > 0 {
		return "", fmt.Errorf("ignoreDuplicates and updateOnDuplicate cannot be combined")
	}
	names, err := cp.valueColumns(q.Rows...)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("bulk insert rows have no values")
	}
	verb, ignore := cp.ignoreDuplicates()

	var onDuplicate string
	if len(q.UpdateOnDuplicate) > 0 {
		if !cp.c.caps.UpdateOnDuplicate {
			cp.opts.Add("updateOnDuplicate")
		} else {
			conflict, err := cp.conflictFields()
			if err != nil {
				return "", err
			}
			if onDuplicate, err = cp.upsertClause(conflict, q.UpdateOnDuplicate); err != nil {
				return "", err
			}
		}
	}
	ret, err := cp.returning("insert")
	if err != nil {
		return "", err
	}
	if err := cp.opts.Err(); err != nil {
		return "", err
	}

	tuples := make([]string, len(q.Rows))
	for i, r := range q.Rows {
		if tuples[i], err = cp.row(names, r); err != nil {
			return "", fmt.Errorf("row %d: %w", i, err)
		}
	}

	var sb strings.Builder
	sb.WriteString(verb)
	sb.WriteString(cp.quoteTarget(""))
	sb.WriteString(" (" + strings.Join(cp.quotedFields(names), ",") + ")")
	sb.WriteString(ret.output)
	sb.WriteString(" VALUES " + strings.Join(tuples, ","))
	sb.WriteString(ignore)
	sb.WriteString(onDuplicate)
	sb.WriteString(ret.suffix)
	return ret.wrap(sb.String()), nil
}

// conflictFields returns the explicit conflict target or the primary key.
func (cp *compilation) conflictFields() ([]string, error) {
	if len(cp.q.ConflictFields) > 0 {
		return cp.q.ConflictFields, nil
	}
	if cp.model == nil {
		return nil, fmt.Errorf("conflict fields are required for table %q", cp.table.Name)
	}
	pks := cp.model.PrimaryKeys()
	names := make([]string, len(pks))
	for i, pk := range pks {
		names[i] = pk.Name
	}
	return names, nil
}

// upsertClause renders the ON CONFLICT or ON DUPLICATE KEY tail updating
// the given attributes. An empty update list does nothing on conflict.
func (cp *compilation) upsertClause(conflict, update []string) (string, error) {
	switch cp.c.caps.Upsert {
	case render.UpsertOnConflict:
		var sb strings.Builder
		sb.WriteString(" ON CONFLICT (" + strings.Join(cp.quotedFields(conflict), ",") + ")")
		where, err := cp.ser.Predicate("where", cp.q.ConflictWhere)
		if err != nil {
			return "", err
		}
		if where != "" {
			sb.WriteString(" WHERE " + where)
		}
		if len(update) == 0 {
			sb.WriteString(" DO NOTHING")
			return sb.String(), nil
		}
		sets := make([]string, len(update))
		for i, col := range cp.quotedFields(update) {
			sets[i] = col + "=EXCLUDED." + col
		}
		sb.WriteString(" DO UPDATE SET " + strings.Join(sets, ","))
		return sb.String(), nil
	case render.UpsertOnDuplicateKey:
		if cp.q.ConflictWhere != nil {
			cp.opts.Add("conflictWhere")
		}
		if len(update) == 0 {
			update = conflict[:1]
		}
		sets := make([]string, len(update))
		for i, col := range cp.quotedFields(update) {
			sets[i] = col + "=VALUES(" + col + ")"
		}
		return " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ","), nil
	}
	cp.opts.Add("updateOnDuplicate")
	return "", nil
}

// upsertQuery compiles an insert that updates the conflicting row instead.
func (cp *compilation) upsertQuery() (string, error) {
	q := cp.q
	names, err := cp.valueColumns(q.Values)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("upsert needs at least one value")
	}
	conflict, err := cp.conflictFields()
	if err != nil {
		return "", err
	}
	if len(conflict) == 0 {
		return "", fmt.Errorf("upsert needs conflict fields or a primary key")
	}
	update := q.UpdateOnDuplicate
	if update == nil {
		skip := make(map[string]bool, len(conflict))
		for _, c := range conflict {
			skip[c] = true
		}
		for _, name := range names {
			if !skip[name] {
				update = append(update, name)
			}
		}
	}

	caps := cp.c.caps
	switch caps.Upsert {
	case render.UpsertOnConflict, render.UpsertOnDuplicateKey:
		values, err := cp.row(names, q.Values)
		if err != nil {
			return "", err
		}
		tail, err := cp.upsertClause(conflict, update)
		if err != nil {
			return "", err
		}
		ret, err := cp.returning("insert")
		if err != nil {
			return "", err
		}
		if err := cp.opts.Err(); err != nil {
			return "", err
		}
		stmt := "INSERT INTO " + cp.quoteTarget("") + " (" + strings.Join(cp.quotedFields(names), ",") + ")" +
			ret.output + " VALUES " + values + tail + ret.suffix
		return ret.wrap(stmt), nil
	case render.UpsertMerge:
		return cp.merge(names, conflict, update)
	}
	return "", render.NewUnsupportedOptionError(caps.Name(), "upsert", []string{"upsert"})
}

// merge compiles an upsert as a MERGE of a one-row VALUES source.
func (cp *compilation) merge(names, conflict, update []string) (string, error) {
	caps := cp.c.caps
	if cp.q.ConflictWhere != nil {
		cp.opts.Add("conflictWhere")
	}
	var ret returnClause
	if caps.Returning == render.ReturningOutput {
		var err error
		if ret, err = cp.returning("insert"); err != nil {
			return "", err
		}
	} else if cp.q.Returning != nil {
		cp.opts.Add("returning")
	}
	if err := cp.opts.Err(); err != nil {
		return "", err
	}
	values, err := cp.row(names, cp.q.Values)
	if err != nil {
		return "", err
	}

	target := cp.ser.Quote(cp.table.Name + "_target")
	source := cp.ser.Quote(cp.table.Name + "_source")
	cols := cp.quotedFields(names)
	col := func(table string, name string) string {
		return table + "." + cp.ser.Quote(cp.field(name))
	}

	var sb strings.Builder
	sb.WriteString("MERGE INTO " + cp.quoteTarget(""))
	if caps.MergeHoldLock {
		sb.WriteString(" WITH(HOLDLOCK)")
	}
	sb.WriteString(" AS " + target)
	sb.WriteString(" USING (VALUES" + values + ") AS " + source + "(" + strings.Join(cols, ",") + ")")

	on := make([]string, len(conflict))
	for i, name := range conflict {
		on[i] = col(target, name) + " = " + col(source, name)
	}
	sb.WriteString(" ON " + strings.Join(on, " AND "))

	if len(update) > 0 {
		sets := make([]string, len(update))
		for i, name := range update {
			sets[i] = col(target, name) + " = " + col(source, name)
		}
		sb.WriteString(" WHEN MATCHED THEN UPDATE SET " + strings.Join(sets, ", "))
	}

	inserted := make([]string, len(names))
	for i, name := range names {
		inserted[i] = col(source, name)
	}
	sb.WriteString(" WHEN NOT MATCHED THEN INSERT (" + strings.Join(cols, ",") + ") VALUES(" + strings.Join(inserted, ",") + ")")
	sb.WriteString(ret.output)
	return ret.wrap(sb.String()), nil
}
