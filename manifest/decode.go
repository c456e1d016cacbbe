package manifest

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql"
	"github.com/zoobzio/stmtql/model"
)

// Registry defines every model of f, then wires associations and scopes
// once all targets exist.
func (f *File) Registry() (*model.Registry, error) {
	reg := model.NewRegistry()
	for _, m := range f.Models {
		attrs := make([]model.Attribute, len(m.Attributes))
		for i, a := range m.Attributes {
			attrs[i] = model.Attribute{
				Name:          a.Name,
				Field:         a.Field,
				Type:          model.ParseDataType(a.Type),
				PrimaryKey:    a.PrimaryKey,
				AutoIncrement: a.AutoIncrement,
				AllowNull:     a.AllowNull,
			}
		}
		var opts []model.Option
		if m.Table != "" {
			opts = append(opts, model.WithTableName(m.Table))
		}
		if m.Schema != "" {
			opts = append(opts, model.WithSchema(m.Schema))
		}
		if m.Triggers {
			opts = append(opts, model.WithTriggers())
		}
		if _, err := reg.Define(m.Name, attrs, opts...); err != nil {
			return nil, fmt.Errorf("model %s: %w", m.Name, err)
		}
	}

	for _, m := range f.Models {
		source := reg.MustModel(m.Name)
		for _, a := range m.Associations {
			if err := associate(reg, source, a); err != nil {
				return nil, fmt.Errorf("model %s: %w", m.Name, err)
			}
		}
		if m.DefaultScope != nil {
			opts, err := m.DefaultScope.findOptions()
			if err != nil {
				return nil, fmt.Errorf("model %s default scope: %w", m.Name, err)
			}
			source.SetDefaultScope(opts)
		}
		for name, s := range m.Scopes {
			if s == nil {
				s = &Options{}
			}
			opts, err := s.findOptions()
			if err != nil {
				return nil, fmt.Errorf("model %s scope %s: %w", m.Name, name, err)
			}
			if err := source.AddScope(name, model.Scope{Options: opts}, false); err != nil {
				return nil, fmt.Errorf("model %s: %w", m.Name, err)
			}
		}
	}
	return reg, nil
}

func associate(reg *model.Registry, source *model.Model, a Association) error {
	kind, err := model.ParseKind(a.Kind)
	if err != nil {
		return err
	}
	target, ok := reg.Model(a.Target)
	if !ok {
		return fmt.Errorf("association target %q is not defined", a.Target)
	}
	opts := model.AssociationOptions{
		As:         a.As,
		ForeignKey: a.ForeignKey,
		SourceKey:  a.SourceKey,
		TargetKey:  a.TargetKey,
		OtherKey:   a.OtherKey,
	}
	switch kind {
	case model.BelongsTo:
		_, err = source.BelongsTo(target, opts)
	case model.HasOne:
		_, err = source.HasOne(target, opts)
	case model.HasMany:
		_, err = source.HasMany(target, opts)
	case model.BelongsToMany:
		through, ok := reg.Model(a.Through)
		if !ok {
			return fmt.Errorf("junction model %q is not defined", a.Through)
		}
		_, err = source.BelongsToMany(target, through, opts)
	}
	return err
}

// Descriptor converts q into a statement kind and query descriptor.
func (q Query) Descriptor() (stmtql.StatementKind, stmtql.QueryDescriptor, error) {
	var desc stmtql.QueryDescriptor
	kind, err := stmtql.ParseStatementKind(q.Kind)
	if err != nil {
		return 0, desc, err
	}

	desc.Model = q.Model
	if q.Model == "" && q.Table != "" {
		desc.Table = parseTable(q.Table)
	}
	for _, name := range q.Scopes {
		desc.Scopes = append(desc.Scopes, stmtql.Scope(name))
	}
	desc.Unscoped = q.Unscoped

	if desc.FindOptions, err = q.Options.findOptions(); err != nil {
		return 0, desc, err
	}
	desc.Values = q.Values
	desc.Rows = q.Rows
	if desc.Returning, err = decodeReturning(q.Returning); err != nil {
		return 0, desc, err
	}
	desc.IgnoreDuplicates = q.IgnoreDuplicates
	desc.UpdateOnDuplicate = q.UpdateOnDuplicate
	desc.ConflictFields = q.ConflictFields
	if q.ConflictWhere != nil {
		if desc.ConflictWhere, err = decodeWhere(q.ConflictWhere); err != nil {
			return 0, desc, fmt.Errorf("conflictWhere: %w", err)
		}
	}
	desc.Truncate = q.Truncate
	desc.Cascade = q.Cascade
	desc.RestartIdentity = q.RestartIdentity
	desc.Replacements = q.Replacements
	desc.Bind = q.Bind
	if q.Style != "" {
		if desc.ParameterStyle, err = stmtql.ParseParameterStyle(q.Style); err != nil {
			return 0, desc, err
		}
	}
	return kind, desc, nil
}

// parseTable splits "schema.table".
func parseTable(name string) *stmtql.TableRef {
	if schema, table, ok := strings.Cut(name, "."); ok {
		return &stmtql.TableRef{Schema: schema, Name: table}
	}
	return &stmtql.TableRef{Name: name}
}

func (o *Options) findOptions() (stmtql.FindOptions, error) {
	var fo stmtql.FindOptions
	var err error

	if len(o.Attributes) > 0 || len(o.Exclude) > 0 {
		fo.Attributes = &stmtql.AttributeOptions{Exclude: o.Exclude}
		if len(o.Attributes) > 0 {
			if fo.Attributes.Only, err = decodeAttributes(o.Attributes); err != nil {
				return fo, err
			}
		}
	}
	if o.Where != nil {
		if fo.Where, err = decodeWhere(o.Where); err != nil {
			return fo, fmt.Errorf("where: %w", err)
		}
	}
	for _, inc := range o.Include {
		decoded, err := inc.decode()
		if err != nil {
			return fo, err
		}
		fo.Include = append(fo.Include, decoded)
	}
	for _, g := range o.Group {
		fo.Group = append(fo.Group, g)
	}
	if o.Having != nil {
		if fo.Having, err = decodeWhere(o.Having); err != nil {
			return fo, fmt.Errorf("having: %w", err)
		}
	}
	for _, item := range o.Order {
		decoded, err := decodeOrder(item)
		if err != nil {
			return fo, err
		}
		fo.Order = append(fo.Order, decoded)
	}
	fo.Limit = o.Limit
	fo.Offset = o.Offset
	if o.Lock != "" {
		fo.Lock = stmtql.LockMode(strings.ToUpper(o.Lock))
	}
	fo.Distinct = o.Distinct
	fo.SubQuery = o.SubQuery
	return fo, nil
}

func (i Include) decode() (stmtql.Include, error) {
	out := stmtql.Include{
		Association: i.Association,
		Model:       i.Model,
		As:          i.As,
		All:         i.All,
		Required:    i.Required,
	}
	if i.Where != nil {
		w, err := decodeWhere(i.Where)
		if err != nil {
			return out, fmt.Errorf("include %s where: %w", out.Key(), err)
		}
		out.Where = w
	}
	if len(i.Attributes) > 0 {
		only, err := decodeAttributes(i.Attributes)
		if err != nil {
			return out, err
		}
		out.Attributes = &stmtql.AttributeOptions{Only: only}
	}
	for _, nested := range i.Include {
		n, err := nested.decode()
		if err != nil {
			return out, err
		}
		out.Include = append(out.Include, n)
	}
	return out, nil
}

// decodeAttributes accepts names and [expression, alias] pairs.
func decodeAttributes(items []any) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case []any:
			if len(v) != 2 {
				return nil, fmt.Errorf("attribute %v: want [attribute, alias]", v)
			}
			name, ok1 := v[0].(string)
			alias, ok2 := v[1].(string)
			if !ok1 || !ok2 {
				return nil, fmt.Errorf("attribute %v: want [attribute, alias]", v)
			}
			out = append(out, stmtql.Alias(stmtql.Attribute(name), alias))
		default:
			return nil, fmt.Errorf("attribute %v: unsupported type %T", item, item)
		}
	}
	return out, nil
}

// decodeOrder accepts "attr", [attr, dir] and [path..., attr, dir].
func decodeOrder(item any) (stmtql.OrderItem, error) {
	switch v := item.(type) {
	case string:
		return stmtql.Asc(v), nil
	case []any:
		parts := make([]string, len(v))
		for i, p := range v {
			s, ok := p.(string)
			if !ok {
				return stmtql.OrderItem{}, fmt.Errorf("order %v: entries must be strings", v)
			}
			parts[i] = s
		}
		switch len(parts) {
		case 0:
			return stmtql.OrderItem{}, fmt.Errorf("order: empty entry")
		case 1:
			return stmtql.Asc(parts[0]), nil
		}
		last := len(parts) - 1
		return stmtql.OrderBy(parts[:last-1], parts[last-1], strings.ToUpper(parts[last])), nil
	}
	return stmtql.OrderItem{}, fmt.Errorf("order %v: unsupported type %T", item, item)
}

// decodeReturning accepts true or a list of attribute names.
func decodeReturning(v any) (*stmtql.Returning, error) {
	switch r := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if !r {
			return nil, nil
		}
		return stmtql.ReturnAll(), nil
	case []any:
		cols := make([]any, len(r))
		for i, c := range r {
			s, ok := c.(string)
			if !ok {
				return nil, fmt.Errorf("returning %v: entries must be strings", r)
			}
			cols[i] = s
		}
		return stmtql.ReturnColumns(cols...), nil
	}
	return nil, fmt.Errorf("returning: unsupported type %T", v)
}

// decodeWhere turns a YAML mapping into WhereOptions, resolving operator
// keys and nested mappings.
func decodeWhere(in map[string]any) (stmtql.WhereOptions, error) {
	out := make(stmtql.WhereOptions, len(in))
	for key, raw := range in {
		value, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if isOperatorKey(key) {
			op, err := stmtql.ParseOperator(key)
			if err != nil {
				return nil, err
			}
			out[op] = value
			continue
		}
		out[key] = value
	}
	return out, nil
}

func decodeValue(raw any) (any, error) {
	switch v := raw.(type) {
	case map[string]any:
		if lit, ok := v["$literal"]; ok && len(v) == 1 {
			sql, ok := lit.(string)
			if !ok {
				return nil, fmt.Errorf("$literal must be a string, got %T", lit)
			}
			return stmtql.Literal(sql), nil
		}
		return decodeWhere(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			decoded, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}
	return raw, nil
}

// isOperatorKey reports whether key names an operator rather than a
// $path.attr$ column.
func isOperatorKey(key string) bool {
	return strings.HasPrefix(key, "$") && !(len(key) > 2 && strings.HasSuffix(key, "$"))
}
