package stmtql

import (
	"fmt"
)

// Builder provides a fluent API for constructing query descriptors.
type Builder struct {
	kind StatementKind
	q    QueryDescriptor
	err  error
}

func newBuilder(kind StatementKind, model string) *Builder {
	return &Builder{kind: kind, q: QueryDescriptor{Model: model}}
}

// Select creates a new SELECT builder for a registered model.
func Select(model string) *Builder {
	return newBuilder(KindSelect, model)
}

// Insert creates a new INSERT builder.
func Insert(model string) *Builder {
	return newBuilder(KindInsert, model)
}

// BulkInsert creates a new multi-row INSERT builder.
func BulkInsert(model string) *Builder {
	return newBuilder(KindBulkInsert, model)
}

// Update creates a new UPDATE builder.
func Update(model string) *Builder {
	return newBuilder(KindUpdate, model)
}

// Delete creates a new DELETE builder.
func Delete(model string) *Builder {
	return newBuilder(KindDelete, model)
}

// Upsert creates a new insert-or-update builder.
func Upsert(model string) *Builder {
	return newBuilder(KindUpsert, model)
}

// Kind returns the statement kind being built.
func (b *Builder) Kind() StatementKind {
	return b.kind
}

// GetError returns the internal error.
func (b *Builder) GetError() error {
	return b.err
}

// SetError sets the internal error.
func (b *Builder) SetError(err error) {
	b.err = err
}

func (b *Builder) only(method string, kinds ...StatementKind) bool {
	if b.err != nil {
		return false
	}
	for _, k := range kinds {
		if b.kind == k {
			return true
		}
	}
	b.err = fmt.Errorf("%s() cannot be used with %s queries", method, b.kind)
	return false
}

// Table targets a bare table instead of a model.
func (b *Builder) Table(ref TableRef) *Builder {
	if b.err != nil {
		return b
	}
	b.q.Model = ""
	b.q.Table = &ref
	return b
}

// Attributes sets the selected attributes.
func (b *Builder) Attributes(items ...any) *Builder {
	if !b.only("Attributes", KindSelect) {
		return b
	}
	if b.q.Attributes == nil {
		b.q.Attributes = &AttributeOptions{}
	}
	b.q.Attributes.Only = items
	return b
}

// Exclude removes attributes from the default selection.
func (b *Builder) Exclude(names ...string) *Builder {
	if !b.only("Exclude", KindSelect) {
		return b
	}
	if b.q.Attributes == nil {
		b.q.Attributes = &AttributeOptions{}
	}
	b.q.Attributes.Exclude = append(b.q.Attributes.Exclude, names...)
	return b
}

// Include adds eager loads.
func (b *Builder) Include(incs ...Include) *Builder {
	if !b.only("Include", KindSelect) {
		return b
	}
	b.q.Include = append(b.q.Include, incs...)
	return b
}

// Where sets or adds conditions. Repeated calls are combined with AND.
func (b *Builder) Where(pred any) *Builder {
	if !b.only("Where", KindSelect, KindUpdate, KindDelete) {
		return b
	}
	b.q.Where = andMerge(b.q.Where, pred)
	return b
}

// Group adds GROUP BY items.
func (b *Builder) Group(items ...any) *Builder {
	if !b.only("Group", KindSelect) {
		return b
	}
	b.q.Group = append(b.q.Group, items...)
	return b
}

// Having adds HAVING conditions.
func (b *Builder) Having(pred any) *Builder {
	if !b.only("Having", KindSelect) {
		return b
	}
	b.q.Having = andMerge(b.q.Having, pred)
	return b
}

// Order adds ordering.
func (b *Builder) Order(items ...OrderItem) *Builder {
	if !b.only("Order", KindSelect, KindUpdate, KindDelete) {
		return b
	}
	b.q.Order = append(b.q.Order, items...)
	return b
}

// Limit sets the limit.
func (b *Builder) Limit(limit int) *Builder {
	if !b.only("Limit", KindSelect, KindUpdate, KindDelete) {
		return b
	}
	b.q.Limit = &limit
	return b
}

// Offset sets the offset.
func (b *Builder) Offset(offset int) *Builder {
	if !b.only("Offset", KindSelect, KindUpdate, KindDelete) {
		return b
	}
	b.q.Offset = &offset
	return b
}

// Lock sets a row lock.
func (b *Builder) Lock(mode LockMode) *Builder {
	if !b.only("Lock", KindSelect) {
		return b
	}
	b.q.Lock = mode
	return b
}

// Distinct sets the DISTINCT flag.
func (b *Builder) Distinct() *Builder {
	if !b.only("Distinct", KindSelect) {
		return b
	}
	b.q.Distinct = true
	return b
}

// SubQuery forces or disables pagination of the main table in a derived
// table when includes are present.
func (b *Builder) SubQuery(on bool) *Builder {
	if !b.only("SubQuery", KindSelect) {
		return b
	}
	b.q.SubQuery = &on
	return b
}

// Scopes applies named scopes instead of the default scope.
func (b *Builder) Scopes(refs ...ScopeRef) *Builder {
	if b.err != nil {
		return b
	}
	b.q.Scopes = append(b.q.Scopes, refs...)
	return b
}

// Unscoped skips the default scope.
func (b *Builder) Unscoped() *Builder {
	if b.err != nil {
		return b
	}
	b.q.Unscoped = true
	return b
}

// Set adds an attribute value for INSERT, UPDATE and upsert queries.
func (b *Builder) Set(attr string, v any) *Builder {
	if !b.only("Set", KindInsert, KindUpdate, KindUpsert) {
		return b
	}
	if b.q.Values == nil {
		b.q.Values = make(map[string]any)
	}
	b.q.Values[attr] = v
	return b
}

// Values sets every attribute value at once.
func (b *Builder) Values(values map[string]any) *Builder {
	if !b.only("Values", KindInsert, KindUpdate, KindUpsert) {
		return b
	}
	b.q.Values = values
	return b
}

// Row appends a row to a bulk insert.
func (b *Builder) Row(row map[string]any) *Builder {
	if !b.only("Row", KindBulkInsert) {
		return b
	}
	b.q.Rows = append(b.q.Rows, row)
	return b
}

// Returning requests affected rows. Without columns every column returns.
func (b *Builder) Returning(cols ...any) *Builder {
	if !b.only("Returning", KindInsert, KindBulkInsert, KindUpdate, KindDelete, KindUpsert) {
		return b
	}
	if len(cols) == 0 {
		b.q.Returning = ReturnAll()
		return b
	}
	b.q.Returning = ReturnColumns(cols...)
	return b
}

// IgnoreDuplicates skips rows that violate a unique constraint.
func (b *Builder) IgnoreDuplicates() *Builder {
	if !b.only("IgnoreDuplicates", KindInsert, KindBulkInsert) {
		return b
	}
	b.q.IgnoreDuplicates = true
	return b
}

// Truncate empties the table instead of deleting matching rows.
func (b *Builder) Truncate(cascade, restartIdentity bool) *Builder {
	if !b.only("Truncate", KindDelete) {
		return b
	}
	b.q.Truncate, b.q.Cascade, b.q.RestartIdentity = true, cascade, restartIdentity
	return b
}

// Replacements sets the values of :name references in literals.
func (b *Builder) Replacements(r map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	b.q.Replacements = r
	return b
}

// Bind sets user bind parameters, a map for $name or a slice for $1.
func (b *Builder) Bind(v any) *Builder {
	if b.err != nil {
		return b
	}
	b.q.Bind = v
	return b
}

// Style overrides the compiler's parameter style.
func (b *Builder) Style(style ParameterStyle) *Builder {
	if b.err != nil {
		return b
	}
	b.q.ParameterStyle = style
	return b
}

// MinifyAliases shortens include column aliases.
func (b *Builder) MinifyAliases() *Builder {
	if b.err != nil {
		return b
	}
	b.q.MinifyAliases = true
	return b
}

// OnConflict starts a conflict action for INSERT queries.
func (b *Builder) OnConflict(fields ...string) *ConflictBuilder {
	if !b.only("OnConflict", KindInsert, KindBulkInsert, KindUpsert) {
		return &ConflictBuilder{builder: b, err: b.err}
	}
	b.q.ConflictFields = fields
	return &ConflictBuilder{builder: b}
}

// ConflictBuilder handles ON CONFLICT actions.
type ConflictBuilder struct {
	builder *Builder
	err     error
}

// Where restricts the conflict target.
func (cb *ConflictBuilder) Where(pred any) *ConflictBuilder {
	if cb.err != nil {
		return cb
	}
	cb.builder.q.ConflictWhere = pred
	return cb
}

// DoNothing skips conflicting rows.
func (cb *ConflictBuilder) DoNothing() *Builder {
	if cb.err != nil {
		return cb.builder
	}
	b := cb.builder
	if b.kind == KindBulkInsert {
		b.q.IgnoreDuplicates = true
		return b
	}
	b.kind = KindUpsert
	b.q.UpdateOnDuplicate = []string{}
	return b
}

// DoUpdate updates the given attributes of conflicting rows. Without
// attributes every inserted attribute outside the conflict target is
// updated.
func (cb *ConflictBuilder) DoUpdate(attrs ...string) *Builder {
	if cb.err != nil {
		return cb.builder
	}
	b := cb.builder
	if b.kind == KindBulkInsert {
		if len(attrs) == 0 {
			b.err = fmt.Errorf("DoUpdate() on a bulk insert needs the attributes to update")
			return b
		}
		b.q.UpdateOnDuplicate = attrs
		return b
	}
	b.kind = KindUpsert
	b.q.UpdateOnDuplicate = attrs
	return b
}

// Build returns the constructed descriptor or an error.
func (b *Builder) Build() (StatementKind, QueryDescriptor, error) {
	if b.err != nil {
		return 0, QueryDescriptor{}, b.err
	}
	if b.q.Model == "" && b.q.Table == nil {
		return 0, QueryDescriptor{}, fmt.Errorf("a model or table is required")
	}
	return b.kind, b.q, nil
}

// MustBuild returns the descriptor or panics on error.
func (b *Builder) MustBuild() QueryDescriptor {
	_, q, err := b.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// Compile builds the descriptor and compiles it with c.
func (b *Builder) Compile(c *Compiler) (*Statement, error) {
	kind, q, err := b.Build()
	if err != nil {
		return nil, err
	}
	return c.Compile(kind, q)
}

// MustCompile builds and compiles or panics on error.
func (b *Builder) MustCompile(c *Compiler) *Statement {
	st, err := b.Compile(c)
	if err != nil {
		panic(err)
	}
	return st
}
