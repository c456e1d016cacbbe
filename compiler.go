package stmtql

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zoobzio/stmtql/internal/bind"
	"github.com/zoobzio/stmtql/internal/encode"
	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/serialize"
	"github.com/zoobzio/stmtql/internal/types"
	"github.com/zoobzio/stmtql/model"
)

// Compiler turns query descriptors into statements for one dialect. It holds
// no per-call state and is safe for concurrent use once its models are
// registered.
type Compiler struct {
	caps     render.Capabilities
	registry *model.Registry
	style    types.ParameterStyle
	minify   bool
	logger   *slog.Logger
}

type settings struct {
	registry *model.Registry
	style    types.ParameterStyle
	minify   bool
	logger   *slog.Logger
	version  string
}

// Option configures a Compiler.
type Option func(*settings)

// WithRegistry sets the models descriptors can name.
func WithRegistry(r *model.Registry) Option {
	return func(s *settings) { s.registry = r }
}

// WithParameterStyle sets the default parameter style.
func WithParameterStyle(style ParameterStyle) Option {
	return func(s *settings) { s.style = style }
}

// WithMinifyAliases shortens include column aliases by default.
func WithMinifyAliases() Option {
	return func(s *settings) { s.minify = true }
}

// WithLogger sets the logger compile records are written to.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithDatabaseVersion adjusts the capability table to a server version.
func WithDatabaseVersion(v string) Option {
	return func(s *settings) { s.version = v }
}

// New creates a compiler for a dialect name such as "postgres".
func New(dialect string, opts ...Option) (*Compiler, error) {
	d, err := render.ParseDialect(dialect)
	if err != nil {
		return nil, err
	}
	return NewForDialect(d, opts...)
}

// NewForDialect creates a compiler for a dialect.
func NewForDialect(d Dialect, opts ...Option) (*Compiler, error) {
	s := settings{style: types.StyleBind}
	for _, opt := range opts {
		opt(&s)
	}
	caps := render.CapabilitiesFor(d)
	if s.version != "" {
		var err error
		if caps, err = caps.WithVersion(s.version); err != nil {
			return nil, err
		}
	}
	if s.registry == nil {
		s.registry = model.NewRegistry()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.style == types.StyleDefault {
		s.style = types.StyleBind
	}
	return &Compiler{
		caps:     caps,
		registry: s.registry,
		style:    s.style,
		minify:   s.minify,
		logger:   s.logger,
	}, nil
}

// MustNew creates a compiler for a dialect and panics on error.
func MustNew(d Dialect, opts ...Option) *Compiler {
	c, err := NewForDialect(d, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect {
	return c.caps.Dialect
}

// Capabilities returns the capability table in use.
func (c *Compiler) Capabilities() Capabilities {
	return c.caps
}

// Registry returns the model registry.
func (c *Compiler) Registry() *model.Registry {
	return c.registry
}

// Select compiles a SELECT.
func (c *Compiler) Select(q QueryDescriptor) (*Statement, error) {
	return c.Compile(KindSelect, q)
}

// Insert compiles a single-row INSERT.
func (c *Compiler) Insert(q QueryDescriptor) (*Statement, error) {
	return c.Compile(KindInsert, q)
}

// BulkInsert compiles a multi-row INSERT.
func (c *Compiler) BulkInsert(q QueryDescriptor) (*Statement, error) {
	return c.Compile(KindBulkInsert, q)
}

// Update compiles an UPDATE.
func (c *Compiler) Update(q QueryDescriptor) (*Statement, error) {
	return c.Compile(KindUpdate, q)
}

// Delete compiles a DELETE or TRUNCATE.
func (c *Compiler) Delete(q QueryDescriptor) (*Statement, error) {
	return c.Compile(KindDelete, q)
}

// Upsert compiles an insert-or-update.
func (c *Compiler) Upsert(q QueryDescriptor) (*Statement, error) {
	return c.Compile(KindUpsert, q)
}

// compilation is the state of one compile call.
type compilation struct {
	c     *Compiler
	kind  StatementKind
	q     QueryDescriptor
	model *model.Model
	table types.TableRef
	binds *bind.Context
	ser   *serialize.Context
	opts  *render.OptionCollector

	aliases *minifier
	returns bool
}

// Compile compiles a descriptor into a statement of the given kind. It
// either returns a complete statement or an error, never both.
func (c *Compiler) Compile(kind StatementKind, q QueryDescriptor) (*Statement, error) {
	st, err := c.compile(kind, q)
	if err != nil {
		c.logger.Debug("compile failed", "kind", kind.String(), "dialect", c.caps.Name(), "error", err)
		return nil, fmt.Errorf("%s: %w", strings.ToLower(kind.String()), err)
	}
	c.logger.Debug("compiled statement", "kind", kind.String(), "dialect", c.caps.Name(), "binds", len(st.Bind))
	return st, nil
}

func (c *Compiler) compile(kind StatementKind, q QueryDescriptor) (*Statement, error) {
	style := q.ParameterStyle
	if style == types.StyleDefault {
		style = c.style
	}
	if style == types.StyleReplacement && q.Bind != nil {
		return nil, render.NewUnsupportedOptionError(c.caps.Name(), strings.ToLower(kind.String()), []string{"bind"},
			"user bind parameters need the BIND parameter style")
	}

	cp := &compilation{
		c:     c,
		kind:  kind,
		q:     q,
		binds: bind.NewContext(),
		opts:  render.NewOptionCollector(c.caps, strings.ToLower(kind.String())),
	}
	if err := cp.resolveTarget(); err != nil {
		return nil, err
	}
	if cp.model != nil {
		merged, err := mergeScopes(cp.model, q)
		if err != nil {
			return nil, err
		}
		cp.q.FindOptions = merged
	}
	cp.ser = &serialize.Context{
		Caps:         c.caps,
		Binds:        cp.binds,
		Replacement:  style == types.StyleReplacement,
		Replacements: q.Replacements,
		Table:        serialize.Table{Model: cp.model},
	}
	if q.MinifyAliases || c.minify {
		cp.aliases = newMinifier()
	}

	var (
		query string
		err   error
	)
	switch kind {
	case KindSelect:
		query, err = cp.selectQuery()
	case KindInsert:
		query, err = cp.insertQuery()
	case KindBulkInsert:
		query, err = cp.bulkInsertQuery()
	case KindUpdate:
		query, err = cp.updateQuery()
	case KindDelete:
		query, err = cp.deleteQuery()
	case KindUpsert:
		query, err = cp.upsertQuery()
	default:
		err = fmt.Errorf("unknown statement kind %d", kind)
	}
	if err != nil {
		return nil, err
	}
	return cp.finish(query, style)
}

func (cp *compilation) resolveTarget() error {
	if cp.q.Model != "" {
		m, ok := cp.c.registry.Model(cp.q.Model)
		if !ok {
			return fmt.Errorf("model %q is not defined", cp.q.Model)
		}
		cp.model = m
		cp.table = m.Table()
		return nil
	}
	if cp.q.Table == nil || cp.q.Table.Name == "" {
		return fmt.Errorf("a model or table is required")
	}
	cp.table = *cp.q.Table
	if len(cp.q.Include) > 0 {
		return fmt.Errorf("includes need a model target")
	}
	if len(cp.q.Scopes) > 0 {
		return fmt.Errorf("scopes need a model target")
	}
	return nil
}

// finish renumbers binds by first appearance and merges user binds.
func (cp *compilation) finish(query string, style types.ParameterStyle) (*Statement, error) {
	query += ";"
	st := &Statement{
		Kind:      cp.kind,
		Dialect:   cp.c.caps.Dialect,
		Returning: cp.kind == KindSelect || cp.returns,
		caps:      cp.c.caps,
	}
	if cp.aliases != nil && len(cp.aliases.original) > 0 {
		st.Aliases = cp.aliases.original
	}

	rewritten, generated, err := cp.binds.Finalize(query, bind.ScanOptions(cp.c.caps))
	if err != nil {
		return nil, err
	}
	st.Query = rewritten
	if style == types.StyleReplacement {
		return st, nil
	}

	user, err := bindableUser(cp.q.Bind, cp.c.caps)
	if err != nil {
		return nil, err
	}
	st.Bind, err = bind.MergeUserBind(generated, user)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func bindableUser(user any, caps render.Capabilities) (any, error) {
	switch u := user.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		out := make(map[string]any, len(u))
		for k, v := range u {
			bv, err := encode.Bindable(v, caps)
			if err != nil {
				return nil, fmt.Errorf("bind %q: %w", k, err)
			}
			out[k] = bv
		}
		return out, nil
	}
	items, ok := types.AsSlice(user)
	if !ok {
		return user, nil
	}
	out := make([]any, len(items))
	for i, v := range items {
		bv, err := encode.Bindable(v, caps)
		if err != nil {
			return nil, fmt.Errorf("bind $%d: %w", i+1, err)
		}
		out[i] = bv
	}
	return out, nil
}

// quoteTarget renders the target table, with its alias when given.
func (cp *compilation) quoteTarget(alias string) string {
	t := cp.ser.QuoteTable(cp.table)
	if alias != "" {
		return t + " AS " + cp.ser.Quote(alias)
	}
	return t
}

// field maps an attribute name to its column on the target.
func (cp *compilation) field(name string) string {
	if cp.model == nil {
		return name
	}
	return cp.model.Field(name)
}

// attributeType returns the declared type of a target attribute.
func (cp *compilation) attributeType(name string) types.DataType {
	if cp.model == nil {
		return ""
	}
	if a, ok := cp.model.Attribute(name); ok {
		return a.Type
	}
	return ""
}
