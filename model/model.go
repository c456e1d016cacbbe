// Package model holds the attribute metadata the compiler consults: models,
// their attributes and column mapping, associations and scopes.
package model

import (
	"fmt"
	"sync"

	"github.com/go-openapi/inflect"
	"github.com/zoobzio/stmtql/internal/types"
)

// DataType is the declared type of an attribute.
type DataType = types.DataType

// Declared attribute types.
const (
	String   = types.TypeString
	Text     = types.TypeText
	Integer  = types.TypeInteger
	BigInt   = types.TypeBigInt
	Float    = types.TypeFloat
	Double   = types.TypeDouble
	Decimal  = types.TypeDecimal
	Boolean  = types.TypeBoolean
	Date     = types.TypeDate
	DateOnly = types.TypeDateOnly
	UUID     = types.TypeUUID
	JSON     = types.TypeJSON
	Blob     = types.TypeBlob
)

// ParseDataType maps a declared type name such as "DATE" or a column type
// such as "varchar(255)" to a DataType. Unknown names are strings.
func ParseDataType(name string) DataType {
	return types.ParseDataType(name)
}

// Attribute describes one model attribute. Field is the column name and
// defaults to Name.
type Attribute struct {
	Name          string
	Field         string
	Type          DataType
	PrimaryKey    bool
	AutoIncrement bool
	AllowNull     bool
}

// Model is the metadata of one mapped table.
type Model struct {
	Name        string
	TableName   string
	Schema      string
	HasTriggers bool

	attributes []*Attribute
	byName     map[string]*Attribute

	mu           sync.RWMutex
	associations []*Association
	byAlias      map[string]*Association
	scopes       map[string]Scope
}

// Option configures a model.
type Option func(*Model)

// WithTableName overrides the pluralized default table name.
func WithTableName(name string) Option {
	return func(m *Model) { m.TableName = name }
}

// WithSchema places the table in a schema.
func WithSchema(schema string) Option {
	return func(m *Model) { m.Schema = schema }
}

// WithTriggers marks the table as having triggers, which changes how
// returning is compiled on dialects that use OUTPUT.
func WithTriggers() Option {
	return func(m *Model) { m.HasTriggers = true }
}

// New creates a model. Without a primary key attribute an auto-incrementing
// integer "id" is added.
func New(name string, attrs []Attribute, opts ...Option) (*Model, error) {
	if name == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	m := &Model{
		Name:      name,
		TableName: inflect.Pluralize(name),
		byName:    make(map[string]*Attribute),
		byAlias:   make(map[string]*Association),
		scopes:    make(map[string]Scope),
	}
	for _, opt := range opts {
		opt(m)
	}

	hasPK := false
	for _, a := range attrs {
		if a.PrimaryKey {
			hasPK = true
			break
		}
	}
	if !hasPK {
		if _, clash := findAttr(attrs, "id"); clash {
			return nil, fmt.Errorf("model %q: attribute \"id\" exists but no primary key is declared", name)
		}
		attrs = append([]Attribute{{Name: "id", Type: Integer, PrimaryKey: true, AutoIncrement: true}}, attrs...)
	}

	for _, a := range attrs {
		if err := m.addAttribute(a); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func findAttr(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func (m *Model) addAttribute(a Attribute) error {
	if a.Name == "" {
		return fmt.Errorf("model %q: attribute name cannot be empty", m.Name)
	}
	if _, exists := m.byName[a.Name]; exists {
		return fmt.Errorf("model %q: duplicate attribute %q", m.Name, a.Name)
	}
	if a.Field == "" {
		a.Field = a.Name
	}
	if a.Type == "" {
		a.Type = String
	}
	attr := a
	m.attributes = append(m.attributes, &attr)
	m.byName[a.Name] = &attr
	return nil
}

// ensureAttribute adds a foreign key attribute unless it already exists.
func (m *Model) ensureAttribute(name string, dt DataType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[name]; ok {
		return
	}
	_ = m.addAttribute(Attribute{Name: name, Type: dt, AllowNull: true}) //nolint:errcheck // name is non-empty and unique
}

// Attributes returns the attributes in declaration order.
func (m *Model) Attributes() []*Attribute {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Attribute, len(m.attributes))
	copy(out, m.attributes)
	return out
}

// Attribute looks up an attribute by name.
func (m *Model) Attribute(name string) (*Attribute, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byName[name]
	return a, ok
}

// Field returns the column for an attribute name, or the name itself when
// it is not an attribute.
func (m *Model) Field(name string) string {
	if a, ok := m.Attribute(name); ok {
		return a.Field
	}
	return name
}

// PrimaryKeys returns the primary key attributes.
func (m *Model) PrimaryKeys() []*Attribute {
	var out []*Attribute
	for _, a := range m.Attributes() {
		if a.PrimaryKey {
			out = append(out, a)
		}
	}
	return out
}

// PrimaryKey returns the single primary key, or false for composite keys.
func (m *Model) PrimaryKey() (*Attribute, bool) {
	pks := m.PrimaryKeys()
	if len(pks) != 1 {
		return nil, false
	}
	return pks[0], true
}

// Table returns the model's table reference.
func (m *Model) Table() types.TableRef {
	return types.TableRef{Name: m.TableName, Schema: m.Schema}
}
