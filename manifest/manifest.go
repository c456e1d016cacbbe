// Package manifest decodes YAML files that declare models and the queries
// to compile against them.
//
//	dialect: postgres
//	models:
//	  - name: User
//	    attributes:
//	      - {name: id, type: INTEGER, primaryKey: true, autoIncrement: true}
//	      - {name: lastName, field: last_name}
//	    associations:
//	      - {kind: hasMany, target: Post, as: posts}
//	    defaultScope: {where: {active: true}}
//	queries:
//	  - name: recent-users
//	    kind: select
//	    model: User
//	    attributes: [id, lastName]
//	    where: {lastName: {$startsWith: A}}
//	    order: [[createdAt, DESC]]
//	    limit: 10
//
// Where keys starting with "$" are operators; "$path.attr$" keys address
// included columns. A map holding only "$literal" is a trusted SQL
// fragment.
package manifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/zoobzio/stmtql"
	"gopkg.in/yaml.v3"
)

// File is a decoded manifest.
type File struct {
	Dialect string  `yaml:"dialect"`
	Models  []Model `yaml:"models"`
	Queries []Query `yaml:"queries"`
}

// Model declares a model.
type Model struct {
	Name         string              `yaml:"name"`
	Table        string              `yaml:"table"`
	Schema       string              `yaml:"schema"`
	Triggers     bool                `yaml:"triggers"`
	Attributes   []Attribute         `yaml:"attributes"`
	Associations []Association       `yaml:"associations"`
	DefaultScope *Options            `yaml:"defaultScope"`
	Scopes       map[string]*Options `yaml:"scopes"`
}

// Attribute declares a model attribute.
type Attribute struct {
	Name          string `yaml:"name"`
	Field         string `yaml:"field"`
	Type          string `yaml:"type"`
	PrimaryKey    bool   `yaml:"primaryKey"`
	AutoIncrement bool   `yaml:"autoIncrement"`
	AllowNull     bool   `yaml:"allowNull"`
}

// Association declares an association of the enclosing model.
type Association struct {
	Kind       string `yaml:"kind"`
	Target     string `yaml:"target"`
	Through    string `yaml:"through"`
	As         string `yaml:"as"`
	ForeignKey string `yaml:"foreignKey"`
	SourceKey  string `yaml:"sourceKey"`
	TargetKey  string `yaml:"targetKey"`
	OtherKey   string `yaml:"otherKey"`
}

// Options are the find options shared by queries and scopes.
type Options struct {
	Attributes []any          `yaml:"attributes"`
	Exclude    []string       `yaml:"exclude"`
	Where      map[string]any `yaml:"where"`
	Include    []Include      `yaml:"include"`
	Group      []string       `yaml:"group"`
	Having     map[string]any `yaml:"having"`
	Order      []any          `yaml:"order"`
	Limit      *int           `yaml:"limit"`
	Offset     *int           `yaml:"offset"`
	Lock       string         `yaml:"lock"`
	Distinct   bool           `yaml:"distinct"`
	SubQuery   *bool          `yaml:"subQuery"`
}

// Include declares an eager load.
type Include struct {
	Association string         `yaml:"association"`
	Model       string         `yaml:"model"`
	As          string         `yaml:"as"`
	All         bool           `yaml:"all"`
	Required    *bool          `yaml:"required"`
	Where       map[string]any `yaml:"where"`
	Attributes  []any          `yaml:"attributes"`
	Include     []Include      `yaml:"include"`
}

// Query declares one statement.
type Query struct {
	Name     string   `yaml:"name"`
	Kind     string   `yaml:"kind"`
	Model    string   `yaml:"model"`
	Table    string   `yaml:"table"`
	Scopes   []string `yaml:"scopes"`
	Unscoped bool     `yaml:"unscoped"`

	Options `yaml:",inline"`

	Values            map[string]any   `yaml:"values"`
	Rows              []map[string]any `yaml:"rows"`
	Returning         any              `yaml:"returning"`
	IgnoreDuplicates  bool             `yaml:"ignoreDuplicates"`
	UpdateOnDuplicate []string         `yaml:"updateOnDuplicate"`
	ConflictFields    []string         `yaml:"conflictFields"`
	ConflictWhere     map[string]any   `yaml:"conflictWhere"`
	Truncate          bool             `yaml:"truncate"`
	Cascade           bool             `yaml:"cascade"`
	RestartIdentity   bool             `yaml:"restartIdentity"`
	Replacements      map[string]any   `yaml:"replacements"`
	Bind              any              `yaml:"bind"`
	Style             string           `yaml:"style"`
}

// Parse decodes a manifest. Unknown keys are errors.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the manifest at path.
func Load(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Compiled is the result of one manifest query.
type Compiled struct {
	Name      string
	Statement *stmtql.Statement
}

// Compile compiles every query of f with c. Models declared in f replace
// the registry of c.
func (f *File) Compile(ctx context.Context, c *stmtql.Compiler) ([]Compiled, error) {
	reqs := make([]stmtql.Request, len(f.Queries))
	for i, q := range f.Queries {
		kind, desc, err := q.Descriptor()
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.label(i), err)
		}
		reqs[i] = stmtql.Request{Kind: kind, Descriptor: desc}
	}
	stmts, err := c.CompileAll(ctx, reqs)
	if err != nil {
		return nil, err
	}
	out := make([]Compiled, len(stmts))
	for i, st := range stmts {
		out[i] = Compiled{Name: f.Queries[i].label(i), Statement: st}
	}
	return out, nil
}

// Compiler creates a compiler for the manifest's dialect, or fallback when
// the manifest names none, over the manifest's models.
func (f *File) Compiler(fallback string, opts ...stmtql.Option) (*stmtql.Compiler, error) {
	reg, err := f.Registry()
	if err != nil {
		return nil, err
	}
	dialect := f.Dialect
	if dialect == "" {
		dialect = fallback
	}
	return stmtql.New(dialect, append(opts, stmtql.WithRegistry(reg))...)
}

func (q Query) label(i int) string {
	if q.Name != "" {
		return q.Name
	}
	return fmt.Sprintf("#%d", i+1)
}
