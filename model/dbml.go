package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/zoobzio/dbml"
	"github.com/zoobzio/stmtql/internal/types"
)

// FromDBML builds a registry from a DBML project. Each table becomes a model
// named after the singular of the table; snake_case columns become
// camelCase attributes mapped to their column. Primary keys, increments and
// nullability come from the column settings and primary key indexes; a table
// that declares no key falls back to treating a column named "id" as an
// auto-incrementing primary key.
//
// Columns named <name>_id whose <names> table exists are linked: the owning
// model gets a BelongsTo and the referenced model a HasMany.
func FromDBML(project *dbml.Project) (*Registry, error) {
	if project == nil {
		return nil, fmt.Errorf("project cannot be nil")
	}

	var tables []*dbml.Table
	for _, table := range project.Tables {
		tables = append(tables, table)
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })

	reg := NewRegistry()
	byTable := make(map[string]*Model, len(tables))
	for _, table := range tables {
		keys := primaryKeys(table)
		attrs := make([]Attribute, 0, len(table.Columns))
		for _, col := range table.Columns {
			attrs = append(attrs, columnAttribute(col, keys))
		}
		m, err := reg.Define(inflect.Camelize(inflect.Singularize(table.Name)), attrs, WithTableName(table.Name))
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table.Name, err)
		}
		byTable[table.Name] = m
	}

	for _, table := range tables {
		source := byTable[table.Name]
		for _, col := range table.Columns {
			base, ok := strings.CutSuffix(col.Name, "_id")
			if !ok || base == "" {
				continue
			}
			target, ok := byTable[inflect.Pluralize(base)]
			if !ok {
				continue
			}
			fk := inflect.CamelizeDownFirst(col.Name)
			if _, err := source.BelongsTo(target, AssociationOptions{As: inflect.CamelizeDownFirst(base), ForeignKey: fk}); err != nil {
				return nil, fmt.Errorf("table %s: %w", table.Name, err)
			}
			if _, err := target.HasMany(source, AssociationOptions{ForeignKey: fk}); err != nil {
				return nil, fmt.Errorf("table %s: %w", target.TableName, err)
			}
		}
	}
	return reg, nil
}

// primaryKeys collects the columns a table declares as its key, either on
// the column or through a primary key index. Nil means none are declared.
func primaryKeys(table *dbml.Table) map[string]bool {
	var keys map[string]bool
	mark := func(name string) {
		if keys == nil {
			keys = make(map[string]bool)
		}
		keys[name] = true
	}
	for _, col := range table.Columns {
		if col.Settings != nil && col.Settings.PrimaryKey {
			mark(col.Name)
		}
	}
	for _, idx := range table.Indexes {
		if idx == nil || !idx.PrimaryKey {
			continue
		}
		for _, c := range idx.Columns {
			if c.Name != nil {
				mark(*c.Name)
			}
		}
	}
	return keys
}

func columnAttribute(col *dbml.Column, keys map[string]bool) Attribute {
	attr := Attribute{
		Name:  inflect.CamelizeDownFirst(col.Name),
		Field: col.Name,
		Type:  types.ParseDataType(col.Type),
	}
	if keys == nil {
		conventional := col.Name == "id"
		attr.PrimaryKey = conventional
		attr.AutoIncrement = conventional || (col.Settings != nil && col.Settings.Increment)
		attr.AllowNull = !conventional && (col.Settings == nil || col.Settings.Null)
		return attr
	}
	attr.PrimaryKey = keys[col.Name]
	if col.Settings != nil {
		attr.AutoIncrement = col.Settings.Increment
		attr.AllowNull = !attr.PrimaryKey && col.Settings.Null
	} else {
		attr.AllowNull = !attr.PrimaryKey
	}
	return attr
}
