// Package stmtql compiles declarative, dialect-agnostic query descriptors
// into dialect-correct SQL text plus a bind-value map.
//
// # Basic Usage
//
// A Compiler is bound to one dialect and, optionally, a model registry:
//
//	reg := model.NewRegistry()
//	reg.Define("User", []model.Attribute{{Name: "firstName"}})
//
//	c, err := stmtql.New("postgres", stmtql.WithRegistry(reg))
//	stmt, err := c.Select(stmtql.QueryDescriptor{
//		Model: "User",
//		FindOptions: stmtql.FindOptions{
//			Where: stmtql.WhereOptions{"firstName": "Zoe"},
//		},
//	})
//	// stmt.Query: SELECT "id", "firstName" FROM "Users" AS "User" WHERE "User"."firstName" = $sequelize_1;
//	// stmt.Bind:  map[sequelize_1:Zoe]
//
// The fluent builder produces the same descriptors:
//
//	stmt, err := stmtql.Select("User").
//		Where(stmtql.WhereOptions{"firstName": "Zoe"}).
//		Limit(10).
//		Compile(c)
//
// # Placeholders
//
// Compiled text always uses canonical $sequelize_<n> tokens, numbered in
// order of first appearance. Statement.Materialize rewrites them to the
// driver's native style ($1, ?, @name).
//
// # Dialects
//
// postgres, mysql, mariadb, sqlite, mssql, db2, ibmi and snowflake. Every
// dialect difference is driven by a static capability table; options a
// dialect cannot honour fail with an UnsupportedOptionError listing all of
// them at once.
package stmtql

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/types"
)

// Descriptor types.
type (
	QueryDescriptor  = types.QueryDescriptor
	FindOptions      = types.FindOptions
	Include          = types.Include
	ThroughOptions   = types.ThroughOptions
	ScopeRef         = types.ScopeRef
	AttributeOptions = types.AttributeOptions
	OrderItem        = types.OrderItem
	As               = types.As
	Returning        = types.Returning
	TableRef         = types.TableRef
	LockMode         = types.LockMode
	ParameterStyle   = types.ParameterStyle
	StatementKind    = types.StatementKind
)

// WhereOptions is the plain-map predicate shorthand.
type WhereOptions = types.WhereOptions

// Expression is a node of the expression tree.
type Expression = types.Expression

// Dialect identifies a SQL engine.
type Dialect = render.Dialect

// Capabilities is the feature table of a dialect.
type Capabilities = render.Capabilities

// Dialects.
const (
	Postgres  = render.Postgres
	MySQL     = render.MySQL
	MariaDB   = render.MariaDB
	SQLite    = render.SQLite
	MSSQL     = render.MSSQL
	DB2       = render.DB2
	IBMi      = render.IBMi
	Snowflake = render.Snowflake
)

// Row locks.
const (
	LockUpdate      = types.LockUpdate
	LockShare       = types.LockShare
	LockNoKeyUpdate = types.LockNoKeyUpdate
	LockKeyShare    = types.LockKeyShare
)

// Parameter styles.
const (
	StyleDefault     = types.StyleDefault
	StyleBind        = types.StyleBind
	StyleReplacement = types.StyleReplacement
)

// ParseParameterStyle resolves "bind" or "replacement". The empty name is
// StyleDefault.
func ParseParameterStyle(name string) (ParameterStyle, error) {
	switch strings.ToLower(name) {
	case "":
		return StyleDefault, nil
	case "bind":
		return StyleBind, nil
	case "replacement":
		return StyleReplacement, nil
	}
	return StyleDefault, fmt.Errorf("unknown parameter style %q", name)
}

// ParseDialect resolves a dialect name or alias.
func ParseDialect(name string) (Dialect, error) {
	return render.ParseDialect(name)
}

// CapabilitiesFor returns the capability table of a dialect.
func CapabilitiesFor(d Dialect) Capabilities {
	return render.CapabilitiesFor(d)
}

// Dialects returns every supported dialect.
func Dialects() []Dialect {
	return render.Dialects()
}

// Error types.
type (
	UnsupportedOptionError              = render.UnsupportedOptionError
	MissingReplacementError             = render.MissingReplacementError
	AmbiguousPositionalReplacementError = render.AmbiguousPositionalReplacementError
	InvalidPredicateShapeError          = render.InvalidPredicateShapeError
	DuplicateAliasError                 = render.DuplicateAliasError
	UnknownScopeError                   = render.UnknownScopeError
	ScopeRedefinitionError              = render.ScopeRedefinitionError
	ReservedBindNameError               = render.ReservedBindNameError
	InvalidAssociationReferenceError    = render.InvalidAssociationReferenceError
	LimitRequiresModelError             = render.LimitRequiresModelError
)
