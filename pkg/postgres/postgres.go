// Package postgres provides the PostgreSQL compiler for stmtql.
package postgres

import "github.com/zoobzio/stmtql"

// Dialect is the PostgreSQL dialect.
const Dialect = stmtql.Postgres

// New creates a PostgreSQL compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the PostgreSQL capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
