// Package sqlite provides the SQLite compiler for stmtql.
package sqlite

import "github.com/zoobzio/stmtql"

// Dialect is the SQLite dialect.
const Dialect = stmtql.SQLite

// New creates a SQLite compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the SQLite capability table, before any version
// gating.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
