// Package mysql provides the MySQL compiler for stmtql.
package mysql

import "github.com/zoobzio/stmtql"

// Dialect is the MySQL dialect.
const Dialect = stmtql.MySQL

// New creates a MySQL compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the MySQL capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
