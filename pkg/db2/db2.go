// Package db2 provides the Db2 for LUW compiler for stmtql.
package db2

import "github.com/zoobzio/stmtql"

// Dialect is the Db2 for LUW dialect.
const Dialect = stmtql.DB2

// New creates a Db2 for LUW compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the Db2 for LUW capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
