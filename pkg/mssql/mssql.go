// Package mssql provides the SQL Server compiler for stmtql.
package mssql

import "github.com/zoobzio/stmtql"

// Dialect is the SQL Server dialect.
const Dialect = stmtql.MSSQL

// New creates a SQL Server compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the SQL Server capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
