// Package ibmi provides the Db2 for IBM i compiler for stmtql.
package ibmi

import "github.com/zoobzio/stmtql"

// Dialect is the Db2 for IBM i dialect.
const Dialect = stmtql.IBMi

// New creates a Db2 for IBM i compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the Db2 for IBM i capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
