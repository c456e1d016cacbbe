// Package mariadb provides the MariaDB compiler for stmtql.
package mariadb

import "github.com/zoobzio/stmtql"

// Dialect is the MariaDB dialect.
const Dialect = stmtql.MariaDB

// New creates a MariaDB compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the MariaDB capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
