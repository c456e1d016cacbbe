// Package snowflake provides the Snowflake compiler for stmtql.
package snowflake

import "github.com/zoobzio/stmtql"

// Dialect is the Snowflake dialect.
const Dialect = stmtql.Snowflake

// New creates a Snowflake compiler. It panics if an option is invalid, such as
// an unparseable database version.
func New(opts ...stmtql.Option) *stmtql.Compiler {
	return stmtql.MustNew(Dialect, opts...)
}

// Capabilities returns the Snowflake capability table.
func Capabilities() stmtql.Capabilities {
	return stmtql.CapabilitiesFor(Dialect)
}
