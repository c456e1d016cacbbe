package stmtql

import (
	"github.com/zoobzio/stmtql/internal/bind"
	"github.com/zoobzio/stmtql/internal/render"
)

// Statement is a compiled statement. Query uses canonical $sequelize_<n>
// placeholders; Bind is nil under the REPLACEMENT style.
type Statement struct {
	Kind    StatementKind
	Dialect Dialect
	Query   string
	Bind    map[string]any

	// Aliases maps minified column aliases back to their full names.
	Aliases map[string]string

	// Returning reports whether executing the statement yields rows.
	Returning bool

	caps render.Capabilities
}

// Materialize rewrites the canonical placeholders into the driver's native
// style and returns the arguments in placeholder order.
func (s *Statement) Materialize() (string, []any, error) {
	return bind.Materialize(s.Query, s.Bind, s.caps)
}

// String returns the compiled query text.
func (s *Statement) String() string {
	return s.Query
}
