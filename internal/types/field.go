package types

// AttributeOptions selects columns. Only replaces the default attribute
// list; Include adds to it and Exclude removes from it. Include wins over
// Exclude when both name an attribute.
type AttributeOptions struct {
	Only    []any
	Include []any
	Exclude []string
}

// IsZero reports whether no selection was made.
func (a *AttributeOptions) IsZero() bool {
	return a == nil || (a.Only == nil && len(a.Include) == 0 && len(a.Exclude) == 0)
}

// As is a selected expression with an alias.
type As struct {
	Expr  any
	Alias string
}

// OrderItem is one ORDER BY entry. Either Attribute (optionally under an
// include Path) or Expr is set.
type OrderItem struct {
	Path      []string
	Attribute string
	Expr      any
	Direction string
}

// Returning requests affected rows. A nil *Returning means no rows.
type Returning struct {
	All     bool
	Columns []any
}

// LockMode is a SELECT row lock.
type LockMode string

const (
	LockUpdate      LockMode = "UPDATE"
	LockShare       LockMode = "SHARE"
	LockNoKeyUpdate LockMode = "NO KEY UPDATE"
	LockKeyShare    LockMode = "KEY SHARE"
)
