package types

// ParameterStyle selects how values reach the database. The style is
// statement-wide.
type ParameterStyle int

const (
	// StyleDefault defers to the compiler's configured style.
	StyleDefault ParameterStyle = iota
	// StyleBind registers values as $sequelize_<n> bind parameters.
	StyleBind
	// StyleReplacement renders values as inline escaped literals.
	StyleReplacement
)

func (s ParameterStyle) String() string {
	switch s {
	case StyleBind:
		return "BIND"
	case StyleReplacement:
		return "REPLACEMENT"
	}
	return "DEFAULT"
}

// BindPrefix is the reserved prefix of generated bind parameter names.
const BindPrefix = "sequelize_"
