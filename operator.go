package stmtql

import "github.com/zoobzio/stmtql/internal/types"

// Operator is a where-clause operator key.
type Operator = types.Operator

// Operators usable as WhereOptions keys.
const (
	OpAnd        = types.OpAnd
	OpOr         = types.OpOr
	OpNot        = types.OpNot
	OpEq         = types.OpEq
	OpNe         = types.OpNe
	OpGt         = types.OpGt
	OpGte        = types.OpGte
	OpLt         = types.OpLt
	OpLte        = types.OpLte
	OpIs         = types.OpIs
	OpIn         = types.OpIn
	OpNotIn      = types.OpNotIn
	OpBetween    = types.OpBetween
	OpNotBetween = types.OpNotBetween
	OpLike       = types.OpLike
	OpNotLike    = types.OpNotLike
	OpILike      = types.OpILike
	OpNotILike   = types.OpNotILike
	OpStartsWith = types.OpStartsWith
	OpEndsWith   = types.OpEndsWith
	OpSubstring  = types.OpSubstring
	OpRegexp     = types.OpRegexp
	OpNotRegexp  = types.OpNotRegexp
	OpIRegexp    = types.OpIRegexp
	OpNotIRegexp = types.OpNotIRegexp
	OpOverlap    = types.OpOverlap
	OpContains   = types.OpContains
	OpContained  = types.OpContained
	OpAny        = types.OpAny
	OpCol        = types.OpCol
)

// ParseOperator resolves an operator name such as "gte" or "$gte".
func ParseOperator(name string) (Operator, error) {
	return types.ParseOperator(name)
}
