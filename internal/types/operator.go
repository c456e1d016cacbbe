package types

import "fmt"

// Operator is a where-clause operator key. Operators are a distinct key type
// in WhereOptions, so they never collide with attribute names.
type Operator string

const (
	// Logical operators.
	OpAnd Operator = "and"
	OpOr  Operator = "or"
	OpNot Operator = "not"

	// Comparison operators.
	OpEq  Operator = "eq"
	OpNe  Operator = "ne"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
	OpIs  Operator = "is"

	// Membership and range operators.
	OpIn         Operator = "in"
	OpNotIn      Operator = "notIn"
	OpBetween    Operator = "between"
	OpNotBetween Operator = "notBetween"

	// Pattern operators.
	OpLike       Operator = "like"
	OpNotLike    Operator = "notLike"
	OpILike      Operator = "iLike"
	OpNotILike   Operator = "notILike"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpSubstring  Operator = "substring"
	OpRegexp     Operator = "regexp"
	OpNotRegexp  Operator = "notRegexp"
	OpIRegexp    Operator = "iRegexp"
	OpNotIRegexp Operator = "notIRegexp"

	// Array operators.
	OpOverlap   Operator = "overlap"
	OpContains  Operator = "contains"
	OpContained Operator = "contained"
	OpAny       Operator = "any"

	// OpCol compares against another column instead of a value.
	OpCol Operator = "col"
)

// operatorOrder fixes the rendering order of operator keys in a map.
var operatorOrder = []Operator{
	OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIs, OpNot,
	OpIn, OpNotIn, OpBetween, OpNotBetween,
	OpLike, OpNotLike, OpILike, OpNotILike, OpStartsWith, OpEndsWith, OpSubstring,
	OpRegexp, OpNotRegexp, OpIRegexp, OpNotIRegexp,
	OpOverlap, OpContains, OpContained, OpAny, OpCol,
	OpAnd, OpOr,
}

var operatorRank = func() map[Operator]int {
	m := make(map[Operator]int, len(operatorOrder))
	for i, op := range operatorOrder {
		m[op] = i
	}
	return m
}()

// Rank returns the deterministic ordering position of an operator.
func (o Operator) Rank() int {
	if r, ok := operatorRank[o]; ok {
		return r
	}
	return len(operatorOrder)
}

// Valid reports whether the operator is known.
func (o Operator) Valid() bool {
	_, ok := operatorRank[o]
	return ok
}

// Logical reports whether the operator combines predicates.
func (o Operator) Logical() bool {
	return o == OpAnd || o == OpOr || o == OpNot
}

// ParseOperator resolves an operator name, with or without a leading "$"
// (the descriptor file form, e.g. "$gte").
func ParseOperator(name string) (Operator, error) {
	if len(name) > 0 && name[0] == '$' {
		name = name[1:]
	}
	op := Operator(name)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operator %q", name)
	}
	return op, nil
}
