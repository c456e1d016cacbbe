package stmtql

import (
	"fmt"

	"github.com/zoobzio/stmtql/internal/types"
)

// TryWhere creates a predicate on left, returning an error if invalid.
// Left is an attribute name or an expression. With an empty op, right is
// shorthand: nil, a scalar, a list or a WhereOptions of operators.
func TryWhere(left any, op Operator, right any) (types.Where, error) {
	switch l := left.(type) {
	case string:
		if l == "" {
			return types.Where{}, fmt.Errorf("where requires a left operand")
		}
	case types.Expression:
	default:
		return types.Where{}, fmt.Errorf("where left operand must be an attribute name or expression, got %T", left)
	}
	if op != "" && !op.Valid() {
		return types.Where{}, fmt.Errorf("unknown operator %q", string(op))
	}
	if op.Logical() {
		return types.Where{}, fmt.Errorf("operator %q combines predicates; use And, Or or Not", string(op))
	}
	return types.Where{Left: left, Op: op, Right: right}, nil
}

// Where creates a predicate on left.
func Where(left any, op Operator, right any) types.Where {
	w, err := TryWhere(left, op, right)
	if err != nil {
		panic(err)
	}
	return w
}

// TryAnd creates a conjunction, returning an error if invalid.
func TryAnd(predicates ...any) (types.And, error) {
	if len(predicates) == 0 {
		return types.And{}, fmt.Errorf("AND requires at least one predicate")
	}
	return types.And{Children: predicates}, nil
}

// And creates a conjunction.
func And(predicates ...any) types.And {
	a, err := TryAnd(predicates...)
	if err != nil {
		panic(err)
	}
	return a
}

// TryOr creates a disjunction, returning an error if invalid.
func TryOr(predicates ...any) (types.Or, error) {
	if len(predicates) == 0 {
		return types.Or{}, fmt.Errorf("OR requires at least one predicate")
	}
	return types.Or{Children: predicates}, nil
}

// Or creates a disjunction.
func Or(predicates ...any) types.Or {
	o, err := TryOr(predicates...)
	if err != nil {
		panic(err)
	}
	return o
}

// Not negates a predicate.
func Not(predicate any) types.Not {
	return types.Not{Child: predicate}
}

// Null creates an IS NULL predicate.
func Null(attribute string) types.Where {
	return Where(attribute, OpIs, nil)
}

// NotNull creates an IS NOT NULL predicate.
func NotNull(attribute string) types.Where {
	return Where(attribute, OpNe, nil)
}
