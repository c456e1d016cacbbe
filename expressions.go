package stmtql

import (
	"fmt"
	"regexp"

	"github.com/zoobzio/stmtql/internal/types"
)

var (
	functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	sqlTypeName  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ ]*(\([0-9, ]*\)|\(MAX\)|\(max\))?(\[\])?$`)
)

// Literal creates a trusted SQL fragment. It may reference named
// replacements (:name); positional placeholders are rejected at compile time.
func Literal(sql string) types.Literal {
	return types.Literal{SQL: sql}
}

// Raw creates a trusted SQL fragment with its own named replacements.
func Raw(sql string, replacements map[string]any) types.Raw {
	return types.Raw{SQL: sql, Replacements: replacements}
}

// Value wraps an explicit value, bound or inlined per the statement style.
func Value(v any) types.Value {
	return types.Value{V: v}
}

// Attribute references a model attribute by name.
func Attribute(name string) types.Attribute {
	return types.Attribute{Name: name}
}

// TryCol creates a column reference, returning an error if invalid. The
// optional table is an alias or a "->" joined include path.
func TryCol(name string, table ...string) (types.Column, error) {
	if name == "" {
		return types.Column{}, fmt.Errorf("column name cannot be empty")
	}
	if len(table) > 1 {
		return types.Column{}, fmt.Errorf("column %q: at most one table alias", name)
	}
	col := types.Column{Name: name}
	if len(table) == 1 {
		col.Table = table[0]
	}
	return col, nil
}

// Col creates a column reference.
func Col(name string, table ...string) types.Column {
	c, err := TryCol(name, table...)
	if err != nil {
		panic(err)
	}
	return c
}

// TryFn creates a function call, returning an error if invalid.
func TryFn(name string, args ...any) (types.Fn, error) {
	if !functionName.MatchString(name) {
		return types.Fn{}, fmt.Errorf("invalid function name %q", name)
	}
	return types.Fn{Name: name, Args: args}, nil
}

// Fn creates a function call.
func Fn(name string, args ...any) types.Fn {
	f, err := TryFn(name, args...)
	if err != nil {
		panic(err)
	}
	return f
}

// TryCast creates CAST(expr AS sqlType), returning an error if invalid.
func TryCast(expr any, sqlType string) (types.Cast, error) {
	if !sqlTypeName.MatchString(sqlType) {
		return types.Cast{}, fmt.Errorf("invalid cast type %q", sqlType)
	}
	return types.Cast{Expr: expr, Type: sqlType}, nil
}

// Cast creates CAST(expr AS sqlType).
func Cast(expr any, sqlType string) types.Cast {
	c, err := TryCast(expr, sqlType)
	if err != nil {
		panic(err)
	}
	return c
}

// Count creates COUNT(arg); with no argument it counts rows.
func Count(arg ...any) types.Fn {
	if len(arg) == 0 {
		return Fn("COUNT", Literal("*"))
	}
	return Fn("COUNT", arg...)
}

// Sum creates SUM(attribute).
func Sum(attribute string) types.Fn {
	return Fn("SUM", Attribute(attribute))
}

// Avg creates AVG(attribute).
func Avg(attribute string) types.Fn {
	return Fn("AVG", Attribute(attribute))
}

// Min creates MIN(attribute).
func Min(attribute string) types.Fn {
	return Fn("MIN", Attribute(attribute))
}

// Max creates MAX(attribute).
func Max(attribute string) types.Fn {
	return Fn("MAX", Attribute(attribute))
}

// Alias selects expr under an alias.
func Alias(expr any, alias string) types.As {
	return types.As{Expr: expr, Alias: alias}
}

// Asc orders by an attribute ascending.
func Asc(attribute string) types.OrderItem {
	return types.OrderItem{Attribute: attribute, Direction: "ASC"}
}

// Desc orders by an attribute descending.
func Desc(attribute string) types.OrderItem {
	return types.OrderItem{Attribute: attribute, Direction: "DESC"}
}

// OrderBy orders by an attribute of an included association path.
func OrderBy(path []string, attribute, direction string) types.OrderItem {
	return types.OrderItem{Path: path, Attribute: attribute, Direction: direction}
}

// OrderByExpr orders by an expression.
func OrderByExpr(expr any, direction string) types.OrderItem {
	return types.OrderItem{Expr: expr, Direction: direction}
}

// ReturnAll requests every column of the affected rows.
func ReturnAll() *types.Returning {
	return &types.Returning{All: true}
}

// ReturnColumns requests the given attributes or expressions.
func ReturnColumns(columns ...any) *types.Returning {
	return &types.Returning{Columns: columns}
}

// Scope references a named scope, with arguments for function scopes.
func Scope(name string, args ...any) types.ScopeRef {
	return types.ScopeRef{Name: name, Args: args}
}

// Int returns a pointer to n, for Limit and Offset.
func Int(n int) *int {
	return &n
}

// Bool returns a pointer to b, for Required and SubQuery.
func Bool(b bool) *bool {
	return &b
}
