package types

// Expression is a node of the expression tree. Nodes are immutable values
// and carry no dialect state; the same node serializes identically given the
// same dialect and bind context.
type Expression interface {
	expression()
}

// Literal is a trusted SQL fragment. It may reference named replacements
// (:name) but never positional ones.
type Literal struct {
	SQL string
}

// Raw is a trusted SQL fragment carrying its own named replacements, which
// are substituted inline. Positional $n references to user binds are allowed.
type Raw struct {
	SQL          string
	Replacements map[string]any
}

// Value is an explicit value, bound or inlined per the statement's style.
type Value struct {
	V any
}

// Column references a column by its database name. Table is an alias or a
// "->" joined include path.
type Column struct {
	Name  string
	Table string
}

// Attribute references a model attribute, resolved to its column through
// the model metadata.
type Attribute struct {
	Name string
}

// Fn is a SQL function call. Arguments that are not expressions are values.
type Fn struct {
	Name string
	Args []any
}

// Cast is CAST(expr AS type).
type Cast struct {
	Expr any
	Type string
}

// Where is a predicate on a left operand. When Op is empty, Right must be a
// WhereOptions of operator keys applied to Left.
type Where struct {
	Left  any
	Op    Operator
	Right any
}

// And is a conjunction.
type And struct {
	Children []any
}

// Or is a disjunction.
type Or struct {
	Children []any
}

// Not negates its child.
type Not struct {
	Child any
}

// Fragment is already-rendered SQL. It is produced by the compiler itself
// and never scanned for placeholders.
type Fragment struct {
	SQL string
}

func (Literal) expression()   {}
func (Raw) expression()       {}
func (Value) expression()     {}
func (Column) expression()    {}
func (Attribute) expression() {}
func (Fn) expression()        {}
func (Cast) expression()      {}
func (Where) expression()     {}
func (And) expression()       {}
func (Or) expression()        {}
func (Not) expression()       {}
func (Fragment) expression()  {}
