package render

import (
	"fmt"
	"strings"
)

// UnsupportedOptionError indicates options the dialect cannot honour for an
// operation. All offending options of one statement are reported together.
type UnsupportedOptionError struct {
	Operation string
	Dialect   string
	Options   []string
	Hint      string
}

func (e UnsupportedOptionError) Error() string {
	msg := fmt.Sprintf("%s: %s does not support %s", e.Dialect, e.Operation, strings.Join(e.Options, ", "))
	if e.Hint != "" {
		return msg + ": " + e.Hint
	}
	return msg
}

// NewUnsupportedOptionError creates a new unsupported option error.
func NewUnsupportedOptionError(dialect, operation string, options []string, hint ...string) error {
	err := UnsupportedOptionError{Operation: operation, Dialect: dialect, Options: options}
	if len(hint) > 0 {
		err.Hint = hint[0]
	}
	return err
}

// OptionCollector accumulates unsupported options for one statement.
type OptionCollector struct {
	operation string
	dialect   string
	options   []string
	hints     []string
}

// NewOptionCollector starts collecting for an operation.
func NewOptionCollector(caps Capabilities, operation string) *OptionCollector {
	return &OptionCollector{operation: operation, dialect: caps.Name()}
}

// Add records an unsupported option. Duplicates are ignored.
func (c *OptionCollector) Add(option string, hint ...string) {
	for _, o := range c.options {
		if o == option {
			return
		}
	}
	c.options = append(c.options, option)
	c.hints = append(c.hints, hint...)
}

// Err returns nil when nothing was collected.
func (c *OptionCollector) Err() error {
	if len(c.options) == 0 {
		return nil
	}
	return UnsupportedOptionError{
		Operation: c.operation,
		Dialect:   c.dialect,
		Options:   c.options,
		Hint:      strings.Join(c.hints, "; "),
	}
}

// MissingReplacementError indicates a :name placeholder without a value.
type MissingReplacementError struct {
	Name string
}

func (e MissingReplacementError) Error() string {
	return fmt.Sprintf("named replacement %q has no value", e.Name)
}

// AmbiguousPositionalReplacementError indicates a positional placeholder in
// literal text.
type AmbiguousPositionalReplacementError struct {
	Placeholder string
	Fragment    string
}

func (e AmbiguousPositionalReplacementError) Error() string {
	return fmt.Sprintf("the following literal includes positional replacements (%s). "+
		"Only named replacements (:name) are allowed in literal() because we cannot guarantee "+
		"the order in which they will be evaluated: %s", e.Placeholder, e.Fragment)
}

// InvalidPredicateShapeError indicates a where/having value of the wrong form.
type InvalidPredicateShapeError struct {
	Clause string
	Got    string
	Hint   string
}

func (e InvalidPredicateShapeError) Error() string {
	msg := fmt.Sprintf("invalid %s predicate of type %s", e.Clause, e.Got)
	if e.Hint != "" {
		return msg + ": " + e.Hint
	}
	return msg
}

// DuplicateAliasError indicates two includes with one alias at one level.
type DuplicateAliasError struct {
	Alias  string
	Parent string
}

func (e DuplicateAliasError) Error() string {
	return fmt.Sprintf("duplicate alias %q under %q", e.Alias, e.Parent)
}

// UnknownScopeError indicates a reference to an undeclared scope.
type UnknownScopeError struct {
	Model string
	Scope string
}

func (e UnknownScopeError) Error() string {
	return fmt.Sprintf("scope %q is not defined on model %q", e.Scope, e.Model)
}

// ScopeRedefinitionError indicates a scope declared twice without override.
type ScopeRedefinitionError struct {
	Model string
	Scope string
}

func (e ScopeRedefinitionError) Error() string {
	return fmt.Sprintf("scope %q is already defined on model %q; pass the override option to replace it", e.Scope, e.Model)
}

// ReservedBindNameError indicates user bind keys using the generated prefix.
type ReservedBindNameError struct {
	Names []string
}

func (e ReservedBindNameError) Error() string {
	return fmt.Sprintf("Bind parameters cannot start with \"sequelize_\", these bind parameters use that prefix: %s",
		strings.Join(e.Names, ", "))
}

// InvalidAssociationReferenceError indicates an include naming no
// association of its parent.
type InvalidAssociationReferenceError struct {
	Model     string
	Reference string
	Option    string
}

func (e InvalidAssociationReferenceError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("cannot apply %q: %q is not associated to %q", e.Option, e.Reference, e.Model)
	}
	return fmt.Sprintf("%q is not associated to %q", e.Reference, e.Model)
}

// LimitRequiresModelError indicates a mutation LIMIT on a bare table target
// for a dialect that rewrites it through the primary key.
type LimitRequiresModelError struct {
	Operation string
	Dialect   string
}

func (e LimitRequiresModelError) Error() string {
	return fmt.Sprintf("%s: using LIMIT in %s requires a model with a primary key", e.Dialect, e.Operation)
}
