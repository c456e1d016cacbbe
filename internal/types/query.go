package types

// FindOptions is the part of a query a scope can carry.
type FindOptions struct {
	Attributes *AttributeOptions
	Where      any
	Include    []Include
	Group      []any
	Having     any
	Order      []OrderItem
	Limit      *int
	Offset     *int
	Lock       LockMode
	Distinct   bool
	SubQuery   *bool
}

// Include is an eager-load request. Association names the association alias
// on the parent; Model (with optional As) selects it by target model.
type Include struct {
	Association string
	Model       string
	As          string

	// All expands to every association of the parent not listed
	// explicitly. AllKind filters by association kind; Nested recurses.
	All     bool
	AllKind string
	Nested  bool

	Required   *bool
	Where      any
	Attributes *AttributeOptions
	Include    []Include
	Through    *ThroughOptions
}

// Key identifies an include for merging.
func (i Include) Key() string {
	if i.Association != "" {
		return "association:" + i.Association
	}
	return "model:" + i.Model + "/" + i.As
}

// ThroughOptions configures the junction of a many-to-many include.
type ThroughOptions struct {
	Where      any
	Attributes *AttributeOptions
}

// ScopeRef names a scope to apply, with arguments for function scopes.
type ScopeRef struct {
	Name string
	Args []any
}

// QueryDescriptor is the full declarative input of one compile call.
type QueryDescriptor struct {
	// Model names a registered model; Table is used when Model is empty.
	Model string
	Table *TableRef

	// Scopes to apply. Nil applies the default scope; Unscoped skips it.
	Scopes   []ScopeRef
	Unscoped bool

	FindOptions

	// Values holds the row of an insert, update or upsert; Rows holds the
	// rows of a bulk insert.
	Values map[string]any
	Rows   []map[string]any

	Returning         *Returning
	IgnoreDuplicates  bool
	UpdateOnDuplicate []string
	ConflictFields    []string
	ConflictWhere     any

	Truncate        bool
	Cascade         bool
	RestartIdentity bool

	Replacements   map[string]any
	Bind           any
	ParameterStyle ParameterStyle
	MinifyAliases  bool
}
