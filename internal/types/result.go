package types

// StatementKind tags a compiled statement. It is set once by the compiler
// and never re-derived from SQL text.
type StatementKind int

const (
	KindSelect StatementKind = iota + 1
	KindInsert
	KindBulkInsert
	KindUpdate
	KindDelete
	KindUpsert
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindBulkInsert:
		return "BULK INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindUpsert:
		return "UPSERT"
	}
	return "UNKNOWN"
}

// Mutates reports whether the statement changes data.
func (k StatementKind) Mutates() bool {
	return k != KindSelect
}
