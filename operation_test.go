package stmtql

import "testing"

func TestStatementKinds(t *testing.T) {
	tests := []struct {
		kind     StatementKind
		expected string
		mutates  bool
	}{
		{KindSelect, "SELECT", false},
		{KindInsert, "INSERT", true},
		{KindBulkInsert, "BULK INSERT", true},
		{KindUpdate, "UPDATE", true},
		{KindDelete, "DELETE", true},
		{KindUpsert, "UPSERT", true},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if tt.kind.String() != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, tt.kind.String())
			}
			if tt.kind.Mutates() != tt.mutates {
				t.Errorf("Mutates() = %v, want %v", tt.kind.Mutates(), tt.mutates)
			}
		})
	}
}

func TestCompile_UnknownKind(t *testing.T) {
	_, err := MustNew(Postgres).Compile(StatementKind(99), QueryDescriptor{Table: &TableRef{Name: "events"}})
	if err == nil {
		t.Error("Expected error for unknown statement kind")
	}
}

func TestParseStatementKind(t *testing.T) {
	tests := map[string]StatementKind{
		"select":      KindSelect,
		"INSERT":      KindInsert,
		"bulkInsert":  KindBulkInsert,
		"bulk_insert": KindBulkInsert,
		"bulk insert": KindBulkInsert,
		"update":      KindUpdate,
		"delete":      KindDelete,
		"upsert":      KindUpsert,
	}
	for name, want := range tests {
		got, err := ParseStatementKind(name)
		if err != nil {
			t.Errorf("ParseStatementKind(%q) failed: %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatementKind(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseStatementKind("merge"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}

func TestParseParameterStyle(t *testing.T) {
	tests := map[string]ParameterStyle{
		"":            StyleDefault,
		"bind":        StyleBind,
		"Replacement": StyleReplacement,
	}
	for name, want := range tests {
		got, err := ParseParameterStyle(name)
		if err != nil {
			t.Fatalf("ParseParameterStyle(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("ParseParameterStyle(%q) = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseParameterStyle("inline"); err == nil {
		t.Error("Expected error for unknown style")
	}
}
