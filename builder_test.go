package stmtql_test

import (
	"testing"

	"github.com/zoobzio/stmtql"
	stmtqltest "github.com/zoobzio/stmtql/testing"
)

func TestBuilder_Select(t *testing.T) {
	kind, q, err := stmtql.Select("User").Build()

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if kind != stmtql.KindSelect {
		t.Errorf("Expected SELECT, got %v", kind)
	}
	if q.Model != "User" {
		t.Errorf("Expected model 'User', got '%s'", q.Model)
	}
}

func TestBuilder_Kinds(t *testing.T) {
	tests := []struct {
		builder *stmtql.Builder
		want    stmtql.StatementKind
	}{
		{stmtql.Select("User"), stmtql.KindSelect},
		{stmtql.Insert("User"), stmtql.KindInsert},
		{stmtql.BulkInsert("User"), stmtql.KindBulkInsert},
		{stmtql.Update("User"), stmtql.KindUpdate},
		{stmtql.Delete("User"), stmtql.KindDelete},
		{stmtql.Upsert("User"), stmtql.KindUpsert},
	}
	for _, tt := range tests {
		if got := tt.builder.Kind(); got != tt.want {
			t.Errorf("Kind() = %v, want %v", got, tt.want)
		}
	}
}

func TestBuilder_RequiresTarget(t *testing.T) {
	_, _, err := stmtql.Select("").Build()
	if err == nil {
		t.Fatal("Expected error for missing model")
	}
}

func TestBuilder_WrongKind(t *testing.T) {
	tests := []struct {
		name    string
		builder *stmtql.Builder
		method  string
	}{
		{"Set on select", stmtql.Select("User").Set("firstName", "A"), "Set()"},
		{"Where on insert", stmtql.Insert("User").Where(stmtql.WhereOptions{"id": 1}), "Where()"},
		{"Include on update", stmtql.Update("User").Include(stmtql.Include{Association: "posts"}), "Include()"},
		{"Row on insert", stmtql.Insert("User").Row(map[string]any{"id": 1}), "Row()"},
		{"Truncate on update", stmtql.Update("User").Truncate(false, false), "Truncate()"},
		{"Lock on delete", stmtql.Delete("User").Lock(stmtql.LockUpdate), "Lock()"},
		{"Returning on select", stmtql.Select("User").Returning(), "Returning()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.builder.Build()
			stmtqltest.AssertErrorContains(t, err, tt.method)
		})
	}
}

func TestBuilder_FirstErrorWins(t *testing.T) {
	b := stmtql.Select("User").Set("firstName", "A").Row(map[string]any{})
	stmtqltest.AssertErrorContains(t, b.GetError(), "Set()")
}

func TestBuilder_SetError(t *testing.T) {
	b := stmtql.Select("User")
	b.SetError(errTest)
	if _, _, err := b.Build(); err != errTest {
		t.Errorf("Expected the set error, got %v", err)
	}
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("boom")

func TestBuilder_WhereAccumulates(t *testing.T) {
	c := stmtqltest.Compiler(t, stmtql.Postgres)

	st, err := stmtql.Select("User").
		Attributes("id").
		Where(stmtql.WhereOptions{"firstName": "Ada"}).
		Where(stmtql.WhereOptions{"active": true}).
		Compile(c)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	stmtqltest.AssertSQL(t, `SELECT "id" FROM "Users" AS "User" WHERE "User"."firstName" = $sequelize_1 AND "User"."active" = $sequelize_2;`, st.Query)
}

func TestBuilder_SelectChain(t *testing.T) {
	c := stmtqltest.Compiler(t, stmtql.Postgres)

	st := stmtql.Select("User").
		Attributes("id", "lastName").
		Order(stmtql.Desc("id")).
		Limit(10).
		MustCompile(c)

	stmtqltest.AssertSQL(t, `SELECT "id", "last_name" AS "lastName" FROM "Users" AS "User" ORDER BY "User"."id" DESC LIMIT 10;`, st.Query)
}

func TestBuilder_Exclude(t *testing.T) {
	_, q, err := stmtql.Select("User").Exclude("email").Exclude("active").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := q.Attributes.Exclude; len(got) != 2 || got[0] != "email" || got[1] != "active" {
		t.Errorf("Exclude = %v", got)
	}
}

func TestBuilder_Group(t *testing.T) {
	_, q, err := stmtql.Select("User").Group("email").Group("active").Having(stmtql.Where(stmtql.Count(), stmtql.OpGt, 1)).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(q.Group) != 2 {
		t.Errorf("Expected 2 group items, got %d", len(q.Group))
	}
	if q.Having == nil {
		t.Error("Expected having to be set")
	}
}

func TestBuilder_Flags(t *testing.T) {
	_, q, err := stmtql.Select("User").
		Distinct().
		SubQuery(false).
		Unscoped().
		MinifyAliases().
		Style(stmtql.StyleReplacement).
		Replacements(map[string]any{"n": 1}).
		Offset(5).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !q.Distinct || !q.Unscoped || !q.MinifyAliases {
		t.Error("Expected distinct, unscoped and minify flags")
	}
	if q.SubQuery == nil || *q.SubQuery {
		t.Error("Expected subQuery to be explicitly disabled")
	}
	if q.ParameterStyle != stmtql.StyleReplacement {
		t.Errorf("ParameterStyle = %v", q.ParameterStyle)
	}
	if q.Offset == nil || *q.Offset != 5 {
		t.Errorf("Offset = %v", q.Offset)
	}
}

func TestBuilder_Scopes(t *testing.T) {
	_, q, err := stmtql.Select("User").Scopes(stmtql.Scope("active"), stmtql.Scope("named", "Ada")).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(q.Scopes) != 2 || q.Scopes[1].Name != "named" || q.Scopes[1].Args[0] != "Ada" {
		t.Errorf("Scopes = %+v", q.Scopes)
	}
}

func TestBuilder_Values(t *testing.T) {
	_, q, err := stmtql.Update("User").Values(map[string]any{"firstName": "A"}).Set("email", "a@example.com").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(q.Values) != 2 {
		t.Errorf("Expected 2 values, got %v", q.Values)
	}
}

func TestBuilder_Returning(t *testing.T) {
	_, q, err := stmtql.Insert("User").Returning().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if q.Returning == nil || !q.Returning.All {
		t.Errorf("Expected returning all, got %+v", q.Returning)
	}

	_, q, err = stmtql.Insert("User").Returning("id", "email").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if q.Returning == nil || q.Returning.All || len(q.Returning.Columns) != 2 {
		t.Errorf("Expected two returning columns, got %+v", q.Returning)
	}
}

func TestBuilder_OnConflict(t *testing.T) {
	t.Run("insert becomes upsert", func(t *testing.T) {
		kind, q, err := stmtql.Insert("User").Set("id", 1).OnConflict("id").DoUpdate("firstName").Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if kind != stmtql.KindUpsert {
			t.Errorf("Expected UPSERT, got %v", kind)
		}
		if len(q.ConflictFields) != 1 || q.ConflictFields[0] != "id" {
			t.Errorf("ConflictFields = %v", q.ConflictFields)
		}
		if len(q.UpdateOnDuplicate) != 1 || q.UpdateOnDuplicate[0] != "firstName" {
			t.Errorf("UpdateOnDuplicate = %v", q.UpdateOnDuplicate)
		}
	})

	t.Run("bulk insert stays bulk", func(t *testing.T) {
		kind, q, err := stmtql.BulkInsert("User").Row(map[string]any{"id": 1}).OnConflict().DoNothing().Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if kind != stmtql.KindBulkInsert || !q.IgnoreDuplicates {
			t.Errorf("Expected ignoring bulk insert, got %v %+v", kind, q)
		}
	})

	t.Run("bulk update needs attributes", func(t *testing.T) {
		_, _, err := stmtql.BulkInsert("User").Row(map[string]any{"id": 1}).OnConflict().DoUpdate().Build()
		stmtqltest.AssertErrorContains(t, err, "needs the attributes to update")
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, _, err := stmtql.Select("User").OnConflict("id").DoNothing().Build()
		stmtqltest.AssertErrorContains(t, err, "OnConflict()")
	})
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	stmtqltest.AssertPanics(t, func() {
		stmtql.Select("User").Set("id", 1).MustBuild()
	})
}

func TestBuilder_MustCompilePanics(t *testing.T) {
	c := stmtqltest.Compiler(t, stmtql.Postgres)
	stmtqltest.AssertPanics(t, func() {
		stmtql.Select("Missing").MustCompile(c)
	})
}
