package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/zoobzio/dbml"
	"github.com/zoobzio/stmtql"
	"github.com/zoobzio/stmtql/exec"
	"github.com/zoobzio/stmtql/model"
)

// registry builds the User and Post models from the DBML of the test
// schema. posts.user_id links Post belongsTo User and User hasMany Post.
func registry(t *testing.T) *model.Registry {
	t.Helper()

	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("email", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	project.AddTable(users)

	posts := dbml.NewTable("posts")
	posts.AddColumn(dbml.NewColumn("id", "bigint"))
	posts.AddColumn(dbml.NewColumn("user_id", "bigint"))
	posts.AddColumn(dbml.NewColumn("title", "varchar"))
	posts.AddColumn(dbml.NewColumn("views", "int"))
	posts.AddColumn(dbml.NewColumn("published", "boolean"))
	project.AddTable(posts)

	reg, err := model.FromDBML(project)
	if err != nil {
		t.Fatalf("Failed to build registry: %v", err)
	}
	return reg
}

// harness compiles builders for one dialect and runs them on db.
type harness struct {
	t      *testing.T
	ctx    context.Context
	c      *stmtql.Compiler
	runner *exec.Runner
}

func newHarness(t *testing.T, d stmtql.Dialect, db *sql.DB, opts ...stmtql.Option) *harness {
	t.Helper()
	return &harness{t: t, ctx: context.Background(), c: mustCompiler(t, d, opts...), runner: exec.NewRunner(db)}
}

func mustCompiler(t *testing.T, d stmtql.Dialect, opts ...stmtql.Option) *stmtql.Compiler {
	t.Helper()
	c, err := stmtql.NewForDialect(d, append(opts, stmtql.WithRegistry(registry(t)))...)
	if err != nil {
		t.Fatalf("Failed to create compiler: %v", err)
	}
	return c
}

func (h *harness) run(b *stmtql.Builder) *exec.Result {
	h.t.Helper()
	st, err := b.Compile(h.c)
	if err != nil {
		h.t.Fatalf("Compile failed: %v", err)
	}
	res, err := h.runner.Run(h.ctx, st)
	if err != nil {
		h.t.Fatalf("Run failed: %v\nSQL: %s", err, st.Query)
	}
	return res
}

// seed inserts four users and four posts through bulk inserts.
func (h *harness) seed() {
	h.t.Helper()
	h.run(stmtql.BulkInsert("User").
		Row(map[string]any{"username": "alice", "email": "alice@example.com", "age": 30, "active": true}).
		Row(map[string]any{"username": "bob", "email": "bob@example.com", "age": 25, "active": true}).
		Row(map[string]any{"username": "charlie", "email": "charlie@example.com", "age": 35, "active": false}).
		Row(map[string]any{"username": "diana", "email": "diana@example.com", "age": 28, "active": true}))
	h.run(stmtql.BulkInsert("Post").
		Row(map[string]any{"userId": 1, "title": "First Post", "views": 100, "published": true}).
		Row(map[string]any{"userId": 1, "title": "Second Post", "views": 50, "published": true}).
		Row(map[string]any{"userId": 2, "title": "Bob's Post", "views": 75, "published": true}).
		Row(map[string]any{"userId": 3, "title": "Draft Post", "views": 0, "published": false}))
}

// scenario runs the statements every dialect must execute identically.
func scenario(t *testing.T, h *harness) {
	h.seed()

	t.Run("filtered and ordered select", func(t *testing.T) {
		res := h.run(stmtql.Select("User").
			Attributes("username").
			Where(stmtql.WhereOptions{"active": true}).
			Order(stmtql.Desc("age")))
		assertColumn(t, res.Rows, "username", "alice", "diana", "bob")
	})

	t.Run("aggregate", func(t *testing.T) {
		res := h.run(stmtql.Select("User").
			Attributes(stmtql.Alias(stmtql.Count(), "n")).
			Where(stmtql.WhereOptions{"age": stmtql.WhereOptions{stmtql.OpGte: 28}}))
		if len(res.Rows) != 1 || toInt(res.Rows[0]["n"]) != 3 {
			t.Errorf("Expected n=3, got %v", res.Rows)
		}
	})

	t.Run("operators", func(t *testing.T) {
		res := h.run(stmtql.Select("User").
			Attributes("username").
			Where(stmtql.Or(
				stmtql.WhereOptions{"username": stmtql.WhereOptions{stmtql.OpStartsWith: "ch"}},
				stmtql.WhereOptions{"age": stmtql.WhereOptions{stmtql.OpBetween: []any{24, 26}}},
			)).
			Order(stmtql.Asc("id")))
		assertColumn(t, res.Rows, "username", "bob", "charlie")
	})

	t.Run("required include", func(t *testing.T) {
		res := h.run(stmtql.Select("User").
			Attributes("id", "username").
			Include(stmtql.Include{
				Association: "posts",
				Required:    stmtql.Bool(true),
				Where:       stmtql.WhereOptions{"published": true},
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
			}).
			Order(stmtql.Asc("id")))
		if len(res.Rows) != 3 {
			t.Fatalf("Expected 3 joined rows, got %d", len(res.Rows))
		}
		if got := toString(res.Rows[2]["posts.title"]); got != "Bob's Post" {
			t.Errorf("Expected Bob's Post, got %q", got)
		}
	})

	t.Run("update", func(t *testing.T) {
		res := h.run(stmtql.Update("User").Set("age", 31).Where(stmtql.WhereOptions{"username": "alice"}))
		if res.RowsAffected != 1 {
			t.Errorf("Expected 1 row updated, got %d", res.RowsAffected)
		}
	})

	t.Run("delete", func(t *testing.T) {
		res := h.run(stmtql.Delete("User").Where(stmtql.WhereOptions{"active": false}))
		if res.RowsAffected != 1 {
			t.Errorf("Expected 1 row deleted, got %d", res.RowsAffected)
		}
	})

	t.Run("pagination", func(t *testing.T) {
		res := h.run(stmtql.Select("User").
			Attributes("username").
			Order(stmtql.Asc("id")).
			Limit(2).
			Offset(1))
		assertColumn(t, res.Rows, "username", "bob", "diana")
	})
}

func assertColumn(t *testing.T, rows []exec.Row, col string, want ...string) {
	t.Helper()
	if len(rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d: %v", len(want), len(rows), rows)
	}
	for i, row := range rows {
		if got := toString(row[col]); got != want[i] {
			t.Errorf("Row %d: expected %s=%q, got %q", i, col, want[i], got)
		}
	}
}

// toString normalizes driver values; MySQL hands back text as []byte.
func toString(v any) string {
	switch s := v.(type) {
	case []byte:
		return string(s)
	case string:
		return s
	}
	return fmt.Sprint(v)
}

func toInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	n, err := strconv.ParseInt(toString(v), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
