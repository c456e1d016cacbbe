package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mariadb"
	"github.com/zoobzio/stmtql"
)

// MariaDBContainer wraps a testcontainers MariaDB instance. It also serves
// the mysql dialect.
type MariaDBContainer struct {
	container *mariadb.MariaDBContainer
	db        *sql.DB
}

func execAll(ctx context.Context, t *testing.T, db *sql.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("Failed to execute SQL: %v\nSQL: %s", err, s)
		}
	}
}

func setupMariaDB(t *testing.T, d stmtql.Dialect) *harness {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	mc := getMariaDBContainer(t)
	execAll(ctx, t, mc.db,
		"DROP TABLE IF EXISTS `posts`, `users`",
		"CREATE TABLE `users` ("+
			"`id` BIGINT AUTO_INCREMENT PRIMARY KEY, "+
			"`username` VARCHAR(255) NOT NULL UNIQUE, "+
			"`email` VARCHAR(255) NOT NULL, "+
			"`age` INT, "+
			"`active` BOOLEAN DEFAULT true)",
		"CREATE TABLE `posts` ("+
			"`id` BIGINT AUTO_INCREMENT PRIMARY KEY, "+
			"`user_id` BIGINT, "+
			"`title` VARCHAR(255) NOT NULL, "+
			"`views` INT DEFAULT 0, "+
			"`published` BOOLEAN DEFAULT false)",
	)
	return newHarness(t, d, mc.db)
}

func TestMariaDB_Scenario(t *testing.T) {
	scenario(t, setupMariaDB(t, stmtql.MariaDB))
}

func TestMySQL_Scenario(t *testing.T) {
	scenario(t, setupMariaDB(t, stmtql.MySQL))
}

func TestMariaDB_DeleteReturning(t *testing.T) {
	h := setupMariaDB(t, stmtql.MariaDB)
	h.seed()

	res := h.run(stmtql.Delete("User").Where(stmtql.WhereOptions{"username": "bob"}).Returning("id"))
	if len(res.Rows) != 1 || toInt(res.Rows[0]["id"]) != 2 {
		t.Errorf("Expected id 2, got %v", res.Rows)
	}
}

func TestMySQL_OnDuplicateKey(t *testing.T) {
	h := setupMariaDB(t, stmtql.MySQL)
	h.seed()

	h.run(stmtql.Insert("User").
		Set("username", "alice").
		Set("email", "alice@example.com").
		Set("age", 40).
		OnConflict().
		DoUpdate("age"))

	res := h.run(stmtql.Select("User").Attributes("age").Where(stmtql.WhereOptions{"username": "alice"}))
	if len(res.Rows) != 1 || toInt(res.Rows[0]["age"]) != 40 {
		t.Errorf("Expected age 40, got %v", res.Rows)
	}
}

func TestMySQL_InsertIgnore(t *testing.T) {
	h := setupMariaDB(t, stmtql.MySQL)
	h.seed()

	res := h.run(stmtql.Insert("User").
		Set("username", "bob").
		Set("email", "other@example.com").
		IgnoreDuplicates())
	if res.RowsAffected != 0 {
		t.Errorf("Expected the duplicate to be skipped, got %d rows", res.RowsAffected)
	}
}

func TestMySQL_ReplacementEscapes(t *testing.T) {
	h := setupMariaDB(t, stmtql.MySQL)
	h.c = mustCompiler(t, stmtql.MySQL, stmtql.WithParameterStyle(stmtql.StyleReplacement))
	h.seed()

	res := h.run(stmtql.Select("User").
		Attributes("username").
		Where(stmtql.WhereOptions{"email": `bob@example.com\' OR 1=1 -- `}))
	if len(res.Rows) != 0 {
		t.Errorf("Expected the escaped literal to match nothing, got %v", res.Rows)
	}
}

func TestMySQL_Regexp(t *testing.T) {
	h := setupMariaDB(t, stmtql.MySQL)
	h.seed()

	res := h.run(stmtql.Select("User").
		Attributes("username").
		Where(stmtql.WhereOptions{"username": stmtql.WhereOptions{stmtql.OpRegexp: "^(bob|diana)$"}}).
		Order(stmtql.Asc("id")))
	assertColumn(t, res.Rows, "username", "bob", "diana")
}
