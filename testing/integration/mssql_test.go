package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/mssql"
	"github.com/zoobzio/stmtql"
)

// MSSQLContainer wraps a testcontainers SQL Server instance.
type MSSQLContainer struct {
	container *mssql.MSSQLServerContainer
	db        *sql.DB
}

func setupMSSQL(t *testing.T, opts ...stmtql.Option) *harness {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	mc := getMSSQLContainer(t)
	execAll(ctx, t, mc.db,
		"DROP TABLE IF EXISTS [posts]",
		"DROP TABLE IF EXISTS [users]",
		"CREATE TABLE [users] ("+
			"[id] BIGINT IDENTITY(1,1) PRIMARY KEY, "+
			"[username] NVARCHAR(255) NOT NULL UNIQUE, "+
			"[email] NVARCHAR(255) NOT NULL, "+
			"[age] INT, "+
			"[active] BIT DEFAULT 1)",
		"CREATE TABLE [posts] ("+
			"[id] BIGINT IDENTITY(1,1) PRIMARY KEY, "+
			"[user_id] BIGINT, "+
			"[title] NVARCHAR(255) NOT NULL, "+
			"[views] INT DEFAULT 0, "+
			"[published] BIT DEFAULT 0)",
	)
	return newHarness(t, stmtql.MSSQL, mc.db, opts...)
}

func TestMSSQL_Scenario(t *testing.T) {
	scenario(t, setupMSSQL(t))
}

func TestMSSQL_Output(t *testing.T) {
	h := setupMSSQL(t)
	h.seed()

	res := h.run(stmtql.Insert("User").
		Set("username", "eve").
		Set("email", "eve@example.com").
		Returning("id"))
	if len(res.Rows) != 1 || toInt(res.Rows[0]["id"]) != 5 {
		t.Errorf("Expected id 5, got %v", res.Rows)
	}

	res = h.run(stmtql.Update("User").
		Set("age", 26).
		Where(stmtql.WhereOptions{"username": "bob"}).
		Returning())
	if len(res.Rows) != 1 || toInt(res.Rows[0]["age"]) != 26 {
		t.Errorf("Expected bob at 26, got %v", res.Rows)
	}
}

func TestMSSQL_Top(t *testing.T) {
	h := setupMSSQL(t)
	h.seed()

	res := h.run(stmtql.Select("User").Attributes("username").Order(stmtql.Desc("age")).Limit(1))
	assertColumn(t, res.Rows, "username", "charlie")
}

func TestMSSQL_LegacyPagination(t *testing.T) {
	h := setupMSSQL(t, stmtql.WithDatabaseVersion("10.50.0"))
	h.seed()

	res := h.run(stmtql.Select("User").Attributes("username").Order(stmtql.Asc("id")).Limit(2))
	assertColumn(t, res.Rows, "username", "alice", "bob")
}

func TestMSSQL_Merge(t *testing.T) {
	h := setupMSSQL(t)
	h.seed()

	h.run(stmtql.Insert("User").
		Set("username", "alice").
		Set("email", "alice@example.com").
		Set("age", 40).
		OnConflict("username").
		DoUpdate("age"))

	res := h.run(stmtql.Select("User").Attributes("age").Where(stmtql.WhereOptions{"username": "alice"}))
	if len(res.Rows) != 1 || toInt(res.Rows[0]["age"]) != 40 {
		t.Errorf("Expected age 40, got %v", res.Rows)
	}
}
