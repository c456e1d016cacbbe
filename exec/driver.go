// Package exec runs compiled statements through database/sql.
//
// Statements are routed by kind: SELECT and statements that return rows
// are queried, everything else is executed. The query text is never
// inspected to decide.
package exec

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/zoobzio/stmtql"
	_ "modernc.org/sqlite"
)

// DriverName returns the database/sql driver used for a dialect.
func DriverName(d stmtql.Dialect) (string, error) {
	switch d {
	case stmtql.Postgres:
		return "pgx", nil
	case stmtql.MySQL, stmtql.MariaDB:
		return "mysql", nil
	case stmtql.SQLite:
		return "sqlite", nil
	case stmtql.MSSQL:
		return "sqlserver", nil
	}
	return "", fmt.Errorf("no database/sql driver is bundled for %s", d)
}

// Open connects to a database of the given dialect and verifies the
// connection. MySQL and MariaDB connections always parse DATE and
// DATETIME columns into time.Time.
func Open(ctx context.Context, d stmtql.Dialect, dsn string) (*sql.DB, error) {
	var db *sql.DB
	switch d {
	case stmtql.MySQL, stmtql.MariaDB:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse %s dsn: %w", d, err)
		}
		cfg.ParseTime = true
		conn, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("create %s connector: %w", d, err)
		}
		db = sql.OpenDB(conn)
	case stmtql.MSSQL:
		conn, err := mssql.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("create %s connector: %w", d, err)
		}
		db = sql.OpenDB(conn)
	default:
		name, err := DriverName(d)
		if err != nil {
			return nil, err
		}
		if db, err = sql.Open(name, dsn); err != nil {
			return nil, fmt.Errorf("open %s: %w", d, err)
		}
	}
	if d == stmtql.SQLite {
		// Every connection to an in-memory database is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	return db, nil
}
