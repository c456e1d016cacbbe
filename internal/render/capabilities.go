package render

import (
	"fmt"
	"strings"
)

// Dialect identifies a SQL engine.
type Dialect int

// Supported dialects.
const (
	Postgres Dialect = iota + 1
	MySQL
	MariaDB
	SQLite
	MSSQL
	DB2
	IBMi
	Snowflake
)

var dialectNames = map[Dialect]string{
	Postgres:  "postgres",
	MySQL:     "mysql",
	MariaDB:   "mariadb",
	SQLite:    "sqlite",
	MSSQL:     "mssql",
	DB2:       "db2",
	IBMi:      "ibmi",
	Snowflake: "snowflake",
}

// String returns the dialect name.
func (d Dialect) String() string {
	if name, ok := dialectNames[d]; ok {
		return name
	}
	return fmt.Sprintf("dialect(%d)", int(d))
}

// Dialects returns every known dialect in declaration order.
func Dialects() []Dialect {
	return []Dialect{Postgres, MySQL, MariaDB, SQLite, MSSQL, DB2, IBMi, Snowflake}
}

// ParseDialect resolves a dialect name. "postgresql", "sqlite3" and
// "sqlserver" are accepted as aliases.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	case "mysql":
		return MySQL, nil
	case "mariadb":
		return MariaDB, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mssql", "sqlserver":
		return MSSQL, nil
	case "db2":
		return DB2, nil
	case "ibmi":
		return IBMi, nil
	case "snowflake":
		return Snowflake, nil
	}
	return 0, fmt.Errorf("unknown dialect %q", name)
}

// RowLockingLevel indicates the level of row-level locking support.
type RowLockingLevel int

const (
	RowLockingNone  RowLockingLevel = iota // No row locking
	RowLockingBasic                        // FOR UPDATE, FOR SHARE
	RowLockingFull                         // + FOR NO KEY UPDATE, FOR KEY SHARE
)

// ReturningMechanism is how a dialect hands back affected rows.
type ReturningMechanism int

const (
	ReturningNone       ReturningMechanism = iota
	ReturningClause                        // ... RETURNING cols
	ReturningOutput                        // OUTPUT INSERTED.cols
	ReturningFinalTable                    // SELECT cols FROM FINAL TABLE (...)
)

func (r ReturningMechanism) String() string {
	switch r {
	case ReturningClause:
		return "RETURNING"
	case ReturningOutput:
		return "OUTPUT"
	case ReturningFinalTable:
		return "FINAL_TABLE"
	}
	return "NONE"
}

// LimitStrategy is how a dialect paginates a SELECT.
type LimitStrategy int

const (
	LimitNone          LimitStrategy = iota
	LimitOffset                      // LIMIT n OFFSET m
	LimitTop                         // TOP(n), OFFSET m ROWS FETCH NEXT n ROWS ONLY with ORDER BY
	LimitFetchNext                   // OFFSET m ROWS FETCH NEXT n ROWS ONLY
	LimitRowIDSubquery               // pk IN (SELECT pk ... LIMIT n)
)

func (l LimitStrategy) String() string {
	switch l {
	case LimitOffset:
		return "LIMIT_OFFSET"
	case LimitTop:
		return "TOP_N"
	case LimitFetchNext:
		return "FETCH_NEXT"
	case LimitRowIDSubquery:
		return "ROWID_SUBQUERY"
	}
	return "NONE"
}

// BindStyle is the placeholder syntax the driver expects.
type BindStyle int

const (
	BindNone             BindStyle = iota
	BindDollarNamed                // $name
	BindDollarPositional           // $1
	BindQuestionMark               // ?
	BindAtNamed                    // @name
)

func (b BindStyle) String() string {
	switch b {
	case BindDollarNamed:
		return "DOLLAR_NAMED"
	case BindDollarPositional:
		return "DOLLAR_POSITIONAL"
	case BindQuestionMark:
		return "QUESTION_MARK"
	case BindAtNamed:
		return "AT_NAMED"
	}
	return "NONE"
}

// UpsertSyntax is the statement form used for insert-or-update.
type UpsertSyntax int

const (
	UpsertNone UpsertSyntax = iota
	UpsertOnConflict
	UpsertOnDuplicateKey
	UpsertMerge
)

// IgnoreSyntax is how duplicate rows are skipped on insert.
type IgnoreSyntax int

const (
	IgnoreNone                IgnoreSyntax = iota
	IgnoreInsertIgnore                     // INSERT IGNORE INTO
	IgnoreInsertOrIgnore                   // INSERT OR IGNORE INTO
	IgnoreOnConflictDoNothing              // ... ON CONFLICT DO NOTHING
)

// BlobLiteral is the inline form of binary values.
type BlobLiteral int

const (
	BlobHexString BlobLiteral = iota // X'00FF'
	BlobByteaHex                     // '\x00ff'
	BlobZeroX                        // 0x00FF
)

// StatementSet flags statement kinds a feature applies to.
type StatementSet struct {
	Insert bool
	Update bool
	Delete bool
}

// Capabilities describes the SQL syntax and features of a dialect.
type Capabilities struct {
	Dialect Dialect
	Version string // server version the table was adjusted for, if any

	QuoteOpen  byte
	QuoteClose byte
	Schemas    bool // schema-qualified table names

	Returning          ReturningMechanism
	ReturningOn        StatementSet
	ReturningTempTable bool // OUTPUT INTO temp table when the model has triggers

	Limit       LimitStrategy
	MaxLimit    string // LIMIT value used when only OFFSET is given; empty renders OFFSET alone
	OffsetFetch bool   // TOP dialects: OFFSET m ROWS FETCH NEXT n ROWS ONLY is available

	// MutationLimit is the strategy for UPDATE/DELETE with a limit:
	// LimitOffset is a native trailing LIMIT n, LimitTop is UPDATE TOP(n),
	// LimitRowIDSubquery rewrites to pk IN (SELECT pk ...).
	MutationLimit LimitStrategy

	Bind BindStyle

	BoolTrue       string
	BoolFalse      string
	BoolAsInt      bool // booleans are bound as 1/0
	BooleanIs      bool // IS TRUE / IS FALSE
	DateWithOffset bool // date literals carry a +00:00 offset
	DateBindString bool // dates are bound as formatted strings

	BackslashEscapes bool // string literals treat \ as an escape
	NationalStrings  bool // string literals are written N'...'
	Blob             BlobLiteral

	Upsert            UpsertSyntax
	MergeHoldLock     bool
	Ignore            IgnoreSyntax
	EmptyInsert       string
	BulkDefault       bool // DEFAULT allowed inside multi-row VALUES
	UpdateOnDuplicate bool

	DistinctOn           bool
	CaseInsensitiveLike  bool
	RegexOperators       bool
	CaseInsensitiveRegex bool
	ArrayOperators       bool
	NullsOrdering        bool
	RowLocking           RowLockingLevel
	Truncate             bool
	TruncateCascade      bool
}

var capabilityTable = map[Dialect]Capabilities{
	Postgres: {
		Dialect:              Postgres,
		QuoteOpen:            '"',
		QuoteClose:           '"',
		Schemas:              true,
		Returning:            ReturningClause,
		ReturningOn:          StatementSet{Insert: true, Update: true, Delete: true},
		Limit:                LimitOffset,
		MutationLimit:        LimitRowIDSubquery,
		Bind:                 BindDollarPositional,
		BoolTrue:             "true",
		BoolFalse:            "false",
		BooleanIs:            true,
		DateWithOffset:       true,
		Blob:                 BlobByteaHex,
		Upsert:               UpsertOnConflict,
		Ignore:               IgnoreOnConflictDoNothing,
		EmptyInsert:          "DEFAULT VALUES",
		BulkDefault:          true,
		UpdateOnDuplicate:    true,
		DistinctOn:           true,
		CaseInsensitiveLike:  true,
		RegexOperators:       true,
		CaseInsensitiveRegex: true,
		ArrayOperators:       true,
		NullsOrdering:        true,
		RowLocking:           RowLockingFull,
		Truncate:             true,
		TruncateCascade:      true,
	},
	MySQL: {
		Dialect:           MySQL,
		QuoteOpen:         '`',
		QuoteClose:        '`',
		Schemas:           true,
		Returning:         ReturningNone,
		Limit:             LimitOffset,
		MaxLimit:          "18446744073709551615",
		MutationLimit:     LimitOffset,
		Bind:              BindQuestionMark,
		BoolTrue:          "true",
		BoolFalse:         "false",
		BooleanIs:         true,
		BackslashEscapes:  true,
		Blob:              BlobHexString,
		Upsert:            UpsertOnDuplicateKey,
		Ignore:            IgnoreInsertIgnore,
		EmptyInsert:       "VALUES ()",
		BulkDefault:       true,
		UpdateOnDuplicate: true,
		RegexOperators:    true,
		RowLocking:        RowLockingBasic,
		Truncate:          true,
	},
	MariaDB: {
		Dialect:           MariaDB,
		QuoteOpen:         '`',
		QuoteClose:        '`',
		Schemas:           true,
		Returning:         ReturningClause,
		ReturningOn:       StatementSet{Insert: true, Delete: true},
		Limit:             LimitOffset,
		MaxLimit:          "18446744073709551615",
		MutationLimit:     LimitOffset,
		Bind:              BindQuestionMark,
		BoolTrue:          "true",
		BoolFalse:         "false",
		BooleanIs:         true,
		BackslashEscapes:  true,
		Blob:              BlobHexString,
		Upsert:            UpsertOnDuplicateKey,
		Ignore:            IgnoreInsertIgnore,
		EmptyInsert:       "VALUES ()",
		BulkDefault:       true,
		UpdateOnDuplicate: true,
		RegexOperators:    true,
		RowLocking:        RowLockingBasic,
		Truncate:          true,
	},
	SQLite: {
		Dialect:           SQLite,
		QuoteOpen:         '`',
		QuoteClose:        '`',
		Returning:         ReturningClause,
		ReturningOn:       StatementSet{Insert: true, Update: true, Delete: true},
		Limit:             LimitOffset,
		MaxLimit:          "-1",
		MutationLimit:     LimitRowIDSubquery,
		Bind:              BindDollarNamed,
		BoolTrue:          "1",
		BoolFalse:         "0",
		BoolAsInt:         true,
		DateWithOffset:    true,
		DateBindString:    true,
		Blob:              BlobHexString,
		Upsert:            UpsertOnConflict,
		Ignore:            IgnoreInsertOrIgnore,
		EmptyInsert:       "DEFAULT VALUES",
		UpdateOnDuplicate: true,
		NullsOrdering:     true,
	},
	MSSQL: {
		Dialect:            MSSQL,
		QuoteOpen:          '[',
		QuoteClose:         ']',
		Schemas:            true,
		Returning:          ReturningOutput,
		ReturningOn:        StatementSet{Insert: true, Update: true, Delete: true},
		ReturningTempTable: true,
		Limit:              LimitTop,
		OffsetFetch:        true,
		MutationLimit:      LimitTop,
		Bind:               BindAtNamed,
		BoolTrue:           "1",
		BoolFalse:          "0",
		BoolAsInt:          true,
		DateWithOffset:     true,
		NationalStrings:    true,
		Blob:               BlobZeroX,
		Upsert:             UpsertMerge,
		MergeHoldLock:      true,
		EmptyInsert:        "DEFAULT VALUES",
		BulkDefault:        true,
		Truncate:           true,
	},
	DB2: {
		Dialect:       DB2,
		QuoteOpen:     '"',
		QuoteClose:    '"',
		Schemas:       true,
		Returning:     ReturningFinalTable,
		ReturningOn:   StatementSet{Insert: true, Update: true, Delete: true},
		Limit:         LimitFetchNext,
		MutationLimit: LimitRowIDSubquery,
		Bind:          BindQuestionMark,
		BoolTrue:      "true",
		BoolFalse:     "false",
		Blob:          BlobHexString,
		Upsert:        UpsertMerge,
		EmptyInsert:   "VALUES (DEFAULT)",
		BulkDefault:   true,
		RowLocking:    RowLockingBasic,
		Truncate:      true,
	},
	IBMi: {
		Dialect:       IBMi,
		QuoteOpen:     '"',
		QuoteClose:    '"',
		Schemas:       true,
		Returning:     ReturningFinalTable,
		ReturningOn:   StatementSet{Insert: true},
		Limit:         LimitFetchNext,
		MutationLimit: LimitRowIDSubquery,
		Bind:          BindQuestionMark,
		BoolTrue:      "1",
		BoolFalse:     "0",
		BoolAsInt:     true,
		Blob:          BlobHexString,
		Upsert:        UpsertMerge,
		EmptyInsert:   "VALUES (DEFAULT)",
		BulkDefault:   true,
		RowLocking:    RowLockingBasic,
		Truncate:      true,
	},
	Snowflake: {
		Dialect:             Snowflake,
		QuoteOpen:           '"',
		QuoteClose:          '"',
		Schemas:             true,
		Returning:           ReturningNone,
		Limit:               LimitOffset,
		MaxLimit:            "NULL",
		MutationLimit:       LimitRowIDSubquery,
		Bind:                BindQuestionMark,
		BoolTrue:            "true",
		BoolFalse:           "false",
		BooleanIs:           true,
		BackslashEscapes:    true,
		Blob:                BlobHexString,
		EmptyInsert:         "VALUES (DEFAULT)",
		BulkDefault:         true,
		CaseInsensitiveLike: true,
		RegexOperators:      true,
		NullsOrdering:       true,
		Truncate:            true,
	},
}

// CapabilitiesFor returns the capability table entry for a dialect.
// It panics on an unknown dialect, which is a programming error.
func CapabilitiesFor(d Dialect) Capabilities {
	caps, ok := capabilityTable[d]
	if !ok {
		panic(fmt.Sprintf("render: unknown dialect %d", int(d)))
	}
	return caps
}

// Name returns the dialect name, used in error messages.
func (c Capabilities) Name() string {
	return c.Dialect.String()
}

// ReturningSupported reports whether kind ("insert", "update", "delete") can
// return affected rows.
func (c Capabilities) ReturningSupported(kind string) bool {
	if c.Returning == ReturningNone {
		return false
	}
	switch kind {
	case "insert":
		return c.ReturningOn.Insert
	case "update":
		return c.ReturningOn.Update
	case "delete":
		return c.ReturningOn.Delete
	}
	return false
}
