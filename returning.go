package stmtql

import (
	"strings"

	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/types"
)

// returnClause holds the pieces a dialect needs to hand back affected rows.
type returnClause struct {
	output string // OUTPUT INSERTED.cols, placed before VALUES or WHERE
	suffix string // RETURNING cols
	open   string // SELECT cols FROM FINAL TABLE (
	close  string
	before string // DECLARE @tmp ...; when OUTPUT goes through a table variable
	after  string // ; SELECT * FROM @tmp
}

// wrap applies the clause to a statement already carrying output and suffix.
func (r returnClause) wrap(stmt string) string {
	return r.before + r.open + stmt + r.close + r.after
}

// mssqlTypes maps attribute types to table variable column types.
var mssqlTypes = map[types.DataType]string{
	types.TypeString:   "NVARCHAR(255)",
	types.TypeText:     "NVARCHAR(MAX)",
	types.TypeInteger:  "INTEGER",
	types.TypeBigInt:   "BIGINT",
	types.TypeFloat:    "FLOAT",
	types.TypeDouble:   "FLOAT",
	types.TypeDecimal:  "DECIMAL",
	types.TypeBoolean:  "BIT",
	types.TypeDate:     "DATETIMEOFFSET",
	types.TypeDateOnly: "DATE",
	types.TypeUUID:     "UNIQUEIDENTIFIER",
	types.TypeJSON:     "NVARCHAR(MAX)",
	types.TypeBlob:     "VARBINARY(MAX)",
}

// returning renders the Returning request of op ("insert", "update" or
// "delete"). An unsupported request is collected, not returned.
func (cp *compilation) returning(op string) (returnClause, error) {
	var r returnClause
	req := cp.q.Returning
	if req == nil || (!req.All && len(req.Columns) == 0) {
		return r, nil
	}
	caps := cp.c.caps
	if !caps.ReturningSupported(op) {
		cp.opts.Add("returning")
		return r, nil
	}
	cols, err := cp.returnColumns(req)
	if err != nil {
		return r, err
	}
	cp.returns = true

	switch caps.Returning {
	case render.ReturningClause:
		r.suffix = " RETURNING " + strings.Join(cols, ",")
	case render.ReturningOutput:
		pseudo := "INSERTED"
		if op == "delete" {
			pseudo = "DELETED"
		}
		if caps.ReturningTempTable && cp.model != nil && cp.model.HasTriggers {
			return cp.tempTableOutput(req, pseudo)
		}
		out := make([]string, len(cols))
		for i, col := range cols {
			out[i] = pseudo + "." + col
		}
		r.output = " OUTPUT " + strings.Join(out, ",")
	case render.ReturningFinalTable:
		table := "FINAL TABLE"
		if op == "delete" {
			table = "OLD TABLE"
		}
		r.open = "SELECT " + strings.Join(cols, ",") + " FROM " + table + " ("
		r.close = ")"
	}
	return r, nil
}

func (cp *compilation) returnColumns(req *types.Returning) ([]string, error) {
	if req.All {
		return []string{"*"}, nil
	}
	cols := make([]string, 0, len(req.Columns))
	for _, c := range req.Columns {
		if name, ok := c.(string); ok {
			cols = append(cols, cp.ser.Quote(cp.field(name)))
			continue
		}
		sql, err := cp.ser.Expr(c)
		if err != nil {
			return nil, err
		}
		cols = append(cols, sql)
	}
	return cols, nil
}

// tempTableOutput routes OUTPUT through a table variable, which tables with
// triggers require.
func (cp *compilation) tempTableOutput(req *types.Returning, pseudo string) (returnClause, error) {
	var names []string
	if req.All {
		for _, a := range cp.model.Attributes() {
			names = append(names, a.Name)
		}
	} else {
		for _, c := range req.Columns {
			name, ok := c.(string)
			if !ok {
				return returnClause{}, render.NewUnsupportedOptionError(cp.c.caps.Name(), cp.opName(), []string{"returning"},
					"tables with triggers can only return attributes")
			}
			names = append(names, name)
		}
	}

	decl := make([]string, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		a, ok := cp.model.Attribute(name)
		if !ok {
			return returnClause{}, unknownAttribute(cp.model.Name, name)
		}
		col := cp.ser.Quote(a.Field)
		decl[i] = col + " " + mssqlTypes[a.Type]
		out[i] = pseudo + "." + col
	}
	return returnClause{
		before: "DECLARE @tmp TABLE (" + strings.Join(decl, ",") + "); ",
		output: " OUTPUT " + strings.Join(out, ",") + " INTO @tmp",
		after:  "; SELECT * FROM @tmp",
	}, nil
}

// opName is the lower-cased statement kind used in errors.
func (cp *compilation) opName() string {
	return strings.ToLower(cp.kind.String())
}
