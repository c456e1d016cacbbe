package types

import "strings"

// DataType is the declared type of a model attribute.
type DataType string

const (
	TypeString   DataType = "STRING"
	TypeText     DataType = "TEXT"
	TypeInteger  DataType = "INTEGER"
	TypeBigInt   DataType = "BIGINT"
	TypeFloat    DataType = "FLOAT"
	TypeDouble   DataType = "DOUBLE"
	TypeDecimal  DataType = "DECIMAL"
	TypeBoolean  DataType = "BOOLEAN"
	TypeDate     DataType = "DATE"
	TypeDateOnly DataType = "DATEONLY"
	TypeUUID     DataType = "UUID"
	TypeJSON     DataType = "JSON"
	TypeBlob     DataType = "BLOB"
)

var declaredTypes = map[DataType]bool{
	TypeString: true, TypeText: true, TypeInteger: true, TypeBigInt: true,
	TypeFloat: true, TypeDouble: true, TypeDecimal: true, TypeBoolean: true,
	TypeDate: true, TypeDateOnly: true, TypeUUID: true, TypeJSON: true, TypeBlob: true,
}

// ParseDataType maps a declared type name (exact, e.g. "DATE") or a database
// column type (e.g. "timestamptz", "varchar(255)") to a DataType. Unknown
// names map to TypeString.
func ParseDataType(name string) DataType {
	if dt := DataType(strings.TrimSpace(name)); declaredTypes[dt] {
		return dt
	}
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = n[:i]
	}
	switch n {
	case "text", "mediumtext", "longtext", "clob":
		return TypeText
	case "int", "integer", "int4", "smallint", "int2", "tinyint", "mediumint", "serial":
		return TypeInteger
	case "bigint", "int8", "bigserial":
		return TypeBigInt
	case "float", "real", "float4":
		return TypeFloat
	case "double", "double precision", "float8":
		return TypeDouble
	case "decimal", "numeric", "money":
		return TypeDecimal
	case "bool", "boolean", "bit":
		return TypeBoolean
	case "date", "dateonly":
		return TypeDateOnly
	case "datetime", "timestamp", "timestamptz", "datetimeoffset", "datetime2":
		return TypeDate
	case "uuid", "uniqueidentifier":
		return TypeUUID
	case "json", "jsonb":
		return TypeJSON
	case "blob", "bytea", "binary", "varbinary":
		return TypeBlob
	}
	return TypeString
}
