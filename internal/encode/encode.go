// Package encode turns Go values into inline SQL literals or bind-ready
// driver values for a dialect.
package encode

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/zoobzio/stmtql/internal/render"
	"github.com/zoobzio/stmtql/internal/types"
)

const (
	dateLayout       = "2006-01-02 15:04:05.000"
	dateOffsetLayout = "2006-01-02 15:04:05.000 -07:00"
	dateOnlyLayout   = "2006-01-02"
)

// Coerce adapts a value to an attribute's declared type before encoding.
// An empty type leaves the value untouched.
func Coerce(v any, dt types.DataType) (any, error) {
	if v == nil || dt == "" {
		return v, nil
	}
	switch dt {
	case types.TypeBoolean:
		switch val := v.(type) {
		case int:
			return val != 0, nil
		case int64:
			return val != 0, nil
		case string:
			switch strings.ToLower(val) {
			case "true", "t", "1":
				return true, nil
			case "false", "f", "0":
				return false, nil
			}
			return nil, fmt.Errorf("%q is not a valid boolean", val)
		}
	case types.TypeDateOnly:
		if t, ok := v.(time.Time); ok {
			return t.Format(dateOnlyLayout), nil
		}
	case types.TypeJSON:
		switch v.(type) {
		case string, []byte, json.RawMessage:
			return v, nil
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode JSON value: %w", err)
		}
		return string(raw), nil
	}
	return v, nil
}

// Bindable returns the value handed to the driver for a bind parameter.
func Bindable(v any, caps render.Capabilities) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if caps.BoolAsInt {
			if val {
				return int64(1), nil
			}
			return int64(0), nil
		}
		return val, nil
	case time.Time:
		if caps.DateBindString {
			return formatDate(val, caps), nil
		}
		return val, nil
	case uuid.UUID:
		return val.String(), nil
	case decimal.Decimal:
		return val.String(), nil
	case types.Expression:
		return nil, fmt.Errorf("expression %T cannot be bound as a value", v)
	}
	return v, nil
}

// Literal renders a value as an inline SQL literal. Slices render as a
// comma separated list.
func Literal(v any, caps render.Capabilities) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case bool:
		if val {
			return caps.BoolTrue, nil
		}
		return caps.BoolFalse, nil
	case string:
		return QuoteString(val, caps), nil
	case []byte:
		return blob(val, caps), nil
	case json.RawMessage:
		return QuoteString(string(val), caps), nil
	case time.Time:
		return QuoteString(formatDate(val, caps), caps), nil
	case uuid.UUID:
		return QuoteString(val.String(), caps), nil
	case decimal.Decimal:
		return val.String(), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return formatFloat(val)
	case types.Expression:
		return "", fmt.Errorf("expression %T cannot be rendered as a value", v)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return "", fmt.Errorf("value of %T: %w", v, err)
		}
		return Literal(inner, caps)
	}

	if items, ok := types.AsSlice(v); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			lit, err := Literal(item, caps)
			if err != nil {
				return "", err
			}
			parts[i] = lit
		}
		return strings.Join(parts, ", "), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return Literal(rv.Bool(), caps)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	case reflect.String:
		return QuoteString(rv.String(), caps), nil
	case reflect.Pointer:
		if rv.IsNil() {
			return "NULL", nil
		}
		return Literal(rv.Elem().Interface(), caps)
	}
	return "", fmt.Errorf("cannot render %T as a SQL literal", v)
}

// QuoteString renders a string literal with the dialect's escaping rules.
func QuoteString(s string, caps render.Capabilities) string {
	if caps.Dialect == render.Postgres {
		return strings.TrimSpace(pq.QuoteLiteral(s))
	}
	if caps.BackslashEscapes {
		return "'" + escapeBackslash(s) + "'"
	}
	quoted := "'" + strings.ReplaceAll(s, "'", "''") + "'"
	if caps.NationalStrings {
		return "N" + quoted
	}
	return quoted
}

func escapeBackslash(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case 0:
			b.WriteString(`\0`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case 0x1a:
			b.WriteString(`\Z`)
		case '"', '\'', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func blob(b []byte, caps render.Capabilities) string {
	switch caps.Blob {
	case render.BlobByteaHex:
		return `'\x` + hex.EncodeToString(b) + "'"
	case render.BlobZeroX:
		return "0x" + strings.ToUpper(hex.EncodeToString(b))
	}
	return "X'" + strings.ToUpper(hex.EncodeToString(b)) + "'"
}

func formatDate(t time.Time, caps render.Capabilities) string {
	t = t.UTC()
	if caps.DateWithOffset {
		return t.Format(dateOffsetLayout)
	}
	return t.Format(dateLayout)
}

func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("cannot render %v as a SQL literal", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}
