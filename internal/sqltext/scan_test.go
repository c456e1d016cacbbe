package sqltext

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(phs []Placeholder) []string {
	out := make([]string, len(phs))
	for i, ph := range phs {
		out[i] = ph.Text()
	}
	return out
}

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		opts Options
		want []string
	}{
		{"named", "SELECT * FROM t WHERE a = :name AND b = :other_1", Options{}, []string{":name", ":other_1"}},
		{"postgres cast is not a replacement", "SELECT a::text FROM t WHERE b = :b", Options{}, []string{":b"}},
		{"binds", "VALUES ($sequelize_1,$sequelize_2,$1)", Options{}, []string{"$sequelize_1", "$sequelize_2", "$1"}},
		{"question marks", "a = ? AND b = ?", Options{}, []string{"?", "?"}},
		{"single quoted string", "a = ':no' AND b = '$no' AND c = '?' AND d = :yes", Options{}, []string{":yes"}},
		{"doubled quote", "a = 'it''s :no' AND b = $x", Options{}, []string{"$x"}},
		{"backslash escape", `a = 'it\'s :no' AND b = :yes`, Options{BackslashEscapes: true}, []string{":yes"}},
		{"double quoted identifier", `SELECT "a?b" FROM t WHERE c = ?`, Options{}, []string{"?"}},
		{"backtick identifier", "SELECT `:x` FROM t", Options{}, nil},
		{"brackets", "SELECT [a?] FROM t WHERE b = $b", Options{BracketIdentifiers: true}, []string{"$b"}},
		{"brackets are arrays elsewhere", "ARRAY[$sequelize_1, $sequelize_2]", Options{}, []string{"$sequelize_1", "$sequelize_2"}},
		{"line comment", "SELECT 1 -- :skip ?\nWHERE a = :a", Options{}, []string{":a"}},
		{"block comment", "SELECT /* $x ? */ :a", Options{}, []string{":a"}},
		{"dollar quoted body", "SELECT $$ :x ? $y $$, $tag$ ? $tag$, :z", Options{}, []string{":z"}},
		{"identifier followed by colon", "a:b", Options{}, nil},
		{"time-like numbers", "x = 12:30", Options{}, nil},
		{"temp table variable", "DECLARE @tmp TABLE ([id] INTEGER); SELECT * FROM @tmp", Options{BracketIdentifiers: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := kinds(Scan(tt.sql, tt.opts))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanKinds(t *testing.T) {
	phs := Scan(":a $b $12 ?", Options{})
	require.Len(t, phs, 4)
	assert.Equal(t, Named, phs[0].Kind)
	assert.Equal(t, DollarNamed, phs[1].Kind)
	assert.Equal(t, DollarPositional, phs[2].Kind)
	assert.Equal(t, "12", phs[2].Name)
	assert.Equal(t, Question, phs[3].Kind)
}

func TestReplace(t *testing.T) {
	sql := "a = :first AND b = ':first' AND c = :second"
	phs := Scan(sql, Options{})

	out, err := Replace(sql, phs, func(ph Placeholder) (string, error) {
		return strings.ToUpper(ph.Name), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a = FIRST AND b = ':first' AND c = SECOND", out)

	_, err = Replace(sql, phs, func(ph Placeholder) (string, error) {
		return "", fmt.Errorf("no value for %s", ph.Name)
	})
	assert.EqualError(t, err, "no value for first")

	out, err = Replace("plain", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", out)
}
