package stmtql

import (
	"fmt"
	"strings"

	"github.com/zoobzio/stmtql/internal/types"
)

// Statement kinds.
const (
	KindSelect     = types.KindSelect
	KindInsert     = types.KindInsert
	KindBulkInsert = types.KindBulkInsert
	KindUpdate     = types.KindUpdate
	KindDelete     = types.KindDelete
	KindUpsert     = types.KindUpsert
)

// ParseStatementKind resolves a statement kind name such as "select" or
// "bulkInsert". Matching ignores case, spaces and underscores.
func ParseStatementKind(name string) (StatementKind, error) {
	normalized := strings.ToUpper(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name))
	for _, k := range []StatementKind{KindSelect, KindInsert, KindBulkInsert, KindUpdate, KindDelete, KindUpsert} {
		if strings.ReplaceAll(k.String(), " ", "") == normalized {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown statement kind %q", name)
}
