package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyStructs bulk-inserts items into table over the COPY protocol. Columns
// come from the db tags of T; each item is flattened with StructToMap.
// Requires a transaction in ctx.
func CopyStructs[T any](ctx context.Context, txm *TxManager, table string, items []T) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	tx := txm.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("copy into %s requires transaction context", table)
	}

	columns := ExtractDBColumns[T]()
	src := pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
		data := StructToMap(items[i])
		row := make([]any, len(columns))
		for j, col := range columns {
			row[j] = data[col]
		}
		return row, nil
	})

	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, src)
}
