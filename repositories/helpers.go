package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx, so repository
// methods run the same way inside and outside a transaction. The memory
// store ignores it.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// nullableTeam stores an empty slot (nil or 0) as NULL.
func nullableTeam(id *int) interface{} {
	if id == nil || *id == 0 {
		return nil
	}
	return *id
}

func teamFromNull(v sql.NullInt64) *int {
	if !v.Valid || v.Int64 == 0 {
		return nil
	}
	id := int(v.Int64)
	return &id
}
