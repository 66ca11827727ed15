package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// TxFunc runs repository calls against exec. Every call inside one TxFunc
// commits or rolls back together.
type TxFunc func(ctx context.Context, exec SQLExecutor) error

type TxRunner interface {
	RunInTx(ctx context.Context, fn TxFunc) error
}

type postgresTxRunner struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresTxRunner(db *sql.DB, logger *slog.Logger) TxRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresTxRunner{db: db, logger: logger}
}

func (r *postgresTxRunner) RunInTx(ctx context.Context, fn TxFunc) (txErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			r.logger.Debug("rolling back transaction", slog.Any("error", txErr))
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("transaction processing error: %w (rollback also failed: %v)", txErr, rbErr)
			}
		} else {
			if cErr := tx.Commit(); cErr != nil {
				txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
			}
		}
	}()

	txErr = fn(ctx, tx)
	return txErr
}
