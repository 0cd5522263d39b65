// internal/adapters/out/db/transactor.go
package db

import (
	"context"
	"database/sql"
	"fmt"

	dbcommon "steepery/internal/adapters/out/db/common"
)

// SQLTransactor implements usecase.Transactor over *sql.DB. The transaction
// travels in the context; repositories pick it up through dbcommon.GetRunner.
type SQLTransactor struct {
	DB *sql.DB
}

func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{DB: db}
}

// WithinTx runs fn in one transaction at repeatable-read isolation. Cart and
// checkout flows additionally take explicit FOR UPDATE locks where they need
// a current view of contended rows. fn's error (or a panic) rolls back.
func (t *SQLTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := dbcommon.TxFromCtx(ctx); tx != nil {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	tx, err := t.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return fmt.Errorf("db: failed to begin tx: %w", err)
	}
	// Rollback after commit is a no-op; this covers error and panic paths.
	defer func() { _ = tx.Rollback() }()

	if err := fn(dbcommon.CtxWithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("db: failed to commit tx: %w", err)
	}
	return nil
}
