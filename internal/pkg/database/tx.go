package database

import (
	"context"
	"database/sql"
	"time"

	apperror "gocatalog/internal/errors"
)

// Querier é o subconjunto comum de *sql.DB e *sql.Tx usado pelos repositórios.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// WithTx executa fn dentro de uma transação com timeout. Commit se fn
// retornar nil, rollback caso contrário. O erro de fn volta intacto.
func WithTx(ctx context.Context, db *sql.DB, timeout time.Duration, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := db.BeginTx(ctxTimeout, nil)
	if err != nil {
		return apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // sem efeito após o Commit

	if err := fn(ctxTimeout, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperror.FromDB("Falha ao commitar transação", err)
	}
	return nil
}
