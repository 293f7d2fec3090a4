package registry

import (
	"context"
	"database/sql"
)

// Executor é satisfeito por *sql.DB e *sql.Tx, permitindo que a reserva
// participe da mesma transação da entidade.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SQLBackend persiste as reservas na tabela catalog_keys (PK namespace, key).
type SQLBackend struct {
	exec Executor
}

// NewSQLBackend cria um backend sobre o executor informado.
func NewSQLBackend(exec Executor) *SQLBackend {
	return &SQLBackend{exec: exec}
}

const (
	insertKeySQL = `INSERT INTO catalog_keys (namespace, key) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	deleteKeySQL = `DELETE FROM catalog_keys WHERE namespace = $1 AND key = $2`
)

func (b *SQLBackend) Insert(ctx context.Context, ns Namespace, key string) (bool, error) {
	res, err := b.exec.ExecContext(ctx, insertKeySQL, string(ns), key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (b *SQLBackend) Delete(ctx context.Context, ns Namespace, key string) error {
	_, err := b.exec.ExecContext(ctx, deleteKeySQL, string(ns), key)
	return err
}
