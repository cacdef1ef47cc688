package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ddns-telegram-relay/internal/domain/ports/repository"
)

var _ repository.KV = (*KVStore)(nil)

const pgUniqueViolation = "23505"

// Schema mirrors deploy/postgres/init.sql.
const Schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// KVStore implements repository.KV on a single Postgres table.
//
// Keys listed in Txn.Absent are written with a plain INSERT, so a row that
// appears between the existence check and the insert fails the primary key
// and the transaction reports ErrConflict.
type KVStore struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewKVStore(pool *pgxpool.Pool, tm repository.TransactionManager) *KVStore {
	return &KVStore{pool: pool, tm: tm}
}

// EnsureSchema creates the kv_entries table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}

func (s *KVStore) Get(ctx context.Context, key repository.Key) (string, bool, error) {
	exec, err := getExecutor(s.pool, nil)
	if err != nil {
		return "", false, err
	}
	var v string
	err = exec.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key.String()).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KVStore) Transact(ctx context.Context, txn repository.Txn) error {
	checked := make(map[string]bool, len(txn.Absent))
	for _, k := range txn.Absent {
		checked[k.String()] = true
	}

	err := s.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		exec, err := getExecutor(s.pool, tx)
		if err != nil {
			return err
		}
		for _, k := range txn.Absent {
			var exists bool
			if err := exec.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM kv_entries WHERE key = $1)`, k.String(),
			).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return repository.ErrConflict
			}
		}
		for _, w := range txn.Writes {
			q := `INSERT INTO kv_entries (key, value) VALUES ($1, $2)
			      ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
			if checked[w.Key.String()] {
				q = `INSERT INTO kv_entries (key, value) VALUES ($1, $2)`
			}
			if _, err := exec.Exec(ctx, q, w.Key.String(), w.Value); err != nil {
				return err
			}
		}
		return nil
	})
	return mapConflict(err)
}

func (s *KVStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return repository.ErrConflict
	}
	return err
}
