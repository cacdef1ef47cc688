package repository

import (
	"context"
	"errors"
	"strings"
)

// ErrConflict is returned by KV.Transact when one of the transaction checks
// failed. Nothing was written.
var ErrConflict = errors.New("transaction conflict")

// Key addresses one entry of the key-value store, e.g. Key{"chat", "42"}.
type Key []string

func (k Key) String() string { return strings.Join(k, ":") }

// Write sets Key to Value.
type Write struct {
	Key   Key
	Value string
}

// Txn is an all-or-nothing unit: every key in Absent must be missing,
// then every write is applied.
type Txn struct {
	Absent []Key
	Writes []Write
}

// KV is the transactional store contract every backend implements.
//
// Get reports ok=false for a missing key. Transact returns ErrConflict when
// a check fails; any other error is a backend failure.
type KV interface {
	Get(ctx context.Context, key Key) (value string, ok bool, err error)
	Transact(ctx context.Context, txn Txn) error
	Ping(ctx context.Context) error
}
