package redis

import (
	"context"
	"errors"
	"strconv"

	"ddns-telegram-relay/internal/domain/ports/repository"

	"github.com/go-redis/redis/v8"
)

var _ repository.KV = (*KVStore)(nil)

// KEYS = absent keys followed by write keys.
// ARGV[1] = number of absent keys, ARGV[2..] = write values.
var luaTransact = redis.NewScript(`
local n = tonumber(ARGV[1])
for i = 1, n do
	if redis.call("EXISTS", KEYS[i]) == 1 then
		return 0
	end
end
for i = n + 1, #KEYS do
	redis.call("SET", KEYS[i], ARGV[i - n + 1])
end
return 1`)

// KVStore implements repository.KV on a single Redis instance. Transactions
// run as one Lua script so checks and writes are atomic.
type KVStore struct {
	cli    *redis.Client
	prefix string
}

func NewKVStore(c *Client, prefix string) *KVStore {
	return &KVStore{cli: c.cli, prefix: prefix}
}

func (s *KVStore) key(k repository.Key) string {
	if s.prefix == "" {
		return k.String()
	}
	return s.prefix + ":" + k.String()
}

func (s *KVStore) Get(ctx context.Context, k repository.Key) (string, bool, error) {
	v, err := s.cli.Get(ctx, s.key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KVStore) Transact(ctx context.Context, txn repository.Txn) error {
	keys := make([]string, 0, len(txn.Absent)+len(txn.Writes))
	args := make([]interface{}, 0, len(txn.Writes)+1)
	args = append(args, strconv.Itoa(len(txn.Absent)))
	for _, k := range txn.Absent {
		keys = append(keys, s.key(k))
	}
	for _, w := range txn.Writes {
		keys = append(keys, s.key(w.Key))
		args = append(args, w.Value)
	}

	ok, err := luaTransact.Run(ctx, s.cli, keys, args...).Int()
	if err != nil {
		return err
	}
	if ok == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (s *KVStore) Ping(ctx context.Context) error { return s.cli.Ping(ctx).Err() }
