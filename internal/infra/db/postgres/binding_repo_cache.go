package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"ddns-telegram-relay/internal/domain/model"
	"ddns-telegram-relay/internal/domain/ports/repository"
	"ddns-telegram-relay/internal/infra/metrics"
	red "ddns-telegram-relay/internal/infra/redis"
)

var _ repository.BindingRepository = (*bindingRepoCacheDecorator)(nil)

type bindingRepoCacheDecorator struct {
	inner  repository.BindingRepository
	cache  red.RedisClient
	ttl    time.Duration
	prefix string
	log    *zerolog.Logger
}

// NewBindingRepoCacheDecorator caches hook -> chat lookups in Redis. Bindings
// are never rewritten, so entries need no invalidation; the TTL only bounds
// memory. Cache failures fall through to the inner repository.
func NewBindingRepoCacheDecorator(inner repository.BindingRepository, cache red.RedisClient, ttl time.Duration, prefix string, logger *zerolog.Logger) repository.BindingRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &bindingRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, prefix: prefix, log: logger}
}

func (d *bindingRepoCacheDecorator) key(hookID string) string {
	return d.prefix + ":cache:webhook:" + hookID
}

func (d *bindingRepoCacheDecorator) ResolveChat(ctx context.Context, hookID string) (int64, error) {
	key := d.key(hookID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		if chatID, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			metrics.IncCacheRequest("binding", "hit")
			return chatID, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Msg("binding cache read failed")
	}

	metrics.IncCacheRequest("binding", "miss")
	chatID, err := d.inner.ResolveChat(ctx, hookID)
	if err != nil {
		return 0, err
	}
	d.store(ctx, hookID, chatID)
	return chatID, nil
}

func (d *bindingRepoCacheDecorator) CreateOrGet(ctx context.Context, chatID int64) (*model.HookBinding, bool, error) {
	b, created, err := d.inner.CreateOrGet(ctx, chatID)
	if err != nil {
		return nil, false, err
	}
	d.store(ctx, b.HookID, b.ChatID)
	return b, created, nil
}

func (d *bindingRepoCacheDecorator) store(ctx context.Context, hookID string, chatID int64) {
	if err := d.cache.Set(ctx, d.key(hookID), strconv.FormatInt(chatID, 10), d.ttl); err != nil {
		d.log.Warn().Err(err).Msg("binding cache write failed")
	}
}
