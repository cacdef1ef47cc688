//go:build !integration

package postgres

import (
	"context"
	"time"

	"ddns-telegram-relay/internal/domain/model"
	red "ddns-telegram-relay/internal/infra/redis"
)

// mockInnerBindingRepo mocks the repository the cache decorator wraps.
type mockInnerBindingRepo struct {
	CreateOrGetFunc func(ctx context.Context, chatID int64) (*model.HookBinding, bool, error)
	ResolveChatFunc func(ctx context.Context, hookID string) (int64, error)
}

func (m *mockInnerBindingRepo) CreateOrGet(ctx context.Context, chatID int64) (*model.HookBinding, bool, error) {
	return m.CreateOrGetFunc(ctx, chatID)
}
func (m *mockInnerBindingRepo) ResolveChat(ctx context.Context, hookID string) (int64, error) {
	return m.ResolveChatFunc(ctx, hookID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                   { return nil }
