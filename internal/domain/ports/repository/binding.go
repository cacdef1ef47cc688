package repository

import (
	"context"

	"ddns-telegram-relay/internal/domain/model"
)

// BindingRepository is the bidirectional chat <-> hook mapping.
type BindingRepository interface {
	// CreateOrGet returns the existing binding of chatID or atomically creates
	// one. created reports whether this call stored it.
	CreateOrGet(ctx context.Context, chatID int64) (binding *model.HookBinding, created bool, err error)
	// ResolveChat returns domain.ErrNotFound for an unknown hook id.
	ResolveChat(ctx context.Context, hookID string) (int64, error)
}
