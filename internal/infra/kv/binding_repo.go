package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"ddns-telegram-relay/internal/domain"
	"ddns-telegram-relay/internal/domain/model"
	"ddns-telegram-relay/internal/domain/ports/repository"
)

var _ repository.BindingRepository = (*BindingRepo)(nil)

const (
	chatIndex = "chat"
	hookIndex = "webhook"

	maxCreateAttempts = 3
)

// HookIDGenerator produces fresh unguessable hook ids.
type HookIDGenerator interface {
	NewHookID() (string, error)
}

// BindingRepo keeps the chat -> hook and hook -> chat indexes on top of any
// transactional KV backend.
type BindingRepo struct {
	store repository.KV
	ids   HookIDGenerator
}

func NewBindingRepo(store repository.KV, ids HookIDGenerator) *BindingRepo {
	return &BindingRepo{store: store, ids: ids}
}

func ChatKey(chatID int64) repository.Key {
	return repository.Key{chatIndex, strconv.FormatInt(chatID, 10)}
}

func HookKey(hookID string) repository.Key {
	return repository.Key{hookIndex, hookID}
}

// CreateOrGet looks up the binding of chatID and creates it when missing.
// The existence check and both index writes commit in one transaction; on
// conflict the chat index is re-read, so concurrent callers for the same
// chat converge on a single hook id.
func (r *BindingRepo) CreateOrGet(ctx context.Context, chatID int64) (*model.HookBinding, bool, error) {
	if chatID == 0 {
		return nil, false, domain.ErrInvalidArgument
	}
	chatKey := ChatKey(chatID)

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		hookID, ok, err := r.store.Get(ctx, chatKey)
		if err != nil {
			return nil, false, &domain.StorageError{Op: "get chat binding", Err: err}
		}
		if ok {
			b, err := model.NewHookBinding(chatID, hookID)
			if err != nil {
				return nil, false, &domain.StorageError{Op: "decode chat binding", Err: err}
			}
			return b, false, nil
		}

		hookID, err = r.ids.NewHookID()
		if err != nil {
			return nil, false, fmt.Errorf("generate hook id: %w", err)
		}
		b, err := model.NewHookBinding(chatID, hookID)
		if err != nil {
			return nil, false, fmt.Errorf("generate hook id: %w", err)
		}

		hookKey := HookKey(hookID)
		err = r.store.Transact(ctx, repository.Txn{
			Absent: []repository.Key{chatKey, hookKey},
			Writes: []repository.Write{
				{Key: chatKey, Value: hookID},
				{Key: hookKey, Value: strconv.FormatInt(chatID, 10)},
			},
		})
		switch {
		case err == nil:
			return b, true, nil
		case errors.Is(err, repository.ErrConflict):
			// another request bound this chat first, or the hook id collided
			continue
		default:
			return nil, false, &domain.StorageError{Op: "create binding", Err: err}
		}
	}
	return nil, false, &domain.StorageError{Op: "create binding", Err: repository.ErrConflict}
}

func (r *BindingRepo) ResolveChat(ctx context.Context, hookID string) (int64, error) {
	if hookID == "" {
		return 0, domain.ErrNotFound
	}
	v, ok, err := r.store.Get(ctx, HookKey(hookID))
	if err != nil {
		return 0, &domain.StorageError{Op: "resolve hook", Err: err}
	}
	if !ok {
		return 0, domain.ErrNotFound
	}
	chatID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &domain.StorageError{Op: "decode hook binding", Err: err}
	}
	return chatID, nil
}
