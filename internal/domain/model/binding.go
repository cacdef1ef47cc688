package model

import (
	"strings"

	"ddns-telegram-relay/internal/domain"
)

// HookBinding associates a Telegram chat with the random hook id that forms
// the last segment of its public DDNS webhook URL.
type HookBinding struct {
	ChatID int64
	HookID string
}

func NewHookBinding(chatID int64, hookID string) (*HookBinding, error) {
	// group chats have negative ids, only zero is invalid
	if chatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	hookID = strings.TrimSpace(hookID)
	if hookID == "" || strings.Contains(hookID, "/") {
		return nil, domain.ErrInvalidArgument
	}
	return &HookBinding{ChatID: chatID, HookID: hookID}, nil
}
