//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"ddns-telegram-relay/internal/domain"
	"ddns-telegram-relay/internal/domain/model"
	"ddns-telegram-relay/internal/domain/ports/adapter"
	"ddns-telegram-relay/internal/domain/ports/repository"
	"ddns-telegram-relay/internal/infra/i18n"

	"github.com/rs/zerolog"
)

// ---- Mock BindingRepository ----

type MockBindingRepo struct {
	CreateOrGetFunc func(ctx context.Context, chatID int64) (*model.HookBinding, bool, error)
	ResolveChatFunc func(ctx context.Context, hookID string) (int64, error)
}

var _ repository.BindingRepository = (*MockBindingRepo)(nil)

func (m *MockBindingRepo) CreateOrGet(ctx context.Context, chatID int64) (*model.HookBinding, bool, error) {
	if m.CreateOrGetFunc != nil {
		return m.CreateOrGetFunc(ctx, chatID)
	}
	return &model.HookBinding{ChatID: chatID, HookID: "deadbeef"}, true, nil
}

func (m *MockBindingRepo) ResolveChat(ctx context.Context, hookID string) (int64, error) {
	if m.ResolveChatFunc != nil {
		return m.ResolveChatFunc(ctx, hookID)
	}
	return 0, domain.ErrNotFound
}

// ---- Mock TelegramBotAdapter ----

type SentMessage struct {
	ChatID int64
	Text   string
}

type MockTelegramBot struct {
	mu   sync.Mutex
	Sent []SentMessage

	SendMessageFunc func(ctx context.Context, chatID int64, text string) error
}

var _ adapter.TelegramBotAdapter = (*MockTelegramBot)(nil)

func (m *MockTelegramBot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, chatID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *MockTelegramBot) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	return m.SendMessage(ctx, chatID, text)
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatalf("load en locale: %v", err)
	}
	return tr
}
