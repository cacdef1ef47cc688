package telegram

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"ddns-telegram-relay/internal/domain/ports/adapter"
	"ddns-telegram-relay/internal/infra/logging"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs outbound messages instead of sending them. Used in dev
// mode for DDNS notifications.
type NoopBotAdapter struct {
	log *zerolog.Logger

	mu   sync.Mutex
	sent int
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &NoopBotAdapter{log: logger}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.count()
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("[noop-telegram] message")
	return nil
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.count()
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Interface("buttons", rows).Msg("[noop-telegram] message with buttons")
	return nil
}

// Sent reports how many messages were logged.
func (b *NoopBotAdapter) Sent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent
}

func (b *NoopBotAdapter) count() {
	b.mu.Lock()
	b.sent++
	b.mu.Unlock()
}
