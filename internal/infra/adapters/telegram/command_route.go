package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ddns-telegram-relay/internal/application"
	"ddns-telegram-relay/internal/domain/ports/adapter"
	"ddns-telegram-relay/internal/infra/logging"
)

type commandHandler func(ctx context.Context, message *tgbotapi.Message) error

// commandRoutes defines all available bot commands and their handlers.
func (r *RealTelegramBotAdapter) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start":   r.handleStartCommand,
		"help":    r.handleHelpCommand,
		"gethook": r.handleGetHookCommand,
	}
}

func (r *RealTelegramBotAdapter) handleStartCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendWithHookButton(ctx, message.Chat.ID, r.facade.HandleStart(ctx))
}

func (r *RealTelegramBotAdapter) handleHelpCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendWithHookButton(ctx, message.Chat.ID, r.facade.HandleHelp(ctx))
}

func (r *RealTelegramBotAdapter) handleGetHookCommand(ctx context.Context, message *tgbotapi.Message) error {
	return r.sendHook(ctx, message.Chat.ID)
}

// sendHook answers /gethook and the matching button. Storage failures are
// reported to the chat and not retried.
func (r *RealTelegramBotAdapter) sendHook(ctx context.Context, chatID int64) error {
	text, err := r.facade.HandleGetHook(ctx, chatID)
	if err != nil {
		logging.With(logging.WithChatID(ctx, chatID), r.log).Error().Err(err).Msg("gethook failed")
	}
	return r.SendMessage(ctx, chatID, text)
}

func (r *RealTelegramBotAdapter) sendWithHookButton(ctx context.Context, chatID int64, text string) error {
	rows := [][]adapter.InlineButton{
		{{Text: r.facade.GetHookButtonLabel(), Data: application.CallbackGetHook}},
	}
	return r.SendButtons(ctx, chatID, text, rows)
}
