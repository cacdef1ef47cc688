package telegram

import (
	"context"

	"ddns-telegram-relay/internal/application"
)

type cbHandler func(ctx context.Context, chatID int64, data string) error

func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		application.CallbackGetHook: r.getHookCBRoute,
	}
}

func (r *RealTelegramBotAdapter) getHookCBRoute(ctx context.Context, id int64, _ string) error {
	return r.sendHook(ctx, id)
}
