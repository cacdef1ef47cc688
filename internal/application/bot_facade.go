package application

import (
	"context"
	"fmt"

	"ddns-telegram-relay/internal/usecase"
)

// requestBodyTemplate is the ddns-go webhook RequestBody. ddns-go substitutes
// the #{...} placeholders before posting.
const requestBodyTemplate = "```json\n" + `{
    "ipv4": {
        "result": "#{ipv4Result}",
        "addr": "#{ipv4Addr}",
        "domains": "#{ipv4Domains}"
    },
    "ipv6": {
        "result": "#{ipv6Result}",
        "addr": "#{ipv6Addr}",
        "domains": "#{ipv6Domains}"
    }
}` + "\n```"

// BotFacade composes usecases into high-level bot commands.
// Facade methods return strings so the Telegram adapter just forwards them to the chat.
type BotFacade struct {
	HookUC usecase.HookUseCase
	tr     usecase.Translator
}

func NewBotFacade(hookUC usecase.HookUseCase, tr usecase.Translator) *BotFacade {
	return &BotFacade{HookUC: hookUC, tr: tr}
}

// HandleStart returns the greeting shown for /start.
func (b *BotFacade) HandleStart(ctx context.Context) string {
	return b.tr.T("welcome_message")
}

func (b *BotFacade) HandleHelp(ctx context.Context) string {
	return b.tr.T("help_message")
}

// HandleGetHook creates or fetches the chat's webhook and renders the ddns-go
// setup instructions. On error the returned text is the user-facing apology.
func (b *BotFacade) HandleGetHook(ctx context.Context, chatID int64) (string, error) {
	if b.HookUC == nil {
		return b.tr.T("error_gethook"), fmt.Errorf("hook usecase not available")
	}
	url, _, err := b.HookUC.Issue(ctx, chatID)
	if err != nil {
		return b.tr.T("error_gethook"), fmt.Errorf("issue hook: %w", err)
	}
	return RenderHookInstructions(b.tr, url), nil
}

// RenderHookInstructions depends on nothing but the URL and the locale.
func RenderHookInstructions(tr usecase.Translator, url string) string {
	return tr.T("gethook_reply", url, requestBodyTemplate)
}

// Button labels and callback data shared with the adapter.
const CallbackGetHook = "cmd:gethook"

func (b *BotFacade) GetHookButtonLabel() string { return b.tr.T("button_get_hook") }

func (b *BotFacade) GenericError() string { return b.tr.T("error_generic") }

func (b *BotFacade) UnknownCommand() string { return b.tr.T("unknown_command") }
