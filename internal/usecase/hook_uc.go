package usecase

import (
	"context"
	"strings"

	"ddns-telegram-relay/internal/domain/ports/repository"
	"ddns-telegram-relay/internal/infra/logging"
	"ddns-telegram-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ HookUseCase = (*hookUC)(nil)

// HookUseCase hands out the public DDNS webhook URL of a chat.
type HookUseCase interface {
	// Issue creates or fetches the chat's binding and returns its URL.
	Issue(ctx context.Context, chatID int64) (url string, created bool, err error)
	URLFor(hookID string) string
}

type hookUC struct {
	bindings   repository.BindingRepository
	baseURL    string
	ddnsPrefix string
	dev        bool
	log        *zerolog.Logger
}

func NewHookUseCase(bindings repository.BindingRepository, baseURL, ddnsPrefix string, dev bool, logger *zerolog.Logger) *hookUC {
	return &hookUC{
		bindings:   bindings,
		baseURL:    strings.TrimRight(baseURL, "/"),
		ddnsPrefix: "/" + strings.Trim(ddnsPrefix, "/"),
		dev:        dev,
		log:        logger,
	}
}

func (h *hookUC) Issue(ctx context.Context, chatID int64) (string, bool, error) {
	b, created, err := h.bindings.CreateOrGet(ctx, chatID)
	if err != nil {
		return "", false, err
	}
	metrics.IncHookIssued(created)

	l := logging.With(logging.WithChatID(ctx, chatID), h.log)
	if created {
		l.Info().Str("hook_id", logging.Redact(b.HookID, h.dev)).Msg("issued new webhook path")
	} else {
		l.Debug().Str("hook_id", logging.Redact(b.HookID, h.dev)).Msg("chat already has a webhook path")
	}
	return h.URLFor(b.HookID), created, nil
}

func (h *hookUC) URLFor(hookID string) string {
	return h.baseURL + h.ddnsPrefix + "/" + hookID
}
