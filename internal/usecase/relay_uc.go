package usecase

import (
	"context"
	"errors"

	"ddns-telegram-relay/internal/domain"
	"ddns-telegram-relay/internal/domain/model"
	"ddns-telegram-relay/internal/domain/ports/adapter"
	"ddns-telegram-relay/internal/domain/ports/repository"
	"ddns-telegram-relay/internal/infra/logging"
	"ddns-telegram-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RelayUseCase = (*relayUC)(nil)

// RelayUseCase turns DDNS callbacks into chat notifications.
type RelayUseCase interface {
	// Resolve maps a hook id to its chat. Unknown ids yield domain.ErrNotFound.
	Resolve(ctx context.Context, hookID string) (int64, error)
	// Deliver formats the report and sends it to chatID. A failed send is
	// logged and returned as *domain.DeliveryError; it is never retried.
	Deliver(ctx context.Context, chatID int64, rep *model.IPUpdateReport) error
}

type relayUC struct {
	bindings  repository.BindingRepository
	bot       adapter.TelegramBotAdapter
	formatter *ReportFormatter
	log       *zerolog.Logger
}

func NewRelayUseCase(bindings repository.BindingRepository, bot adapter.TelegramBotAdapter, formatter *ReportFormatter, logger *zerolog.Logger) *relayUC {
	return &relayUC{
		bindings:  bindings,
		bot:       bot,
		formatter: formatter,
		log:       logger,
	}
}

func (r *relayUC) Resolve(ctx context.Context, hookID string) (int64, error) {
	chatID, err := r.bindings.ResolveChat(ctx, hookID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logging.With(ctx, r.log).Error().Err(err).Msg("hook lookup failed")
		}
		return 0, err
	}
	return chatID, nil
}

func (r *relayUC) Deliver(ctx context.Context, chatID int64, rep *model.IPUpdateReport) error {
	defer logging.TraceDuration(r.log, "RelayUC.Deliver")()
	l := logging.With(logging.WithChatID(ctx, chatID), r.log)

	text := r.formatter.Format(rep)
	if err := r.bot.SendMessage(ctx, chatID, text); err != nil {
		metrics.IncNotification("failed")
		derr := &domain.DeliveryError{ChatID: chatID, Err: err}
		l.Error().Err(derr).Msg("failed to deliver DDNS notification")
		return derr
	}
	metrics.IncNotification("sent")
	l.Info().Msg("delivered DDNS notification")
	return nil
}
