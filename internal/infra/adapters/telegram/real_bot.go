package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"ddns-telegram-relay/internal/application"
	"ddns-telegram-relay/internal/config"
	"ddns-telegram-relay/internal/domain/ports/adapter"
	"ddns-telegram-relay/internal/infra/logging"
	"ddns-telegram-relay/internal/infra/metrics"
)

// SecretHeader carries the secret_token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

// RealTelegramBotAdapter receives updates in webhook mode and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot    *tgbotapi.BotAPI
	cfg    *config.BotConfig
	facade *application.BotFacade
	log    *zerolog.Logger
}

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}

	return &RealTelegramBotAdapter{
		bot:    bot,
		cfg:    cfg,
		facade: facade,
		log:    logger,
	}, nil
}

func (r *RealTelegramBotAdapter) Username() string { return r.bot.Self.UserName }

// ServeHTTP handles one Telegram webhook delivery. Handler failures are
// logged and still answered with 200 so Telegram does not redeliver.
func (r *RealTelegramBotAdapter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	got := req.Header.Get(SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(r.cfg.Secret)) != 1 {
		metrics.IncTelegramRejected("secret")
		r.log.Warn().Str("remote", req.RemoteAddr).Msg("telegram webhook: secret token mismatch")
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	update, err := r.bot.HandleUpdate(req)
	if err != nil {
		metrics.IncTelegramRejected("decode")
		r.log.Error().Err(err).Msg("telegram webhook: decode update")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := req.Context()
	if err := r.handleUpdate(ctx, *update); err != nil {
		chatID := updateChatID(update)
		logging.With(logging.WithChatID(ctx, chatID), r.log).Error().Err(err).
			Int("update_id", update.UpdateID).Msg("telegram update handler failed")
		if chatID != 0 {
			if err := r.SendMessage(ctx, chatID, r.facade.GenericError()); err != nil {
				r.log.Warn().Err(err).Msg("apology message not sent")
			}
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	message := update.Message
	if message == nil || message.Chat == nil || !message.IsCommand() {
		return nil
	}

	command := message.Command()
	metrics.IncTelegramCommand("/" + command)
	if fn, ok := r.commandRoutes()[command]; ok {
		return fn(ctx, message)
	}
	return r.SendMessage(ctx, message.Chat.ID, r.facade.UnknownCommand())
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// stop the client spinner
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)
	metrics.IncTelegramCommand("cb:" + data)
	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	return fmt.Errorf("unknown callback data %q", data)
}

// SendMessage sends text formatted as Telegram legacy Markdown.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with inline buttons.
// A button with URL opens a link, otherwise it sends Data (or its label) as callback data.
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kr := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			switch {
			case btn.URL != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				kr = append(kr, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		kbRows = append(kbRows, kr)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(kbRows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	}
	_, err := r.bot.Send(msg)
	return err
}

// SetWebhook registers url with Telegram. A transport failure is returned as
// an error; a request Telegram refused is logged together with the current
// webhook info and reported as ok=false.
func (r *RealTelegramBotAdapter) SetWebhook(ctx context.Context, url string) (bool, error) {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", r.cfg.Secret)

	_, err := r.bot.MakeRequest("setWebhook", params)
	if err == nil {
		r.log.Info().Str("url", url).Msg("telegram webhook registered")
		return true, nil
	}

	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false, fmt.Errorf("setWebhook: %w", err)
	}
	ev := r.log.Warn().Int("code", apiErr.Code).Str("description", apiErr.Message)
	if info, ierr := r.bot.GetWebhookInfo(); ierr == nil {
		ev = ev.Str("current_url", info.URL).
			Int("pending_updates", info.PendingUpdateCount).
			Str("last_error", info.LastErrorMessage)
	}
	ev.Msg("telegram refused setWebhook")
	return false, nil
}

func updateChatID(u *tgbotapi.Update) int64 {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return u.CallbackQuery.Message.Chat.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	}
	return 0
}
