package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ddns-telegram-relay/internal/config"
	"ddns-telegram-relay/internal/domain"
	"ddns-telegram-relay/internal/domain/model"
	"ddns-telegram-relay/internal/infra/logging"
	"ddns-telegram-relay/internal/infra/metrics"
	"ddns-telegram-relay/internal/usecase"
)

// Server routes Telegram updates to the bot adapter and DDNS callbacks to the relay.
type Server struct {
	relay    usecase.RelayUseCase
	telegram http.Handler

	botPath    string
	ddnsPrefix string
	strictCT   bool
	maxBody    int64
	timeout    time.Duration
	dev        bool

	log *zerolog.Logger
}

func NewServer(cfg *config.Config, relay usecase.RelayUseCase, telegram http.Handler, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		relay:      relay,
		telegram:   telegram,
		botPath:    cfg.Bot.WebhookPath,
		ddnsPrefix: cfg.Server.DDNSPrefix,
		strictCT:   cfg.Server.StrictContentType,
		maxBody:    cfg.Server.MaxBodyBytes,
		timeout:    cfg.Server.RequestTimeout,
		dev:        cfg.Runtime.Dev,
		log:        logger,
	}
}

// Handler builds the public router. Unmatched paths answer 404 and
// known paths with the wrong method answer 405.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(s.log),
		Recover(s.log),
		RequestLog(s.log),
		Timeout(s.timeout),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	r.Post(s.botPath, s.telegram.ServeHTTP)
	r.Post(s.ddnsPrefix+"/{hookID}", s.handleDDNS)
	return r
}

func (s *Server) handleDDNS(w http.ResponseWriter, r *http.Request) {
	hookID := chi.URLParam(r, "hookID")
	if hookID == "" {
		s.reply(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}
	ctx := logging.WithHookID(r.Context(), logging.Redact(hookID, s.dev))
	l := logging.With(ctx, s.log)

	chatID, err := s.relay.Resolve(ctx, hookID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			l.Info().Msg("ddns callback for unknown hook")
			s.reply(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
			return
		}
		s.reply(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if s.strictCT && !isJSON(r.Header.Get("Content-Type")) {
		s.reply(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		l.Warn().Err(err).Msg("ddns callback body unreadable")
		s.reply(w, http.StatusBadRequest, "Bad Request: body unreadable or too large")
		return
	}
	rep, err := model.ParseIPUpdateReport(body)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			l.Info().Str("reason", verr.Error()).Msg("rejected ddns callback")
			s.reply(w, http.StatusBadRequest, "Bad Request: "+verr.Error())
			return
		}
		s.reply(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest))
		return
	}

	// delivery failures are logged and counted by the relay; the updater always sees OK
	_ = s.relay.Deliver(logging.WithChatID(ctx, chatID), chatID, rep)
	s.reply(w, http.StatusOK, "OK")
}

func (s *Server) reply(w http.ResponseWriter, code int, body string) {
	metrics.IncDDNSWebhook(code)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}
