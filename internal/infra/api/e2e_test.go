//go:build !integration

package api_test

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"ddns-telegram-relay/internal/application"
	"ddns-telegram-relay/internal/config"
	"ddns-telegram-relay/internal/infra/adapters/telegram"
	"ddns-telegram-relay/internal/infra/adapters/telegram/telegramtest"
	"ddns-telegram-relay/internal/infra/api"
	"ddns-telegram-relay/internal/infra/i18n"
	"ddns-telegram-relay/internal/infra/kv"
	"ddns-telegram-relay/internal/infra/logging"
	"ddns-telegram-relay/internal/infra/security"
	"ddns-telegram-relay/internal/usecase"
)

var hookURLRe = regexp.MustCompile(`https?://\S+/ddns-webhook/[0-9a-z-]+`)

// TestGetHookThenNotify walks a chat through /gethook and a DDNS callback on
// the URL it was given, against a fake Telegram API.
func TestGetHookThenNotify(t *testing.T) {
	tgAPI := telegramtest.NewServer(t)

	cfg := &config.Config{
		Bot: config.BotConfig{
			Token:       telegramtest.Token,
			Secret:      "s3cret",
			WebhookPath: "/telegram-webhook",
			APIEndpoint: tgAPI.Endpoint(),
		},
		Server: config.ServerConfig{
			BaseURL:        "https://relay.example.com",
			DDNSPrefix:     "/ddns-webhook",
			MaxBodyBytes:   64 << 10,
			RequestTimeout: 0,
		},
	}

	ids, err := security.NewHookIDGenerator(security.HookIDShort)
	if err != nil {
		t.Fatal(err)
	}
	bindings := kv.NewBindingRepo(kv.NewMemoryStore(), ids)
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		t.Fatal(err)
	}
	log := logging.Nop()

	hookUC := usecase.NewHookUseCase(bindings, cfg.Server.BaseURL, cfg.Server.DDNSPrefix, false, log)
	bot, err := telegram.NewRealTelegramBotAdapter(&cfg.Bot, application.NewBotFacade(hookUC, tr), log)
	if err != nil {
		t.Fatal(err)
	}
	relay := usecase.NewRelayUseCase(bindings, bot, usecase.NewReportFormatter(tr), log)
	srv := httptest.NewServer(api.NewServer(cfg, relay, bot, log).Handler())
	defer srv.Close()

	// 1. chat 42 asks for its hook
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/telegram-webhook", strings.NewReader(telegramtest.CommandUpdate(1, 42, "/gethook")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(telegram.SecretHeader, "s3cret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("telegram update status = %d", resp.StatusCode)
	}

	replies := tgAPI.MessagesTo(42)
	if len(replies) != 1 {
		t.Fatalf("expected one reply, got %d", len(replies))
	}
	hookURL := hookURLRe.FindString(replies[0].Text)
	if hookURL == "" {
		t.Fatalf("no hook URL in reply: %q", replies[0].Text)
	}
	path := strings.TrimPrefix(hookURL, cfg.Server.BaseURL)

	// 2. the DDNS updater posts to that URL
	body := `{"ipv4":{"result":"OK","addr":"1.2.3.4","domains":"a.com"}}`
	resp, err = http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ddns status = %d", resp.StatusCode)
	}

	msgs := tgAPI.MessagesTo(42)
	if len(msgs) != 2 {
		t.Fatalf("expected exactly one notification, got %d messages", len(msgs)-1)
	}
	note := msgs[1].Text
	for _, want := range []string{"OK", "1.2.3.4", "a.com"} {
		if !strings.Contains(note, want) {
			t.Errorf("notification lacks %q: %q", want, note)
		}
	}
	if len(tgAPI.Messages()) != 2 {
		t.Errorf("messages leaked to other chats: %+v", tgAPI.Messages())
	}

	// 3. a failing Telegram API does not change the updater's response
	tgAPI.FailSends()
	resp, err = http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ddns status with failing delivery = %d", resp.StatusCode)
	}
}
