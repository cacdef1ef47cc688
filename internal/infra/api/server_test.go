//go:build !integration

package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ddns-telegram-relay/internal/config"
	"ddns-telegram-relay/internal/domain"
	"ddns-telegram-relay/internal/domain/model"
	"ddns-telegram-relay/internal/infra/api"
	"ddns-telegram-relay/internal/infra/logging"
)

// mockRelay resolves "known" to chat 42 and records deliveries.
type mockRelay struct {
	resolveErr error
	deliverErr error
	delivered  []*model.IPUpdateReport
}

func (m *mockRelay) Resolve(ctx context.Context, hookID string) (int64, error) {
	if m.resolveErr != nil {
		return 0, m.resolveErr
	}
	if hookID != "known" {
		return 0, domain.ErrNotFound
	}
	return 42, nil
}

func (m *mockRelay) Deliver(ctx context.Context, chatID int64, rep *model.IPUpdateReport) error {
	m.delivered = append(m.delivered, rep)
	return m.deliverErr
}

func testConfig(strict bool) *config.Config {
	return &config.Config{
		Bot: config.BotConfig{WebhookPath: "/telegram-webhook"},
		Server: config.ServerConfig{
			DDNSPrefix:        "/ddns-webhook",
			StrictContentType: strict,
			MaxBodyBytes:      1024,
			RequestTimeout:    5 * time.Second,
		},
	}
}

func newHandler(relay *mockRelay, strict bool) http.Handler {
	tg := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return api.NewServer(testConfig(strict), relay, tg, logging.Nop()).Handler()
}

const validBody = `{"ipv4":{"result":"OK","addr":"1.2.3.4","domains":"a.com"}}`

func do(h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDDNSWebhook(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		strict      bool
		want        int
		delivered   int
	}{
		{"valid report", http.MethodPost, "/ddns-webhook/known", "application/json", validBody, false, 200, 1},
		{"ipv6 only", http.MethodPost, "/ddns-webhook/known", "application/json", `{"ipv6":{"result":"FAIL","addr":"timeout","domains":""}}`, false, 200, 1},
		{"localized result", http.MethodPost, "/ddns-webhook/known", "application/json", `{"ipv4":{"result":"未改变","addr":"","domains":""}}`, false, 200, 1},
		{"empty object", http.MethodPost, "/ddns-webhook/known", "application/json", `{}`, false, 400, 0},
		{"null families", http.MethodPost, "/ddns-webhook/known", "application/json", `{"ipv4":null,"ipv6":null}`, false, 400, 0},
		{"malformed JSON", http.MethodPost, "/ddns-webhook/known", "application/json", `{"ipv4":`, false, 400, 0},
		{"trailing data", http.MethodPost, "/ddns-webhook/known", "application/json", validBody + ` not json`, false, 400, 0},
		{"unknown result", http.MethodPost, "/ddns-webhook/known", "application/json", `{"ipv4":{"result":"MAYBE"}}`, false, 400, 0},
		{"body too large", http.MethodPost, "/ddns-webhook/known", "application/json", `{"ipv4":{"result":"OK","addr":"` + strings.Repeat("x", 2048) + `"}}`, false, 400, 0},
		{"unknown hook", http.MethodPost, "/ddns-webhook/unknown-id", "application/json", validBody, false, 404, 0},
		{"empty hook id", http.MethodPost, "/ddns-webhook/", "application/json", validBody, false, 404, 0},
		{"prefix without id", http.MethodPost, "/ddns-webhook", "application/json", validBody, false, 404, 0},
		{"extra segment", http.MethodPost, "/ddns-webhook/known/extra", "application/json", validBody, false, 404, 0},
		{"GET", http.MethodGet, "/ddns-webhook/known", "", "", false, 405, 0},
		{"PUT", http.MethodPut, "/ddns-webhook/known", "application/json", validBody, false, 405, 0},
		{"lenient content type", http.MethodPost, "/ddns-webhook/known", "text/plain", validBody, false, 200, 1},
		{"strict rejects text/plain", http.MethodPost, "/ddns-webhook/known", "text/plain", validBody, true, 415, 0},
		{"strict rejects missing type", http.MethodPost, "/ddns-webhook/known", "", validBody, true, 415, 0},
		{"strict accepts charset", http.MethodPost, "/ddns-webhook/known", "application/json; charset=utf-8", validBody, true, 200, 1},
		{"other path", http.MethodPost, "/elsewhere", "application/json", validBody, false, 404, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := &mockRelay{}
			rec := do(newHandler(relay, tt.strict), tt.method, tt.path, tt.contentType, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body=%q)", rec.Code, tt.want, rec.Body.String())
			}
			if len(relay.delivered) != tt.delivered {
				t.Errorf("delivered %d reports, want %d", len(relay.delivered), tt.delivered)
			}
		})
	}
}

func TestDDNSWebhook_OKBody(t *testing.T) {
	rec := do(newHandler(&mockRelay{}, false), http.MethodPost, "/ddns-webhook/known", "application/json", validBody)
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
	if rec.Header().Get(api.TraceIDHeader) == "" {
		t.Error("trace id header missing")
	}
}

func TestDDNSWebhook_DeliveryFailureStillOK(t *testing.T) {
	relay := &mockRelay{deliverErr: &domain.DeliveryError{ChatID: 42, Err: errors.New("chat not found")}}
	rec := do(newHandler(relay, false), http.MethodPost, "/ddns-webhook/known", "application/json", validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestDDNSWebhook_StorageFailure(t *testing.T) {
	relay := &mockRelay{resolveErr: &domain.StorageError{Op: "resolve hook", Err: errors.New("timeout")}}
	rec := do(newHandler(relay, false), http.MethodPost, "/ddns-webhook/known", "application/json", validBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if len(relay.delivered) != 0 {
		t.Error("nothing should be delivered")
	}
}

func TestTelegramRoute(t *testing.T) {
	h := newHandler(&mockRelay{}, false)
	if rec := do(h, http.MethodPost, "/telegram-webhook", "application/json", `{}`); rec.Code != http.StatusOK {
		t.Errorf("POST status = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/telegram-webhook", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := api.NewServer(testConfig(false), &mockRelay{}, panicking, logging.Nop()).Handler()
	rec := do(h, http.MethodPost, "/telegram-webhook", "application/json", `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
