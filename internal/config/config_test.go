//go:build !integration

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var relayEnv = []string{
	"BOT_TOKEN", "WEBHOOK_SECRET", "TELEGRAM_WEBHOOK_PATH", "BOT_LANGUAGE", "BASE_URL",
	"DDNS_WEBHOOK_PREFIX", "STORAGE_DRIVER", "REDIS_URL", "REDIS_PASSWORD", "DATABASE_URL",
	"LOG_LEVEL", "LOG_FORMAT", "HOOK_ID_STYLE", "PORT", "ADMIN_PORT",
}

// clearEnv blanks every variable Load reads; blank values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range relayEnv {
		t.Setenv(k, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BASE_URL", "https://relay.example.com:8443/")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
}

func TestLoad_RequiredValues(t *testing.T) {
	for _, key := range []string{"BOT_TOKEN", "BASE_URL", "WEBHOOK_SECRET"} {
		t.Run("missing "+key, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			t.Setenv(key, "")

			_, err := Load("", false)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cerr.Field != key {
				t.Errorf("expected field %s, got %s", key, cerr.Field)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load("", true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://relay.example.com:8443" {
		t.Errorf("base url not trimmed: %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Bot.WebhookPath != "/telegram-webhook" || cfg.Server.DDNSPrefix != "/ddns-webhook" {
		t.Errorf("unexpected paths: %q %q", cfg.Bot.WebhookPath, cfg.Server.DDNSPrefix)
	}
	if cfg.Storage.Driver != "memory" || cfg.Hook.IDStyle != "short" || cfg.Bot.Language != "en" {
		t.Errorf("unexpected defaults: %+v %+v %+v", cfg.Storage, cfg.Hook, cfg.Bot.Language)
	}
	if !cfg.Bot.ShouldSetWebhook() {
		t.Error("webhook registration should default to on")
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not propagated")
	}
	if got := cfg.TelegramWebhookURL(); got != "https://relay.example.com:8443/telegram-webhook" {
		t.Errorf("TelegramWebhookURL = %q", got)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("PORT", "9000")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte(`
bot:
  webhook_path: tg
  set_webhook: false
server:
  port: 7000
  ddns_prefix: /hooks/
  strict_content_type: true
  request_timeout: 3s
storage:
  driver: Redis
redis:
  url: localhost:6379
hook:
  id_style: ULID
`)
	if err := os.WriteFile(path, yml, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("env should override file port, got %d", cfg.Server.Port)
	}
	if cfg.Bot.WebhookPath != "/tg" || cfg.Server.DDNSPrefix != "/hooks" {
		t.Errorf("paths not normalized: %q %q", cfg.Bot.WebhookPath, cfg.Server.DDNSPrefix)
	}
	if cfg.Bot.ShouldSetWebhook() {
		t.Error("set_webhook: false ignored")
	}
	if !cfg.Server.StrictContentType || cfg.Server.RequestTimeout != 3*time.Second {
		t.Errorf("server section not parsed: %+v", cfg.Server)
	}
	if cfg.Storage.Driver != "redis" || cfg.Hook.IDStyle != "ulid" {
		t.Errorf("enums not normalized: %q %q", cfg.Storage.Driver, cfg.Hook.IDStyle)
	}
	if cfg.Redis.TTL != time.Hour || cfg.Redis.KeyPrefix != "ddns-relay" {
		t.Errorf("redis defaults: %+v", cfg.Redis)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"relative base url":  {"BASE_URL": "relay.example.com"},
		"non numeric port":   {"PORT": "eighty"},
		"port out of range":  {"PORT": "70000"},
		"unknown driver":     {"STORAGE_DRIVER": "dynamo"},
		"redis without url":  {"STORAGE_DRIVER": "redis"},
		"postgres no url":    {"STORAGE_DRIVER": "postgres"},
		"unknown id style":   {"HOOK_ID_STYLE": "counter"},
		"unknown language":   {"BOT_LANGUAGE": "fr"},
		"admin on same port": {"PORT": "8000", "ADMIN_PORT": "8000"},
		"prefix collides":    {"DDNS_WEBHOOK_PREFIX": "/telegram-webhook"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load("", true)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}

	t.Run("memory storage outside dev", func(t *testing.T) {
		for _, driver := range []string{"", "memory"} {
			clearEnv(t)
			setRequired(t)
			t.Setenv("STORAGE_DRIVER", driver)
			_, err := Load("", false)
			var cerr *ConfigError
			if !errors.As(err, &cerr) || cerr.Field != "STORAGE_DRIVER" {
				t.Fatalf("driver %q: expected STORAGE_DRIVER ConfigError, got %v", driver, err)
			}
		}
	})

	t.Run("durable storage outside dev", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		t.Setenv("STORAGE_DRIVER", "postgres")
		t.Setenv("DATABASE_URL", "postgres://relay@localhost/relay")
		if _, err := Load("", false); err != nil {
			t.Fatalf("Load: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		setRequired(t)
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
