package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token       string `yaml:"token"`
	Secret      string `yaml:"secret"`       // X-Telegram-Bot-Api-Secret-Token
	WebhookPath string `yaml:"webhook_path"` // path Telegram posts updates to
	SetWebhook  *bool  `yaml:"set_webhook"`  // register webhook on startup (default true)
	Language    string `yaml:"language"`     // en | zh
	APIEndpoint string `yaml:"api_endpoint"` // override for self-hosted Bot API servers
}

// ShouldSetWebhook defaults to true when unset.
func (b BotConfig) ShouldSetWebhook() bool {
	return b.SetWebhook == nil || *b.SetWebhook
}

type ServerConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Port              int           `yaml:"port"`
	DDNSPrefix        string        `yaml:"ddns_prefix"`
	StrictContentType bool          `yaml:"strict_content_type"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"` // 0 disables /health and /metrics
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // memory | redis | postgres
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL       string        `yaml:"url"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

type HookConfig struct {
	IDStyle string `yaml:"id_style"` // short | uuid | ulid
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Hook     HookConfig     `yaml:"hook"`

	Runtime RuntimeConfig `yaml:"-"`
}

// ConfigError reports a missing or invalid setting. The process must not
// start serving when Load returns one.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

func missing(field string) error { return &ConfigError{Field: field, Reason: "is required"} }

// Load reads the optional YAML file at path, then a .env file in the working
// directory, then environment variables. Later sources win.
func Load(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ConfigError{Field: key, Reason: "must be an integer"}
		}
		*dst = n
		return nil
	}

	str("BOT_TOKEN", &cfg.Bot.Token)
	str("WEBHOOK_SECRET", &cfg.Bot.Secret)
	str("TELEGRAM_WEBHOOK_PATH", &cfg.Bot.WebhookPath)
	str("BOT_LANGUAGE", &cfg.Bot.Language)
	str("BASE_URL", &cfg.Server.BaseURL)
	str("DDNS_WEBHOOK_PREFIX", &cfg.Server.DDNSPrefix)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("REDIS_URL", &cfg.Redis.URL)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("DATABASE_URL", &cfg.Database.URL)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("HOOK_ID_STYLE", &cfg.Hook.IDStyle)

	if err := num("PORT", &cfg.Server.Port); err != nil {
		return err
	}
	return num("ADMIN_PORT", &cfg.Admin.Port)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Bot.WebhookPath == "" {
		cfg.Bot.WebhookPath = "/telegram-webhook"
	}
	cfg.Bot.WebhookPath = normalizePath(cfg.Bot.WebhookPath)
	if cfg.Server.DDNSPrefix == "" {
		cfg.Server.DDNSPrefix = "/ddns-webhook"
	}
	cfg.Server.DDNSPrefix = strings.TrimRight(normalizePath(cfg.Server.DDNSPrefix), "/")
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 64 << 10
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10 * time.Second
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "en"
	}
	cfg.Bot.Language = strings.ToLower(cfg.Bot.Language)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Hook.IDStyle == "" {
		cfg.Hook.IDStyle = "short"
	}
	cfg.Hook.IDStyle = strings.ToLower(cfg.Hook.IDStyle)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "ddns-relay"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
}

// Validate reports the first missing or malformed setting.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return missing("BOT_TOKEN")
	}
	if c.Server.BaseURL == "" {
		return missing("BASE_URL")
	}
	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigError{Field: "BASE_URL", Reason: "must be an absolute URL, e.g. https://example.com:8000"}
	}
	if c.Bot.Secret == "" {
		return missing("WEBHOOK_SECRET")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{Field: "PORT", Reason: "must be between 1 and 65535"}
	}
	if c.Admin.Port < 0 || c.Admin.Port > 65535 {
		return &ConfigError{Field: "ADMIN_PORT", Reason: "must be between 0 and 65535"}
	}
	if c.Admin.Port != 0 && c.Admin.Port == c.Server.Port {
		return &ConfigError{Field: "ADMIN_PORT", Reason: "must differ from PORT"}
	}
	if c.Server.DDNSPrefix == "" || c.Server.DDNSPrefix == c.Bot.WebhookPath {
		return &ConfigError{Field: "DDNS_WEBHOOK_PREFIX", Reason: "must be a non-root path distinct from the Telegram webhook path"}
	}

	switch c.Storage.Driver {
	case "memory":
		// bindings do not survive a restart
		if !c.Runtime.Dev {
			return &ConfigError{Field: "STORAGE_DRIVER", Reason: "memory is only allowed with -dev; use redis or postgres"}
		}
	case "redis":
		if c.Redis.URL == "" {
			return missing("REDIS_URL")
		}
	case "postgres":
		if c.Database.URL == "" {
			return missing("DATABASE_URL")
		}
	default:
		return &ConfigError{Field: "STORAGE_DRIVER", Reason: "must be one of memory, redis, postgres"}
	}

	switch c.Hook.IDStyle {
	case "short", "uuid", "ulid":
	default:
		return &ConfigError{Field: "HOOK_ID_STYLE", Reason: "must be one of short, uuid, ulid"}
	}
	switch c.Bot.Language {
	case "en", "zh":
	default:
		return &ConfigError{Field: "BOT_LANGUAGE", Reason: "must be en or zh"}
	}
	return nil
}

// TelegramWebhookURL is where Telegram delivers updates.
func (c *Config) TelegramWebhookURL() string {
	return c.Server.BaseURL + c.Bot.WebhookPath
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
