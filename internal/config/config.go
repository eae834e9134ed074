// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServiceConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"` // sent as an opaque bearer token when set
	Timeout time.Duration `yaml:"timeout"` // per HTTP call
}

type PollConfig struct {
	Interval             time.Duration `yaml:"interval"`
	ClockTick            time.Duration `yaml:"clock_tick"`
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors"` // 0 = status errors never fatal
}

type RedactionConfig struct {
	Field string `yaml:"field"` // top-level member to redact inside; empty = whole payload
	Key   string `yaml:"key"`
}

type HistoryConfig struct {
	Backend    string `yaml:"backend"` // memory|redis|sqlite|postgres
	Key        string `yaml:"key"`
	MaxEntries int    `yaml:"max_entries"` // 10 or 50
	SQLitePath string `yaml:"sqlite_path"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Output   string `yaml:"output"`   // stdout|stderr
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ConsoleConfig struct {
	Port int `yaml:"port"`

	// RequestTimeout bounds every console request except job submission.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// SubmitLimit caps submissions per client per SubmitWindow. Needs redis;
	// 0 disables it.
	SubmitLimit  int           `yaml:"submit_limit"`
	SubmitWindow time.Duration `yaml:"submit_window"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelegramConfig struct {
	Token       string `yaml:"token"`
	ChatID      int64  `yaml:"chat_id"`
	APIEndpoint string `yaml:"api_endpoint"` // tgbotapi format, empty = public Bot API
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Workers  int            `yaml:"workers"`
}

type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Poll      PollConfig      `yaml:"poll"`
	Redaction RedactionConfig `yaml:"redaction"`
	History   HistoryConfig   `yaml:"history"`
	Log       LogConfig       `yaml:"log"`
	Console   ConsoleConfig   `yaml:"console"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Notify    NotifyConfig    `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

const (
	DefaultHistoryKey = "analysis:history:video_locators"
	DefaultBaseURL    = "http://localhost:8000"
)

// LoadConfig reads the YAML file at path. A missing file is not an error:
// defaults and ANALYSIS_* environment overrides still apply.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ANALYSIS_BASE_URL"); v != "" {
		cfg.Service.BaseURL = v
	}
	if v := os.Getenv("ANALYSIS_API_KEY"); v != "" {
		cfg.Service.APIKey = v
	}
	if v := os.Getenv("ANALYSIS_REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ANALYSIS_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("ANALYSIS_TELEGRAM_TOKEN"); v != "" {
		cfg.Notify.Telegram.Token = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = DefaultBaseURL
	}
	cfg.Service.BaseURL = strings.TrimRight(cfg.Service.BaseURL, "/")
	if cfg.Service.Timeout <= 0 {
		cfg.Service.Timeout = 30 * time.Second
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = 2 * time.Second
	}
	if cfg.Poll.ClockTick <= 0 {
		cfg.Poll.ClockTick = 100 * time.Millisecond
	}
	if cfg.Redaction.Key == "" {
		cfg.Redaction.Field = "analysis"
		cfg.Redaction.Key = "raw_response"
	}
	if cfg.History.Backend == "" {
		cfg.History.Backend = "memory"
	}
	cfg.History.Backend = strings.ToLower(cfg.History.Backend)
	if cfg.History.Key == "" {
		cfg.History.Key = DefaultHistoryKey
	}
	cfg.History.MaxEntries = normalizeMaxEntries(cfg.History.MaxEntries)
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = "analysis-history.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Console.Port == 0 {
		cfg.Console.Port = 8081
	}
	if cfg.Console.RequestTimeout <= 0 {
		cfg.Console.RequestTimeout = 5 * time.Second
	}
	if cfg.Console.SubmitWindow <= 0 {
		cfg.Console.SubmitWindow = time.Minute
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
}

// Validate performs minimal validation after defaults are applied.
func (cfg *Config) Validate() error {
	u, err := url.Parse(cfg.Service.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("service.base_url is not an absolute url: %q", cfg.Service.BaseURL)
	}
	switch cfg.History.Backend {
	case "memory", "sqlite":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required for history.backend=redis")
		}
	case "postgres":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for history.backend=postgres")
		}
	default:
		return fmt.Errorf("unknown history.backend %q", cfg.History.Backend)
	}
	if cfg.Console.SubmitLimit > 0 && cfg.Redis.URL == "" {
		return errors.New("redis.url is required for console.submit_limit")
	}
	if cfg.Notify.Telegram.Token != "" && cfg.Notify.Telegram.ChatID == 0 {
		return errors.New("notify.telegram.chat_id is required when a token is set")
	}
	return nil
}

// normalizeMaxEntries accepts the two supported caps and falls back to 10.
func normalizeMaxEntries(n int) int {
	if n == 10 || n == 50 {
		return n
	}
	return 10
}
