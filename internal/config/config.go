// Package config loads server configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Поддерживаемые драйверы основного хранилища
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config конфигурация сервера
type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Storage   Storage   `yaml:"storage"`
	Search    Search    `yaml:"search"`
	Auth      Auth      `yaml:"auth"`
	RateLimit RateLimit `yaml:"rate_limit"`
	Log       Log       `yaml:"log"`
}

// HTTP настройки HTTP сервера
type HTTP struct {
	Address         string        `yaml:"address" env:"GOPHBLOG_HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"GOPHBLOG_HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"GOPHBLOG_HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"GOPHBLOG_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"GOPHBLOG_HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// Storage настройки основного хранилища
type Storage struct {
	Driver     string `yaml:"driver" env:"GOPHBLOG_STORAGE_DRIVER" env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"GOPHBLOG_SQLITE_PATH" env-default:"gophblog.db"`
	// PostgresDSN строка подключения pgx, обязательна для driver=postgres
	PostgresDSN string `yaml:"postgres_dsn" env:"GOPHBLOG_POSTGRES_DSN"`
}

// Search настройки поискового индекса
type Search struct {
	Path string `yaml:"path" env:"GOPHBLOG_SEARCH_PATH" env-default:"gophblog-search.db"`
	// Disabled отключает индекс: поиск отвечает 503, синхронизация пропускается.
	Disabled bool `yaml:"disabled" env:"GOPHBLOG_SEARCH_DISABLED"`
}

// Auth настройки токенов
type Auth struct {
	Issuer          string        `yaml:"issuer" env:"GOPHBLOG_JWT_ISSUER" env-default:"gophblog"`
	AccessSecret    string        `yaml:"access_secret" env:"GOPHBLOG_JWT_ACCESS_SECRET"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"GOPHBLOG_JWT_REFRESH_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"GOPHBLOG_JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"GOPHBLOG_JWT_REFRESH_TTL" env-default:"168h"`
	// SessionPurgeInterval период удаления сессий старше RefreshTokenTTL
	SessionPurgeInterval time.Duration `yaml:"session_purge_interval" env:"GOPHBLOG_SESSION_PURGE_INTERVAL" env-default:"1h"`
}

// RateLimit лимиты запросов на IP
type RateLimit struct {
	AuthWindow    time.Duration `yaml:"auth_window" env:"GOPHBLOG_RATE_LIMIT_AUTH_WINDOW" env-default:"1m"`
	DefaultWindow time.Duration `yaml:"default_window" env:"GOPHBLOG_RATE_LIMIT_DEFAULT_WINDOW" env-default:"1m"`
	AuthRate      int           `yaml:"auth_rate" env:"GOPHBLOG_RATE_LIMIT_AUTH" env-default:"10"`
	DefaultRate   int           `yaml:"default_rate" env:"GOPHBLOG_RATE_LIMIT_DEFAULT" env-default:"300"`
}

// Log настройки логирования
type Log struct {
	Level  string `yaml:"level" env:"GOPHBLOG_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"GOPHBLOG_LOG_FORMAT" env-default:"json"`
}

// Load читает конфигурацию. Если path пустой, используются только переменные окружения.
// Переменные окружения всегда перекрывают значения из файла.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for sqlite driver"))
		}
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}

	if !c.Search.Disabled && c.Search.Path == "" {
		errs = append(errs, errors.New("search.path is required when search is enabled"))
	}

	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("auth.access_secret and auth.refresh_secret are required"))
	} else if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("auth.access_secret and auth.refresh_secret must differ"))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}
	if c.Auth.SessionPurgeInterval <= 0 {
		errs = append(errs, errors.New("auth.session_purge_interval must be positive"))
	}

	if c.RateLimit.AuthRate <= 0 || c.RateLimit.DefaultRate <= 0 ||
		c.RateLimit.AuthWindow <= 0 || c.RateLimit.DefaultWindow <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SlogLevel разбирает уровень логирования
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
	return level, nil
}

// NewLogger создает slog логгер: JSON для production, text для локальной работы
func (l Log) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}
