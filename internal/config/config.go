// Package config собирает конфигурацию сервера.
// Порядок приоритета: значения по умолчанию, файл .env, переменные окружения, флаги.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Поддерживаемые драйверы БД и бэкенды хранения медиа
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MediaLocal = "local"
	MediaS3    = "s3"
)

// Config содержит все настройки сервера
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Media    MediaConfig
	Log      LogConfig
}

// ServerConfig настройки HTTP сервера
type ServerConfig struct {
	Addr            string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// DatabaseConfig настройки подключения к БД
type DatabaseConfig struct {
	Driver string // sqlite | postgres
	DSN    string // путь к файлу sqlite или строка подключения postgres
}

// AuthConfig настройки токенов и защиты auth эндпоинтов
type AuthConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Schemes         []string // допустимые схемы заголовка Authorization
	RateLimit       int      // запросов на IP за окно
	RateWindow      time.Duration
	TrustedProxies  []string // IP или CIDR прокси, чьим X-Forwarded-For можно верить
}

// MediaConfig настройки загрузки обложек и аватаров
type MediaConfig struct {
	Backend   string // local | s3
	Dir       string
	MaxBytes  int64
	MaxWidth  int
	MaxPixels int // предел width*height до декодирования
	S3        S3Config
}

// S3Config настройки S3-совместимого хранилища
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// LogConfig настройки логирования
type LogConfig struct {
	Level  string
	Format string
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"http://localhost:5173"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "readshare.db",
		},
		Auth: AuthConfig{
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			Schemes:         []string{"Bearer"},
			RateLimit:       10,
			RateWindow:      time.Minute,
		},
		Media: MediaConfig{
			Backend:   MediaLocal,
			Dir:       "media",
			MaxBytes:  5 << 20,
			MaxWidth:  1200,
			MaxPixels: 40_000_000,
			S3: S3Config{
				Region: "us-east-1",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load загружает конфигурацию: defaults -> .env -> env -> flags.
// args - аргументы командной строки без имени программы.
func Load(args []string) (*Config, error) {
	// .env опционален, в production переменные приходят из окружения
	_ = godotenv.Load()

	cfg := Default()
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = splitList(v)
		}
	}

	str("SERVER_ADDR", &c.Server.Addr)
	list("CORS_ORIGINS", &c.Server.CORSOrigins)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("ACCESS_TOKEN_SECRET", &c.Auth.AccessSecret)
	str("REFRESH_TOKEN_SECRET", &c.Auth.RefreshSecret)
	list("AUTH_SCHEMES", &c.Auth.Schemes)
	list("TRUSTED_PROXIES", &c.Auth.TrustedProxies)
	str("MEDIA_BACKEND", &c.Media.Backend)
	str("MEDIA_DIR", &c.Media.Dir)
	str("S3_BUCKET", &c.Media.S3.Bucket)
	str("S3_REGION", &c.Media.S3.Region)
	str("S3_ENDPOINT", &c.Media.S3.Endpoint)
	str("S3_ACCESS_KEY", &c.Media.S3.AccessKey)
	str("S3_SECRET_KEY", &c.Media.S3.SecretKey)
	str("S3_PUBLIC_URL", &c.Media.S3.PublicURL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &c.Auth.AccessTokenTTL},
		{"REFRESH_TOKEN_TTL", &c.Auth.RefreshTokenTTL},
		{"AUTH_RATE_WINDOW", &c.Auth.RateWindow},
		{"SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		v := strings.TrimSpace(getenv(d.key))
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"AUTH_RATE_LIMIT", &c.Auth.RateLimit},
		{"MEDIA_MAX_WIDTH", &c.Media.MaxWidth},
		{"MEDIA_MAX_PIXELS", &c.Media.MaxPixels},
	}
	for _, i := range ints {
		v := strings.TrimSpace(getenv(i.key))
		if v == "" {
			continue
		}
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", i.key, err)
		}
		*i.dst = parsed
	}

	if v := strings.TrimSpace(getenv("MEDIA_MAX_BYTES")); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MEDIA_MAX_BYTES: %w", err)
		}
		c.Media.MaxBytes = parsed
	}

	return nil
}

func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&c.Server.Addr, "addr", c.Server.Addr, "HTTP listen address")
	fs.StringVar(&c.Database.Driver, "db-driver", c.Database.Driver, "database driver: sqlite or postgres")
	fs.StringVar(&c.Database.DSN, "db", c.Database.DSN, "database DSN (sqlite file path or postgres URL)")
	fs.DurationVar(&c.Auth.AccessTokenTTL, "access-ttl", c.Auth.AccessTokenTTL, "access token lifetime")
	fs.StringVar(&c.Media.Backend, "media-backend", c.Media.Backend, "media backend: local or s3")
	fs.StringVar(&c.Media.Dir, "media-dir", c.Media.Dir, "directory for local media")
	fs.StringVar(&c.Log.Level, "log-level", c.Log.Level, "log level: debug, info, warn, error")
	fs.StringVar(&c.Log.Format, "log-format", c.Log.Format, "log format: json or text")

	return fs.Parse(args)
}

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.AccessSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.Auth.AccessSecret != "" && c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Auth.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must be positive"))
	}
	if len(c.Auth.Schemes) == 0 {
		errs = append(errs, errors.New("AUTH_SCHEMES must name at least one scheme"))
	}
	if c.Auth.RateLimit <= 0 || c.Auth.RateWindow <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive"))
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN is required"))
	}

	switch c.Media.Backend {
	case MediaLocal:
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("MEDIA_DIR is required for the local backend"))
		}
	case MediaS3:
		if c.Media.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported MEDIA_BACKEND %q", c.Media.Backend))
	}
	if c.Media.MaxBytes <= 0 || c.Media.MaxWidth <= 0 || c.Media.MaxPixels <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_BYTES, MEDIA_MAX_WIDTH and MEDIA_MAX_PIXELS must be positive"))
	}
	for _, p := range c.Auth.TrustedProxies {
		if _, err := ParsePrefix(p); err != nil {
			errs = append(errs, fmt.Errorf("invalid TRUSTED_PROXIES entry %q", p))
		}
	}

	return errors.Join(errs...)
}

// ParsePrefix принимает CIDR или одиночный IP (как /32 или /128)
func ParsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	addr = addr.Unmap()
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TrustedProxyPrefixes возвращает разобранный TRUSTED_PROXIES; невалидные записи отсекает Validate
func (a AuthConfig) TrustedProxyPrefixes() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(a.TrustedProxies))
	for _, s := range a.TrustedProxies {
		if p, err := ParsePrefix(s); err == nil {
			out = append(out, p)
		}
	}
	return out
}
