package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/mail"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port        string        `env:"PORT,        default=8080"`
	Env         string        `env:"ENV,         default=development"`
	LogLevel    string        `env:"LOG_LEVEL,   default=info"`
	BaseURL     string        `env:"BASE_URL,    default=http://localhost:8080"`
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenSecret string        `env:"TOKEN_SECRET"`
	StoreDriver string        `env:"STORE_DRIVER, default=mongo"`
	SessionTTL  time.Duration `env:"SESSION_TTL, default=24h"`
	LockTTL     time.Duration `env:"LOCK_TTL,    default=30s"`

	Mongo  MongoConfig
	Redis  RedisConfig
	SMTP   SMTPConfig
	Tokens TokenConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=blogkeeper"`
}

type RedisConfig struct {
	// Addr may be empty, in which case aggregate locks are process-local no-ops.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     string `env:"SMTP_PORT, default=587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM"`
}

type TokenConfig struct {
	EmailVerify     time.Duration `env:"TOKEN_EMAIL_VERIFY_MAX_AGE,     default=1h"`
	SupportVerify   time.Duration `env:"TOKEN_SUPPORT_VERIFY_MAX_AGE,   default=1h"`
	RoleChange      time.Duration `env:"TOKEN_ROLE_MAX_AGE,             default=800s"`
	DeleteAuth      time.Duration `env:"TOKEN_DELETE_AUTH_MAX_AGE,      default=800s"`
	DeletionRequest time.Duration `env:"TOKEN_DELETION_REQUEST_MAX_AGE, default=72h"`
	PasswordReset   time.Duration `env:"TOKEN_PASSWORD_RESET_MAX_AGE,   default=30m"`
}

// Ages converts the configured lifetimes to domain.TokenAges.
func (t TokenConfig) Ages() domain.TokenAges {
	return domain.TokenAges{
		EmailVerify:     t.EmailVerify,
		SupportVerify:   t.SupportVerify,
		RoleChange:      t.RoleChange,
		DeleteAuth:      t.DeleteAuth,
		DeletionRequest: t.DeletionRequest,
		PasswordReset:   t.PasswordReset,
	}
}

// Mail returns the relay settings for the mail package.
func (s SMTPConfig) Mail() mail.Config {
	return mail.Config{Host: s.Host, Port: s.Port, Username: s.Username, Password: s.Password, From: s.From}
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.TokenSecret == "" {
		errs = append(errs, errors.New("TOKEN_SECRET is required"))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.TokenSecret {
		errs = append(errs, errors.New("JWT_SECRET and TOKEN_SECRET must differ"))
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q", DriverMongo, DriverMemory))
	}
	if c.IsProduction() && c.StoreDriver == DriverMemory {
		errs = append(errs, errors.New("STORE_DRIVER=memory is not allowed in production"))
	}
	return errors.Join(errs...)
}
