// Package config loads the authkit-server configuration from a YAML file
// and environment variables.
package config

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/MrEthical07/authkit"
)

// Config is the root service configuration.
// Sources, highest priority first:
//  1. explicit path from --config;
//  2. the CONFIG_PATH environment variable;
//  3. ./local.yaml;
//  4. environment variables only.
//
// Environment variables are always applied on top of the file.
type Config struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local"`
	HTTP   HTTPConfig   `yaml:"http"`
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	Auth   AuthConfig   `yaml:"auth"`
	Codes  CodesConfig  `yaml:"codes"`
	Cookie CookieConfig `yaml:"cookie"`
	Mail   MailConfig   `yaml:"mail"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"4000"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// DBConfig points at Postgres. An empty URL selects the in-memory user store.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL"`
}

type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-required:"true"`
}

// AuthConfig holds token settings.
type AuthConfig struct {
	AccessTokenSecret      string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshTokenSecret     string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL         time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL        time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	Issuer                 string        `yaml:"issuer" env:"ISSUER" env-default:"authkit"`
	Audience               string        `yaml:"audience" env:"AUDIENCE"`
	RevokeOnPasswordChange bool          `yaml:"revoke_on_password_change" env:"REVOKE_ON_PASSWORD_CHANGE" env-default:"false"`
}

type CodesConfig struct {
	RedisPrefix string        `yaml:"redis_prefix" env:"CODES_REDIS_PREFIX" env-default:"authkit"`
	TTL         time.Duration `yaml:"ttl" env:"CODES_TTL" env-default:"1h"`
	Format      string        `yaml:"format" env:"CODES_FORMAT" env-default:"alphanumeric"`
	Length      int           `yaml:"length" env:"CODES_LENGTH" env-default:"32"`
}

type CookieConfig struct {
	Secure   bool   `yaml:"secure" env:"COOKIE_SECURE"`
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE" env-default:"lax"`
}

// MailConfig selects the email provider: "log" or "mailgun".
type MailConfig struct {
	Provider    string        `yaml:"provider" env:"MAIL_PROVIDER" env-default:"log"`
	From        string        `yaml:"from" env:"MAIL_FROM" env-default:"noreply@localhost"`
	FrontendURL string        `yaml:"frontend_url" env:"FRONTEND_URL" env-default:"http://localhost:3000"`
	Mailgun     MailgunConfig `yaml:"mailgun"`
}

type MailgunConfig struct {
	Domain  string `yaml:"domain" env:"MAILGUN_DOMAIN"`
	APIKey  string `yaml:"api_key" env:"MAILGUN_API_KEY"`
	APIBase string `yaml:"api_base" env:"MAILGUN_API_BASE"`
}

// presetDefaults covers booleans that default to true. cleanenv applies
// env-default to any zero field, which would turn an explicit false back on.
func presetDefaults() Config {
	return Config{Cookie: CookieConfig{Secure: true}}
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration in the order documented on Config.
func Load(path string) (*Config, error) {
	cfg := presetDefaults()

	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}
		return &cfg, nil
	}

	if path != "" {
		return readFile(path)
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}
	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}
	return &cfg, nil
}

// ToAuthConfig maps the service settings onto authkit.DefaultConfig. The
// result still has to pass authkit.Config.Validate.
func (c *Config) ToAuthConfig() (authkit.Config, error) {
	out := authkit.DefaultConfig()

	out.JWT.AccessSecret = []byte(c.Auth.AccessTokenSecret)
	out.JWT.RefreshSecret = []byte(c.Auth.RefreshTokenSecret)
	out.JWT.AccessTTL = c.Auth.AccessTokenTTL
	out.JWT.RefreshTTL = c.Auth.RefreshTokenTTL
	out.JWT.Issuer = c.Auth.Issuer
	out.JWT.Audience = c.Auth.Audience
	out.Security.RevokeOnPasswordChange = c.Auth.RevokeOnPasswordChange

	out.Codes.RedisPrefix = c.Codes.RedisPrefix
	out.Codes.TTL = c.Codes.TTL
	out.Codes.Format = c.Codes.Format
	out.Codes.Length = c.Codes.Length

	sameSite, err := parseSameSite(c.Cookie.SameSite)
	if err != nil {
		return authkit.Config{}, err
	}
	out.Cookie.SameSite = sameSite
	out.Cookie.Secure = c.Cookie.Secure
	out.Cookie.Domain = c.Cookie.Domain

	out.Mail.FrontendURL = c.Mail.FrontendURL

	return out, nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown cookie same_site %q", s)
	}
}
