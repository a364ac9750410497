package authkit

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/MrEthical07/authkit/internal"
	"github.com/MrEthical07/authkit/jwt"
)

// Config is the engine configuration. Start from DefaultConfig and override
// what you need; Build validates the result.
type Config struct {
	JWT      JWTConfig
	Codes    CodeConfig
	Cookie   CookieConfig
	Password PasswordConfig
	Mail     MailConfig
	Security SecurityConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the token codec.
//
// For "hs256" AccessSecret and RefreshSecret are shared secrets and must differ.
// For "ed25519" they hold the private keys (raw or PEM) and the *PublicKey
// fields the matching public keys.
type JWTConfig struct {
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	SigningMethod    string
	AccessSecret     []byte
	RefreshSecret    []byte
	AccessPublicKey  []byte
	RefreshPublicKey []byte
	Issuer           string
	Audience         string
	Leeway           time.Duration
}

/*
====================================
ONE-TIME CODES
====================================
*/

// CodeConfig configures email verification and password reset codes.
type CodeConfig struct {
	RedisPrefix string
	TTL         time.Duration
	Format      string // "alphanumeric" (default) or "numeric"
	Length      int
}

/*
====================================
REFRESH COOKIE
====================================
*/

// CookieConfig describes the cookie that carries the refresh token.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

/*
====================================
PASSWORD
====================================
*/

// PasswordConfig holds the Argon2id cost parameters and the length policy.
// MinLength counts characters, MaxBytes counts bytes.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
	MaxBytes    int
}

/*
====================================
MAIL
====================================
*/

// MailConfig controls the links and subjects of outgoing email.
type MailConfig struct {
	FrontendURL   string
	VerifySubject string
	ResetSubject  string
}

// SecurityConfig holds opt-in hardening switches.
type SecurityConfig struct {
	// RevokeOnPasswordChange bumps the token version after ChangePassword so every
	// other session has to sign in again.
	RevokeOnPasswordChange bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns production defaults. Secrets are left empty and must be set.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: string(jwt.MethodHS256),
		},
		Codes: CodeConfig{
			RedisPrefix: "authkit",
			TTL:         time.Hour,
			Format:      string(internal.CodeAlphanumeric),
			Length:      32,
		},
		Cookie: CookieConfig{
			Name:     "qid",
			Path:     "/refresh_token",
			SameSite: http.SameSiteLaxMode,
			Secure:   true,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   3,
			MaxBytes:    1024,
		},
		Mail: MailConfig{
			FrontendURL:   "http://localhost:3000",
			VerifySubject: "Verify your email",
			ResetSubject:  "Reset your password",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate reports every problem in c at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	// JWT
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodHS256:
		if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
			add("JWT hs256 requires AccessSecret and RefreshSecret")
		} else if string(c.JWT.AccessSecret) == string(c.JWT.RefreshSecret) {
			add("JWT AccessSecret and RefreshSecret must differ")
		}
	case jwt.MethodEd25519:
		if len(c.JWT.AccessSecret) == 0 || len(c.JWT.RefreshSecret) == 0 {
			add("JWT ed25519 requires AccessSecret and RefreshSecret private keys")
		}
		if len(c.JWT.AccessPublicKey) == 0 || len(c.JWT.RefreshPublicKey) == 0 {
			add("JWT ed25519 requires AccessPublicKey and RefreshPublicKey")
		}
	default:
		add("JWT SigningMethod %q is not supported", c.JWT.SigningMethod)
	}
	if c.JWT.AccessTTL <= 0 {
		add("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		add("JWT RefreshTTL must be > 0")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		add("JWT AccessTTL must be shorter than RefreshTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		add("JWT Leeway must be within [0, 2m]")
	}

	// Codes
	if c.Codes.RedisPrefix == "" {
		add("Codes RedisPrefix must not be empty")
	}
	if c.Codes.TTL <= 0 {
		add("Codes TTL must be > 0")
	}
	switch internal.CodeFormat(c.Codes.Format) {
	case internal.CodeAlphanumeric, internal.CodeNumeric:
	default:
		add("Codes Format %q is not supported", c.Codes.Format)
	}
	if c.Codes.Length < internal.MinCodeLength || c.Codes.Length > internal.MaxCodeLength {
		add("Codes Length must be within [%d, %d]", internal.MinCodeLength, internal.MaxCodeLength)
	}

	// Cookie
	if c.Cookie.Name == "" {
		add("Cookie Name must not be empty")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		add("Cookie SameSite=None requires Secure")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		add("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		add("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		add("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		add("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		add("Password KeyLength must be >= 16")
	}
	if c.Password.MinLength < 1 {
		add("Password MinLength must be >= 1")
	}
	if c.Password.MaxBytes < c.Password.MinLength {
		add("Password MaxBytes must be >= MinLength")
	}

	// Mail
	if u, err := url.Parse(c.Mail.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("Mail FrontendURL must be an absolute URL")
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) jwtConfig() jwt.Config {
	return jwt.Config{
		AccessTTL:        c.JWT.AccessTTL,
		RefreshTTL:       c.JWT.RefreshTTL,
		SigningMethod:    jwt.SigningMethod(c.JWT.SigningMethod),
		AccessKey:        cloneBytes(c.JWT.AccessSecret),
		RefreshKey:       cloneBytes(c.JWT.RefreshSecret),
		AccessPublicKey:  cloneBytes(c.JWT.AccessPublicKey),
		RefreshPublicKey: cloneBytes(c.JWT.RefreshPublicKey),
		Issuer:           c.JWT.Issuer,
		Audience:         c.JWT.Audience,
		Leeway:           c.JWT.Leeway,
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
