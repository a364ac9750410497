package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/MrEthical07/authkit/internal/logctx"
	"github.com/MrEthical07/authkit/internal/stores"
	"github.com/MrEthical07/authkit/jwt"
)

// Engine runs the credential, refresh and recovery flows. It holds no mutable
// state besides atomic metric counters and is safe for concurrent use.
type Engine struct {
	config    Config
	users     UserStore
	codes     *stores.CodeStore
	tokens    *jwt.Manager
	hasher    PasswordHasher
	mailer    Mailer
	logger    *slog.Logger
	metrics   *Metrics
	dummyHash string
}

// Config returns a copy of the validated configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return e.config
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the code cache and, when it supports it, the user store.
func (e *Engine) Ping(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := e.codes.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrCodeStoreUnavailable, err)
	}
	if p, ok := e.users.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}
	return nil
}

func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.codes == nil || e.tokens == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	return nil
}

func (e *Engine) log(ctx context.Context) *slog.Logger {
	return logctx.FromOr(ctx, e.logger)
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// issuePair mints an access token and a refresh token bound to tokenVersion.
func (e *Engine) issuePair(user *User) (*AuthResult, error) {
	access, accessExp, err := e.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := e.tokens.IssueRefresh(user.ID, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &AuthResult{
		User:             user,
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// storeErr keeps sentinel store errors intact and tags everything else as an
// infrastructure failure.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrStoreUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkPassword enforces the length policy for a new password on field.
func (e *Engine) checkPassword(field, pw string) *FieldError {
	if utf8.RuneCountInString(pw) < e.config.Password.MinLength {
		return newFieldError(field, MsgPasswordTooShort, nil)
	}
	if len(pw) > e.config.Password.MaxBytes {
		return newFieldError(field, MsgPasswordTooLong, nil)
	}
	return nil
}

// sendMail delivers best-effort: failures are logged and counted, never returned.
func (e *Engine) sendMail(ctx context.Context, to, subject, body string) {
	if e.mailer == nil {
		return
	}
	if err := e.mailer.Send(ctx, to, subject, body); err != nil {
		e.metricInc(MetricEmailSendFailure)
		e.log(ctx).Error("email_send_failed", slog.String("subject", subject), slog.Any("error", err))
	}
}
