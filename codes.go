package authkit

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/authkit/internal"
	"github.com/MrEthical07/authkit/internal/stores"
)

// issueCode mints a code for purpose/identity and stores value(code) under it,
// replacing any code issued before.
func (e *Engine) issueCode(ctx context.Context, purpose stores.Purpose, identity string, value func(code string) string) (string, error) {
	code, err := internal.NewCode(internal.CodeFormat(e.config.Codes.Format), e.config.Codes.Length)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	if err := e.codes.Issue(ctx, purpose, identity, value(code), e.config.Codes.TTL); err != nil {
		return "", codeStoreErr(err)
	}
	return code, nil
}

// redeemedCode is an entry taken out of the code store, kept so it can be put
// back if the flow that redeemed it fails on infrastructure.
type redeemedCode struct {
	purpose  stores.Purpose
	identity string
	value    string
	ttl      time.Duration
}

// verifyAndConsumeCode redeems presented against the live entry. It returns the
// stored entry on success, ErrCodeExpired when nothing is stored and
// ErrCodeInvalid on a mismatch, in which case the entry stays valid. An empty
// presented code never matches.
func (e *Engine) verifyAndConsumeCode(
	ctx context.Context,
	purpose stores.Purpose,
	identity string,
	presented string,
	extract func(stored string) string,
) (redeemedCode, error) {
	stored, ttl, err := e.codes.Consume(ctx, purpose, identity, func(stored string) bool {
		return subtle.ConstantTimeCompare([]byte(extract(stored)), []byte(presented)) == 1
	})
	switch {
	case err == nil:
		return redeemedCode{purpose: purpose, identity: identity, value: stored, ttl: ttl}, nil
	case errors.Is(err, stores.ErrCodeNotFound):
		return redeemedCode{}, ErrCodeExpired
	case errors.Is(err, stores.ErrCodeMismatch):
		return redeemedCode{}, ErrCodeInvalid
	default:
		return redeemedCode{}, codeStoreErr(err)
	}
}

// restoreCode puts a redeemed entry back with the lifetime it had left, even
// if ctx is already cancelled. A failure is only logged.
func (e *Engine) restoreCode(ctx context.Context, rc redeemedCode) {
	ttl := rc.ttl
	if ttl <= 0 {
		ttl = e.config.Codes.TTL
	}
	if err := e.codes.Restore(context.WithoutCancel(ctx), rc.purpose, rc.identity, rc.value, ttl); err != nil {
		e.log(ctx).Error("code_restore_failed", slog.String("purpose", string(rc.purpose)), slog.Any("error", err))
	}
}

func plainCode(stored string) string { return stored }

// Password reset entries hold "<user id>:<code>". Codes never contain a colon.
func resetValue(userID string) func(code string) string {
	return func(code string) string { return userID + ":" + code }
}

func resetCode(stored string) string {
	_, code := splitResetValue(stored)
	return code
}

func splitResetValue(stored string) (userID, code string) {
	i := strings.LastIndexByte(stored, ':')
	if i < 0 {
		return "", stored
	}
	return stored[:i], stored[i+1:]
}

func codeStoreErr(err error) error {
	return fmt.Errorf("%w: %w", ErrCodeStoreUnavailable, err)
}
