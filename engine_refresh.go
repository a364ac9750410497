package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/authkit/internal/flows"
)

// Refresh exchanges a refresh token for a new access token and a new refresh
// token carrying the same token version. Every rejection wraps ErrUnauthorized;
// the cause is logged but must not reach the client.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	res := flows.RunRefresh(ctx, refreshToken, flows.RefreshDeps[*User]{
		VerifyRefresh: func(token string) (string, int64, error) {
			claims, err := e.tokens.VerifyRefresh(token)
			if err != nil {
				return "", 0, err
			}
			return claims.Subject, claims.TokenVersion, nil
		},
		LoadUser:     e.users.FindByID,
		IsNotFound:   isUserNotFound,
		TokenVersion: func(u *User) int64 { return u.TokenVersion },
		IssuePair: func(userID string, tokenVersion int64) (flows.TokenPair, error) {
			r, err := e.issuePair(&User{ID: userID, TokenVersion: tokenVersion})
			if err != nil {
				return flows.TokenPair{}, err
			}
			return flows.TokenPair{
				AccessToken:      r.AccessToken,
				AccessExpiresAt:  r.AccessExpiresAt,
				RefreshToken:     r.RefreshToken,
				RefreshExpiresAt: r.RefreshExpiresAt,
			}, nil
		},
	})

	if res.Failure != flows.RefreshFailureNone {
		e.metricInc(MetricRefreshFailure)
		level := slog.LevelInfo
		switch res.Failure {
		case flows.RefreshFailureVersionMismatch:
			e.metricInc(MetricRefreshVersionMismatch)
		case flows.RefreshFailureStore, flows.RefreshFailureIssue:
			level = slog.LevelError
		}
		e.log(ctx).Log(ctx, level, "refresh_rejected",
			slog.String("reason", res.Failure.String()),
			slog.String("user_id", res.UserID),
			slog.Any("error", res.Err),
		)
		if res.Err == nil {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, res.Err)
	}

	e.metricInc(MetricRefreshSuccess)
	return &AuthResult{
		User:             res.User,
		AccessToken:      res.Pair.AccessToken,
		AccessExpiresAt:  res.Pair.AccessExpiresAt,
		RefreshToken:     res.Pair.RefreshToken,
		RefreshExpiresAt: res.Pair.RefreshExpiresAt,
	}, nil
}

// RevokeSessions bumps the user's token version. Every refresh token issued
// before the call stops working; access tokens already issued stay valid until
// they expire. It returns the new version.
func (e *Engine) RevokeSessions(ctx context.Context, userID string) (int64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	version, err := e.users.IncrementTokenVersion(ctx, userID)
	if err != nil {
		return 0, storeErr("authkit.RevokeSessions", err)
	}
	e.metricInc(MetricSessionsRevoked)
	e.log(ctx).Info("sessions_revoked", slog.String("user_id", userID), slog.Int64("token_version", version))
	return version, nil
}

// ValidateAccess verifies an access token and loads its user. Rejected tokens
// and vanished users wrap ErrUnauthorized; store outages wrap ErrStoreUnavailable.
func (e *Engine) ValidateAccess(ctx context.Context, accessToken string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := flows.RunValidate(ctx, accessToken, flows.ValidateDeps[*User]{
		VerifyAccess: func(token string) (string, error) {
			claims, err := e.tokens.VerifyAccess(token)
			if err != nil {
				return "", err
			}
			return claims.Subject, nil
		},
		LoadUser:   e.users.FindByID,
		IsNotFound: isUserNotFound,
	})
	e.metrics.ObserveValidate(time.Since(start))

	switch res.Failure {
	case flows.ValidateFailureNone:
		return res.User, nil
	case flows.ValidateFailureStore:
		e.log(ctx).Error("access_validate_store_failed", slog.String("user_id", res.UserID), slog.Any("error", res.Err))
		return nil, storeErr("authkit.ValidateAccess", res.Err)
	case flows.ValidateFailureMissing:
		return nil, ErrUnauthorized
	default:
		e.metricInc(MetricAccessRejected)
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, res.Err)
	}
}

func isUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}
