package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/MrEthical07/authkit/internal/stores"
)

// ForgotPassword emails a reset code when email belongs to an account. It
// reports true whether or not the account exists; only infrastructure failures
// produce an error.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	e.metricInc(MetricPasswordResetRequest)

	email = normalizeEmail(email)
	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return true, nil
		}
		return false, storeErr("authkit.ForgotPassword", err)
	}

	code, err := e.issueCode(ctx, stores.PurposePasswordReset, email, resetValue(user.ID))
	if err != nil {
		return false, err
	}

	e.sendMail(ctx, user.Email, e.config.Mail.ResetSubject, e.resetBody(email, code))
	return true, nil
}

// ResetPassword redeems a reset code, stores the new password, revokes every
// refresh token of the account and signs the user in.
func (e *Engine) ResetPassword(ctx context.Context, code, email, newPassword string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if fe := e.checkPassword("newPassword", newPassword); fe != nil {
		return nil, fe
	}

	redeemed, err := e.verifyAndConsumeCode(ctx, stores.PurposePasswordReset, normalizeEmail(email), code, resetCode)
	switch {
	case errors.Is(err, ErrCodeExpired):
		e.metricInc(MetricPasswordResetFailure)
		return nil, newFieldError("token", MsgTokenExpired, err)
	case errors.Is(err, ErrCodeInvalid):
		e.metricInc(MetricPasswordResetFailure)
		return nil, newFieldError("token", MsgTokenInvalid, err)
	case err != nil:
		return nil, err
	}

	userID, _ := splitResetValue(redeemed.value)
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newFieldError("token", MsgUserGone, err)
		}
		e.restoreCode(ctx, redeemed)
		return nil, storeErr("authkit.ResetPassword", err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.restoreCode(ctx, redeemed)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Revoke first. If storing the hash then fails the old password stays,
	// with no refresh token of the account left alive.
	version, err := e.users.IncrementTokenVersion(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newFieldError("token", MsgUserGone, err)
		}
		e.restoreCode(ctx, redeemed)
		return nil, storeErr("authkit.ResetPassword", err)
	}
	if user, err = e.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newFieldError("token", MsgUserGone, err)
		}
		e.restoreCode(ctx, redeemed)
		return nil, storeErr("authkit.ResetPassword", err)
	}
	user.TokenVersion = version

	e.metricInc(MetricPasswordResetSuccess)
	e.metricInc(MetricSessionsRevoked)
	e.log(ctx).Info("password_reset", slog.String("user_id", user.ID))

	return e.issuePair(user)
}

func (e *Engine) resetBody(email, code string) string {
	link := fmt.Sprintf("%s/change-password?token=%s&email=%s",
		e.config.Mail.FrontendURL, url.QueryEscape(code), url.QueryEscape(email))
	return fmt.Sprintf("Someone asked to reset the password of your account.\n\nReset it here: %s\n\nThe link expires in %s. If this was not you, ignore this email.\n",
		link, e.config.Codes.TTL)
}
