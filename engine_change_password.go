package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ChangePassword replaces the password of a signed-in user after checking the
// current one. Other sessions keep working unless
// Config.Security.RevokeOnPasswordChange is set.
func (e *Engine) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if fe := e.checkPassword("newPassword", newPassword); fe != nil {
		return fe
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("authkit.ChangePassword: %w", ErrUnauthorized)
		}
		return storeErr("authkit.ChangePassword", err)
	}

	ok, err := e.hasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		e.log(ctx).Warn("password_verify_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	if !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		return newFieldError("oldPassword", MsgIncorrectPassword, ErrUnauthorized)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := e.users.Update(ctx, user.ID, UserUpdate{PasswordHash: &hash}); err != nil {
		return storeErr("authkit.ChangePassword", err)
	}

	if e.config.Security.RevokeOnPasswordChange {
		if _, err := e.RevokeSessions(ctx, user.ID); err != nil {
			return err
		}
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.log(ctx).Info("password_changed", slog.String("user_id", user.ID))
	return nil
}
