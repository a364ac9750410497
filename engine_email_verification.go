package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/MrEthical07/authkit/internal/stores"
)

// VerifyEmail redeems an email verification code for userID and marks the
// account verified.
func (e *Engine) VerifyEmail(ctx context.Context, userID, code string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	redeemed, err := e.verifyAndConsumeCode(ctx, stores.PurposeEmailVerify, userID, code, plainCode)
	switch {
	case errors.Is(err, ErrCodeExpired):
		e.metricInc(MetricEmailVerificationFailure)
		return nil, newFieldError("token", MsgTokenExpired, err)
	case errors.Is(err, ErrCodeInvalid):
		e.metricInc(MetricEmailVerificationFailure)
		return nil, newFieldError("token", MsgTokenInvalid, err)
	case err != nil:
		return nil, err
	}

	verified := true
	user, err := e.users.Update(ctx, userID, UserUpdate{Verified: &verified})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, newFieldError("token", MsgUserGone, err)
		}
		e.restoreCode(ctx, redeemed)
		return nil, storeErr("authkit.VerifyEmail", err)
	}

	e.metricInc(MetricEmailVerificationSuccess)
	e.log(ctx).Info("email_verified", slog.String("user_id", user.ID))
	return user, nil
}

// ResendVerification issues a fresh verification code, which invalidates the
// previous one, and emails it.
func (e *Engine) ResendVerification(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return storeErr("authkit.ResendVerification", err)
	}
	if user.Verified {
		return newFieldError("email", MsgEmailAlreadyVerified, nil)
	}
	return e.startEmailVerification(ctx, user)
}

func (e *Engine) startEmailVerification(ctx context.Context, user *User) error {
	code, err := e.issueCode(ctx, stores.PurposeEmailVerify, user.ID, plainCode)
	if err != nil {
		return err
	}
	e.metricInc(MetricEmailVerificationRequest)

	link := fmt.Sprintf("%s/verify-email?token=%s", e.config.Mail.FrontendURL, url.QueryEscape(code))
	body := fmt.Sprintf("Welcome, %s.\n\nConfirm your email address: %s\n\nThe link expires in %s.\n",
		user.Username, link, e.config.Codes.TTL)

	e.sendMail(ctx, user.Email, e.config.Mail.VerifySubject, body)
	return nil
}
