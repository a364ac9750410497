package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Register creates an account, sends an email verification code and signs the
// new user in. Validation problems and duplicates come back as *FieldError.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if fe := e.validateRegister(in); fe != nil {
		return nil, fe
	}

	hash, err := e.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := e.users.Create(ctx, CreateUserInput{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
	})
	switch {
	case errors.Is(err, ErrUsernameTaken):
		e.metricInc(MetricRegisterDuplicate)
		return nil, newFieldError("username", MsgUsernameTaken, err)
	case errors.Is(err, ErrEmailTaken):
		e.metricInc(MetricRegisterDuplicate)
		return nil, newFieldError("email", MsgEmailTaken, err)
	case err != nil:
		return nil, storeErr("authkit.Register", err)
	}

	e.metricInc(MetricRegisterSuccess)
	e.log(ctx).Info("user_registered", slog.String("user_id", user.ID))

	// Registration stands even if no code could be issued; the user can ask for a new one.
	if err := e.startEmailVerification(ctx, user); err != nil {
		e.log(ctx).Error("verification_issue_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return e.issuePair(user)
}

func (e *Engine) validateRegister(in RegisterInput) *FieldError {
	if utf8.RuneCountInString(in.Username) <= 2 {
		return newFieldError("username", MsgUsernameTooShort, nil)
	}
	if strings.Contains(in.Username, "@") {
		return newFieldError("username", MsgUsernameHasAt, nil)
	}
	if !strings.Contains(in.Email, "@") {
		return newFieldError("email", MsgEmailInvalid, nil)
	}
	return e.checkPassword("password", in.Password)
}

// Login authenticates by email and password. An unknown email and a wrong
// password produce the same field error.
func (e *Engine) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	invalid := newFieldError("email", MsgInvalidLogin, ErrUnauthorized)

	user, err := e.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, storeErr("authkit.Login", err)
		}
		_, _ = e.hasher.Verify(password, e.dummyHash)
		e.metricInc(MetricLoginFailure)
		return nil, invalid
	}

	ok, err := e.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		e.log(ctx).Warn("password_verify_failed", slog.String("user_id", user.ID), slog.Any("error", err))
	}
	if !ok {
		e.metricInc(MetricLoginFailure)
		return nil, invalid
	}

	e.metricInc(MetricLoginSuccess)
	return e.issuePair(user)
}

// Me returns the current record of userID.
func (e *Engine) Me(ctx context.Context, userID string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr("authkit.Me", err)
	}
	return user, nil
}
