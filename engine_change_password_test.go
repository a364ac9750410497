package authkit

import (
	"context"
	"errors"
	"testing"
)

func TestChangePasswordWrongOld(t *testing.T) {
	env := newTestEnv(t)
	reg := env.register(t, "bob", "bob@x.io", "pw1")
	before := env.users.get(reg.User.ID).PasswordHash

	err := env.engine.ChangePassword(context.Background(), reg.User.ID, "nope", "pw2")
	requireFieldError(t, err, "oldPassword", MsgIncorrectPassword)

	if env.users.get(reg.User.ID).PasswordHash != before {
		t.Fatal("password changed despite wrong current password")
	}
	if env.engine.MetricsSnapshot().Counters[MetricPasswordChangeInvalidOld] != 1 {
		t.Fatal("invalid-old counter not incremented")
	}
}

func TestChangePasswordShortNew(t *testing.T) {
	env := newTestEnv(t)
	reg := env.register(t, "bob", "bob@x.io", "pw1")

	err := env.engine.ChangePassword(context.Background(), reg.User.ID, "pw1", "p")
	requireFieldError(t, err, "newPassword", MsgPasswordTooShort)
	if env.users.updateCalls != 0 {
		t.Fatal("store mutated before validation completed")
	}
}

func TestChangePasswordKeepsSessionsByDefault(t *testing.T) {
	env := newTestEnv(t)
	reg := env.register(t, "bob", "bob@x.io", "pw1")
	ctx := context.Background()

	if err := env.engine.ChangePassword(ctx, reg.User.ID, "pw1", "pw2"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.engine.Login(ctx, "bob@x.io", "pw2"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if v := env.users.get(reg.User.ID).TokenVersion; v != 0 {
		t.Fatalf("token version = %d, want 0", v)
	}
	if _, err := env.engine.Refresh(ctx, reg.RefreshToken); err != nil {
		t.Fatalf("existing refresh token rejected: %v", err)
	}
}

func TestChangePasswordRevokeOptIn(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Security.RevokeOnPasswordChange = true })
	reg := env.register(t, "bob", "bob@x.io", "pw1")
	ctx := context.Background()

	if err := env.engine.ChangePassword(ctx, reg.User.ID, "pw1", "pw2"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if v := env.users.get(reg.User.ID).TokenVersion; v != 1 {
		t.Fatalf("token version = %d, want 1", v)
	}
	if _, err := env.engine.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("refresh token survived revocation: %v", err)
	}
}

func TestChangePasswordUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	err := env.engine.ChangePassword(context.Background(), "missing", "pw1", "pw2")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
