package authkit

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegisterCreatesUserSendsVerificationAndSignsIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.engine.Register(ctx, RegisterInput{Username: "bob", Email: "bob@x.io", Password: "pw1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if res.User == nil || res.User.Username != "bob" || res.User.Email != "bob@x.io" {
		t.Fatalf("unexpected user %+v", res.User)
	}
	if res.User.Verified || res.User.TokenVersion != 0 {
		t.Fatalf("new user must be unverified with version 0: %+v", res.User)
	}
	if res.User.PasswordHash == "pw1" || res.User.PasswordHash == "" {
		t.Fatal("password must be stored hashed")
	}

	code, err := env.mr.Get(env.codeKey("email-verify", res.User.ID))
	if err != nil {
		t.Fatalf("verification code not stored: %v", err)
	}
	if ttl := env.mr.TTL(env.codeKey("email-verify", res.User.ID)); ttl <= 0 {
		t.Fatalf("verification code has no TTL")
	}

	msgs := env.mail.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly one email, got %d", len(msgs))
	}
	if msgs[0].To != "bob@x.io" || !strings.Contains(msgs[0].Body, code) {
		t.Fatalf("email does not carry the code: %+v", msgs[0])
	}

	if _, err := env.engine.ValidateAccess(ctx, res.AccessToken); err != nil {
		t.Fatalf("access token rejected: %v", err)
	}
	if _, err := env.engine.Refresh(ctx, res.RefreshToken); err != nil {
		t.Fatalf("refresh token rejected: %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricRegisterSuccess]; got != 1 {
		t.Fatalf("register_success = %d", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name  string
		in    RegisterInput
		field string
		msg   string
	}{
		{"short username", RegisterInput{"bo", "bo@x.io", "pw1"}, "username", MsgUsernameTooShort},
		{"username with at", RegisterInput{"b@b", "bob@x.io", "pw1"}, "username", MsgUsernameHasAt},
		{"email without at", RegisterInput{"bob", "bob.x.io", "pw1"}, "email", MsgEmailInvalid},
		{"short password", RegisterInput{"bob", "bob@x.io", "pw"}, "password", MsgPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.engine.Register(context.Background(), tc.in)
			requireFieldError(t, err, tc.field, tc.msg)
		})
	}

	if env.users.createCalls != 0 {
		t.Fatalf("invalid input must not reach the store, got %d creates", env.users.createCalls)
	}
	if len(env.mail.messages()) != 0 {
		t.Fatal("invalid input must not send email")
	}
}

func TestRegisterDuplicates(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob", "bob@x.io", "pw1")

	_, err := env.engine.Register(context.Background(), RegisterInput{"bob", "other@x.io", "pw1"})
	fe := requireFieldError(t, err, "username", MsgUsernameTaken)
	if !errors.Is(fe, ErrUsernameTaken) {
		t.Fatal("field error should unwrap to ErrUsernameTaken")
	}

	_, err = env.engine.Register(context.Background(), RegisterInput{"bobby", "BOB@x.io", "pw1"})
	requireFieldError(t, err, "email", MsgEmailTaken)

	if got := env.engine.MetricsSnapshot().Counters[MetricRegisterDuplicate]; got != 2 {
		t.Fatalf("register_duplicate = %d, want 2", got)
	}
}

func TestRegisterSurvivesMailerFailure(t *testing.T) {
	env := newTestEnv(t)
	env.mail.err = errors.New("smtp down")

	res := env.register(t, "bob", "bob@x.io", "pw1")
	if res.AccessToken == "" {
		t.Fatal("registration must succeed when email delivery fails")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricEmailSendFailure]; got != 1 {
		t.Fatalf("email_send_failure = %d", got)
	}
}

func TestRegisterStoreOutage(t *testing.T) {
	env := newTestEnv(t)
	env.users.failWith = errBackendDown

	_, err := env.engine.Register(context.Background(), RegisterInput{"bob", "bob@x.io", "pw1"})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, ok := AsFieldError(err); ok {
		t.Fatal("infrastructure failures must not look like validation errors")
	}
}

func TestLoginSuccessIssuesVersionedPair(t *testing.T) {
	env := newTestEnv(t)
	reg := env.register(t, "bob", "bob@x.io", "pw1")
	ctx := context.Background()

	if _, err := env.engine.RevokeSessions(ctx, reg.User.ID); err != nil {
		t.Fatalf("RevokeSessions: %v", err)
	}

	res, err := env.engine.Login(ctx, "Bob@X.io", "pw1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.User.ID != reg.User.ID {
		t.Fatalf("logged in as %s, want %s", res.User.ID, reg.User.ID)
	}

	claims, err := env.engine.tokens.VerifyRefresh(res.RefreshToken)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if claims.TokenVersion != 1 {
		t.Fatalf("refresh token version = %d, want current version 1", claims.TokenVersion)
	}
	if !res.AccessExpiresAt.Before(res.RefreshExpiresAt) {
		t.Fatal("access token must expire before the refresh token")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob", "bob@x.io", "pw1")
	ctx := context.Background()

	_, unknown := env.engine.Login(ctx, "nobody@x.io", "pw1")
	_, wrong := env.engine.Login(ctx, "bob@x.io", "nope")

	a := requireFieldError(t, unknown, "email", MsgInvalidLogin)
	b := requireFieldError(t, wrong, "email", MsgInvalidLogin)
	if a.Error() != b.Error() {
		t.Fatalf("login failures differ: %q vs %q", a.Error(), b.Error())
	}
	if !errors.Is(unknown, ErrUnauthorized) || !errors.Is(wrong, ErrUnauthorized) {
		t.Fatal("login failures should unwrap to ErrUnauthorized")
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricLoginFailure]; got != 2 {
		t.Fatalf("login_failure = %d, want 2", got)
	}
}

func TestLoginStoreOutageIsNotAFieldError(t *testing.T) {
	env := newTestEnv(t)
	env.users.failWith = errBackendDown

	_, err := env.engine.Login(context.Background(), "bob@x.io", "pw1")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	reg := env.register(t, "bob", "bob@x.io", "pw1")

	u, err := env.engine.Me(context.Background(), reg.User.ID)
	if err != nil || u.ID != reg.User.ID {
		t.Fatalf("Me = %+v, %v", u, err)
	}

	if _, err := env.engine.Me(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Me(missing) error = %v", err)
	}
}

func TestNilEngineNotReady(t *testing.T) {
	var e *Engine
	if _, err := e.Login(context.Background(), "a@b", "pw1"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("nil engine error = %v", err)
	}
}
