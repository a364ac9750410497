package authkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockUserStore struct {
	mu    sync.Mutex
	users map[string]*User
	seq   int

	// failWith makes every call return the error.
	failWith error
	// failOn makes calls to the named methods return the error.
	failOn map[string]error

	createCalls int
	updateCalls int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: map[string]*User{}}
}

func (m *mockUserStore) copyOf(u *User) *User {
	c := *u
	return &c
}

func (m *mockUserStore) FindByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindByID"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return m.copyOf(u), nil
}

func (m *mockUserStore) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindByEmail"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return m.copyOf(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserStore) FindByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindByUsername"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == username {
			return m.copyOf(u), nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockUserStore) Create(_ context.Context, in CreateUserInput) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if err := m.fail("Create"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Username == in.Username {
			return nil, ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, in.Email) {
			return nil, ErrEmailTaken
		}
	}
	m.seq++
	now := time.Now()
	u := &User{
		ID:           fmt.Sprintf("u%d", m.seq),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	return m.copyOf(u), nil
}

func (m *mockUserStore) Update(_ context.Context, id string, upd UserUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if err := m.fail("Update"); err != nil {
		return nil, err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Verified != nil {
		u.Verified = *upd.Verified
	}
	u.UpdatedAt = time.Now()
	return m.copyOf(u), nil
}

func (m *mockUserStore) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("IncrementTokenVersion"); err != nil {
		return 0, err
	}
	u, ok := m.users[id]
	if !ok {
		return 0, ErrUserNotFound
	}
	u.TokenVersion++
	return u.TokenVersion, nil
}

func (m *mockUserStore) fail(method string) error {
	if m.failWith != nil {
		return m.failWith
	}
	return m.failOn[method]
}

// failMethod makes method return err until it is called again with a nil err.
func (m *mockUserStore) failMethod(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == nil {
		m.failOn = map[string]error{}
	}
	m.failOn[method] = err
}

func (m *mockUserStore) delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

func (m *mockUserStore) get(id string) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return m.copyOf(u)
	}
	return nil
}

type sentMail struct {
	To, Subject, Body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (r *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordingMailer) messages() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail(nil), r.sent...)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("access-secret-for-tests-0123456789")
	cfg.JWT.RefreshSecret = []byte("refresh-secret-for-tests-9876543210")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Codes.Format = "numeric"
	cfg.Codes.Length = 6
	return cfg
}

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	users  *mockUserStore
	mail   *recordingMailer
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	mr, rdb := newTestRedis(t)
	env := &testEnv{mr: mr, rdb: rdb, users: newMockUserStore(), mail: &recordingMailer{}}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(env.users).
		WithMailer(env.mail).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	env.engine = engine
	return env
}

// register creates a user through the public flow and returns the result.
func (env *testEnv) register(t *testing.T, username, email, pw string) *AuthResult {
	t.Helper()
	res, err := env.engine.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: pw})
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	return res
}

func (env *testEnv) codeKey(purpose, identity string) string {
	return env.engine.config.Codes.RedisPrefix + ":" + purpose + ":" + identity
}

func requireFieldError(t *testing.T, err error, field, message string) *FieldError {
	t.Helper()
	fe, ok := AsFieldError(err)
	if !ok {
		t.Fatalf("expected *FieldError{%s, %s}, got %v", field, message, err)
	}
	if fe.Field != field || fe.Message != message {
		t.Fatalf("FieldError = {%s, %s}, want {%s, %s}", fe.Field, fe.Message, field, message)
	}
	return fe
}

var errBackendDown = errors.New("connection refused")
