// Package memory is an in-process authkit.UserStore for tests, examples and
// local development. Data does not survive a restart.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/authkit"
)

// Store is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]*authkit.User
	byEmail    map[string]string
	byUsername map[string]string
	now        func() time.Time
}

var _ authkit.UserStore = (*Store)(nil)

func New() *Store {
	return &Store{
		byID:       map[string]*authkit.User{},
		byEmail:    map[string]string{},
		byUsername: map[string]string{},
		now:        time.Now,
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func clone(u *authkit.User) *authkit.User {
	c := *u
	return &c
}

func (s *Store) FindByID(_ context.Context, id string) (*authkit.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, authkit.ErrUserNotFound
	}
	return clone(u), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*authkit.User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[emailKey(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, authkit.ErrUserNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*authkit.User, error) {
	s.mu.RLock()
	id, ok := s.byUsername[username]
	s.mu.RUnlock()
	if !ok {
		return nil, authkit.ErrUserNotFound
	}
	return s.FindByID(ctx, id)
}

// Create assigns a random UUID. Username uniqueness is checked before email.
func (s *Store) Create(_ context.Context, in authkit.CreateUserInput) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[in.Username]; taken {
		return nil, authkit.ErrUsernameTaken
	}
	if _, taken := s.byEmail[emailKey(in.Email)]; taken {
		return nil, authkit.ErrEmailTaken
	}

	now := s.now().UTC()
	u := &authkit.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[u.ID] = u
	s.byEmail[emailKey(u.Email)] = u.ID
	s.byUsername[u.Username] = u.ID
	return clone(u), nil
}

func (s *Store) Update(_ context.Context, id string, upd authkit.UserUpdate) (*authkit.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, authkit.ErrUserNotFound
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Verified != nil {
		u.Verified = *upd.Verified
	}
	u.UpdatedAt = s.now().UTC()
	return clone(u), nil
}

func (s *Store) IncrementTokenVersion(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return 0, authkit.ErrUserNotFound
	}
	u.TokenVersion++
	u.UpdatedAt = s.now().UTC()
	return u.TokenVersion, nil
}

// Delete removes a user. It exists for tests and admin tooling.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return authkit.ErrUserNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, emailKey(u.Email))
	delete(s.byUsername, u.Username)
	return nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
