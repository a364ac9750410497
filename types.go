package authkit

import (
	"context"
	"time"
)

// User is an account record as seen by the engine. PasswordHash and
// TokenVersion never leave the process in JSON form.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	TokenVersion int64     `json:"-"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserInput carries an already hashed password; the store never sees plaintext.
type CreateUserInput struct {
	Email        string
	Username     string
	PasswordHash string
}

// UserUpdate lists the mutable fields. Nil pointers are left untouched.
type UserUpdate struct {
	PasswordHash *string
	Verified     *bool
}

// UserStore is the user record store of record.
//
// Lookups return ErrUserNotFound when nothing matches. Create returns
// ErrUsernameTaken or ErrEmailTaken on a uniqueness violation. Email lookups are
// case-insensitive. IncrementTokenVersion must be atomic with respect to
// concurrent callers and return the new value.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	Update(ctx context.Context, id string, update UserUpdate) (*User, error)
	IncrementTokenVersion(ctx context.Context, id string) (int64, error)
}

// Mailer delivers transactional email. Failures are logged by the engine and
// never surface to callers of the flows.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PasswordHasher hashes and verifies passwords. *password.Argon2 satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// RegisterInput is the payload of Engine.Register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by every flow that signs a user in. Transports put
// RefreshToken in the refresh cookie and never in a response body.
type AuthResult struct {
	User             *User
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
