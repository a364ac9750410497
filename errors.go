package authkit

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned for any rejected credential. Callers must not
	// distinguish the underlying cause in client-facing responses.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrCodeExpired means no live one-time code exists for the identity.
	ErrCodeExpired = errors.New("code expired")
	// ErrCodeInvalid means a live code exists but the presented one differs.
	ErrCodeInvalid = errors.New("code invalid")
	// ErrUserNotFound is returned by UserStore lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is returned by UserStore.Create on a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is returned by UserStore.Create on a duplicate email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrStoreUnavailable wraps user store infrastructure failures.
	ErrStoreUnavailable = errors.New("user store unavailable")
	// ErrCodeStoreUnavailable wraps one-time code cache failures.
	ErrCodeStoreUnavailable = errors.New("code store unavailable")
	// ErrEngineNotReady is returned when a nil or partially built Engine is used.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Field error messages. They are part of the client contract.
const (
	MsgInvalidLogin         = "Invalid Email or Password"
	MsgIncorrectPassword    = "Incorrect password"
	MsgTokenExpired         = "Token Expired"
	MsgTokenInvalid         = "Token Invalid"
	MsgUserGone             = "User no longer exists"
	MsgEmailAlreadyVerified = "Email already verified"
	MsgUsernameTaken        = "username already taken"
	MsgEmailTaken           = "email already taken"
	MsgUsernameTooShort     = "length must be greater than 2"
	MsgUsernameHasAt        = "cannot include an @"
	MsgEmailInvalid         = "invalid email"
	MsgPasswordTooShort     = "length must be greater than 2"
	MsgPasswordTooLong      = "password is too long"
)

// FieldError is a user-correctable validation failure attached to one input
// field. Transports render it as a normal payload, not as a transport error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`

	cause error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel that produced the field error, if any.
func (e *FieldError) Unwrap() error {
	return e.cause
}

func newFieldError(field, message string, cause error) *FieldError {
	return &FieldError{Field: field, Message: message, cause: cause}
}

// AsFieldError reports whether err carries a *FieldError.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
