package flows

import (
	"context"
	"time"
)

// RefreshFailureKind classifies refresh failures for logging and metrics.
// Clients see the same rejection for every kind.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureDecode
	RefreshFailureUserNotFound
	RefreshFailureVersionMismatch
	RefreshFailureStore
	RefreshFailureIssue
)

func (k RefreshFailureKind) String() string {
	switch k {
	case RefreshFailureNone:
		return "none"
	case RefreshFailureMissing:
		return "missing"
	case RefreshFailureDecode:
		return "decode"
	case RefreshFailureUserNotFound:
		return "user_not_found"
	case RefreshFailureVersionMismatch:
		return "version_mismatch"
	case RefreshFailureStore:
		return "store"
	case RefreshFailureIssue:
		return "issue"
	default:
		return "unknown"
	}
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// RefreshResult carries either the new pair or failure metadata.
type RefreshResult[U any] struct {
	Failure RefreshFailureKind
	Err     error
	UserID  string
	User    U
	Pair    TokenPair
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps[U any] struct {
	// VerifyRefresh checks signature and expiry and returns the subject and the
	// token version embedded at issuance.
	VerifyRefresh func(token string) (userID string, tokenVersion int64, err error)
	LoadUser      func(ctx context.Context, userID string) (U, error)
	IsNotFound    func(error) bool
	TokenVersion  func(U) int64
	IssuePair     func(userID string, tokenVersion int64) (TokenPair, error)
}

// RunRefresh exchanges a refresh token for a new pair. The new refresh token
// carries the user's current token version with a fresh expiry. The presented
// token is not revoked; only a version bump does that.
func RunRefresh[U any](ctx context.Context, refreshToken string, deps RefreshDeps[U]) RefreshResult[U] {
	if refreshToken == "" {
		return RefreshResult[U]{Failure: RefreshFailureMissing}
	}

	userID, tokenVersion, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		return RefreshResult[U]{Failure: RefreshFailureDecode, Err: err}
	}

	user, err := deps.LoadUser(ctx, userID)
	if err != nil {
		kind := RefreshFailureStore
		if deps.IsNotFound(err) {
			kind = RefreshFailureUserNotFound
		}
		return RefreshResult[U]{Failure: kind, Err: err, UserID: userID}
	}

	current := deps.TokenVersion(user)
	if current != tokenVersion {
		return RefreshResult[U]{
			Failure: RefreshFailureVersionMismatch,
			Err:     &VersionMismatchError{Presented: tokenVersion, Current: current},
			UserID:  userID,
		}
	}

	pair, err := deps.IssuePair(userID, current)
	if err != nil {
		return RefreshResult[U]{Failure: RefreshFailureIssue, Err: err, UserID: userID}
	}

	return RefreshResult[U]{UserID: userID, User: user, Pair: pair}
}

// VersionMismatchError records a refresh token minted before a revocation.
type VersionMismatchError struct {
	Presented int64
	Current   int64
}

func (e *VersionMismatchError) Error() string {
	return "token version mismatch"
}
