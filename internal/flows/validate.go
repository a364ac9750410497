package flows

import "context"

// ValidateFailureKind classifies access validation failures.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureDecode
	ValidateFailureUserNotFound
	ValidateFailureStore
)

// ValidateResult carries the resolved user or failure metadata.
type ValidateResult[U any] struct {
	Failure ValidateFailureKind
	Err     error
	UserID  string
	User    U
}

// ValidateDeps captures access validation dependencies.
type ValidateDeps[U any] struct {
	VerifyAccess func(token string) (userID string, err error)
	LoadUser     func(ctx context.Context, userID string) (U, error)
	IsNotFound   func(error) bool
}

// RunValidate verifies an access token and resolves its subject. Access tokens
// are not checked against the token version; they stay valid until expiry.
func RunValidate[U any](ctx context.Context, accessToken string, deps ValidateDeps[U]) ValidateResult[U] {
	if accessToken == "" {
		return ValidateResult[U]{Failure: ValidateFailureMissing}
	}

	userID, err := deps.VerifyAccess(accessToken)
	if err != nil {
		return ValidateResult[U]{Failure: ValidateFailureDecode, Err: err}
	}

	user, err := deps.LoadUser(ctx, userID)
	if err != nil {
		kind := ValidateFailureStore
		if deps.IsNotFound(err) {
			kind = ValidateFailureUserNotFound
		}
		return ValidateResult[U]{Failure: kind, Err: err, UserID: userID}
	}

	return ValidateResult[U]{UserID: userID, User: user}
}
