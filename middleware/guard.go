package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrEthical07/authkit"
	"github.com/MrEthical07/authkit/internal/logctx"
)

// Validator resolves an access token to a user. *authkit.Engine implements it.
type Validator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*authkit.User, error)
}

// Require runs next only for requests with a valid bearer token.
func Require(v Validator) func(http.Handler) http.Handler {
	return guard(v, false)
}

// Optional runs next for requests without an Authorization header as well.
// A header that is present but fails validation is still rejected.
func Optional(v Validator) func(http.Handler) http.Handler {
	return guard(v, true)
}

func guard(v Validator, optional bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present && optional {
				next.ServeHTTP(w, r)
				return
			}
			if v == nil || token == "" {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			user, err := v.ValidateAccess(r.Context(), token)
			if err != nil {
				if errors.Is(err, authkit.ErrStoreUnavailable) {
					logctx.From(r.Context()).Error("auth_gate_store_failed", slog.Any("error", err))
					writeError(w, http.StatusInternalServerError, "internal error")
					return
				}
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			next.ServeHTTP(w, r.WithContext(authkit.WithUser(r.Context(), user)))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
