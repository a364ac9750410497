package middleware

import (
	"net/http"
	"strings"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// present reports whether the header was sent at all.
func bearerToken(r *http.Request) (token string, present bool) {
	value := r.Header.Get("Authorization")
	if value == "" {
		return "", false
	}

	scheme, rest, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(rest), true
}
