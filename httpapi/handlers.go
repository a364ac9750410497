package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/authkit"
	"github.com/MrEthical07/authkit/internal/logctx"
	"github.com/MrEthical07/authkit/refresh"
)

const (
	msgNotAuthenticated = "not authenticated"
	msgInternal         = "internal error"
	msgBadRequest       = "invalid request body"

	maxBodyBytes = 1 << 20
)

// Handler holds the dependencies of the HTTP endpoints.
type Handler struct {
	engine *authkit.Engine
	cookie refresh.Carrier
}

type errorResponse struct {
	Error string `json:"error"`
}

// fieldErrorsResponse carries user-correctable failures. It is sent with 200
// so that clients treat it as a normal payload.
type fieldErrorsResponse struct {
	Errors []*authkit.FieldError `json:"errors"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type authResponse struct {
	OK          bool          `json:"ok"`
	AccessToken string        `json:"access_token"`
	ExpiresIn   int64         `json:"expires_in"`
	User        *authkit.User `json:"user"`
}

type userResponse struct {
	User *authkit.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// decode writes a 400 and returns false when the body is not valid JSON for value.
func decode(w http.ResponseWriter, r *http.Request, value any) bool {
	if err := decodeStrict(w, r, value); err != nil {
		writeError(w, http.StatusBadRequest, msgBadRequest)
		return false
	}
	return true
}

// writeEngineError renders an engine error: field errors as a 200 payload,
// rejected credentials as 401, everything else as 500.
func writeEngineError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if fe, ok := authkit.AsFieldError(err); ok {
		writeJSON(w, http.StatusOK, fieldErrorsResponse{Errors: []*authkit.FieldError{fe}})
		return
	}
	if errors.Is(err, authkit.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}
	logctx.From(r.Context()).Error("request_failed", slog.String("op", op), slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}

// writeAuth sets the refresh cookie and writes the access token. The refresh
// token itself never appears in a body.
func (h *Handler) writeAuth(w http.ResponseWriter, res *authkit.AuthResult) {
	h.cookie.Write(w, res.RefreshToken, res.RefreshExpiresAt)
	writeJSON(w, http.StatusOK, authResponse{
		OK:          true,
		AccessToken: res.AccessToken,
		ExpiresIn:   int64(time.Until(res.AccessExpiresAt).Round(time.Second) / time.Second),
		User:        res.User,
	})
}

func currentUser(r *http.Request) *authkit.User {
	u, _ := authkit.UserFromContext(r.Context())
	return u
}
