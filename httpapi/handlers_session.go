package httpapi

import (
	"net/http"

	"github.com/MrEthical07/authkit"
)

// RefreshToken handles POST /refresh_token. Every failure, including an
// unreachable store, is the same 401.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token, ok := h.cookie.Read(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	res, err := h.engine.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNotAuthenticated)
		return
	}

	h.writeAuth(w, res)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.engine.Register(r.Context(), authkit.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeEngineError(w, r, "register", err)
		return
	}
	h.writeAuth(w, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeEngineError(w, r, "login", err)
		return
	}
	h.writeAuth(w, res)
}

// Logout clears the refresh cookie. Tokens already issued stay valid until
// they expire; use /logout_all to revoke them.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// LogoutAll revokes every refresh token of the current user.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	if _, err := h.engine.RevokeSessions(r.Context(), u.ID); err != nil {
		writeEngineError(w, r, "logout_all", err)
		return
	}
	h.cookie.Clear(w)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Me returns the signed-in user, or null for anonymous requests.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse{User: currentUser(r)})
}
