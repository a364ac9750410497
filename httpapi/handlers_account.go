package httpapi

import (
	"net/http"
)

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.engine.ChangePassword(r.Context(), currentUser(r).ID, req.OldPassword, req.NewPassword); err != nil {
		writeEngineError(w, r, "change_password", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword answers the same way whether or not the email is registered.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	ok, err := h.engine.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeEngineError(w, r, "forgot_password", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: ok})
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.engine.ResetPassword(r.Context(), req.Token, req.Email, req.NewPassword)
	if err != nil {
		writeEngineError(w, r, "reset_password", err)
		return
	}
	h.writeAuth(w, res)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !decode(w, r, &req) {
		return
	}

	u, err := h.engine.VerifyEmail(r.Context(), currentUser(r).ID, req.Token)
	if err != nil {
		writeEngineError(w, r, "verify_email", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u})
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResendVerification(r.Context(), currentUser(r).ID); err != nil {
		writeEngineError(w, r, "resend_verification", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
