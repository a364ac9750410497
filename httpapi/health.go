package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/authkit/internal/logctx"
)

// Livez reports that the process is serving requests.
func (h *Handler) Livez(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Healthz pings Redis and the user store.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Ping(r.Context()); err != nil {
		logctx.From(r.Context()).Warn("health_check_failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, okResponse{OK: false})
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
