// Package httpapi exposes an authkit.Engine over JSON/HTTP using chi.
//
// The refresh endpoint follows a fixed contract: POST /refresh_token reads the
// refresh cookie and answers 401 {"error":"not authenticated"} for every
// rejection, or 200 {"ok":true,"access_token":...,"expires_in":...,"user":...}
// together with a new cookie.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrEthical07/authkit"
	"github.com/MrEthical07/authkit/middleware"
	"github.com/MrEthical07/authkit/refresh"
)

// Options configures NewRouter.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Metrics is mounted at GET /metrics when set.
	Metrics http.Handler
}

// NewRouter builds the HTTP handler for engine.
func NewRouter(engine *authkit.Engine, opts Options) http.Handler {
	cookieCfg := engine.Config().Cookie
	h := &Handler{
		engine: engine,
		cookie: refresh.NewCookieCarrier(refresh.CookieConfig{
			Name:     cookieCfg.Name,
			Path:     cookieCfg.Path,
			Domain:   cookieCfg.Domain,
			Secure:   cookieCfg.Secure,
			SameSite: cookieCfg.SameSite,
		}),
	}

	r := chi.NewRouter()
	r.Use(
		recoverer(),
		requestID(),
		requestLogger(opts.Logger),
		timeout(opts.Timeout),
	)

	r.Get("/livez", h.Livez)
	r.Get("/healthz", h.Healthz)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Post("/refresh_token", h.RefreshToken)
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/forgot_password", h.ForgotPassword)
	r.Post("/reset_password", h.ResetPassword)

	r.With(middleware.Optional(engine)).Get("/me", h.Me)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Require(engine))
		r.Post("/logout_all", h.LogoutAll)
		r.Post("/change_password", h.ChangePassword)
		r.Post("/verify_email", h.VerifyEmail)
		r.Post("/resend_verification", h.ResendVerification)
	})

	return r
}
