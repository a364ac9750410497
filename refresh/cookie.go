package refresh

import (
	"net/http"
	"time"
)

const (
	DefaultCookieName = "qid"
	DefaultCookiePath = "/refresh_token"
)

// Carrier reads and writes a refresh token on an HTTP exchange.
type Carrier interface {
	Read(r *http.Request) (string, bool)
	Write(w http.ResponseWriter, token string, expires time.Time)
	Clear(w http.ResponseWriter)
}

// CookieConfig describes the refresh cookie. Empty Name and Path fall back to
// DefaultCookieName and DefaultCookiePath; a zero SameSite means Lax.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// CookieCarrier is a Carrier backed by an HttpOnly cookie.
type CookieCarrier struct {
	cfg CookieConfig
}

var _ Carrier = (*CookieCarrier)(nil)

func NewCookieCarrier(cfg CookieConfig) *CookieCarrier {
	if cfg.Name == "" {
		cfg.Name = DefaultCookieName
	}
	if cfg.Path == "" {
		cfg.Path = DefaultCookiePath
	}
	if cfg.SameSite == 0 || cfg.SameSite == http.SameSiteDefaultMode {
		cfg.SameSite = http.SameSiteLaxMode
	}
	return &CookieCarrier{cfg: cfg}
}

// Name returns the cookie name.
func (c *CookieCarrier) Name() string { return c.cfg.Name }

// Read returns the cookie value; an empty cookie counts as absent.
func (c *CookieCarrier) Read(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.cfg.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

// Write sets the cookie so that it expires together with the token.
func (c *CookieCarrier) Write(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, c.cookie(token, expires, int(time.Until(expires).Seconds())))
}

// Clear expires the cookie immediately.
func (c *CookieCarrier) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", time.Unix(0, 0), -1))
}

func (c *CookieCarrier) cookie(value string, expires time.Time, maxAge int) *http.Cookie {
	if maxAge == 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   c.cfg.Secure,
		HttpOnly: true,
		SameSite: c.cfg.SameSite,
	}
}
