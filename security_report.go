package authkit

import (
	"log/slog"
	"net/http"

	"github.com/MrEthical07/authkit/internal/security"
)

// SecurityReport is a read-only snapshot of the engine's security posture.
type SecurityReport = security.Report

// SecurityReport summarizes the effective configuration. It never includes
// key material.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}
	c := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm: c.JWT.SigningMethod,
		AccessTTL:        c.JWT.AccessTTL,
		RefreshTTL:       c.JWT.RefreshTTL,
		Issuer:           c.JWT.Issuer,
		Audience:         c.JWT.Audience,
		Password: security.PasswordReport{
			Memory:      c.Password.Memory,
			Time:        c.Password.Time,
			Parallelism: c.Password.Parallelism,
			SaltLength:  c.Password.SaltLength,
			KeyLength:   c.Password.KeyLength,
			MinLength:   c.Password.MinLength,
		},
		CodeTTL:                 c.Codes.TTL,
		CodeFormat:              c.Codes.Format,
		CodeLength:              c.Codes.Length,
		CookieSecure:            c.Cookie.Secure,
		CookieSameSite:          sameSiteName(c.Cookie.SameSite),
		RevokeOnPasswordChange:  c.Security.RevokeOnPasswordChange,
		LatencyHistogramsActive: c.Metrics.Enabled && c.Metrics.EnableLatencyHistograms,
	})
}

func logSecurityReport(r SecurityReport) slog.Value {
	return slog.GroupValue(
		slog.String("signing_algorithm", r.SigningAlgorithm),
		slog.Duration("access_ttl", r.AccessTTL),
		slog.Duration("refresh_ttl", r.RefreshTTL),
		slog.Bool("issuer_pinned", r.IssuerPinned),
		slog.Bool("audience_pinned", r.AudiencePinned),
		slog.Int("argon2_memory_kib", int(r.Argon2.Memory)),
		slog.Int("argon2_time", int(r.Argon2.Time)),
		slog.Duration("code_ttl", r.CodeTTL),
		slog.String("code_format", r.CodeFormat),
		slog.Float64("code_entropy_bits", r.CodeEntropyBits),
		slog.Bool("cookie_secure", r.CookieSecure),
		slog.String("cookie_same_site", r.CookieSameSite),
		slog.Bool("revoke_on_password_change", r.RevokeOnPasswordChange),
	)
}

// SecurityReportAttr returns the report as a slog attribute named "security".
func (e *Engine) SecurityReportAttr() slog.Attr {
	return slog.Attr{Key: "security", Value: logSecurityReport(e.SecurityReport())}
}

func sameSiteName(s http.SameSite) string {
	switch s {
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return "lax"
	}
}
