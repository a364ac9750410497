package security

import "time"

type PasswordReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
}

type Report struct {
	SigningAlgorithm        string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	IssuerPinned            bool
	AudiencePinned          bool
	Argon2                  PasswordReport
	CodeTTL                 time.Duration
	CodeFormat              string
	CodeLength              int
	CodeEntropyBits         float64
	CookieSecure            bool
	CookieSameSite          string
	RevokeOnPasswordChange  bool
	LatencyHistogramsActive bool
}

type ReportInput struct {
	SigningAlgorithm        string
	AccessTTL               time.Duration
	RefreshTTL              time.Duration
	Issuer                  string
	Audience                string
	Password                PasswordReport
	CodeTTL                 time.Duration
	CodeFormat              string
	CodeLength              int
	CookieSecure            bool
	CookieSameSite          string
	RevokeOnPasswordChange  bool
	LatencyHistogramsActive bool
}

// Bits per character of the two code alphabets: log2(10) and log2(62).
const (
	numericBitsPerChar      = 3.321928094887362
	alphanumericBitsPerChar = 5.954196310386876
)

func BuildReport(input ReportInput) Report {
	bits := alphanumericBitsPerChar
	if input.CodeFormat == "numeric" {
		bits = numericBitsPerChar
	}

	return Report{
		SigningAlgorithm:        input.SigningAlgorithm,
		AccessTTL:               input.AccessTTL,
		RefreshTTL:              input.RefreshTTL,
		IssuerPinned:            input.Issuer != "",
		AudiencePinned:          input.Audience != "",
		Argon2:                  input.Password,
		CodeTTL:                 input.CodeTTL,
		CodeFormat:              input.CodeFormat,
		CodeLength:              input.CodeLength,
		CodeEntropyBits:         bits * float64(input.CodeLength),
		CookieSecure:            input.CookieSecure,
		CookieSameSite:          input.CookieSameSite,
		RevokeOnPasswordChange:  input.RevokeOnPasswordChange,
		LatencyHistogramsActive: input.LatencyHistogramsActive,
	}
}
