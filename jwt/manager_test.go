package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, clock *testClock) *Manager {
	t.Helper()

	m, err := NewManager(Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		AccessKey:  []byte("access-secret-access-secret-0001"),
		RefreshKey: []byte("refresh-secret-refresh-secret-01"),
		Issuer:     "authkit",
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAndVerifyAccess(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, exp, err := m.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if !exp.Equal(clock.now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := m.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.Subject != "u1" || claims.Type != TypeAccess {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestIssueAndVerifyRefreshCarriesVersion(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, exp, err := m.IssueRefresh("u1", 7)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}
	if !exp.Equal(clock.now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := m.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if claims.Subject != "u1" || claims.TokenVersion != 7 {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestVerifyAccessRejectsExpired(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, _, err := m.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	clock.Advance(16 * time.Minute)
	if _, err := m.VerifyAccess(token); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("expected ErrExpiredOrInvalid, got %v", err)
	}
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	access, _, err := m.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	refresh, _, err := m.IssueRefresh("u1", 0)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	if _, err := m.VerifyRefresh(access); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("access token must not verify as refresh, got %v", err)
	}
	if _, err := m.VerifyAccess(refresh); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("refresh token must not verify as access, got %v", err)
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	token, _, err := m.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := m.VerifyAccess(tampered); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("expected tampered token to fail, got %v", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	claims := AccessClaims{
		Type: TypeAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "authkit",
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}
	forged, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret-entirely"))
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}

	if _, err := m.VerifyAccess(forged); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("expected forged token to fail, got %v", err)
	}
}

func TestVerifyRejectsAlgNone(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	claims := AccessClaims{
		Type: TypeAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "authkit",
			IssuedAt:  gjwt.NewNumericDate(clock.now),
			ExpiresAt: gjwt.NewNumericDate(clock.now.Add(time.Minute)),
		},
	}
	unsigned, err := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims).SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := m.VerifyAccess(unsigned); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("expected alg=none to be rejected, got %v", err)
	}
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	other, err := NewManager(Config{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		AccessKey:  []byte("access-secret-access-secret-0001"),
		RefreshKey: []byte("refresh-secret-refresh-secret-01"),
		Issuer:     "someone-else",
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	token, _, err := other.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := m.VerifyAccess(token); !errors.Is(err, ErrExpiredOrInvalid) {
		t.Fatalf("expected issuer mismatch to fail, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	base := Config{
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		AccessKey:  []byte("a-secret"),
		RefreshKey: []byte("r-secret"),
	}

	cases := map[string]func(*Config){
		"equal secrets":       func(c *Config) { c.RefreshKey = c.AccessKey },
		"missing refresh key": func(c *Config) { c.RefreshKey = nil },
		"zero access ttl":     func(c *Config) { c.AccessTTL = 0 },
		"access >= refresh":   func(c *Config) { c.AccessTTL = 2 * time.Hour },
		"leeway too large":    func(c *Config) { c.Leeway = time.Hour },
		"unknown method":      func(c *Config) { c.SigningMethod = "rs512" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}

	if _, err := NewManager(base); err != nil {
		t.Fatalf("expected base config to be valid: %v", err)
	}
}

func TestEd25519RoundTripAndVerifyOnly(t *testing.T) {
	_, accessPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate access key: %v", err)
	}
	_, refreshPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate refresh key: %v", err)
	}

	signer, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		AccessKey:     accessPriv,
		RefreshKey:    refreshPriv,
	})
	if err != nil {
		t.Fatalf("NewManager signer failed: %v", err)
	}

	verifier, err := NewManager(Config{
		AccessTTL:        time.Minute,
		RefreshTTL:       time.Hour,
		SigningMethod:    MethodEd25519,
		AccessPublicKey:  accessPriv.Public().(ed25519.PublicKey),
		RefreshPublicKey: refreshPriv.Public().(ed25519.PublicKey),
	})
	if err != nil {
		t.Fatalf("NewManager verifier failed: %v", err)
	}

	access, _, err := signer.IssueAccess("u1")
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, err := verifier.VerifyAccess(access); err != nil {
		t.Fatalf("verify-only manager should accept signer token: %v", err)
	}
	if _, _, err := verifier.IssueAccess("u1"); err == nil {
		t.Fatal("verify-only manager must not sign")
	}
}
