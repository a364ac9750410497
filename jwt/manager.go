package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the JWS algorithm used for both token classes.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// TokenType is carried in the "typ" claim.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

// ErrExpiredOrInvalid is returned for every verification failure. The underlying
// cause is wrapped for logging but callers must not branch on it.
var ErrExpiredOrInvalid = errors.New("token expired or invalid")

// Config holds the codec parameters.
//
// For HS256, AccessKey and RefreshKey are the shared secrets. For Ed25519 they are
// private keys (raw or PEM) and AccessPublicKey/RefreshPublicKey the matching public
// keys; a verify-only manager may omit the private keys.
type Config struct {
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	SigningMethod    SigningMethod
	AccessKey        []byte
	RefreshKey       []byte
	AccessPublicKey  []byte
	RefreshPublicKey []byte
	Issuer           string
	Audience         string
	Leeway           time.Duration
	MaxFutureIAT     time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// AccessClaims is the claim set of an access token. Subject holds the user id.
type AccessClaims struct {
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims is the claim set of a refresh token. Subject holds the user id.
type RefreshClaims struct {
	Type         TokenType `json:"typ"`
	TokenVersion int64     `json:"tv"`
	jwt.RegisteredClaims
}

type keyPair struct {
	sign   any
	verify any
}

// Manager signs and verifies access and refresh tokens. It is immutable after
// NewManager and safe for concurrent use.
type Manager struct {
	config  Config
	access  keyPair
	refresh keyPair
}

// NewManager validates cfg and prepares the signing keys.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, errors.New("access TTL must be shorter than refresh TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)

	m := &Manager{config: cfg}

	switch cfg.SigningMethod {
	case MethodHS256, "":
		m.config.SigningMethod = MethodHS256
		if len(cfg.AccessKey) == 0 || len(cfg.RefreshKey) == 0 {
			return nil, errors.New("hs256 requires access and refresh secrets")
		}
		if bytes.Equal(cfg.AccessKey, cfg.RefreshKey) {
			return nil, errors.New("access and refresh secrets must differ")
		}
		m.access = keyPair{sign: cfg.AccessKey, verify: cfg.AccessKey}
		m.refresh = keyPair{sign: cfg.RefreshKey, verify: cfg.RefreshKey}
	case MethodEd25519:
		var err error
		if m.access, err = edKeyPair("access", cfg.AccessKey, cfg.AccessPublicKey); err != nil {
			return nil, err
		}
		if m.refresh, err = edKeyPair("refresh", cfg.RefreshKey, cfg.RefreshPublicKey); err != nil {
			return nil, err
		}
		if bytes.Equal(m.access.verify.(ed25519.PublicKey), m.refresh.verify.(ed25519.PublicKey)) {
			return nil, errors.New("access and refresh keys must differ")
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// IssueAccess mints an access token for userID and returns it with its expiry.
func (m *Manager) IssueAccess(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("empty subject")
	}

	now := m.config.Now()
	exp := now.Add(m.config.AccessTTL)
	claims := AccessClaims{
		Type:             TypeAccess,
		RegisteredClaims: m.registered(userID, now, exp),
	}

	signed, err := m.sign(claims, m.access)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefresh mints a refresh token embedding tokenVersion.
func (m *Manager) IssueRefresh(userID string, tokenVersion int64) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("empty subject")
	}
	if tokenVersion < 0 {
		return "", time.Time{}, errors.New("negative token version")
	}

	now := m.config.Now()
	exp := now.Add(m.config.RefreshTTL)
	claims := RefreshClaims{
		Type:             TypeRefresh,
		TokenVersion:     tokenVersion,
		RegisteredClaims: m.registered(userID, now, exp),
	}

	signed, err := m.sign(claims, m.refresh)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccess checks signature, algorithm, class and expiry of an access token.
func (m *Manager) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenStr, claims, m.access); err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess || claims.Subject == "" {
		return nil, fmt.Errorf("%w: wrong token class", ErrExpiredOrInvalid)
	}
	if err := m.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh checks signature, algorithm, class and expiry of a refresh token.
// Comparing TokenVersion against the user record is the caller's job.
func (m *Manager) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenStr, claims, m.refresh); err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh || claims.Subject == "" || claims.TokenVersion < 0 {
		return nil, fmt.Errorf("%w: wrong token class", ErrExpiredOrInvalid)
	}
	if err := m.checkIssuedAt(claims.IssuedAt); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) registered(userID string, now, exp time.Time) jwt.RegisteredClaims {
	rc := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		Issuer:    m.config.Issuer,
	}
	if m.config.Audience != "" {
		rc.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return rc
}

func (m *Manager) sign(claims jwt.Claims, keys keyPair) (string, error) {
	if keys.sign == nil {
		return "", errors.New("signing key not configured")
	}
	token := jwt.NewWithClaims(m.method(), claims)
	return token.SignedString(keys.sign)
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, keys keyPair) error {
	if tokenStr == "" {
		return fmt.Errorf("%w: empty token", ErrExpiredOrInvalid)
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return keys.verify, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExpiredOrInvalid, err)
	}
	if !token.Valid {
		return ErrExpiredOrInvalid
	}
	return nil
}

func (m *Manager) checkIssuedAt(iat *jwt.NumericDate) error {
	if iat == nil {
		return fmt.Errorf("%w: missing iat", ErrExpiredOrInvalid)
	}
	if iat.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return fmt.Errorf("%w: iat too far in the future", ErrExpiredOrInvalid)
	}
	return nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func edKeyPair(class string, private, public []byte) (keyPair, error) {
	var kp keyPair
	if len(private) > 0 {
		priv, err := parseEdPrivateKey(private)
		if err != nil {
			return kp, fmt.Errorf("%s: %w", class, err)
		}
		kp.sign = priv
		kp.verify = priv.Public().(ed25519.PublicKey)
	}
	if len(public) > 0 {
		pub, err := parseEdPublicKey(public)
		if err != nil {
			return kp, fmt.Errorf("%s: %w", class, err)
		}
		if kp.verify != nil && !bytes.Equal(kp.verify.(ed25519.PublicKey), pub) {
			return kp, fmt.Errorf("%s: public key does not match private key", class)
		}
		kp.verify = pub
	}
	if kp.verify == nil {
		return kp, fmt.Errorf("%s: ed25519 requires a private or public key", class)
	}
	return kp, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
