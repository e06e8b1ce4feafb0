package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class distinguishes access tokens from refresh tokens. The two are
// structurally identical on the wire; the class claim is the only thing
// keeping a refresh token out of an access check and vice versa.
type Class string

const (
	// ClassAccess marks a short-lived token that authorizes individual requests.
	ClassAccess Class = "access"
	// ClassRefresh marks a longer-lived token exchanged for new access tokens.
	ClassRefresh Class = "refresh"
)

// SigningMethod selects the signature algorithm for issued tokens.
type SigningMethod string

const (
	// MethodHS256 signs with an HMAC-SHA256 shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrInvalidToken is returned when a token fails signature verification,
	// is structurally malformed, or has expired.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongClass is returned when a token carries the wrong class for the
	// operation it was presented to.
	ErrWrongClass = errors.New("wrong token class")
)

// Config holds the immutable signing parameters. It is validated once in
// [NewManager] and never mutated afterwards.
type Config struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod SigningMethod
	// Secret is the HMAC key for hs256 or the Ed25519 private key (raw or
	// PEM) for ed25519.
	Secret []byte
	// PublicKey is only consulted for ed25519 verification; hs256 verifies
	// with Secret.
	PublicKey []byte
	Issuer    string
	Leeway    time.Duration
	// MaxFutureIAT rejects tokens whose issued-at lies further in the
	// future than this bound. Zero selects the 10 minute default.
	MaxFutureIAT time.Duration
}

// Claims is the decoded payload of a session token.
type Claims struct {
	AccountID int64  `json:"uid,string"`
	Role      string `json:"role"`
	Class     Class  `json:"cls"`
	jwt.RegisteredClaims
}

// Manager issues and parses signed session tokens. It is a pure codec: no
// I/O, safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a ready Manager.
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
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, errors.New("hs256 requires a signing secret")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.Secret); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// Issue signs a token of the given class for the account. The lifetime is
// taken from the class-matching TTL. Each token carries a fresh jti, so two
// tokens issued within the same second still differ.
func (m *Manager) Issue(accountID int64, role string, class Class) (string, error) {
	var ttl time.Duration
	switch class {
	case ClassAccess:
		ttl = m.config.AccessTTL
	case ClassRefresh:
		ttl = m.config.RefreshTTL
	default:
		return "", fmt.Errorf("%w: unknown class %q", ErrWrongClass, class)
	}

	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		Role:      role,
		Class:     class,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    m.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(m.getMethod(), claims)
	signKey, err := m.getSignKey()
	if err != nil {
		return "", err
	}

	return tok.SignedString(signKey)
}

// Parse verifies signature, structure and expiry and returns the decoded
// claims. All failures are reported as [ErrInvalidToken]; the cause is
// wrapped for logging but callers should branch on the sentinel only.
func (m *Manager) Parse(raw string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.getMethod().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.getVerifyKey()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Class != ClassAccess && claims.Class != ClassRefresh {
		return nil, fmt.Errorf("%w: missing class claim", ErrInvalidToken)
	}
	if claims.IssuedAt != nil && m.config.MaxFutureIAT > 0 {
		if claims.IssuedAt.Time.After(time.Now().Add(m.config.MaxFutureIAT)) {
			return nil, fmt.Errorf("%w: iat too far in the future", ErrInvalidToken)
		}
	}

	return claims, nil
}

// RequireClass fails with [ErrWrongClass] unless the claims carry the
// expected class. Mandatory before trusting a token's subject on either
// the refresh or the access path.
func (m *Manager) RequireClass(claims *Claims, expected Class) error {
	if claims == nil || claims.Class != expected {
		return ErrWrongClass
	}
	return nil
}

// Remaining reports how much lifetime the claims still have. Zero or
// negative means the token has already expired.
func Remaining(claims *Claims, now time.Time) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Time.Sub(now)
}

func (m *Manager) getMethod() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return jwt.SigningMethodEdDSA
	default:
		return jwt.SigningMethodHS256
	}
}

func (m *Manager) getSignKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodEd25519:
		return parseEdPrivateKey(m.config.Secret)
	default:
		return m.config.Secret, nil
	}
}

func (m *Manager) getVerifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodEd25519:
		if len(m.config.PublicKey) > 0 {
			return parseEdPublicKey(m.config.PublicKey)
		}
		priv, err := parseEdPrivateKey(m.config.Secret)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	default:
		return m.config.Secret, nil
	}
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
