package courseauth

import (
	"errors"
	"time"

	"github.com/progplatform/courseauth/token"
)

// Config is the immutable service configuration. It is captured once by
// [Builder.Build]; mutating it afterwards has no effect on a built Service.
type Config struct {
	JWT          JWTConfig
	Cache        CacheConfig
	Account      AccountConfig
	Verification VerificationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// JWTConfig configures the token codec. Secret is the hs256 signing secret
// or the ed25519 private key; it is loaded once at process start and never
// mutated.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// CacheConfig configures Redis key layout for the revocation cache and the
// verification challenge store.
type CacheConfig struct {
	RedisPrefix string
}

// AccountConfig configures account defaults.
type AccountConfig struct {
	DefaultRole Role
}

// VerificationConfig configures email-verification challenges.
type VerificationConfig struct {
	ChallengeTTL time.Duration
}

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull discards events instead of blocking when the buffer is
	// full; drops are counted and visible via [Service.AuditDropped].
	DropIfFull bool
}

// MetricsConfig enables the in-process metric counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the platform deploys with:
// 15-minute access tokens, 7-day refresh tokens, learner default role.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "courseauth",
		},
		Cache: CacheConfig{
			RedisPrefix: "courseauth",
		},
		Account: AccountConfig{
			DefaultRole: RoleLearner,
		},
		Verification: VerificationConfig{
			ChallengeTTL: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	return out
}

func validateConfig(cfg *Config) error {
	if cfg.Account.DefaultRole == "" {
		cfg.Account.DefaultRole = RoleLearner
	}
	if !cfg.Account.DefaultRole.Valid() {
		return errors.New("invalid default role")
	}
	if cfg.Cache.RedisPrefix == "" {
		cfg.Cache.RedisPrefix = "courseauth"
	}
	if cfg.Verification.ChallengeTTL <= 0 {
		cfg.Verification.ChallengeTTL = 24 * time.Hour
	}
	switch cfg.JWT.SigningMethod {
	case "", "hs256":
		cfg.JWT.SigningMethod = string(token.MethodHS256)
	case "ed25519":
	default:
		return errors.New("unsupported signing method")
	}
	return nil
}

func (c Config) tokenConfig() token.Config {
	return token.Config{
		AccessTTL:     c.JWT.AccessTTL,
		RefreshTTL:    c.JWT.RefreshTTL,
		SigningMethod: token.SigningMethod(c.JWT.SigningMethod),
		Secret:        c.JWT.Secret,
		PublicKey:     c.JWT.PublicKey,
		Issuer:        c.JWT.Issuer,
		Leeway:        c.JWT.Leeway,
	}
}
