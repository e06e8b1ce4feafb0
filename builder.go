package courseauth

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/progplatform/courseauth/revocation"
	"github.com/progplatform/courseauth/token"
)

// Builder assembles a [Service]. Construction is allocation-only; no I/O
// happens until the first Service call.
type Builder struct {
	config Config
	redis  *redis.Client

	users  UserStore
	hasher PasswordHasher

	auditSink AuditSink
	logger    zerolog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client backing the revocation cache and the
// verification challenge store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the credential store.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithPasswordHasher supplies the credential hasher.
func (b *Builder) WithPasswordHasher(hasher PasswordHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithAuditSink supplies the audit sink. When unset and audit is enabled,
// events go to a [ZerologSink] over the configured logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger supplies the service logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and dependencies and returns a ready
// Service. A Builder can build at most once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.users == nil {
		return nil, errors.New("user store is required")
	}
	if b.hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if err := validateConfig(&b.config); err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(b.config.tokenConfig())
	if err != nil {
		return nil, err
	}

	sink := b.auditSink
	if sink == nil && b.config.Audit.Enabled {
		sink = NewZerologSink(b.logger)
	}

	var metrics *Metrics
	if b.config.Metrics.Enabled {
		metrics = newMetrics()
	}

	svc := &Service{
		config:        b.config,
		tokens:        tokens,
		cache:         revocation.NewStore(b.redis, b.config.Cache.RedisPrefix),
		verifications: newEmailVerificationStore(b.redis, b.config.Cache.RedisPrefix),
		users:         b.users,
		hasher:        b.hasher,
		metrics:       metrics,
		audit:         newAuditDispatcher(b.config.Audit, sink),
		logger:        b.logger,
	}

	b.built = true
	return svc, nil
}
