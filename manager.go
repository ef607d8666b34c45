package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nvellon/authcore/internal/audit"
	"github.com/nvellon/authcore/internal/lockout"
	"github.com/nvellon/authcore/internal/metrics"
	"github.com/nvellon/authcore/password"
	"github.com/nvellon/authcore/revocation"
	"github.com/nvellon/authcore/role"
	"github.com/nvellon/authcore/session"
	"github.com/nvellon/authcore/token"
)

// Manager orchestrates the session and access-control core: credential
// verification, token issuance, refresh rotation, revocation, and role
// checks. Construct it once with New and share it; all methods are safe
// for concurrent use.
type Manager struct {
	config   Config
	provider IdentityProvider
	roles    *role.Hierarchy
	hasher   *password.Hasher
	codec    *token.Codec
	store    *session.Store
	registry *revocation.Registry
	lockout  *lockout.Limiter
	auditor  *audit.Dispatcher
	metrics  *metrics.Metrics
	validate *validator.Validate
	log      *logrus.Logger
}

// Option customizes Manager construction.
type Option func(*options)

type options struct {
	auditSink audit.Sink
	logger    *logrus.Logger
}

// WithAuditSink routes audit events to the given sink instead of
// discarding them.
func WithAuditSink(sink AuditSink) Option {
	return func(o *options) {
		o.auditSink = sink
	}
}

// WithLogger replaces the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New validates the config, wires the Redis-backed stores, and returns a
// ready Manager. The redis client is shared across the session store, the
// revocation registry, and lockout accounting.
func New(cfg Config, provider IdentityProvider, redisClient redis.UniversalClient, opts ...Option) (*Manager, error) {
	if provider == nil {
		return nil, errors.New("authcore: identity provider is required")
	}
	if redisClient == nil {
		return nil, errors.New("authcore: redis client is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}

	roles := role.New()
	for name, level := range cfg.Roles {
		if err := roles.Register(name, level); err != nil {
			return nil, fmt.Errorf("authcore: %w", err)
		}
	}
	if cfg.AdminRole != "" {
		if err := roles.MarkAdmin(cfg.AdminRole); err != nil {
			return nil, fmt.Errorf("authcore: %w", err)
		}
	}
	roles.Freeze()

	hasher, err := password.New(cfg.passwordConfig())
	if err != nil {
		return nil, fmt.Errorf("authcore: %w", err)
	}

	codec, err := token.NewCodec(cfg.tokenConfig())
	if err != nil {
		return nil, fmt.Errorf("authcore: %w", err)
	}

	m := &Manager{
		config:   cfg,
		provider: provider,
		roles:    roles,
		hasher:   hasher,
		codec:    codec,
		store:    session.NewStore(redisClient, cfg.Session.RedisPrefix, cfg.Session.ReuseWindow),
		registry: revocation.New(redisClient, ""),
		metrics:  metrics.New(cfg.Metrics.Enabled),
		validate: validator.New(),
		log:      o.logger,
	}

	if cfg.Lockout.Enabled {
		m.lockout = lockout.New(redisClient, lockout.Config{
			Threshold:    cfg.Lockout.Threshold,
			LockDuration: cfg.Lockout.LockDuration,
			ThrottleByIP: cfg.Lockout.ThrottleByIP,
		})
	}

	m.auditor = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, o.auditSink)

	return m, nil
}

// Close flushes and stops the audit dispatcher. The Manager must not be
// used afterwards.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.auditor.Close()
}

// Roles exposes the frozen role hierarchy for callers doing their own
// ownership checks.
func (m *Manager) Roles() *role.Hierarchy {
	return m.roles
}

// MetricsSnapshot copies the operation counters. Returns nil when metrics
// are disabled.
func (m *Manager) MetricsSnapshot() map[string]uint64 {
	return m.metrics.Snapshot()
}

// ActiveSessions returns how many refresh sessions an identity currently
// holds.
func (m *Manager) ActiveSessions(ctx context.Context, identityID string) (int, error) {
	count, err := m.store.ActiveCount(ctx, identityID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}
