package authcore

import (
	"errors"
	"time"

	"github.com/nvellon/authcore/password"
	"github.com/nvellon/authcore/token"
)

// Config wires the Manager. Configure it once before New and treat it as
// immutable afterwards.
type Config struct {
	Token    TokenConfig
	Session  SessionConfig
	Lockout  LockoutConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig

	// Roles maps role name to hierarchy level; higher outranks lower.
	// AdminRole names the role IsOwnerOrAdmin treats as override.
	Roles     map[string]int
	AdminRole string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls access-token signing and lifetime.
type TokenConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls refresh-session storage.
type SessionConfig struct {
	RedisPrefix string
	RefreshTTL  time.Duration
	ReuseWindow time.Duration // how long a consumed record id is remembered for replay detection
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls failed-login accounting.
type LockoutConfig struct {
	Enabled      bool
	Threshold    int
	LockDuration time.Duration
	ThrottleByIP bool
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls argon2id parameters and the legacy upgrade path.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns a Config with production-safe parameters. Keys,
// issuer, and roles still have to be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "sn",
			RefreshTTL:  30 * 24 * time.Hour,
			ReuseWindow: 10 * time.Minute,
		},
		Lockout: LockoutConfig{
			Enabled:      true,
			Threshold:    5,
			LockDuration: 15 * time.Minute,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
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

// Validate rejects configurations the Manager cannot run with. It is
// called by New; exported so callers can check configs up front.
func (c *Config) Validate() error {
	if c.Token.AccessTTL <= 0 {
		return errors.New("config: token access TTL must be positive")
	}
	if c.Session.RefreshTTL <= 0 {
		return errors.New("config: session refresh TTL must be positive")
	}
	if c.Session.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	if c.Lockout.Enabled {
		if c.Lockout.Threshold <= 0 {
			return errors.New("config: lockout threshold must be positive")
		}
		if c.Lockout.LockDuration <= 0 {
			return errors.New("config: lockout duration must be positive")
		}
	}
	if len(c.Roles) == 0 {
		return errors.New("config: at least one role must be registered")
	}
	for name, level := range c.Roles {
		if name == "" {
			return errors.New("config: role name must not be empty")
		}
		if level <= 0 {
			return errors.New("config: role level must be positive")
		}
	}
	if c.AdminRole != "" {
		if _, ok := c.Roles[c.AdminRole]; !ok {
			return errors.New("config: admin role not present in role table")
		}
	}
	return nil
}

func (c *Config) tokenConfig() token.Config {
	return token.Config{
		AccessTTL:     c.Token.AccessTTL,
		SigningMethod: token.SigningMethod(c.Token.SigningMethod),
		PrivateKey:    c.Token.PrivateKey,
		PublicKey:     c.Token.PublicKey,
		Issuer:        c.Token.Issuer,
		Leeway:        c.Token.Leeway,
		MaxFutureIAT:  c.Token.MaxFutureIAT,
	}
}

func (c *Config) passwordConfig() password.Config {
	return password.Config{
		Memory:      c.Password.Memory,
		Time:        c.Password.Time,
		Parallelism: c.Password.Parallelism,
		SaltLength:  c.Password.SaltLength,
		KeyLength:   c.Password.KeyLength,
	}
}
