package authcore

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// LoadConfig builds a Config from defaults, an optional YAML file, and
// AUTHCORE_* environment variables, in ascending precedence. Pass an
// empty path to skip the file layer.
//
// Environment keys mirror the struct path with underscores:
// AUTHCORE_TOKEN_ACCESS_TTL, AUTHCORE_LOCKOUT_THRESHOLD, ...
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	cfg := DefaultConfig()

	v.SetDefault("token.access_ttl", cfg.Token.AccessTTL)
	v.SetDefault("token.signing_method", cfg.Token.SigningMethod)
	v.SetDefault("token.issuer", cfg.Token.Issuer)
	v.SetDefault("token.leeway", cfg.Token.Leeway)
	v.SetDefault("token.max_future_iat", cfg.Token.MaxFutureIAT)
	v.SetDefault("session.redis_prefix", cfg.Session.RedisPrefix)
	v.SetDefault("session.refresh_ttl", cfg.Session.RefreshTTL)
	v.SetDefault("session.reuse_window", cfg.Session.ReuseWindow)
	v.SetDefault("lockout.enabled", cfg.Lockout.Enabled)
	v.SetDefault("lockout.threshold", cfg.Lockout.Threshold)
	v.SetDefault("lockout.lock_duration", cfg.Lockout.LockDuration)
	v.SetDefault("lockout.throttle_by_ip", cfg.Lockout.ThrottleByIP)
	v.SetDefault("password.memory", cfg.Password.Memory)
	v.SetDefault("password.time", cfg.Password.Time)
	v.SetDefault("password.parallelism", cfg.Password.Parallelism)
	v.SetDefault("password.salt_length", cfg.Password.SaltLength)
	v.SetDefault("password.key_length", cfg.Password.KeyLength)
	v.SetDefault("password.upgrade_on_login", cfg.Password.UpgradeOnLogin)
	v.SetDefault("audit.enabled", cfg.Audit.Enabled)
	v.SetDefault("audit.buffer_size", cfg.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", cfg.Audit.DropIfFull)
	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("admin_role", cfg.AdminRole)

	v.SetEnvPrefix("AUTHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg.Token.AccessTTL = v.GetDuration("token.access_ttl")
	cfg.Token.SigningMethod = v.GetString("token.signing_method")
	cfg.Token.Issuer = v.GetString("token.issuer")
	cfg.Token.Leeway = v.GetDuration("token.leeway")
	cfg.Token.MaxFutureIAT = v.GetDuration("token.max_future_iat")
	cfg.Session.RedisPrefix = v.GetString("session.redis_prefix")
	cfg.Session.RefreshTTL = v.GetDuration("session.refresh_ttl")
	cfg.Session.ReuseWindow = v.GetDuration("session.reuse_window")
	cfg.Lockout.Enabled = v.GetBool("lockout.enabled")
	cfg.Lockout.Threshold = v.GetInt("lockout.threshold")
	cfg.Lockout.LockDuration = v.GetDuration("lockout.lock_duration")
	cfg.Lockout.ThrottleByIP = v.GetBool("lockout.throttle_by_ip")
	cfg.Password.Memory = v.GetUint32("password.memory")
	cfg.Password.Time = v.GetUint32("password.time")
	cfg.Password.Parallelism = uint8(v.GetUint("password.parallelism"))
	cfg.Password.SaltLength = v.GetUint32("password.salt_length")
	cfg.Password.KeyLength = v.GetUint32("password.key_length")
	cfg.Password.UpgradeOnLogin = v.GetBool("password.upgrade_on_login")
	cfg.Audit.Enabled = v.GetBool("audit.enabled")
	cfg.Audit.BufferSize = v.GetInt("audit.buffer_size")
	cfg.Audit.DropIfFull = v.GetBool("audit.drop_if_full")
	cfg.Metrics.Enabled = v.GetBool("metrics.enabled")
	cfg.AdminRole = v.GetString("admin_role")

	// Roles are structured, not flat, so they only come from the file
	// layer. Env-only deployments set Config.Roles in code.
	if v.IsSet("roles") {
		roles := map[string]int{}
		// Level values arrive as int from YAML, float64 from JSON, or
		// string when quoted; accept any numeric form.
		for name, level := range v.GetStringMap("roles") {
			lv, err := cast.ToIntE(level)
			if err != nil {
				return Config{}, fmt.Errorf("config: role %q level must be numeric", name)
			}
			roles[name] = lv
		}
		cfg.Roles = roles
	}

	// Signing keys never travel through config files; they stay
	// caller-supplied. Validate runs in New, not here, so partial configs
	// can still be assembled programmatically.
	return cfg, nil
}
