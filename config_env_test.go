package authcore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 15*time.Minute, cfg.Token.AccessTTL)
	require.Equal(t, "ed25519", cfg.Token.SigningMethod)
	require.Equal(t, 5, cfg.Lockout.Threshold)
	require.True(t, cfg.Password.UpgradeOnLogin)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("AUTHCORE_TOKEN_ACCESS_TTL", "5m")
	t.Setenv("AUTHCORE_LOCKOUT_THRESHOLD", "9")
	t.Setenv("AUTHCORE_AUDIT_ENABLED", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 5*time.Minute, cfg.Token.AccessTTL)
	require.Equal(t, 9, cfg.Lockout.Threshold)
	require.False(t, cfg.Audit.Enabled)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authcore.yaml")
	yaml := `
token:
  access_ttl: 2m
  issuer: file-issuer
session:
  redis_prefix: custom
roles:
  viewer: 10
  admin: 30
admin_role: admin
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 2*time.Minute, cfg.Token.AccessTTL)
	require.Equal(t, "file-issuer", cfg.Token.Issuer)
	require.Equal(t, "custom", cfg.Session.RedisPrefix)
	require.Equal(t, map[string]int{"viewer": 10, "admin": 30}, cfg.Roles)
	require.Equal(t, "admin", cfg.AdminRole)
}

func TestLoadConfigJSONRoles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authcore.json")
	// JSON numbers decode as float64; quoted levels arrive as strings.
	// Both must land as ints.
	blob := `{"roles": {"viewer": 10, "admin": "30"}, "admin_role": "admin"}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"viewer": 10, "admin": 30}, cfg.Roles)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"roles": {"viewer": "lots"}}`), 0o600))
	_, err = LoadConfig(bad)
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
