package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	// Minimum-cost parameters keep the suite fast; production defaults
	// live in the root config.
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()

	h, err := New(testConfig())
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return h
}

func TestHashVerifyRoundtrip(t *testing.T) {
	h := newTestHasher(t)

	encoded, err := h.Hash("correct horse battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected digest format: %s", encoded)
	}

	ok, err := h.Verify("correct horse battery", encoded)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password should verify")
	}

	ok, err = h.Verify("wrong horse battery", encoded)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("same password!")
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	b, err := h.Hash("same password!")
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashPolicy(t *testing.T) {
	h := newTestHasher(t)

	if _, err := h.Hash("short"); err != ErrPolicy {
		t.Fatalf("short password: got %v, want ErrPolicy", err)
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := newTestHasher(t)

	for _, digest := range []string{
		"",
		"plaintext-stored-by-mistake",
		"$argon2id$v=19$m=8192,t=1,p=1$notbase64!$notbase64!",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	} {
		ok, err := h.Verify("whatever password", digest)
		if err != nil {
			t.Fatalf("digest %q: unexpected error %v", digest, err)
		}
		if ok {
			t.Fatalf("digest %q: must not verify", digest)
		}
	}
}

func TestLegacyBcryptVerifiesAndNeedsUpgrade(t *testing.T) {
	h := newTestHasher(t)

	legacy, err := HashLegacy("old era password")
	if err != nil {
		t.Fatalf("hash legacy: %v", err)
	}

	ok, err := h.Verify("old era password", legacy)
	if err != nil {
		t.Fatalf("verify legacy: %v", err)
	}
	if !ok {
		t.Fatal("legacy digest should verify without error")
	}

	ok, err = h.Verify("wrong password xx", legacy)
	if err != nil {
		t.Fatalf("verify legacy wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password must not verify against legacy digest")
	}

	needs, err := h.NeedsUpgrade(legacy)
	if err != nil {
		t.Fatalf("needs upgrade: %v", err)
	}
	if !needs {
		t.Fatal("legacy digest must report NeedsUpgrade")
	}
}

func TestNeedsUpgradeOnWeakerParams(t *testing.T) {
	weak, err := New(testConfig())
	if err != nil {
		t.Fatalf("weak hasher: %v", err)
	}
	encoded, err := weak.Hash("migrating password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	strongCfg := testConfig()
	strongCfg.Memory = 16 * 1024
	strong, err := New(strongCfg)
	if err != nil {
		t.Fatalf("strong hasher: %v", err)
	}

	needs, err := strong.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("needs upgrade: %v", err)
	}
	if !needs {
		t.Fatal("digest below current memory cost must need upgrade")
	}

	needs, err = weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("needs upgrade same params: %v", err)
	}
	if needs {
		t.Fatal("digest at current params must not need upgrade")
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt", func(c *Config) { c.SaltLength = 8 }},
		{"key", func(c *Config) { c.KeyLength = 8 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatal("expected config rejection")
			}
		})
	}
}
