package courseauth

import (
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "defaults valid",
			mutate:    func(c *Config) {},
			wantValid: true,
		},
		{
			name: "empty role falls back to learner",
			mutate: func(c *Config) {
				c.Account.DefaultRole = ""
			},
			wantValid: true,
		},
		{
			name: "unknown role invalid",
			mutate: func(c *Config) {
				c.Account.DefaultRole = "superuser"
			},
			wantValid: false,
		},
		{
			name: "ed25519 signing valid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "ed25519"
			},
			wantValid: true,
		},
		{
			name: "unknown signing method invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "none"
			},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := validateConfig(&cfg)
			if tt.wantValid && err != nil {
				t.Fatalf("validateConfig: %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestValidateConfigAppliesDefaults(t *testing.T) {
	cfg := Config{}
	if err := validateConfig(&cfg); err != nil {
		t.Fatalf("validateConfig: %v", err)
	}
	if cfg.Account.DefaultRole != RoleLearner {
		t.Fatalf("DefaultRole = %q, want learner", cfg.Account.DefaultRole)
	}
	if cfg.Cache.RedisPrefix != "courseauth" {
		t.Fatalf("RedisPrefix = %q, want courseauth", cfg.Cache.RedisPrefix)
	}
	if cfg.Verification.ChallengeTTL != 24*time.Hour {
		t.Fatalf("ChallengeTTL = %v, want 24h", cfg.Verification.ChallengeTTL)
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("original-secret")

	clone := cloneConfig(cfg)
	clone.JWT.Secret[0] = 'X'

	if cfg.JWT.Secret[0] != 'o' {
		t.Fatal("clone must not alias the secret")
	}
}
