package config

import (
	"strings"
	"testing"
	"time"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/careerconnect")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
}

func TestLoadDefaults(t *testing.T) {
	validEnv(t)
	cfg := Load()

	if cfg.HTTP.Port != 8080 {
		t.Fatalf("default port: %d", cfg.HTTP.Port)
	}
	if cfg.Verification.CodeTTL != 10*time.Minute {
		t.Fatalf("default code ttl: %v", cfg.Verification.CodeTTL)
	}
	if cfg.Verification.CleanupInterval != 5*time.Minute {
		t.Fatalf("default cleanup interval: %v", cfg.Verification.CleanupInterval)
	}
	if cfg.JWT.AccessTTL != 24*time.Hour {
		t.Fatalf("default access ttl: %v", cfg.JWT.AccessTTL)
	}
	if cfg.Providers.PlaceholderDomain != "careerconnect.temp" {
		t.Fatalf("default placeholder domain: %q", cfg.Providers.PlaceholderDomain)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	validEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("VERIFICATION_CODE_TTL", "2m")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_FAIL_OPEN", "false")

	cfg := Load()
	if cfg.HTTP.Port != 9090 {
		t.Fatalf("port override: %d", cfg.HTTP.Port)
	}
	if cfg.Verification.CodeTTL != 2*time.Minute {
		t.Fatalf("ttl override: %v", cfg.Verification.CodeTTL)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins: %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.RateLimit.FailOpen {
		t.Fatal("fail-open override ignored")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("HTTP_PORT", "99999")
	t.Setenv("PASSWORD_BCRYPT_COST", "50")

	err := Load().Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_SECRET", "HTTP_PORT", "PASSWORD_BCRYPT_COST"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error missing %s: %v", want, err)
		}
	}
}

func TestValidateSMTPRequiresFrom(t *testing.T) {
	validEnv(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")

	err := Load().Validate()
	if err == nil || !strings.Contains(err.Error(), "SMTP_FROM") {
		t.Fatalf("expected SMTP_FROM error, got %v", err)
	}
}
