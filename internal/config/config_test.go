package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	os.Clearenv()
	os.Setenv("JWT_ACCESS_SECRET", "access-secret")
	os.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "identity-token-service" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "identity-token-service")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
	if cfg.JWTRefreshTTL != "168h" {
		t.Errorf("JWTRefreshTTL = %q, want %q", cfg.JWTRefreshTTL, "168h")
	}
	if cfg.ResetTokenTTL != "10m" {
		t.Errorf("ResetTokenTTL = %q, want %q", cfg.ResetTokenTTL, "10m")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.SMTPPort)
	}
	if !cfg.CookieSecure {
		t.Error("CookieSecure should default to true")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_RequiresSecrets(t *testing.T) {
	os.Clearenv()
	if _, err := Load(); err == nil {
		t.Error("Load should fail without JWT secrets")
	}

	os.Clearenv()
	os.Setenv("JWT_ACCESS_SECRET", "same-secret")
	os.Setenv("JWT_REFRESH_SECRET", "same-secret")
	if _, err := Load(); err == nil {
		t.Error("Load should fail when access and refresh secrets are equal")
	}
}

func TestLoad_RejectsInsecureCookiesInProduction(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("APP_ENV", "production")
	os.Setenv("COOKIE_SECURE", "false")
	if _, err := Load(); err == nil {
		t.Error("Load should fail with COOKIE_SECURE=false in production")
	}
}

func TestLoad_RejectsBadBcryptCost(t *testing.T) {
	setRequiredEnv(t)
	os.Setenv("BCRYPT_COST", "99")
	if _, err := Load(); err == nil {
		t.Error("Load should reject BCRYPT_COST outside 4-31")
	}
}

func TestTTLHelpers(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m", JWTRefreshTTL: "24h", ResetTokenTTL: "5m"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	if got := cfg.RefreshTTL(); got != 24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 24h", got)
	}
	if got := cfg.ResetTTL(); got != 5*time.Minute {
		t.Errorf("ResetTTL = %v, want 5m", got)
	}

	broken := &Config{JWTAccessTTL: "nope", JWTRefreshTTL: "", ResetTokenTTL: "-1m"}
	if got := broken.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
	if got := broken.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL fallback = %v, want 168h", got)
	}
	if got := broken.ResetTTL(); got != 10*time.Minute {
		t.Errorf("ResetTTL fallback = %v, want 10m", got)
	}
}
