package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "ren-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "ren-auth")
	}
	if cfg.JWTAudience != "ren-app" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "ren-app")
	}
	if cfg.SessionTTL != "12h" {
		t.Errorf("SessionTTL = %q, want %q", cfg.SessionTTL, "12h")
	}
	if cfg.RememberTTL != "720h" {
		t.Errorf("RememberTTL = %q, want %q", cfg.RememberTTL, "720h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.ResetReturnToClient {
		t.Error("ResetReturnToClient should default to false")
	}
	if got := cfg.AdminEmailList(); len(got) != 0 {
		t.Errorf("AdminEmailList = %v, want empty", got)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
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

func TestLoad_AdminEmailList(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("ADMIN_EMAILS", " Admin@Example.com, ops@example.com ,, ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := cfg.AdminEmailList()
	want := []string{"admin@example.com", "ops@example.com"}
	if len(got) != len(want) {
		t.Fatalf("AdminEmailList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AdminEmailList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad_BcryptCostBounds(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject BCRYPT_COST out of range")
	}
}

func TestLoad_ResetReturnToClientRejectedInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":8080")
	os.Setenv("APP_ENV", "production")
	os.Setenv("RESET_RETURN_TO_CLIENT", "true")

	if _, err := Load(); err == nil {
		t.Fatal("Load should reject RESET_RETURN_TO_CLIENT in production")
	}
}

func TestOAuthProviderMap(t *testing.T) {
	cfg := &Config{OAuthProviders: "Google=https://accounts.google.com/o/oauth2/auth, github=https://github.com/login/oauth/authorize"}
	got := cfg.OAuthProviderMap()
	if len(got) != 2 {
		t.Fatalf("OAuthProviderMap = %v, want 2 entries", got)
	}
	if got["google"] != "https://accounts.google.com/o/oauth2/auth" {
		t.Errorf("google = %q", got["google"])
	}
	if got["github"] != "https://github.com/login/oauth/authorize" {
		t.Errorf("github = %q", got["github"])
	}

	empty := &Config{OAuthProviders: ""}
	if m := empty.OAuthProviderMap(); m != nil {
		t.Errorf("empty OAuthProviderMap = %v, want nil", m)
	}

	malformed := &Config{OAuthProviders: "nourl, =https://x.example, noequals"}
	if m := malformed.OAuthProviderMap(); m != nil {
		t.Errorf("malformed OAuthProviderMap = %v, want nil", m)
	}
}

func TestSecureCookies(t *testing.T) {
	cases := []struct {
		env  string
		want bool
	}{
		{"development", false},
		{"", false},
		{"production", true},
		{"staging", true},
	}
	for _, tc := range cases {
		cfg := &Config{Env: tc.env}
		if got := cfg.SecureCookies(); got != tc.want {
			t.Errorf("SecureCookies with env %q = %v, want %v", tc.env, got, tc.want)
		}
	}
}

func TestLifetimes(t *testing.T) {
	cfg := &Config{SessionTTL: "1h", RememberTTL: "48h", ResetTokenTTL: "10m"}
	if got := cfg.SessionLifetime(); got != time.Hour {
		t.Errorf("SessionLifetime = %v, want 1h", got)
	}
	if got := cfg.RememberLifetime(); got != 48*time.Hour {
		t.Errorf("RememberLifetime = %v, want 48h", got)
	}
	if got := cfg.ResetLifetime(); got != 10*time.Minute {
		t.Errorf("ResetLifetime = %v, want 10m", got)
	}

	bad := &Config{SessionTTL: "nope", RememberTTL: "", ResetTokenTTL: "-1m"}
	if got := bad.SessionLifetime(); got != 12*time.Hour {
		t.Errorf("SessionLifetime fallback = %v, want 12h", got)
	}
	if got := bad.RememberLifetime(); got != 720*time.Hour {
		t.Errorf("RememberLifetime fallback = %v, want 720h", got)
	}
	if got := bad.ResetLifetime(); got != 30*time.Minute {
		t.Errorf("ResetLifetime fallback = %v, want 30m", got)
	}
}
