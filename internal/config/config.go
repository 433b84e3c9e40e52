// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AdminEmails is a comma-separated list of emails granted the admin role
	// regardless of the stored profile role. Static, read at startup only.
	AdminEmails string `mapstructure:"ADMIN_EMAILS"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file; used with JWT_PUBLIC_KEY for RS256/ES256.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "ren-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "ren-app").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// SessionTTL is the session lifetime when "remember me" is not requested (e.g. "12h").
	SessionTTL string `mapstructure:"SESSION_TTL"`
	// RememberTTL is the session lifetime when "remember me" is requested (e.g. "720h").
	RememberTTL string `mapstructure:"REMEMBER_TTL"`
	// ResetTokenTTL is the password reset token lifetime (e.g. "30m").
	ResetTokenTTL string `mapstructure:"RESET_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// ResetReturnToClient when true enables dev reset mode: the password reset token is
	// returned in the forgot-password response instead of being delivered out of band.
	// Must not be true when Env is production (startup error).
	ResetReturnToClient bool `mapstructure:"RESET_RETURN_TO_CLIENT"`
	// OAuthProviders maps federated provider names to their authorize endpoints,
	// comma-separated "name=url" pairs (e.g. "google=https://accounts.google.com/o/oauth2/v2/auth").
	// Empty disables OAuth sign-in.
	OAuthProviders string `mapstructure:"OAUTH_PROVIDERS"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// OTLPEndpoint is the OTLP gRPC endpoint for traces/metrics/logs (e.g. http://localhost:4317).
	// Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("JWT_ISSUER", "ren-auth")
	v.SetDefault("JWT_AUDIENCE", "ren-app")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("REMEMBER_TTL", "720h") // 30d
	v.SetDefault("RESET_TOKEN_TTL", "30m")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("RESET_RETURN_TO_CLIENT", false)
	v.SetDefault("OAUTH_PROVIDERS", "")
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.ResetReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: RESET_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AdminEmailList returns the admin allow-list emails from the comma-separated config,
// lowercased and trimmed. Empty entries are dropped.
func (c *Config) AdminEmailList() []string {
	if c == nil || c.AdminEmails == "" {
		return nil
	}
	parts := strings.Split(c.AdminEmails, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.ToLower(strings.TrimSpace(p)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// OAuthProviderMap parses OAuthProviders into a provider -> authorize URL map.
// Malformed pairs are dropped.
func (c *Config) OAuthProviderMap() map[string]string {
	if c == nil || c.OAuthProviders == "" {
		return nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(c.OAuthProviders, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		out[strings.ToLower(name)] = url
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SecureCookies reports whether session cookies should carry the Secure flag.
// Off in development and when the environment is unset.
func (c *Config) SecureCookies() bool {
	return c.Env != "development" && c.Env != ""
}

// SessionLifetime parses SessionTTL as a time.Duration. Returns 12h if unset or invalid.
func (c *Config) SessionLifetime() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// RememberLifetime parses RememberTTL as a time.Duration. Returns 720h if unset or invalid.
func (c *Config) RememberLifetime() time.Duration {
	d, err := time.ParseDuration(c.RememberTTL)
	if err != nil || d <= 0 {
		return 720 * time.Hour
	}
	return d
}

// ResetLifetime parses ResetTokenTTL as a time.Duration. Returns 30m if unset or invalid.
func (c *Config) ResetLifetime() time.Duration {
	d, err := time.ParseDuration(c.ResetTokenTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}
