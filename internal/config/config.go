package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Session cookie signing secret. The session token is an HS256 JWT.
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	// SSO (OIDC-style) login against the company identity provider.
	SSOClientID     string `mapstructure:"SSO_CLIENT_ID"`
	SSOClientSecret string `mapstructure:"SSO_CLIENT_SECRET"`
	SSOIssuerURL    string `mapstructure:"SSO_ISSUER_URL"`
	SSORedirectURI  string `mapstructure:"SSO_REDIRECT_URI"`

	// Hospital API credentials are process-wide; each organization carries
	// its own base URL in its settings.
	HospitalAPIUsername   string `mapstructure:"HOSPITAL_API_USERNAME"`
	HospitalAPIPassword   string `mapstructure:"HOSPITAL_API_PASSWORD"`
	HospitalAPITimeoutSec int    `mapstructure:"HOSPITAL_API_TIMEOUT_SEC"`

	TLSEnabled  bool   `mapstructure:"TLS_ENABLED"`
	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("HOSPITAL_API_TIMEOUT_SEC", 15)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SSO_CLIENT_ID")
	v.BindEnv("SSO_CLIENT_SECRET")
	v.BindEnv("SSO_ISSUER_URL")
	v.BindEnv("SSO_REDIRECT_URI")
	v.BindEnv("HOSPITAL_API_USERNAME")
	v.BindEnv("HOSPITAL_API_PASSWORD")
	v.BindEnv("HOSPITAL_API_TIMEOUT_SEC")
	v.BindEnv("TLS_ENABLED")
	v.BindEnv("TLS_CERT_FILE")
	v.BindEnv("TLS_KEY_FILE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SSOConfigured reports whether the SSO login flow can be offered at all.
func (c *Config) SSOConfigured() bool {
	return c.SSOClientID != "" && c.SSOIssuerURL != ""
}

// HospitalAPIConfigured reports whether process-wide hospital API credentials
// are present. Per-organization enablement is a separate, persisted setting.
func (c *Config) HospitalAPIConfigured() bool {
	return c.HospitalAPIUsername != "" && c.HospitalAPIPassword != ""
}

// HospitalAPITimeout returns the outbound request timeout for hospital API calls.
func (c *Config) HospitalAPITimeout() time.Duration {
	if c.HospitalAPITimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HospitalAPITimeoutSec) * time.Second
}

// Validate checks that the configuration is safe to run. Production requires a
// real session secret so that session cookies cannot be forged.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
	} else if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters, got %d", len(c.SessionSecret))
	}

	if c.SSOClientID != "" || c.SSOIssuerURL != "" {
		if c.SSOClientID == "" || c.SSOClientSecret == "" || c.SSOIssuerURL == "" || c.SSORedirectURI == "" {
			return fmt.Errorf("SSO configuration is incomplete: SSO_CLIENT_ID, SSO_CLIENT_SECRET, SSO_ISSUER_URL and SSO_REDIRECT_URI must all be set")
		}
	}

	// TLS validation: when TLS is enabled, cert and key files must be specified.
	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}

	return nil
}
