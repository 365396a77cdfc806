// Package config holds operator-level configuration for a Veil deployment.
//
// Settings are resolved through Viper from env vars (VEIL_*) and an
// optional veil.config.yaml. The resolved Config struct is constructed once
// at process start and passed explicitly into the server and service
// constructors — nothing outside this package reads Viper directly, and the
// service never consults ambient state per request.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Viper keys. Each maps to an env var with the VEIL_ prefix
// (e.g. "api_token" → VEIL_API_TOKEN) and to a YAML field in
// veil.config.yaml.
const (
	KeyAPIToken        = "api_token"
	KeyPort            = "port"
	KeyDefaultLanguage = "default_language"
	KeyMinScore        = "min_score"
	KeyPatternFile     = "pattern_file"
	KeyRateLimitRPM    = "rate_limit_rpm"
	KeyCORSOrigins     = "cors_origins"
)

// Defaults. The API token intentionally has no default: an empty token
// means authentication is disabled, which serve warns about at startup.
const (
	DefaultPort         = 8000
	DefaultLanguage     = "en"
	DefaultRateLimitRPM = 0 // 0 disables rate limiting
)

// Config is the resolved operator configuration for a Veil process.
type Config struct {
	APIToken        string   // Shared secret for the X-API-Token header; empty = open mode
	Port            int      // HTTP listen port
	DefaultLanguage string   // Language used when a request omits one
	MinScore        float64  // Engine confidence threshold override; 0 = engine default
	PatternFile     string   // Optional recognizers YAML merged over the embedded defaults
	RateLimitRPM    int      // Per-client requests/minute; 0 disables
	CORSOrigins     []string // Allowed CORS origins
}

func init() {
	viper.SetEnvPrefix("VEIL")
	viper.AutomaticEnv()
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyDefaultLanguage, DefaultLanguage)
	viper.SetDefault(KeyRateLimitRPM, DefaultRateLimitRPM)
	viper.SetDefault(KeyCORSOrigins, []string{"*"})
}

// Load reads configuration from Viper (which merges env vars, config file,
// and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		APIToken:        viper.GetString(KeyAPIToken),
		Port:            viper.GetInt(KeyPort),
		DefaultLanguage: viper.GetString(KeyDefaultLanguage),
		MinScore:        viper.GetFloat64(KeyMinScore),
		PatternFile:     viper.GetString(KeyPatternFile),
		RateLimitRPM:    viper.GetInt(KeyRateLimitRPM),
		CORSOrigins:     viper.GetStringSlice(KeyCORSOrigins),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535], got %d", c.Port)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score must be in [0, 1], got %v", c.MinScore)
	}
	if c.DefaultLanguage == "" {
		return fmt.Errorf("default_language must not be empty")
	}
	if c.RateLimitRPM < 0 {
		return fmt.Errorf("rate_limit_rpm must not be negative, got %d", c.RateLimitRPM)
	}
	return nil
}

// AuthEnabled reports whether a shared secret is configured.
func (c *Config) AuthEnabled() bool {
	return c.APIToken != ""
}
