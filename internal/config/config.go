// ABOUTME: Configuration loading and parsing for the voice agent relay
// ABOUTME: Supports YAML files with environment variable expansion and env fallbacks

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete voice-agent configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LiveKit   LiveKitConfig   `yaml:"livekit"`
	AI        AIConfig        `yaml:"ai"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	FrontendURL string `yaml:"frontend_url"` // CORS origin for the React client
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LiveKitConfig holds LiveKit credentials. All three fields are required;
// the process refuses to start without them.
type LiveKitConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	URL       string `yaml:"url"`
}

// AIConfig holds optional hosted AI credentials. When absent the relay
// degrades to pattern-matching extraction with no agent replies.
type AIConfig struct {
	MastraURL    string `yaml:"mastra_url"`
	MastraAPIKey string `yaml:"mastra_api_key"`
	Mem0URL      string `yaml:"mem0_url"`
	Mem0APIKey   string `yaml:"mem0_api_key"`
}

// SessionsConfig holds session expiry configuration
type SessionsConfig struct {
	Timeout         time.Duration `yaml:"-"`
	CleanupInterval time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TimeoutRaw         string `yaml:"timeout"`
	CleanupIntervalRaw string `yaml:"cleanup_interval"`
}

// RateLimitConfig holds per-IP ingress rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults applied when neither file nor environment sets a value.
const (
	DefaultHTTPAddr        = ":3001"
	DefaultDatabasePath    = "data/voice-agent.db"
	DefaultSessionTimeout  = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute
	DefaultRateLimit       = 10.0
	DefaultRateBurst       = 20
)

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded. An
// empty path or missing file falls back to environment-only configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else {
			// Expand environment variables in the raw YAML content
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnvFallbacks(cfg)
	applyDefaults(cfg)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnvFallbacks fills empty fields from the recognized environment
// variables, so the relay runs with no config file at all.
func applyEnvFallbacks(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Server.HTTPAddr = ":" + port
		}
	}
	setIfEmpty(&cfg.Server.FrontendURL, "FRONTEND_URL")
	setIfEmpty(&cfg.Database.Path, "DATABASE_PATH")
	setIfEmpty(&cfg.LiveKit.APIKey, "LIVEKIT_API_KEY")
	setIfEmpty(&cfg.LiveKit.APISecret, "LIVEKIT_API_SECRET")
	setIfEmpty(&cfg.LiveKit.URL, "LIVEKIT_URL")
	setIfEmpty(&cfg.AI.MastraURL, "MASTRA_API_URL")
	setIfEmpty(&cfg.AI.MastraAPIKey, "MASTRA_API_KEY")
	setIfEmpty(&cfg.AI.Mem0URL, "MEM0_API_URL")
	// Older deployments exported the mem0 endpoint as MEM0_DATABASE_URL.
	setIfEmpty(&cfg.AI.Mem0URL, "MEM0_DATABASE_URL")
	setIfEmpty(&cfg.AI.Mem0APIKey, "MEM0_API_KEY")
	setIfEmpty(&cfg.Logging.Level, "LOG_LEVEL")
}

func setIfEmpty(dest *string, envVar string) {
	if *dest == "" {
		*dest = os.Getenv(envVar)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimit
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = DefaultRateBurst
	}
}

// Validate checks that all required configuration fields are present.
// Returns an error describing the first validation failure encountered.
// LiveKit credentials are required: token issuance cannot degrade, so the
// process fails fast instead of starting without it.
func (c *Config) Validate() error {
	if c.LiveKit.APIKey == "" {
		return fmt.Errorf("livekit.api_key is required (or set LIVEKIT_API_KEY)")
	}
	if c.LiveKit.APISecret == "" {
		return fmt.Errorf("livekit.api_secret is required (or set LIVEKIT_API_SECRET)")
	}
	if c.LiveKit.URL == "" {
		return fmt.Errorf("livekit.url is required (or set LIVEKIT_URL)")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	cfg.Sessions.Timeout = DefaultSessionTimeout
	if cfg.Sessions.TimeoutRaw != "" {
		cfg.Sessions.Timeout, err = time.ParseDuration(cfg.Sessions.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing sessions.timeout %q: %w", cfg.Sessions.TimeoutRaw, err)
		}
	}

	cfg.Sessions.CleanupInterval = DefaultCleanupInterval
	if cfg.Sessions.CleanupIntervalRaw != "" {
		cfg.Sessions.CleanupInterval, err = time.ParseDuration(cfg.Sessions.CleanupIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing sessions.cleanup_interval %q: %w", cfg.Sessions.CleanupIntervalRaw, err)
		}
	}

	return nil
}
