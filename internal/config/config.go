package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Data backend
	DataBackend    string
	APIBaseURL     string
	APITimeout     time.Duration
	MemorySeedFile string

	// Identity
	AuthMode          string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthAuthURL      string
	OAuthTokenURL     string
	OAuthUserInfoURL  string
	OAuthRedirectURL  string
	OAuthScopes       []string

	// Static identity (development)
	StaticBearerToken string
	StaticSubject     string
	StaticEmail       string
	StaticName        string

	// Sessions
	SessionDBPath      string
	SessionAgeIdentity string
	SessionTTL         time.Duration
	CookieSecure       bool

	// Cache
	CacheTTL  time.Duration
	CacheSize int

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export (optional)
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	LogLevel string
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("rate_limit_per_minute", 60)

	v.SetDefault("data_backend", "memory")
	v.SetDefault("api_base_url", "http://localhost:8081/api")
	v.SetDefault("api_timeout", "15s")
	v.SetDefault("memory_seed_file", "")

	v.SetDefault("auth_mode", "static")
	v.SetDefault("oauth_scopes", "openid,email,profile")

	v.SetDefault("static_subject", "demo-user")
	v.SetDefault("static_email", "demo@budgetwise.local")
	v.SetDefault("static_name", "Demo User")

	v.SetDefault("session_db_path", "./data/sessions.db")
	v.SetDefault("session_ttl", "168h")
	v.SetDefault("cookie_secure", false)

	v.SetDefault("cache_ttl", "30s")
	v.SetDefault("cache_size", 500)

	v.SetDefault("amqp_exchange", "budgetwise")
	v.SetDefault("amqp_queue", "record_events")

	v.SetDefault("google_sheet_name", "Transactions")

	v.SetDefault("log_level", "info")
}

// Load reads configuration from the environment, optionally layered over
// a config file (any format viper understands). Environment variables use
// the upper-case key: PORT, DATA_BACKEND, API_BASE_URL and so on.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),

		DataBackend:    strings.ToLower(v.GetString("data_backend")),
		APIBaseURL:     v.GetString("api_base_url"),
		APITimeout:     v.GetDuration("api_timeout"),
		MemorySeedFile: v.GetString("memory_seed_file"),

		AuthMode:          strings.ToLower(v.GetString("auth_mode")),
		OAuthClientID:     v.GetString("oauth_client_id"),
		OAuthClientSecret: v.GetString("oauth_client_secret"),
		OAuthAuthURL:      v.GetString("oauth_auth_url"),
		OAuthTokenURL:     v.GetString("oauth_token_url"),
		OAuthUserInfoURL:  v.GetString("oauth_userinfo_url"),
		OAuthRedirectURL:  v.GetString("oauth_redirect_url"),
		OAuthScopes:       splitList(v.GetString("oauth_scopes")),

		StaticBearerToken: v.GetString("static_bearer_token"),
		StaticSubject:     v.GetString("static_subject"),
		StaticEmail:       v.GetString("static_email"),
		StaticName:        v.GetString("static_name"),

		SessionDBPath:      v.GetString("session_db_path"),
		SessionAgeIdentity: v.GetString("session_age_identity"),
		SessionTTL:         v.GetDuration("session_ttl"),
		CookieSecure:       v.GetBool("cookie_secure"),

		CacheTTL:  v.GetDuration("cache_ttl"),
		CacheSize: v.GetInt("cache_size"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleSheetName:          v.GetString("google_sheet_name"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),

		LogLevel: strings.ToLower(v.GetString("log_level")),
	}

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	validBackends := []string{"remote", "memory"}
	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "remote" {
		if u, err := url.Parse(c.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
		}
		if c.APITimeout < time.Second || c.APITimeout > 2*time.Minute {
			errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be between 1 second and 2 minutes", c.APITimeout))
		}
	}

	// Validate identity configuration
	validModes := []string{"oauth", "static"}
	if !contains(validModes, c.AuthMode) {
		errors = append(errors, fmt.Sprintf("invalid auth mode '%s': must be one of %v", c.AuthMode, validModes))
	}
	switch c.AuthMode {
	case "oauth":
		if c.OAuthClientID == "" {
			errors = append(errors, "OAUTH_CLIENT_ID is required when using oauth auth mode")
		}
		for name, raw := range map[string]string{
			"OAUTH_AUTH_URL":     c.OAuthAuthURL,
			"OAUTH_TOKEN_URL":    c.OAuthTokenURL,
			"OAUTH_REDIRECT_URL": c.OAuthRedirectURL,
		} {
			if raw == "" {
				errors = append(errors, fmt.Sprintf("%s is required when using oauth auth mode", name))
			} else if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
				errors = append(errors, fmt.Sprintf("invalid %s '%s': must be an absolute URL", name, raw))
			}
		}
	case "static":
		if c.StaticSubject == "" {
			errors = append(errors, "STATIC_SUBJECT cannot be empty when using static auth mode")
		}
		if c.DataBackend == "remote" && c.StaticBearerToken == "" {
			errors = append(errors, "STATIC_BEARER_TOKEN is required when using static auth mode with the remote backend")
		}
	}

	// Validate sessions
	if c.SessionDBPath == "" {
		errors = append(errors, "session database path cannot be empty")
	} else if c.SessionDBPath != ":memory:" {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SessionDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create session database directory '%s': %v", dir, err))
				}
			}
		}
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	// Validate cache
	if c.CacheTTL < 0 || c.CacheTTL > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be between 0 and 1 hour", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets export if enabled
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SheetsEnabled reports whether the Google Sheets export is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// EventsEnabled reports whether record events are published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be one of debug, info, warn, error", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
