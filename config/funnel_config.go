package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Preference storage backends.
const (
	PrefsBackendFile     = "file"
	PrefsBackendRedis    = "redis"
	PrefsBackendPostgres = "postgres"
)

// DefaultSourceTimeout bounds each upstream call.
const DefaultSourceTimeout = 5 * time.Second

// Mail providers for the inbox listing.
const (
	MailProviderIMAP  = "imap"
	MailProviderGmail = "gmail"
	MailProviderNone  = "none"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	// Preferences
	PrefsBackend string
	PrefsPath    string
	RulesetPath  string

	// Database
	DatabaseURL string
	RedisURL    string

	// Upstream sources
	SourceTimeout    time.Duration
	SourceCacheTTL   time.Duration
	SourceRatePerSec float64
	SourcePageSize   int
	SourceMaxPages   int

	// SendFox
	SendFoxToken   string
	SendFoxBaseURL string

	// Acumbamail
	AcumbamailToken      string
	AcumbamailCustomerID string
	AcumbamailListID     string
	AcumbamailBaseURL    string

	// Mail provider
	MailProvider string
	MailFolder   string

	// IMAP
	IMAPAddr     string
	IMAPUsername string
	IMAPPassword string

	// Gmail
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string

	// Dashboard auth. Empty disables JWT checks.
	DashboardJWTSecret string

	// CORS
	AllowedOrigins []string

	// Listing defaults
	DefaultMessageLimit int
	DefaultContactLimit int
	MaxLimit            int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Preferences
		PrefsBackend: strings.ToLower(getEnv("PREFS_BACKEND", PrefsBackendFile)),
		PrefsPath:    getEnv("PREFS_PATH", defaultPrefsPath()),
		RulesetPath:  getEnv("RULESET_PATH", ""),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Upstream sources
		SourceTimeout:    getEnvDuration("SOURCE_TIMEOUT_SEC", DefaultSourceTimeout),
		SourceCacheTTL:   getEnvDuration("SOURCE_CACHE_TTL_SEC", 0),
		SourceRatePerSec: getEnvFloat("SOURCE_RATE_PER_SEC", 5),
		SourcePageSize:   getEnvInt("SOURCE_PAGE_SIZE", 100),
		SourceMaxPages:   getEnvInt("SOURCE_MAX_PAGES", 1),

		// SendFox
		SendFoxToken:   getEnv("SENDFOX_TOKEN", ""),
		SendFoxBaseURL: getEnv("SENDFOX_BASE_URL", "https://api.sendfox.com"),

		// Acumbamail
		AcumbamailToken:      getEnv("ACUMBAMAIL_TOKEN", ""),
		AcumbamailCustomerID: getEnv("ACUMBAMAIL_CUSTOMER_ID", ""),
		AcumbamailListID:     getEnv("ACUMBAMAIL_LIST_ID", ""),
		AcumbamailBaseURL:    getEnv("ACUMBAMAIL_BASE_URL", "https://acumbamail.com/api/1"),

		// Mail provider
		MailProvider: strings.ToLower(getEnv("MAIL_PROVIDER", MailProviderNone)),
		MailFolder:   getEnv("MAIL_FOLDER", "INBOX"),

		// IMAP
		IMAPAddr:     getEnv("IMAP_ADDR", ""),
		IMAPUsername: getEnv("IMAP_USERNAME", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),

		// Gmail
		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		DashboardJWTSecret: getEnv("DASHBOARD_JWT_SECRET", ""),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// Listing defaults
		DefaultMessageLimit: getEnvInt("DEFAULT_MESSAGE_LIMIT", 50),
		DefaultContactLimit: getEnvInt("DEFAULT_CONTACT_LIMIT", 100),
		MaxLimit:            getEnvInt("DEFAULT_MAX_LIMIT", 500),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.PrefsBackend {
	case PrefsBackendFile:
		if c.PrefsPath == "" {
			return fmt.Errorf("PREFS_PATH is required for the file backend")
		}
	case PrefsBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	case PrefsBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown PREFS_BACKEND %q", c.PrefsBackend)
	}

	switch c.MailProvider {
	case MailProviderIMAP, MailProviderGmail, MailProviderNone:
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}

	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT_SEC must be positive")
	}
	return nil
}

// SendFoxConfigured reports whether SendFox credentials are present.
func (c *Config) SendFoxConfigured() bool {
	return c.SendFoxToken != ""
}

// AcumbamailConfigured reports whether Acumbamail credentials are present.
func (c *Config) AcumbamailConfigured() bool {
	return c.AcumbamailToken != ""
}

func defaultPrefsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "email_filter_prefs.json"
	}
	return home + "/.config/funnel/email_filter_prefs.json"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration reads a whole number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
