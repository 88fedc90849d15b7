package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "sjsage522/listingwatch/pkg/errors"
)

// Exit code policies
const (
	ExitAlwaysZero       = "always-zero"
	ExitNonzeroWhenEmpty = "nonzero-when-empty"
)

// State backends
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config represents the process configuration
type Config struct {
	// Search document
	SearchConfigPath string

	// State configuration
	StoreBackend     string
	StateFile        string
	RedisStatePrefix string
	PostgresDSN      string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int
	PublishEnabled       bool

	// Memcache configuration, empty means in-process cache
	MemcacheAddr string

	// Crawler configuration
	CrawlInterval time.Duration
	RequestDelay  time.Duration
	RequestJitter time.Duration
	FetchTimeout  time.Duration
	ChromeAddr    string

	// Email configuration
	SMTPServer    string
	SMTPPort      int
	EmailFrom     string
	EmailPassword string
	EmailTo       []string

	// Reporting
	SummaryWeekday string
	ExitPolicy     string
	ErrorLogFile   string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		SearchConfigPath: getEnv("SEARCH_CONFIG", "search_config.json5"),

		StoreBackend:     strings.ToLower(getEnv("STORE_BACKEND", StoreFile)),
		StateFile:        getEnv("STATE_FILE", "seen_items.json"),
		RedisStatePrefix: getEnv("REDIS_STATE_PREFIX", "listingwatch"),
		PostgresDSN:      getEnv("POSTGRES_DSN", ""),

		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "listings"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		PublishEnabled:       getEnvBool("PUBLISH_ENABLED", false),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		CrawlInterval: time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 0)) * time.Second,
		RequestDelay:  time.Duration(getEnvInt("REQUEST_DELAY_MS", 2000)) * time.Millisecond,
		RequestJitter: time.Duration(getEnvInt("REQUEST_JITTER_MS", 3000)) * time.Millisecond,
		FetchTimeout:  time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		ChromeAddr:    getEnv("CHROME_ADDR", ""),

		SMTPServer:    getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		EmailFrom:     getEnv("EMAIL_FROM", ""),
		EmailPassword: getEnv("EMAIL_PASSWORD", ""),
		EmailTo:       splitList(getEnv("EMAIL_TO", "")),

		SummaryWeekday: getEnv("SUMMARY_WEEKDAY", ""),
		ExitPolicy:     getEnv("EXIT_POLICY", ExitAlwaysZero),
		ErrorLogFile:   getEnv("ERROR_LOG_FILE", ""),

		Environment: getEnv("LISTINGWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for values the process cannot run with
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreFile:
		if c.StateFile == "" {
			return apperrors.NewConfiguration("STATE_FILE must be set for the file backend", nil)
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			return apperrors.NewConfiguration("REDIS_ADDR must be set for the redis backend", nil)
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			return apperrors.NewConfiguration("POSTGRES_DSN must be set for the postgres backend", nil)
		}
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown STORE_BACKEND %q", c.StoreBackend), nil)
	}

	switch c.ExitPolicy {
	case ExitAlwaysZero, ExitNonzeroWhenEmpty:
	default:
		return apperrors.NewConfiguration(fmt.Sprintf("unknown EXIT_POLICY %q", c.ExitPolicy), nil)
	}

	if c.SummaryWeekday != "" {
		if _, ok := ParseWeekday(c.SummaryWeekday); !ok {
			return apperrors.NewConfiguration(fmt.Sprintf("unknown SUMMARY_WEEKDAY %q", c.SummaryWeekday), nil)
		}
	}

	if c.CrawlInterval < 0 || c.RequestDelay < 0 || c.RequestJitter < 0 {
		return apperrors.NewConfiguration("durations must not be negative", nil)
	}

	if c.PublishEnabled && c.RedisStream == "" {
		return apperrors.NewConfiguration("REDIS_STREAM must be set when publishing is enabled", nil)
	}

	return nil
}

// MailConfigured reports whether SMTP credentials and recipients are present
func (c *Config) MailConfigured() bool {
	return c.EmailFrom != "" && c.EmailPassword != "" && len(c.EmailTo) > 0
}

// ParseWeekday parses an English weekday name, full or abbreviated
func ParseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, true
		}
	}
	return time.Sunday, false
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
