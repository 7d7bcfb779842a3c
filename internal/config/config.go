package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timesheet-admin/internal/calendar"
)

// Lock backends for the sync run guard.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds all configuration options for the timesheet admin backend
type Config struct {
	Database    DatabaseConfig
	Validation  ValidationConfig
	Schedule    ScheduleConfig
	Sync        SyncConfig
	External    ExternalConfig
	Server      ServerConfig
	Logging     LoggingConfig
	Application ApplicationConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Dir            string        `env:"TS_DB_DIR"`
	Filename       string        `env:"TS_DB_FILENAME"`
	QueryTimeout   time.Duration `env:"TS_DB_QUERY_TIMEOUT"`
	DirPermissions uint32        `env:"TS_DB_DIR_PERMISSIONS"`
}

// ValidationConfig holds the entry validation rule parameters
type ValidationConfig struct {
	MaxEntryDuration     time.Duration   `env:"TS_VALIDATION_MAX_ENTRY_DURATION"`
	LatestStart          calendar.Clock  `env:"TS_VALIDATION_LATEST_START"`
	MinBreak             time.Duration   `env:"TS_VALIDATION_MIN_BREAK"`
	DefaultMaxDailyHours decimal.Decimal `env:"TS_VALIDATION_DEFAULT_MAX_DAILY_HOURS"`
}

// ScheduleConfig holds the default working day used for synthesised entries
type ScheduleConfig struct {
	MorningStart   calendar.Clock `env:"TS_SCHEDULE_MORNING_START"`
	MorningEnd     calendar.Clock `env:"TS_SCHEDULE_MORNING_END"`
	AfternoonStart calendar.Clock `env:"TS_SCHEDULE_AFTERNOON_START"`
	AfternoonEnd   calendar.Clock `env:"TS_SCHEDULE_AFTERNOON_END"`
}

// SyncConfig holds reconciliation engine configuration
type SyncConfig struct {
	MatchTolerance   decimal.Decimal `env:"TS_SYNC_MATCH_TOLERANCE"`
	Concurrency      int             `env:"TS_SYNC_CONCURRENCY"`
	Interval         time.Duration   `env:"TS_SYNC_INTERVAL"`
	SchedulerEnabled bool            `env:"TS_SYNC_SCHEDULER_ENABLED"`
	LockBackend      string          `env:"TS_SYNC_LOCK_BACKEND"`
	RedisAddress     string          `env:"TS_REDIS_ADDRESS"`
	LockTTL          time.Duration   `env:"TS_SYNC_LOCK_TTL"`
}

// ExternalConfig holds the external attendance source client configuration
type ExternalConfig struct {
	BaseURL         string        `env:"TS_EXTERNAL_BASE_URL"`
	APIKey          string        `env:"TS_EXTERNAL_API_KEY"`
	APIKeyHeader    string        `env:"TS_EXTERNAL_API_KEY_HEADER"`
	RateLimitPerMin int           `env:"TS_EXTERNAL_RATE_LIMIT_PER_MIN"`
	Timeout         time.Duration `env:"TS_EXTERNAL_TIMEOUT"`
}

// ServerConfig holds the operational HTTP surface configuration
type ServerConfig struct {
	Addr string `env:"TS_SERVER_ADDR"`
}

// LoggingConfig holds structured logger configuration
type LoggingConfig struct {
	Level  string `env:"TS_LOG_LEVEL"`
	Format string `env:"TS_LOG_FORMAT"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	Timeout     time.Duration `env:"TS_APP_TIMEOUT"`
	Environment string        `env:"TS_ENV"`
	Verbose     bool          `env:"TS_APP_VERBOSE"`
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".tsadmin")

	return &Config{
		Database: DatabaseConfig{
			Dir:            defaultDBDir,
			Filename:       "tsadmin.db",
			QueryTimeout:   10 * time.Second,
			DirPermissions: 0755,
		},
		Validation: ValidationConfig{
			MaxEntryDuration:     12 * time.Hour,
			LatestStart:          calendar.NewClock(23, 0),
			MinBreak:             30 * time.Minute,
			DefaultMaxDailyHours: decimal.NewFromInt(16),
		},
		Schedule: ScheduleConfig{
			MorningStart:   calendar.NewClock(9, 0),
			MorningEnd:     calendar.NewClock(13, 0),
			AfternoonStart: calendar.NewClock(13, 30),
			AfternoonEnd:   calendar.NewClock(17, 30),
		},
		Sync: SyncConfig{
			MatchTolerance: decimal.RequireFromString("0.25"),
			Concurrency:    4,
			Interval:       time.Hour,
			LockBackend:    LockBackendMemory,
			RedisAddress:   "localhost:6379",
			LockTTL:        30 * time.Minute,
		},
		External: ExternalConfig{
			APIKeyHeader:    "X-API-Key",
			RateLimitPerMin: 120,
			Timeout:         30 * time.Second,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Application: ApplicationConfig{
			Timeout:     5 * time.Minute,
			Environment: "development",
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// GetQueryTimeout returns the database query timeout
func (c *Config) GetQueryTimeout() time.Duration {
	return c.Database.QueryTimeout
}

// IsProduction reports whether TS_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Application.Environment, "production")
}

// LoadFromEnvironment loads configuration from environment variables.
// Malformed values are ignored and the current value is kept.
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("TS_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TS_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if timeout := os.Getenv("TS_DB_QUERY_TIMEOUT"); timeout != "" {
		c.Database.QueryTimeout = ParseDurationWithFallback(timeout, c.Database.QueryTimeout)
	}
	if perms := os.Getenv("TS_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}

	// Validation configuration
	if d := os.Getenv("TS_VALIDATION_MAX_ENTRY_DURATION"); d != "" {
		c.Validation.MaxEntryDuration = ParseDurationWithFallback(d, c.Validation.MaxEntryDuration)
	}
	if s := os.Getenv("TS_VALIDATION_LATEST_START"); s != "" {
		c.Validation.LatestStart = ParseClockWithFallback(s, c.Validation.LatestStart)
	}
	if d := os.Getenv("TS_VALIDATION_MIN_BREAK"); d != "" {
		c.Validation.MinBreak = ParseDurationWithFallback(d, c.Validation.MinBreak)
	}
	if h := os.Getenv("TS_VALIDATION_DEFAULT_MAX_DAILY_HOURS"); h != "" {
		c.Validation.DefaultMaxDailyHours = ParseDecimalWithFallback(h, c.Validation.DefaultMaxDailyHours)
	}

	// Schedule configuration
	if s := os.Getenv("TS_SCHEDULE_MORNING_START"); s != "" {
		c.Schedule.MorningStart = ParseClockWithFallback(s, c.Schedule.MorningStart)
	}
	if s := os.Getenv("TS_SCHEDULE_MORNING_END"); s != "" {
		c.Schedule.MorningEnd = ParseClockWithFallback(s, c.Schedule.MorningEnd)
	}
	if s := os.Getenv("TS_SCHEDULE_AFTERNOON_START"); s != "" {
		c.Schedule.AfternoonStart = ParseClockWithFallback(s, c.Schedule.AfternoonStart)
	}
	if s := os.Getenv("TS_SCHEDULE_AFTERNOON_END"); s != "" {
		c.Schedule.AfternoonEnd = ParseClockWithFallback(s, c.Schedule.AfternoonEnd)
	}

	// Sync configuration
	if tol := os.Getenv("TS_SYNC_MATCH_TOLERANCE"); tol != "" {
		c.Sync.MatchTolerance = ParseDecimalWithFallback(tol, c.Sync.MatchTolerance)
	}
	if n := os.Getenv("TS_SYNC_CONCURRENCY"); n != "" {
		c.Sync.Concurrency = ParseIntWithFallback(n, c.Sync.Concurrency)
	}
	if d := os.Getenv("TS_SYNC_INTERVAL"); d != "" {
		c.Sync.Interval = ParseDurationWithFallback(d, c.Sync.Interval)
	}
	if b := os.Getenv("TS_SYNC_SCHEDULER_ENABLED"); b != "" {
		c.Sync.SchedulerEnabled = ParseBoolWithFallback(b, c.Sync.SchedulerEnabled)
	}
	if backend := os.Getenv("TS_SYNC_LOCK_BACKEND"); backend != "" {
		c.Sync.LockBackend = strings.ToLower(backend)
	}
	if addr := os.Getenv("TS_REDIS_ADDRESS"); addr != "" {
		c.Sync.RedisAddress = addr
	}
	if d := os.Getenv("TS_SYNC_LOCK_TTL"); d != "" {
		c.Sync.LockTTL = ParseDurationWithFallback(d, c.Sync.LockTTL)
	}

	// External source configuration
	if url := os.Getenv("TS_EXTERNAL_BASE_URL"); url != "" {
		c.External.BaseURL = strings.TrimRight(url, "/")
	}
	if key := os.Getenv("TS_EXTERNAL_API_KEY"); key != "" {
		c.External.APIKey = key
	}
	if header := os.Getenv("TS_EXTERNAL_API_KEY_HEADER"); header != "" {
		c.External.APIKeyHeader = header
	}
	if n := os.Getenv("TS_EXTERNAL_RATE_LIMIT_PER_MIN"); n != "" {
		c.External.RateLimitPerMin = ParseIntWithFallback(n, c.External.RateLimitPerMin)
	}
	if d := os.Getenv("TS_EXTERNAL_TIMEOUT"); d != "" {
		c.External.Timeout = ParseDurationWithFallback(d, c.External.Timeout)
	}

	// Server configuration
	if addr := os.Getenv("TS_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	// Logging configuration
	if level := os.Getenv("TS_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if format := os.Getenv("TS_LOG_FORMAT"); format != "" {
		c.Logging.Format = strings.ToLower(format)
	}

	// Application configuration
	if timeout := os.Getenv("TS_APP_TIMEOUT"); timeout != "" {
		c.Application.Timeout = ParseDurationWithFallback(timeout, c.Application.Timeout)
	}
	if env := os.Getenv("TS_ENV"); env != "" {
		c.Application.Environment = env
	}
	if verbose := os.Getenv("TS_APP_VERBOSE"); verbose != "" {
		c.Application.Verbose = ParseBoolWithFallback(verbose, c.Application.Verbose)
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate database configuration
	if c.Database.Dir == "" {
		return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
	}
	if c.Database.Filename == "" {
		return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
	}
	if c.Database.QueryTimeout <= 0 {
		return &ConfigError{Field: "database.query_timeout", Message: "query timeout must be positive"}
	}

	// Validate validation configuration
	if c.Validation.MaxEntryDuration <= 0 || c.Validation.MaxEntryDuration > 24*time.Hour {
		return &ConfigError{Field: "validation.max_entry_duration", Message: "max entry duration must be between 0 and 24h"}
	}
	if !c.Validation.LatestStart.Valid() {
		return &ConfigError{Field: "validation.latest_start", Message: "latest start must be a clock time"}
	}
	if c.Validation.MinBreak < 0 {
		return &ConfigError{Field: "validation.min_break", Message: "minimum break cannot be negative"}
	}
	if !c.Validation.DefaultMaxDailyHours.IsPositive() {
		return &ConfigError{Field: "validation.default_max_daily_hours", Message: "default max daily hours must be positive"}
	}

	// Validate schedule configuration
	if c.Schedule.MorningEnd <= c.Schedule.MorningStart {
		return &ConfigError{Field: "schedule.morning_end", Message: "morning end must be after morning start"}
	}
	if c.Schedule.AfternoonEnd <= c.Schedule.AfternoonStart {
		return &ConfigError{Field: "schedule.afternoon_end", Message: "afternoon end must be after afternoon start"}
	}

	// Validate sync configuration
	if c.Sync.MatchTolerance.IsNegative() {
		return &ConfigError{Field: "sync.match_tolerance", Message: "match tolerance cannot be negative"}
	}
	if c.Sync.Concurrency < 1 {
		return &ConfigError{Field: "sync.concurrency", Message: "sync concurrency must be at least 1"}
	}
	if c.Sync.Interval <= 0 {
		return &ConfigError{Field: "sync.interval", Message: "sync interval must be positive"}
	}
	switch c.Sync.LockBackend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Sync.RedisAddress == "" {
			return &ConfigError{Field: "sync.redis_address", Message: "redis address is required for the redis lock backend"}
		}
		if c.Sync.LockTTL <= 0 {
			return &ConfigError{Field: "sync.lock_ttl", Message: "lock ttl must be positive"}
		}
	default:
		return &ConfigError{Field: "sync.lock_backend", Message: "lock backend must be memory or redis"}
	}

	// Validate external source configuration
	if c.External.RateLimitPerMin < 0 {
		return &ConfigError{Field: "external.rate_limit_per_min", Message: "rate limit cannot be negative"}
	}
	if c.External.Timeout <= 0 {
		return &ConfigError{Field: "external.timeout", Message: "external timeout must be positive"}
	}

	// Validate logging configuration
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return &ConfigError{Field: "logging.format", Message: "log format must be json or text"}
	}

	// Validate application configuration
	if c.Application.Timeout <= 0 {
		return &ConfigError{Field: "application.timeout", Message: "application timeout must be positive"}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ParseClockWithFallback parses an HH:MM string with a fallback value
func ParseClockWithFallback(s string, fallback calendar.Clock) calendar.Clock {
	if c, err := calendar.ParseClock(s); err == nil {
		return c
	}
	return fallback
}

// ParseDecimalWithFallback parses a decimal string with a fallback value
func ParseDecimalWithFallback(s string, fallback decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(strings.TrimSpace(s)); err == nil {
		return d
	}
	return fallback
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}
