// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase   = "sqlite"
	PostgresDatabase = "postgres"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabasePath         string `mapstructure:"storagepath"`
	DatabaseURL          string `mapstructure:"databaseurl"`
	DatabaseName         string `mapstructure:"-"` // Derived from other settings
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Event store access
	StoreTimeoutSeconds     int `mapstructure:"storetimeoutseconds"`
	BreakerFailureThreshold int `mapstructure:"breakerfailurethreshold"`
	BreakerOpenSeconds      int `mapstructure:"breakeropenseconds"`

	// Daily digest
	DigestEnabled bool   `mapstructure:"digestenabled"`
	DigestCron    string `mapstructure:"digestcron"`

	// Report settings
	DailyQuestionCeiling int `mapstructure:"dailyquestionceiling"`
	CategoryCeiling      int `mapstructure:"categoryceiling"`
	DefaultTopK          int `mapstructure:"defaulttopk"`
	DefaultRangeDays     int `mapstructure:"defaultrangedays"`
	MaxRangeDays         int `mapstructure:"maxrangedays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		loaded, err := Load()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	})
	return cfg
}

// Load reads the configuration from the environment (and a .env file when one
// is present) without caching it.
func Load() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("appname", "medinsight")
	v.SetDefault("appport", "3000")
	v.SetDefault("environment", Development)
	v.SetDefault("loglevel", string(LogLevelDebug))
	v.SetDefault("logsdir", "logs")
	v.SetDefault("logsmaxsizeinmb", 20)
	v.SetDefault("logsmaxbackups", 10)
	v.SetDefault("logsmaxageindays", 30)
	v.SetDefault("dbtype", SQLiteDatabase)
	v.SetDefault("storagepath", "storage")
	v.SetDefault("databaseurl", "")
	v.SetDefault("dbmaxopenconns", 0)
	v.SetDefault("dbmaxidleconns", 0)
	v.SetDefault("storetimeoutseconds", 5)
	v.SetDefault("breakerfailurethreshold", 5)
	v.SetDefault("breakeropenseconds", 30)
	v.SetDefault("digestenabled", true)
	v.SetDefault("digestcron", "0 21 * * *")
	v.SetDefault("dailyquestionceiling", 500)
	v.SetDefault("categoryceiling", 20)
	v.SetDefault("defaulttopk", 10)
	v.SetDefault("defaultrangedays", 30)
	v.SetDefault("maxrangedays", 366)

	v.BindEnv("appname", "MEDINSIGHT_APP_NAME")
	v.BindEnv("appport", "MEDINSIGHT_APP_PORT")
	v.BindEnv("environment", "MEDINSIGHT_ENV")
	v.BindEnv("loglevel", "MEDINSIGHT_LOG_LEVEL")
	v.BindEnv("logsdir", "MEDINSIGHT_LOGS_DIR")
	v.BindEnv("logsmaxsizeinmb", "MEDINSIGHT_LOGS_MAX_SIZE_IN_MB")
	v.BindEnv("logsmaxbackups", "MEDINSIGHT_LOGS_MAX_BACKUPS")
	v.BindEnv("logsmaxageindays", "MEDINSIGHT_LOGS_MAX_AGE_IN_DAYS")
	v.BindEnv("dbtype", "MEDINSIGHT_DB_TYPE")
	v.BindEnv("storagepath", "MEDINSIGHT_STORAGE_PATH")
	v.BindEnv("databaseurl", "MEDINSIGHT_DATABASE_URL")
	v.BindEnv("dbmaxopenconns", "MEDINSIGHT_DB_MAX_OPEN_CONNS")
	v.BindEnv("dbmaxidleconns", "MEDINSIGHT_DB_MAX_IDLE_CONNS")
	v.BindEnv("storetimeoutseconds", "MEDINSIGHT_STORE_TIMEOUT_SECONDS")
	v.BindEnv("breakerfailurethreshold", "MEDINSIGHT_BREAKER_FAILURE_THRESHOLD")
	v.BindEnv("breakeropenseconds", "MEDINSIGHT_BREAKER_OPEN_SECONDS")
	v.BindEnv("digestenabled", "MEDINSIGHT_DIGEST_ENABLED")
	v.BindEnv("digestcron", "MEDINSIGHT_DIGEST_CRON")
	v.BindEnv("dailyquestionceiling", "MEDINSIGHT_DAILY_QUESTION_CEILING")
	v.BindEnv("categoryceiling", "MEDINSIGHT_CATEGORY_CEILING")
	v.BindEnv("defaulttopk", "MEDINSIGHT_DEFAULT_TOP_K")
	v.BindEnv("defaultrangedays", "MEDINSIGHT_DEFAULT_RANGE_DAYS")
	v.BindEnv("maxrangedays", "MEDINSIGHT_MAX_RANGE_DAYS")

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Set derived values
	c.DatabaseName = c.GetDatabasePath()

	return c, nil
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validDBTypes := map[string]bool{
		SQLiteDatabase:   true,
		PostgresDatabase: true,
	}
	if !validDBTypes[c.DatabaseType] {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}
	if c.DatabaseType == PostgresDatabase && c.DatabaseURL == "" {
		return fmt.Errorf("database type %s requires MEDINSIGHT_DATABASE_URL", PostgresDatabase)
	}

	if c.StoreTimeoutSeconds <= 0 {
		return fmt.Errorf("store timeout must be positive, got %d", c.StoreTimeoutSeconds)
	}
	if c.BreakerFailureThreshold <= 0 {
		return fmt.Errorf("breaker failure threshold must be positive, got %d", c.BreakerFailureThreshold)
	}
	if c.DefaultTopK <= 0 || c.DefaultRangeDays <= 0 {
		return fmt.Errorf("default top-k and range days must be positive")
	}
	if c.MaxRangeDays < c.DefaultRangeDays+1 {
		return fmt.Errorf("max range days (%d) must cover the default range of %d days", c.MaxRangeDays, c.DefaultRangeDays)
	}

	if c.DigestEnabled {
		if _, err := cron.ParseStandard(c.DigestCron); err != nil {
			return fmt.Errorf("invalid digest cron spec %q: %w", c.DigestCron, err)
		}
	}

	return nil
}

// GetDatabasePath returns the sqlite file path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// DatabaseDSN returns the connection string for the configured database type.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseType == PostgresDatabase {
		return c.DatabaseURL
	}
	return c.GetDatabasePath()
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// StoreTimeout is the upper bound for a single fetch from the event store.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// BreakerOpenTimeout is how long the store breaker stays open before probing.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenSeconds) * time.Second
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10 (bundles of the dashboard fetch concurrently)
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
