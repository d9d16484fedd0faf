// Package config handles application configuration loading from an optional
// env file and environment variables. It provides a centralized Config
// struct that is passed explicitly to every component.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is the env file read when ENV_FILE is not set.
const DefaultEnvFile = ".env.local"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string

	// PostgreSQL connection. DatabaseURL wins over the discrete fields.
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Valkey (Redis-compatible response cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	CacheTTL       time.Duration

	// AdminToken guards /api/admin. Empty disables the admin API.
	AdminToken string

	// S3-compatible storage for broker logos
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Outbound providers
	SearchAPIURL      string
	SearchAPIKey      string
	NewsAPIURL        string
	NewsAPIKey        string
	RegulatorFCAURL   string
	RegulatorCySECURL string
	RegulatorASICURL  string
	OutboundTimeout   time.Duration

	MetricsEnabled bool
}

// Load reads the env file named by ENV_FILE (default .env.local, silently
// skipped when missing) and then resolves every setting from the
// environment with development defaults. Variables already present in the
// environment take precedence over the file. Returns an error if critical
// values are missing in production mode.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if err := loadEnvFile(v.GetString("ENV_FILE")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:     v.GetString("APP_HOST"),
		Port:     v.GetString("APP_PORT"),
		Env:      v.GetString("APP_ENV"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBHost:      v.GetString("POSTGRES_HOST"),
		DBPort:      v.GetString("POSTGRES_PORT"),
		DBUser:      v.GetString("POSTGRES_USER"),
		DBPassword:  v.GetString("POSTGRES_PASSWORD"),
		DBName:      v.GetString("POSTGRES_DB"),

		ValkeyHost:     v.GetString("VALKEY_HOST"),
		ValkeyPort:     v.GetString("VALKEY_PORT"),
		ValkeyPassword: v.GetString("VALKEY_PASSWORD"),
		CacheTTL:       v.GetDuration("CACHE_TTL"),

		AdminToken: v.GetString("ADMIN_TOKEN"),

		S3Endpoint:  v.GetString("S3_ENDPOINT"),
		S3Region:    v.GetString("S3_REGION"),
		S3AccessKey: v.GetString("S3_ACCESS_KEY"),
		S3SecretKey: v.GetString("S3_SECRET_KEY"),
		S3Bucket:    v.GetString("S3_BUCKET"),
		S3PublicURL: v.GetString("S3_PUBLIC_URL"),

		SearchAPIURL:      v.GetString("SEARCH_API_URL"),
		SearchAPIKey:      v.GetString("SEARCH_API_KEY"),
		NewsAPIURL:        v.GetString("NEWS_API_URL"),
		NewsAPIKey:        v.GetString("NEWS_API_KEY"),
		RegulatorFCAURL:   v.GetString("REGULATOR_FCA_URL"),
		RegulatorCySECURL: v.GetString("REGULATOR_CYSEC_URL"),
		RegulatorASICURL:  v.GetString("REGULATOR_ASIC_URL"),
		OutboundTimeout:   v.GetDuration("OUTBOUND_TIMEOUT"),

		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers development defaults for every optional key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV_FILE", DefaultEnvFile)

	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "brokerscope")
	v.SetDefault("POSTGRES_PASSWORD", "changeme")
	v.SetDefault("POSTGRES_DB", "brokerscope")

	v.SetDefault("VALKEY_HOST", "localhost")
	v.SetDefault("VALKEY_PORT", "6379")
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("S3_REGION", "fsn1")
	v.SetDefault("S3_BUCKET", "brokerscope-logos")

	v.SetDefault("REGULATOR_FCA_URL", "https://register.fca.org.uk/s/search")
	v.SetDefault("REGULATOR_CYSEC_URL", "https://www.cysec.gov.cy/en-GB/entities/investment-firms/cypriot/")
	v.SetDefault("REGULATOR_ASIC_URL", "https://connectonline.asic.gov.au/RegistrySearch/faces/landing/SearchRegisters.jspx")
	v.SetDefault("OUTBOUND_TIMEOUT", "10s")

	v.SetDefault("METRICS_ENABLED", true)
}

// loadEnvFile exports the variables from path into the process environment
// without overriding anything already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// validate enforces the settings production cannot run without.
func (c *Config) validate() error {
	if c.Env != "production" {
		return nil
	}
	var missing []string
	if c.DatabaseURL == "" && c.DBPassword == "changeme" {
		missing = append(missing, "POSTGRES_PASSWORD or DATABASE_URL")
	}
	if c.AdminToken == "" {
		missing = append(missing, "ADMIN_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s must be set in production", strings.Join(missing, ", "))
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// S3Configured reports whether logo uploads can be enabled.
func (c *Config) S3Configured() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
