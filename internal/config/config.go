package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"autobill/internal/billing"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "BILLING"

// ConfigFileEnv names the variable holding an optional YAML config file.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// Config represents the complete application configuration. Billing
// settings are read without a section name (BILLING_PERCENTILE), the other
// sections as BILLING_<SECTION>_<FIELD>.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Billing   BillingConfig   `yaml:"billing" ignored:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// BillingConfig holds the settings of the percentile computation.
type BillingConfig struct {
	// Percentile accepts p-notation (p95) or a decimal level (0.95).
	Percentile        string        `yaml:"percentile" envconfig:"PERCENTILE"`
	DefaultOutputName string        `yaml:"default_output_name" envconfig:"DEFAULT_OUTPUT_NAME"`
	MaxUploadBytes    int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	SessionTTL        time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL"`
	SweepInterval     time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL"`
	// Timezone is used for timestamps written without a zone.
	Timezone string `yaml:"timezone" envconfig:"TIMEZONE"`
}

// Level returns the parsed quantile level.
func (b BillingConfig) Level() (float64, error) {
	return billing.ParseLevel(b.Percentile)
}

// Location returns the configured time zone.
func (b BillingConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(b.Timezone)
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	ServiceVersion string `yaml:"service_version" envconfig:"SERVICE_VERSION"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, then the YAML file named by
// BILLING_CONFIG_FILE if set, then BILLING_* environment variables. Later
// sources win.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg.Billing); err != nil {
		return nil, fmt.Errorf("failed to load billing config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg. Keys absent from
// the file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive")
	}

	if _, err := c.Billing.Level(); err != nil {
		return fmt.Errorf("invalid percentile: %w", err)
	}

	if _, err := c.Billing.Location(); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}

	if c.Billing.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if c.Billing.SessionTTL < 0 {
		return fmt.Errorf("session ttl must not be negative")
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/billing.log"
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/billing.log",
		},
		Billing: BillingConfig{
			Percentile:        "p95",
			DefaultOutputName: "Traffic_xxx_xxx_25",
			MaxUploadBytes:    64 << 20, // 64MB
			SessionTTL:        2 * time.Hour,
			SweepInterval:     5 * time.Minute,
			Timezone:          "UTC",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "autobill",
			ServiceVersion: "dev",
			Environment:    "development",
			TracingEnabled: false,
			MetricsEnabled: true,
		},
	}
}
