// ABOUTME: Configuration loading and parsing for lifeos
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/2389/lifeos/internal/offline"
)

// Config represents the complete lifeos configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Cache     CacheConfig     `yaml:"cache" toml:"cache"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr" toml:"http_addr"`
	ShutdownTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	ShutdownTimeoutRaw string `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname" validate:"required_if=Enabled true"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
}

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig holds key-value storage configuration
type DatabaseConfig struct {
	Driver     string `yaml:"driver" toml:"driver" validate:"oneof=sqlite postgres"`
	Path       string `yaml:"path" toml:"path" validate:"required_if=Driver sqlite"`
	DSN        string `yaml:"dsn" toml:"dsn" validate:"required_if=Driver postgres"`
	QuotaBytes int64  `yaml:"quota_bytes" toml:"quota_bytes" validate:"gte=0"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret" validate:"omitempty,min=32"`
}

// CacheConfig holds static content cache configuration
type CacheConfig struct {
	Name   string   `yaml:"name" toml:"name" validate:"required"`
	Origin string   `yaml:"origin" toml:"origin" validate:"omitempty,url"`
	Dir    string   `yaml:"dir" toml:"dir"`
	Assets []string `yaml:"assets" toml:"assets" validate:"dive,startswith=/"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" toml:"format" validate:"omitempty,oneof=text json"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path" validate:"omitempty,startswith=/"`
}

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 5 * time.Second

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded and
// LIFEOS_DB_PATH, when set, overrides database.path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	return Parse(data, format)
}

// Parse decodes configuration data in the given format ("yaml" or "toml").
func Parse(data []byte, format string) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", format)
	}

	if p := os.Getenv("LIFEOS_DB_PATH"); p != "" {
		cfg.Database.Path = p
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" && !c.Tailscale.Enabled {
		c.Server.HTTPAddr = "127.0.0.1:8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
		c.Server.ShutdownTimeoutRaw = DefaultShutdownTimeout.String()
	}
	if c.Tailscale.Enabled && c.Tailscale.StateDir == "" {
		c.Tailscale.StateDir = filepath.Join(DataDir(), "tsnet")
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = filepath.Join(DataDir(), "lifeos.db")
	}

	if c.Cache.Name == "" {
		c.Cache.Name = offline.DefaultName
	}
	if len(c.Cache.Assets) == 0 {
		c.Cache.Assets = append([]string(nil), offline.DefaultAssets...)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", field)
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s characters", field, fe.Param())
	case "startswith":
		return fmt.Errorf("%s must start with %q", field, fe.Param())
	case "url":
		return fmt.Errorf("%s must be a valid URL", field)
	default:
		return fmt.Errorf("%s is invalid (%s)", field, fe.Tag())
	}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
		if cfg.Server.ShutdownTimeout <= 0 {
			return fmt.Errorf("shutdown_timeout must be positive, got %q", cfg.Server.ShutdownTimeoutRaw)
		}
	}

	return nil
}

// Path returns the path to the config file.
// Priority: LIFEOS_CONFIG env var > XDG_CONFIG_HOME/lifeos/lifeos.yaml > ~/.config/lifeos/lifeos.yaml
func Path() string {
	if envPath := os.Getenv("LIFEOS_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "lifeos.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "lifeos", "lifeos.yaml")
}

// DataDir returns the lifeos data directory.
// Priority: XDG_DATA_HOME/lifeos > ~/.local/share/lifeos
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data"
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "lifeos")
}
