package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete lansend configuration.
//
// Configuration sources, in order of precedence:
//  1. CLI flags (highest priority)
//  2. Environment variables (LANSEND_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains server-wide settings.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Share controls the shared directory and its change watcher.
	Share ShareConfig `mapstructure:"share" yaml:"share"`

	// Web configures the JSON control API server.
	Web WebConfig `mapstructure:"web" yaml:"web"`

	// FastTransfer configures the raw-socket transfer server.
	FastTransfer FastTransferConfig `mapstructure:"fast_transfer" yaml:"fast_transfer"`

	// DropZone configures the receive-side drop box.
	DropZone DropZoneConfig `mapstructure:"dropzone" yaml:"dropzone"`

	// Metrics controls the Prometheus endpoint.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Firewall controls host firewall provisioning at startup.
	Firewall FirewallConfig `mapstructure:"firewall" yaml:"firewall"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// ShareConfig controls what is shared and how changes are noticed.
type ShareConfig struct {
	// Directory is the initially shared directory. Empty means the user's
	// Downloads directory, falling back to the working directory.
	Directory string `mapstructure:"directory" yaml:"directory"`

	// Watch enables the filesystem watcher over the shared directory.
	Watch bool `mapstructure:"watch" yaml:"watch"`

	// WatchDebounce collapses bursts of filesystem events into one
	// notification.
	WatchDebounce time.Duration `mapstructure:"watch_debounce" yaml:"watch_debounce"`
}

// WebConfig configures the control API server.
type WebConfig struct {
	// Port for the web API.
	Port int `mapstructure:"port" yaml:"port" validate:"required,min=1,max=65535"`

	// MaxUploadMB caps a single upload, in megabytes.
	MaxUploadMB int64 `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"min=0"`

	// RateLimit throttles API requests per client. Zero disables it.
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             uint `mapstructure:"burst" yaml:"burst"`
}

// FastTransferConfig configures the raw-socket transfer server.
type FastTransferConfig struct {
	// Port for the fast transfer listener. Zero means web port + 1.
	Port int `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	// ChunkSizeMB bounds each streaming iteration, in megabytes.
	ChunkSizeMB int64 `mapstructure:"chunk_size_mb" yaml:"chunk_size_mb" validate:"min=0"`

	// SendBufferMB sizes the kernel socket send buffer, in megabytes.
	SendBufferMB int `mapstructure:"send_buffer_mb" yaml:"send_buffer_mb" validate:"min=0"`

	// RecvBufferMB sizes the kernel socket receive buffer, in megabytes.
	RecvBufferMB int `mapstructure:"recv_buffer_mb" yaml:"recv_buffer_mb" validate:"min=0"`

	// PausePoll is how long a paused stream sleeps between status checks.
	PausePoll time.Duration `mapstructure:"pause_poll" yaml:"pause_poll"`
}

// DropZoneConfig configures the receive-side drop box.
//
// The Store field selects the content backend; only the matching
// type-specific section is used.
type DropZoneConfig struct {
	// Enabled turns the drop zone endpoints on.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// TTL is how long an unclaimed drop is kept. Zero keeps drops until
	// explicitly removed.
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`

	// SweepInterval is how often expired drops are pruned.
	SweepInterval time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`

	// IndexPath is the directory for the drop metadata database.
	IndexPath string `mapstructure:"index_path" yaml:"index_path"`

	// Store selects the content backend: filesystem or s3.
	Store string `mapstructure:"store" yaml:"store" validate:"omitempty,oneof=filesystem s3"`

	// Filesystem holds filesystem backend options. Used when Store is
	// "filesystem".
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// S3 holds S3 backend options. Used when Store is "s3".
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// FirewallConfig controls host firewall provisioning.
type FirewallConfig struct {
	// Manage opens the web and fast transfer ports in the host firewall at
	// startup. Only meaningful on platforms that block LAN inbound by
	// default.
	Manage bool `mapstructure:"manage" yaml:"manage"`
}

// Load reads configuration from file and environment, applies defaults, and
// validates the result.
//
// An empty configPath uses the default location under the user config
// directory; a missing file there is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable support and the config file
// search path.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the LANSEND_ prefix with underscores.
	// Example: LANSEND_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("LANSEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file means defaults, not failure.
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory: $XDG_CONFIG_HOME/lansend,
// ~/.config/lansend, or the working directory as a last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "lansend")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "lansend")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
