package config

import (
	"path/filepath"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyShareDefaults(&cfg.Share)
	applyWebDefaults(&cfg.Web)
	applyFastTransferDefaults(&cfg.FastTransfer, cfg.Web.Port)
	applyDropZoneDefaults(&cfg.DropZone)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyShareDefaults(cfg *ShareConfig) {
	if cfg.WatchDebounce == 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
}

func applyWebDefaults(cfg *WebConfig) {
	if cfg.Port == 0 {
		cfg.Port = 5000
	}
	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = 500
	}
	if cfg.RateLimit.RequestsPerSecond > 0 && cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = cfg.RateLimit.RequestsPerSecond * 2
	}
}

func applyFastTransferDefaults(cfg *FastTransferConfig, webPort int) {
	if cfg.Port == 0 {
		cfg.Port = webPort + 1
	}
	if cfg.ChunkSizeMB == 0 {
		cfg.ChunkSizeMB = 8
	}
	if cfg.SendBufferMB == 0 {
		cfg.SendBufferMB = 16
	}
	if cfg.RecvBufferMB == 0 {
		cfg.RecvBufferMB = 1
	}
	if cfg.PausePoll == 0 {
		cfg.PausePoll = 200 * time.Millisecond
	}
}

func applyDropZoneDefaults(cfg *DropZoneConfig) {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 10 * time.Minute
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = filepath.Join(getConfigDir(), "dropzone", "index")
	}
	if cfg.Store == "" {
		cfg.Store = "filesystem"
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}
}
