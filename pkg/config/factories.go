package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mitchellh/mapstructure"

	"github.com/lansend/lansend/internal/dropzone"
)

// FilesystemStoreConfig holds the filesystem drop store options.
type FilesystemStoreConfig struct {
	// Path is the directory drop content is written to.
	Path string `mapstructure:"path"`
}

// S3StoreConfig holds the S3 drop store options.
type S3StoreConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// NewDropStore builds the drop zone content store selected by cfg.Store,
// decoding the matching type-specific options section.
func NewDropStore(ctx context.Context, cfg DropZoneConfig) (dropzone.Store, error) {
	switch cfg.Store {
	case "filesystem":
		return newFilesystemDropStore(cfg)
	case "s3":
		return newS3DropStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown drop store type %q (valid: filesystem, s3)", cfg.Store)
	}
}

func newFilesystemDropStore(cfg DropZoneConfig) (dropzone.Store, error) {
	var storeCfg FilesystemStoreConfig
	if err := mapstructure.Decode(cfg.Filesystem, &storeCfg); err != nil {
		return nil, fmt.Errorf("invalid filesystem drop store config: %w", err)
	}

	if storeCfg.Path == "" {
		storeCfg.Path = filepath.Join(filepath.Dir(cfg.IndexPath), "content")
	}

	return dropzone.NewFSStore(storeCfg.Path)
}

func newS3DropStore(ctx context.Context, cfg DropZoneConfig) (dropzone.Store, error) {
	var storeCfg S3StoreConfig
	if err := mapstructure.Decode(cfg.S3, &storeCfg); err != nil {
		return nil, fmt.Errorf("invalid s3 drop store config: %w", err)
	}

	return dropzone.NewS3Store(ctx, dropzone.S3Config{
		Bucket:          storeCfg.Bucket,
		Region:          storeCfg.Region,
		KeyPrefix:       storeCfg.KeyPrefix,
		Endpoint:        storeCfg.Endpoint,
		AccessKeyID:     storeCfg.AccessKeyID,
		SecretAccessKey: storeCfg.SecretAccessKey,
	})
}
