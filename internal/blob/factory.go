// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package blob

import (
	"context"
	"path/filepath"

	"github.com/tomtom215/dietscope/internal/config"
)

// Open builds the configured store and wraps it with metrics.
//
// For the filesystem driver blobs live under <root>/<container>. For S3
// the bucket plays the container's role.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.StorageMemory:
		s = NewMemory()
	case config.StorageFS:
		root := cfg.FSRootDir()
		if root == "" {
			return nil, config.Errorf("STORAGE_FS_ROOT", "is required when STORAGE_DRIVER=fs")
		}
		s, err = NewFilesystem(filepath.Join(root, cfg.Container))
	case config.StorageS3:
		bucket := cfg.S3BucketName()
		if bucket == "" {
			return nil, config.Errorf("S3_BUCKET", "is required when STORAGE_DRIVER=s3")
		}
		s, err = NewS3(ctx, S3Config{
			Region:          cfg.S3Region,
			Bucket:          bucket,
			Endpoint:        cfg.S3EndpointURL(),
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			PathStyle:       cfg.S3PathStyle,
		})
	default:
		return nil, config.Errorf("STORAGE_DRIVER", "unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}
