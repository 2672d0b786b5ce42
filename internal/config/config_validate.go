// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/dietscope/internal/validation"
)

// ErrConfiguration marks missing or invalid connection settings. It is
// fatal at startup and surfaces as HTTP 500 when hit lazily at request time.
var ErrConfiguration = errors.New("configuration error")

// Error is a configuration problem tied to the setting that caused it.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	if e.Setting == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *Error) Unwrap() error { return ErrConfiguration }

// Errorf builds a configuration error for setting.
func Errorf(setting, format string, args ...interface{}) error {
	return &Error{Setting: setting, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks struct rules first, then cross-field requirements.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return &Error{Reason: verr.Error()}
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	if err := c.validateRefresh(); err != nil {
		return err
	}
	return c.validateNATS()
}

func (c *Config) validateStorage() error {
	s := c.Storage
	for setting, name := range map[string]string{"RAW_BLOB": s.RawBlob, "CLEAN_BLOB": s.CleanBlob, "CACHE_BLOB": s.CacheBlob} {
		if !validation.IsBlobName(name) {
			return Errorf(setting, "must be a relative blob name, got %q", name)
		}
	}
	if s.Driver == StorageS3 && s.S3BucketName() == "" {
		return Errorf("S3_BUCKET", "is required when STORAGE_DRIVER=s3 (or set STORAGE_CONNECTION=s3://bucket)")
	}
	if s.Driver == StorageFS && s.FSRootDir() == "" {
		return Errorf("STORAGE_FS_ROOT", "is required when STORAGE_DRIVER=fs")
	}
	return nil
}

func (c *Config) validateDocuments() error {
	d := c.Documents
	switch d.Driver {
	case DocumentsPostgres:
		if d.URL == "" {
			return Errorf("COSMOS_URL", "is required when COSMOS_DRIVER=postgres")
		}
	case DocumentsSQLite, DocumentsDuckDB, DocumentsBadger:
		if d.URL == "" {
			return Errorf("COSMOS_URL", "is required when COSMOS_DRIVER=%s", d.Driver)
		}
	}
	if d.BreakerTimeout < 0 {
		return Errorf("COSMOS_BREAKER_TIMEOUT", "must not be negative")
	}
	return nil
}

func (c *Config) validateRefresh() error {
	if c.Refresh.PollEnabled && c.Refresh.PollInterval <= 0 {
		return Errorf("REFRESH_POLL_INTERVAL", "must be positive when REFRESH_POLL_ENABLED=true")
	}
	if c.Refresh.DedupTTL < 0 {
		return Errorf("REFRESH_DEDUP_TTL", "must not be negative")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !c.NATS.EmbeddedServer && c.NATS.URL == "" {
		return Errorf("NATS_URL", "is required when NATS_ENABLED=true and NATS_EMBEDDED=false")
	}
	if c.NATS.DurableName == "" {
		return Errorf("NATS_DURABLE_NAME", "is required when NATS_ENABLED=true")
	}
	return nil
}

// S3BucketName resolves the bucket from S3_BUCKET or an s3://bucket connection.
func (s StorageConfig) S3BucketName() string {
	if s.S3Bucket != "" {
		return s.S3Bucket
	}
	if u, err := url.Parse(s.Connection); err == nil && u.Scheme == "s3" {
		return u.Host
	}
	return ""
}

// S3EndpointURL resolves a custom endpoint from S3_ENDPOINT or an http(s)
// connection string.
func (s StorageConfig) S3EndpointURL() string {
	if s.S3Endpoint != "" {
		return s.S3Endpoint
	}
	if strings.HasPrefix(s.Connection, "http://") || strings.HasPrefix(s.Connection, "https://") {
		return s.Connection
	}
	return ""
}

// FSRootDir resolves the filesystem root from the connection string or STORAGE_FS_ROOT.
func (s StorageConfig) FSRootDir() string {
	if s.Connection != "" && !strings.Contains(s.Connection, "://") && !strings.Contains(s.Connection, "=") {
		return s.Connection
	}
	return s.FSRoot
}
