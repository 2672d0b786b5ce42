// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

// Package config loads DietScope configuration from defaults, an optional
// YAML file and environment variables (highest priority), using Koanf v2.
//
// Environment variable names follow the Azure Functions app settings
// (COSMOS_*, AzureWebJobsStorage) so existing app settings carry over.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
	Storage   StorageConfig   `koanf:"storage"`
	Documents DocumentsConfig `koanf:"documents"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	NATS      NATSConfig      `koanf:"nats"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout" validate:"min=0s"`
	Environment string        `koanf:"environment" validate:"oneof=development staging production test"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds CORS and rate limit settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"min=1s"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
)

// StorageConfig describes the blob tier: where the raw and cleaned CSVs and
// the fallback cache JSON live.
type StorageConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory fs s3"`

	// Connection is the storage connection identifier. For fs it is the root
	// directory; for s3 it is either s3://bucket or an endpoint URL.
	Connection string `koanf:"connection"`

	// Container is the directory (fs) or key prefix (s3) holding the blobs.
	Container string `koanf:"container" validate:"required"`

	FSRoot string `koanf:"fs_root"`

	S3Region    string `koanf:"s3_region"`
	S3Bucket    string `koanf:"s3_bucket"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3PathStyle bool   `koanf:"s3_path_style"`
	S3AccessKey string `koanf:"s3_access_key"`
	S3SecretKey string `koanf:"s3_secret_key"`

	RawBlob   string `koanf:"raw_blob" validate:"required"`
	CleanBlob string `koanf:"clean_blob" validate:"required"`
	CacheBlob string `koanf:"cache_blob" validate:"required"`
}

// Document store drivers.
const (
	DocumentsMemory   = "memory"
	DocumentsSQLite   = "sqlite"
	DocumentsPostgres = "postgres"
	DocumentsDuckDB   = "duckdb"
	DocumentsBadger   = "badger"
)

// DocumentsConfig describes the document database holding the cache
// document and the recipe index.
type DocumentsConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory sqlite postgres duckdb badger"`

	// URL is the database endpoint: a DSN for postgres, a file path for
	// sqlite/duckdb, a directory for badger.
	URL string `koanf:"url"`

	// Key is the database credential. For postgres it is injected as the
	// connection password when the DSN has none.
	Key string `koanf:"key"`

	Database         string `koanf:"database" validate:"required"`
	CacheContainer   string `koanf:"cache_container" validate:"required"`
	CacheID          string `koanf:"cache_id" validate:"required"`
	PartitionKey     string `koanf:"partition_key" validate:"required"`
	RecipesContainer string `koanf:"recipes_container" validate:"required"`

	BreakerFailures uint32        `koanf:"breaker_failures" validate:"min=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// RefreshConfig controls how source changes are detected and deduplicated.
type RefreshConfig struct {
	PollEnabled  bool          `koanf:"poll_enabled"`
	PollInterval time.Duration `koanf:"poll_interval"`
	DedupTTL     time.Duration `koanf:"dedup_ttl"`
	Topic        string        `koanf:"topic" validate:"required"`
}

// NATSConfig holds NATS JetStream settings. When disabled, refresh events
// travel over an in-process Go channel pub/sub.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	DurableName    string `koanf:"durable_name"`
	QueueGroup     string `koanf:"queue_group"`
}
