// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar points at an explicit YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/dietscope/config.yaml",
}

// DefaultBlobContainer is the container the Azure Functions deployment used.
const DefaultBlobContainer = "app-package-diet-analysis-function-app-213f2b9"

// sliceConfigPaths are accepted as comma-separated strings from the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// Default returns the built-in configuration without reading the file or
// the environment.
func Default() *Config { return defaultConfig() }

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "production",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Storage: StorageConfig{
			Driver:    StorageFS,
			Container: DefaultBlobContainer,
			FSRoot:    "./data",
			S3Region:  "us-east-1",
			RawBlob:   "All_Diets.csv",
			CleanBlob: "All_Diets_clean.csv",
			CacheBlob: "cache/analysis_cache.json",
		},
		Documents: DocumentsConfig{
			Driver:           DocumentsSQLite,
			URL:              "./data/dietdb.sqlite",
			Database:         "dietdb",
			CacheContainer:   "analysis_cache",
			CacheID:          "latest",
			PartitionKey:     "analysis",
			RecipesContainer: "recipes",
			BreakerFailures:  5,
			BreakerTimeout:   30 * time.Second,
		},
		Refresh: RefreshConfig{
			PollEnabled:  true,
			PollInterval: 30 * time.Second,
			DedupTTL:     time.Minute,
			Topic:        "diets.source.changed",
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "./data/nats",
			DurableName:    "dietscope-refresh",
			QueueGroup:     "dietscope",
		},
	}
}

// Load reads configuration from defaults, the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok || raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// Unmapped variables are ignored so unrelated environment never leaks in.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Blob storage
	"storage_driver":      "storage.driver",
	"storage_connection":  "storage.connection",
	"azurewebjobsstorage": "storage.connection",
	"storage_container":   "storage.container",
	"storage_fs_root":     "storage.fs_root",
	"s3_region":           "storage.s3_region",
	"s3_bucket":           "storage.s3_bucket",
	"s3_endpoint":         "storage.s3_endpoint",
	"s3_path_style":       "storage.s3_path_style",
	"s3_access_key":       "storage.s3_access_key",
	"s3_secret_key":       "storage.s3_secret_key",
	"raw_blob":            "storage.raw_blob",
	"clean_blob":          "storage.clean_blob",
	"cache_blob":          "storage.cache_blob",

	// Document store (names kept from the Cosmos DB deployment)
	"cosmos_driver":            "documents.driver",
	"cosmos_url":               "documents.url",
	"cosmos_key":               "documents.key",
	"cosmos_db":                "documents.database",
	"cosmos_db_name":           "documents.database",
	"cosmos_container":         "documents.cache_container",
	"cosmos_cache_id":          "documents.cache_id",
	"cosmos_partition_key":     "documents.partition_key",
	"cosmos_recipes_container": "documents.recipes_container",
	"cosmos_breaker_failures":  "documents.breaker_failures",
	"cosmos_breaker_timeout":   "documents.breaker_timeout",

	// Refresh
	"refresh_poll_enabled":  "refresh.poll_enabled",
	"refresh_poll_interval": "refresh.poll_interval",
	"refresh_dedup_ttl":     "refresh.dedup_ttl",
	"refresh_topic":         "refresh.topic",

	// NATS
	"nats_enabled":      "nats.enabled",
	"nats_url":          "nats.url",
	"nats_embedded":     "nats.embedded_server",
	"nats_store_dir":    "nats.store_dir",
	"nats_durable_name": "nats.durable_name",
	"nats_queue_group":  "nats.queue_group",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
