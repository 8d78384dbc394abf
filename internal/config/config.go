// Package config provides YAML-based configuration management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Retention RetentionConfig `mapstructure:"retention" yaml:"retention"`
	Report    ReportConfig    `mapstructure:"report" yaml:"report"`
	Security  SecurityConfig  `mapstructure:"security" yaml:"security"`
	Advanced  AdvancedConfig  `mapstructure:"advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int    `mapstructure:"port" yaml:"port"`
	BindAddress    string `mapstructure:"bind_address" yaml:"bind_address"`
	EnableCORS     bool   `mapstructure:"enable_cors" yaml:"enable_cors"`
	AllowOrigins   string `mapstructure:"allow_origins" yaml:"allow_origins"`
	ReadTimeout    int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeout   int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	IdleTimeout    int    `mapstructure:"idle_timeout_seconds" yaml:"idle_timeout_seconds"`
	RequestTimeout int    `mapstructure:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	BodyLimit      string `mapstructure:"body_limit" yaml:"body_limit"`
}

// StorageConfig selects where raw files, reports and records live
type StorageConfig struct {
	DataDirectory string      `mapstructure:"data_directory" yaml:"data_directory"`
	BlobDirectory string      `mapstructure:"blob_directory" yaml:"blob_directory"`
	DatabasePath  string      `mapstructure:"database_path" yaml:"database_path"`
	Backend       string      `mapstructure:"backend" yaml:"backend"` // local or minio
	Minio         MinioConfig `mapstructure:"minio" yaml:"minio"`
}

// MinioConfig contains S3-compatible object storage settings
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
}

// Retention modes.
const (
	RetentionEvict  = "evict"
	RetentionReject = "reject"
)

// RetentionConfig bounds how many datasets each owner keeps
type RetentionConfig struct {
	DefaultLimit int          `mapstructure:"default_limit" yaml:"default_limit"`
	MaxLimit     int          `mapstructure:"max_limit" yaml:"max_limit"`
	Mode         string       `mapstructure:"mode" yaml:"mode"`
	OwnerLimits  []OwnerLimit `mapstructure:"owner_limits" yaml:"owner_limits"`
}

// OwnerLimit overrides the default limit for one owner.
// A list keeps owner ids case-sensitive; viper lowercases map keys.
type OwnerLimit struct {
	Owner string `mapstructure:"owner" yaml:"owner"`
	Limit int    `mapstructure:"limit" yaml:"limit"`
}

// ReportConfig contains document rendering settings
type ReportConfig struct {
	Title       string `mapstructure:"title" yaml:"title"`
	PageSize    string `mapstructure:"page_size" yaml:"page_size"`
	ChartWidth  int    `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int    `mapstructure:"chart_height" yaml:"chart_height"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowDatasetDeletion bool   `mapstructure:"allow_dataset_deletion" yaml:"allow_dataset_deletion"`
	RequireAuth          bool   `mapstructure:"require_authentication" yaml:"require_authentication"`
	AuthToken            string `mapstructure:"auth_token" yaml:"auth_token"`
	OwnerHeader          string `mapstructure:"owner_header" yaml:"owner_header"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `mapstructure:"log_level" yaml:"log_level"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging" yaml:"enable_request_logging"`
	EnableMetrics        bool   `mapstructure:"enable_metrics" yaml:"enable_metrics"`
	DuckDBThreads        int    `mapstructure:"duckdb_threads" yaml:"duckdb_threads"`
	DuckDBMemoryLimit    string `mapstructure:"duckdb_memory_limit" yaml:"duckdb_memory_limit"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:           8000,
			BindAddress:    "0.0.0.0",
			EnableCORS:     true,
			AllowOrigins:   "*",
			ReadTimeout:    30,
			WriteTimeout:   60,
			IdleTimeout:    120,
			RequestTimeout: 60,
			BodyLimit:      "20M",
		},
		Storage: StorageConfig{
			DataDirectory: "./data",
			BlobDirectory: "./data/blobs",
			DatabasePath:  "./data/datasets.duckdb",
			Backend:       "local",
			Minio: MinioConfig{
				Endpoint: "localhost:9000",
				Bucket:   "equipment-datasets",
			},
		},
		Retention: RetentionConfig{
			DefaultLimit: 5,
			MaxLimit:     100,
			Mode:         RetentionEvict,
		},
		Report: ReportConfig{
			Title:       "Chemical Equipment Parameter Report",
			PageSize:    "Letter",
			ChartWidth:  800,
			ChartHeight: 400,
		},
		Security: SecurityConfig{
			AllowDatasetDeletion: true,
			OwnerHeader:          "X-Owner-ID",
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableMetrics:        true,
			DuckDBThreads:        2,
			DuckDBMemoryLimit:    "512MB",
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is
// created with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		v := viper.New()
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()
	cfg.resolvePaths(filepath.Dir(configPath))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := []byte("# Chemical Equipment Visualizer configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.BlobDirectory = filepath.Join(dataDir, "blobs")
		c.Storage.DatabasePath = filepath.Join(dataDir, "datasets.duckdb")
	}
	if dbPath := os.Getenv("DUCKDB_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		c.Storage.Minio.Endpoint = endpoint
	}
	if ak := os.Getenv("MINIO_ACCESS_KEY"); ak != "" {
		c.Storage.Minio.AccessKey = ak
	}
	if sk := os.Getenv("MINIO_SECRET_KEY"); sk != "" {
		c.Storage.Minio.SecretKey = sk
	}
	if token := os.Getenv("AUTH_TOKEN"); token != "" {
		c.Security.AuthToken = token
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.BlobDirectory,
		&c.Storage.DatabasePath,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *AppConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case "local":
	case "minio":
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("minio backend requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Retention.DefaultLimit < 1 {
		return fmt.Errorf("retention default_limit must be at least 1, got %d", c.Retention.DefaultLimit)
	}
	if c.Retention.MaxLimit < c.Retention.DefaultLimit {
		return fmt.Errorf("retention max_limit %d is below default_limit %d", c.Retention.MaxLimit, c.Retention.DefaultLimit)
	}
	if c.Retention.Mode != RetentionEvict && c.Retention.Mode != RetentionReject {
		return fmt.Errorf("unknown retention mode: %q", c.Retention.Mode)
	}
	for _, ol := range c.Retention.OwnerLimits {
		if ol.Limit < 1 || ol.Limit > c.Retention.MaxLimit {
			return fmt.Errorf("owner %q limit %d out of range 1..%d", ol.Owner, ol.Limit, c.Retention.MaxLimit)
		}
	}
	if c.Security.RequireAuth && c.Security.AuthToken == "" {
		return fmt.Errorf("require_authentication is set but auth_token is empty")
	}
	return nil
}

// LimitFor returns the configured limit for owner.
func (r RetentionConfig) LimitFor(owner string) int {
	for _, ol := range r.OwnerLimits {
		if ol.Owner == owner {
			return ol.Limit
		}
	}
	return r.DefaultLimit
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Storage.DataDirectory, filepath.Dir(c.Storage.DatabasePath)}
	if c.Storage.Backend == "local" {
		dirs = append(dirs, c.Storage.BlobDirectory)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
