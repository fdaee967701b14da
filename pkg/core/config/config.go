// Copyright CSV Chart Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Upload    UploadConfig    `yaml:"upload"`
	FileStore FileStoreConfig `yaml:"file_store"`
	Chart     ChartConfig     `yaml:"chart"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or text
}

// UploadConfig describes the single upload slot.
type UploadConfig struct {
	Filename          string   `yaml:"filename"`           // slot name every upload overwrites
	AllowedExtensions []string `yaml:"allowed_extensions"` // without the dot, e.g. ["csv"]
	MaxBytes          int64    `yaml:"max_bytes"`
}

// FileStoreConfig selects and configures the upload store backend.
type FileStoreConfig struct {
	Type        string `yaml:"type"`     // "filesystem" (default), "memory", "s3", "sqlite", "postgres"
	BaseDir     string `yaml:"base_dir"` // filesystem
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Prefix    string `yaml:"s3_prefix"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// ChartConfig controls extraction and rendering.
type ChartConfig struct {
	Title        string  `yaml:"title"`
	Delimiter    string  `yaml:"delimiter"` // single character, "," when empty
	DisableImage bool    `yaml:"disable_image"`
	ImageWidth   float64 `yaml:"image_width"`  // inches
	ImageHeight  float64 `yaml:"image_height"` // inches
}

// Params returns the provider parameters for the configured backend.
func (c FileStoreConfig) Params() map[string]string {
	return map[string]string{
		"base_dir": c.BaseDir,
		"bucket":   c.S3Bucket,
		"region":   c.S3Region,
		"prefix":   c.S3Prefix,
		"endpoint": c.S3Endpoint,
		"path":     c.SQLitePath,
		"dsn":      c.PostgresDSN,
	}
}

// Comma returns the delimiter as a rune.
func (c ChartConfig) Comma() (rune, error) {
	if c.Delimiter == "" {
		return ',', nil
	}
	if c.Delimiter == `\t` || c.Delimiter == "tab" {
		return '\t', nil
	}
	r := []rune(c.Delimiter)
	if len(r) != 1 {
		return 0, fmt.Errorf("chart delimiter must be a single character, got %q", c.Delimiter)
	}
	return r[0], nil
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// Validate reports settings that would make the server misbehave.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max_bytes must be positive")
	}
	if _, err := c.Chart.Comma(); err != nil {
		return err
	}
	return nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("UPLOAD_FOLDER"); v != "" {
		cfg.FileStore.BaseDir = v
	}
	if v := os.Getenv("FILE_STORE_TYPE"); v != "" {
		cfg.FileStore.Type = v
	}
	if v := os.Getenv("FILE_STORE_S3_BUCKET"); v != "" {
		cfg.FileStore.S3Bucket = v
	}
	if v := os.Getenv("FILE_STORE_S3_REGION"); v != "" {
		cfg.FileStore.S3Region = v
	}
	if v := os.Getenv("FILE_STORE_S3_PREFIX"); v != "" {
		cfg.FileStore.S3Prefix = v
	}
	if v := os.Getenv("FILE_STORE_S3_ENDPOINT"); v != "" {
		cfg.FileStore.S3Endpoint = v
	}
	if v := os.Getenv("FILE_STORE_SQLITE_PATH"); v != "" {
		cfg.FileStore.SQLitePath = v
	}
	if v := os.Getenv("FILE_STORE_POSTGRES_DSN"); v != "" {
		cfg.FileStore.PostgresDSN = v
	}

	if v := os.Getenv("CHART_TITLE"); v != "" {
		cfg.Chart.Title = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Upload.Filename == "" {
		cfg.Upload.Filename = "uploaded_data.csv"
	}
	if len(cfg.Upload.AllowedExtensions) == 0 {
		cfg.Upload.AllowedExtensions = []string{"csv"}
	}
	for i, ext := range cfg.Upload.AllowedExtensions {
		cfg.Upload.AllowedExtensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 16 << 20
	}

	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "filesystem"
	}
	if cfg.FileStore.BaseDir == "" {
		cfg.FileStore.BaseDir = "uploads"
	}
	if cfg.FileStore.SQLitePath == "" {
		cfg.FileStore.SQLitePath = "uploads.db"
	}

	if cfg.Chart.ImageWidth <= 0 {
		cfg.Chart.ImageWidth = 8
	}
	if cfg.Chart.ImageHeight <= 0 {
		cfg.Chart.ImageHeight = 4
	}
}
