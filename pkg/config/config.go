// Package config loads and validates ingestd's process configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config represents ingestd's full process configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (INGEST_*)
//  2. Configuration file (YAML)
//  3. Default values
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Lease   LeaseConfig   `mapstructure:"lease" yaml:"lease"`
	Writer  WriterConfig  `mapstructure:"writer" yaml:"writer"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// StorageConfig controls where segment state and data live.
type StorageConfig struct {
	// SharedStorageBaseDir is the base directory for filesystem-backed
	// segment storage and lockfiles.
	SharedStorageBaseDir string `mapstructure:"shared_storage_basedir" validate:"required" yaml:"shared_storage_basedir"`

	// SegmentBucketSizeMinutes is the width of the time bucket a record's
	// timestamp is assigned to when deriving its segment id.
	SegmentBucketSizeMinutes int `mapstructure:"segment_bucket_size_minutes" validate:"required,gt=0" yaml:"segment_bucket_size_minutes"`
}

// LeaseConfig selects and configures the segment lease manager.
type LeaseConfig struct {
	// UseFilesystemMutex and UseS3Mutex select the lease variant. Exactly
	// one must be true.
	UseFilesystemMutex bool `mapstructure:"use_filesystem_mutex" yaml:"use_filesystem_mutex"`
	UseS3Mutex         bool `mapstructure:"use_s3_mutex" yaml:"use_s3_mutex"`

	// SegmentLockBucket is the object-store bucket backing the S3 variant.
	SegmentLockBucket string `mapstructure:"segment_lock_bucket" yaml:"segment_lock_bucket"`

	// SegmentLockTTL is how long an S3 lease object lives before it's
	// eligible for expiry, in seconds.
	SegmentLockTTL int `mapstructure:"segment_lock_ttl" validate:"omitempty,gt=0" yaml:"segment_lock_ttl"`

	// ProfileName is an optional named AWS credential profile.
	ProfileName string `mapstructure:"profile_name" yaml:"profile_name"`

	// LockTimeoutMinutes and LockDelaySeconds bound filesystem lease
	// acquisition: how long to keep retrying, and how long to sleep
	// between retries.
	LockTimeoutMinutes int `mapstructure:"lock_timeout_minutes" validate:"omitempty,gt=0" yaml:"lock_timeout_minutes"`
	LockDelaySeconds   int `mapstructure:"lock_delay_seconds" validate:"omitempty,gt=0" yaml:"lock_delay_seconds"`

	// S3LockTimeoutSeconds and S3LockDelaySeconds do the same for the
	// object-store variant.
	S3LockTimeoutSeconds int `mapstructure:"s3_lock_timeout_seconds" validate:"omitempty,gt=0" yaml:"s3_lock_timeout_seconds"`
	S3LockDelaySeconds   int `mapstructure:"s3_lock_delay_seconds" validate:"omitempty,gt=0" yaml:"s3_lock_delay_seconds"`
}

// WriterConfig selects the segment writer backend. Exactly one of
// UseSQLiteStorage or UseColumnFileStorage must be true.
type WriterConfig struct {
	UseSQLiteStorage     bool `mapstructure:"use_sqlite_storage" yaml:"use_sqlite_storage"`
	UseColumnFileStorage bool `mapstructure:"use_columnfile_storage" yaml:"use_columnfile_storage"`
}

// ServerConfig controls the HTTP front door.
type ServerConfig struct {
	Port         int           `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from an optional file, environment variables,
// and defaults, then validates the result.
//
// configPath may be empty; a missing optional config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setupViper wires environment variable support with the INGEST_ prefix
// and, when configPath is non-empty, an explicit config file.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	}
}

// bindDefaults seeds viper with defaults so AutomaticEnv can find and
// override every key even when no config file is present.
func bindDefaults(v *viper.Viper) {
	d := defaultConfig()

	v.SetDefault("storage.shared_storage_basedir", d.Storage.SharedStorageBaseDir)
	v.SetDefault("storage.segment_bucket_size_minutes", d.Storage.SegmentBucketSizeMinutes)

	v.SetDefault("lease.use_filesystem_mutex", d.Lease.UseFilesystemMutex)
	v.SetDefault("lease.use_s3_mutex", d.Lease.UseS3Mutex)
	v.SetDefault("lease.segment_lock_bucket", d.Lease.SegmentLockBucket)
	v.SetDefault("lease.segment_lock_ttl", d.Lease.SegmentLockTTL)
	v.SetDefault("lease.profile_name", d.Lease.ProfileName)
	v.SetDefault("lease.lock_timeout_minutes", d.Lease.LockTimeoutMinutes)
	v.SetDefault("lease.lock_delay_seconds", d.Lease.LockDelaySeconds)
	v.SetDefault("lease.s3_lock_timeout_seconds", d.Lease.S3LockTimeoutSeconds)
	v.SetDefault("lease.s3_lock_delay_seconds", d.Lease.S3LockDelaySeconds)

	v.SetDefault("writer.use_sqlite_storage", d.Writer.UseSQLiteStorage)
	v.SetDefault("writer.use_columnfile_storage", d.Writer.UseColumnFileStorage)

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// defaultConfig returns a Config populated with every documented default.
func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			SharedStorageBaseDir:     "/mnt/otel-hot/segments",
			SegmentBucketSizeMinutes: 15,
		},
		Lease: LeaseConfig{
			UseFilesystemMutex:   true,
			SegmentLockTTL:       300,
			LockTimeoutMinutes:   10,
			LockDelaySeconds:     1,
			S3LockTimeoutSeconds: 300,
			S3LockDelaySeconds:   5,
		},
		Writer: WriterConfig{
			UseColumnFileStorage: true,
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Validate runs struct-tag validation and the dual-mode exclusivity
// checks that plain tags can't express.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}

	if cfg.Lease.UseFilesystemMutex == cfg.Lease.UseS3Mutex {
		return fmt.Errorf("exactly one of lease.use_filesystem_mutex or lease.use_s3_mutex must be true, got filesystem=%t s3=%t",
			cfg.Lease.UseFilesystemMutex, cfg.Lease.UseS3Mutex)
	}

	if cfg.Lease.UseS3Mutex && cfg.Lease.SegmentLockBucket == "" {
		return fmt.Errorf("lease.segment_lock_bucket is required when lease.use_s3_mutex is true")
	}

	if cfg.Writer.UseSQLiteStorage == cfg.Writer.UseColumnFileStorage {
		return fmt.Errorf("exactly one of writer.use_sqlite_storage or writer.use_columnfile_storage must be true, got sqlite=%t columnfile=%t",
			cfg.Writer.UseSQLiteStorage, cfg.Writer.UseColumnFileStorage)
	}

	return nil
}
