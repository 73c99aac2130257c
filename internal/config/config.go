// Package config loads application configuration from an optional YAML file,
// a .env file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the service.
type Config struct {
	// BucketName is the object store namespace shared by uploads and the composite artifact.
	BucketName string `yaml:"bucket_name"`
	Port       string `yaml:"port"`
	AppEnv     string `yaml:"app_env"`
	LogLevel   string `yaml:"log_level"`

	Storage   StorageConfig   `yaml:"storage"`
	Upload    UploadConfig    `yaml:"upload"`
	Composite CompositeConfig `yaml:"composite"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// StorageConfig selects and configures the object store backend.
type StorageConfig struct {
	Driver     string `yaml:"driver"` // "s3", "minio", "gcs" or "memory"
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"` // custom S3 endpoint (MinIO, LocalStack) or MinIO host:port
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	UseSSL     bool   `yaml:"use_ssl"`
	PublicBase string `yaml:"public_base"` // overrides the public URL base when set
	ListLimit  int    `yaml:"list_limit"`
}

// UploadConfig controls the upload endpoint.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
	// LegacyJPGKeys stores every upload as images/{id}.jpg regardless of its format.
	LegacyJPGKeys bool `yaml:"legacy_jpg_keys"`
}

// CompositeConfig controls GIF generation.
type CompositeConfig struct {
	FrameDelayMS     int `yaml:"frame_delay_ms"`
	FetchConcurrency int `yaml:"fetch_concurrency"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Protocol    string  `yaml:"protocol"` // "grpc" (default) or "http"
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:     "8080",
		AppEnv:   "development",
		LogLevel: "info",
		Storage: StorageConfig{
			Driver:    "s3",
			Region:    "us-east-1",
			UseSSL:    true,
			ListLimit: 1000,
		},
		Upload: UploadConfig{
			MaxBytes: 20 << 20,
		},
		Composite: CompositeConfig{
			FrameDelayMS:     5000,
			FetchConcurrency: 4,
		},
		Tracing: TracingConfig{
			Protocol:    "grpc",
			SampleRatio: 1.0,
			ServiceName: "flipbook",
		},
	}
}

// Load reads configuration from a .env file (if present), the YAML file named by
// CONFIG_FILE (if set) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// FrameDelay returns the composite frame display duration.
func (c *Config) FrameDelay() time.Duration {
	return time.Duration(c.Composite.FrameDelayMS) * time.Millisecond
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %q not found", path)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.BucketName, "BUCKET_NAME")
	setString(&c.Port, "PORT")
	setString(&c.AppEnv, "APP_ENV")
	setString(&c.LogLevel, "LOG_LEVEL")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.Region, "AWS_REGION")
	setString(&c.Storage.Region, "STORAGE_REGION")
	setString(&c.Storage.Endpoint, "STORAGE_ENDPOINT")
	setString(&c.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "STORAGE_SECRET_KEY")
	setString(&c.Storage.PublicBase, "STORAGE_PUBLIC_BASE")

	setString(&c.Tracing.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Tracing.Protocol, "OTEL_EXPORTER_OTLP_PROTOCOL")
	setString(&c.Tracing.ServiceName, "OTEL_SERVICE_NAME")

	var errs []error
	errs = append(errs,
		setBool(&c.Storage.UseSSL, "STORAGE_USE_SSL"),
		setInt(&c.Storage.ListLimit, "STORAGE_LIST_LIMIT"),
		setInt64(&c.Upload.MaxBytes, "UPLOAD_MAX_BYTES"),
		setBool(&c.Upload.LegacyJPGKeys, "UPLOAD_LEGACY_JPG_KEYS"),
		setInt(&c.Composite.FrameDelayMS, "GIF_FRAME_DELAY_MS"),
		setInt(&c.Composite.FetchConcurrency, "GIF_FETCH_CONCURRENCY"),
		setBool(&c.Tracing.Enabled, "OTEL_TRACING_ENABLED"),
		setFloat(&c.Tracing.SampleRatio, "OTEL_SAMPLE_RATIO"),
	)
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q", key, v)
	}
	*dst = f
	return nil
}
