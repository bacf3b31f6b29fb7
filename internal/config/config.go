// Package config loads slicsearch settings from the environment.
//
// Values are read from process environment variables. Files passed to Load
// are parsed as dotenv files first; variables already set in the environment
// take precedence over them.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store kinds.
const (
	StoreLocal = "local"
	StoreMinio = "minio"
	StoreS3    = "s3"
)

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Store          string // local, minio or s3
	Root           string // directory for local stores
	Bucket         string
	Prefix         string // key prefix inside the bucket
	Endpoint       string // minio host:port, or a custom S3 endpoint URL
	AccessKey      string
	SecretKey      string
	UseSSL         bool
	Region         string
	DatabasePrefix string // names of database images start with this
	QueryPrefix    string // names of query images start with this

	Segmenter      string // slic or grid
	RegionSize     int
	Compactness    float64
	Iterations     int
	MinSizePercent int
	ColorSpace     string

	Workers      int
	MemoryLimit  int64 // bytes, 0 = unlimited
	IOLimit      int64 // bytes/s, 0 = unlimited
	MaxDimension int

	LogLevel  slog.Level
	LogFormat string // text or json
}

// Load reads the configuration. Missing dotenv files are ignored.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Store:          getEnv("SLIC_STORE", StoreLocal),
		Root:           getEnv("SLIC_ROOT", "."),
		Bucket:         getEnv("SLIC_BUCKET", ""),
		Prefix:         getEnv("SLIC_PREFIX", ""),
		Endpoint:       getEnv("SLIC_ENDPOINT", ""),
		AccessKey:      getEnv("SLIC_ACCESS_KEY", ""),
		SecretKey:      getEnv("SLIC_SECRET_KEY", ""),
		UseSSL:         getEnvAsBool("SLIC_USE_SSL", false),
		Region:         getEnv("SLIC_REGION", ""),
		DatabasePrefix: getEnv("SLIC_DB_PREFIX", "input"),
		QueryPrefix:    getEnv("SLIC_QUERY_PREFIX", "query"),
		Segmenter:      getEnv("SLIC_SEGMENTER", "slic"),
		RegionSize:     getEnvAsInt("SLIC_REGION_SIZE", 25),
		Compactness:    getEnvAsFloat("SLIC_COMPACTNESS", 10),
		Iterations:     getEnvAsInt("SLIC_ITERATIONS", 10),
		MinSizePercent: getEnvAsInt("SLIC_MIN_SIZE_PERCENT", 4),
		ColorSpace:     getEnv("SLIC_COLOR_SPACE", "bgr"),
		Workers:        getEnvAsInt("SLIC_WORKERS", 0),
		MemoryLimit:    getEnvAsInt64("SLIC_MEMORY_LIMIT", 0),
		IOLimit:        getEnvAsInt64("SLIC_IO_LIMIT", 0),
		MaxDimension:   getEnvAsInt("SLIC_MAX_DIMENSION", 0),
		LogLevel:       getEnvAsLevel("SLIC_LOG_LEVEL", slog.LevelInfo),
		LogFormat:      getEnv("SLIC_LOG_FORMAT", "text"),
	}

	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreLocal:
		if c.Root == "" {
			return fmt.Errorf("%w: local store needs a root directory", ErrInvalid)
		}
	case StoreMinio, StoreS3:
		if c.Bucket == "" {
			return fmt.Errorf("%w: %s store needs a bucket", ErrInvalid, c.Store)
		}
		if c.Store == StoreMinio && c.Endpoint == "" {
			return fmt.Errorf("%w: minio store needs an endpoint", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalid, c.Store)
	}

	if c.Segmenter != "slic" && c.Segmenter != "grid" {
		return fmt.Errorf("%w: unknown segmenter %q", ErrInvalid, c.Segmenter)
	}
	if c.RegionSize <= 0 {
		return fmt.Errorf("%w: region size must be positive", ErrInvalid)
	}
	if c.Workers < 0 || c.MemoryLimit < 0 || c.IOLimit < 0 || c.MaxDimension < 0 {
		return fmt.Errorf("%w: negative resource limit", ErrInvalid)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return level
		}
	}
	return defaultValue
}
