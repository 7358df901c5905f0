// Package config loads schedcore settings from an optional YAML file with
// SCHEDCORE_* environment overrides on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"schedcore/internal/blob"
)

// StoreDriver identifies a persistence backend.
type StoreDriver string

const (
	StoreMemory   StoreDriver = "memory"
	StoreSQLite   StoreDriver = "sqlite"
	StorePostgres StoreDriver = "postgres"
)

// DefaultPath is where Load looks when no explicit file is given.
const DefaultPath = "schedcore.yaml"

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver StoreDriver `yaml:"driver"`
	Path   string      `yaml:"path"` // sqlite database file
	DSN    string      `yaml:"dsn"`  // postgres connection string
}

// Config holds the runtime configuration for schedcore.
type Config struct {
	Listen    string        `yaml:"listen"`
	ServerURL string        `yaml:"server_url"` // board client target
	LaneWait  time.Duration `yaml:"lane_wait"`
	Seed      bool          `yaml:"seed"`
	Store     StoreConfig   `yaml:"store"`
	Blob      blob.Settings `yaml:"blob"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() Config {
	return Config{
		Listen:    ":8080",
		ServerURL: "http://localhost:8080",
		LaneWait:  2 * time.Second,
		Seed:      true,
		Store:     StoreConfig{Driver: StoreMemory, Path: "schedcore.db"},
		Blob:      blob.Settings{Driver: blob.DriverFilesystem, FSRoot: "./blobdata"},
	}
}

// Load reads the YAML file at path (DefaultPath when empty), applies
// environment overrides, and validates the result. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// fall through to env overrides
	default:
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SCHEDCORE_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("SCHEDCORE_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("SCHEDCORE_LANE_WAIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LaneWait = d
		}
	}
	if v := os.Getenv("SCHEDCORE_SEED"); v != "" {
		c.Seed = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("SCHEDCORE_STORE_DRIVER"); v != "" {
		c.Store.Driver = StoreDriver(strings.ToLower(v))
	}
	if v := os.Getenv("SCHEDCORE_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("SCHEDCORE_STORE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("SCHEDCORE_BLOB_DRIVER"); v != "" {
		c.Blob.Driver = blob.Driver(strings.ToLower(v))
	}
	if v := os.Getenv("SCHEDCORE_BLOB_FS_ROOT"); v != "" {
		c.Blob.FSRoot = v
	}
	if v := os.Getenv("SCHEDCORE_BLOB_S3_BUCKET"); v != "" {
		c.Blob.S3.Bucket = v
	}
	if v := os.Getenv("SCHEDCORE_BLOB_S3_REGION"); v != "" {
		c.Blob.S3.Region = v
	}
	if v := os.Getenv("SCHEDCORE_BLOB_S3_ENDPOINT"); v != "" {
		c.Blob.S3.Endpoint = v
	}
	if v := os.Getenv("SCHEDCORE_BLOB_S3_PATH_STYLE"); v != "" {
		c.Blob.S3.PathStyle = strings.EqualFold(v, "true")
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.LaneWait <= 0 {
		return fmt.Errorf("lane_wait must be positive")
	}
	switch c.Store.Driver {
	case StoreMemory, StoreSQLite, StorePostgres:
	case "":
		c.Store.Driver = StoreMemory
	default:
		return fmt.Errorf("unknown store driver %s", c.Store.Driver)
	}
	return nil
}
