// Package config loads the YAML configuration shared by the tdb tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Neumenon/tdb/tdb"
)

// EnvVar names the environment variable consulted when no --config flag is
// given.
const EnvVar = "TDB_CONFIG"

// Compression names accepted in the compression key.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// Config holds tool settings. Zero-valued keys in a file keep their defaults.
type Config struct {
	// Decimals is the Real precision used when writing; 0 selects the
	// shortest round-trip form.
	Decimals    int         `yaml:"decimals"`
	Compression string      `yaml:"compression"`
	Workers     int         `yaml:"workers"`
	Frame       FrameConfig `yaml:"frame"`
}

// FrameConfig controls TDB-S1 framing in the frame subcommand.
type FrameConfig struct {
	CRC      bool `yaml:"crc"`
	Compress bool `yaml:"compress"`
	// Rate caps frame encode output in frames per second; 0 is unlimited.
	Rate float64 `yaml:"rate"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Decimals:    tdb.DefaultDecimals,
		Compression: CompressionNone,
		Workers:     4,
		Frame: FrameConfig{
			CRC: true,
		},
	}
}

// Load reads the configuration at path, or at $TDB_CONFIG when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects unusable settings and clamps decimals into range.
func (c *Config) Validate() error {
	switch c.Compression {
	case "":
		c.Compression = CompressionNone
	case CompressionNone, CompressionGzip, CompressionZstd:
	default:
		return fmt.Errorf("compression must be 'none', 'gzip' or 'zstd', got %q", c.Compression)
	}

	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = 1
	}

	if c.Frame.Rate < 0 {
		return fmt.Errorf("frame.rate must be non-negative, got %v", c.Frame.Rate)
	}

	if c.Decimals < 0 {
		c.Decimals = 0
	}
	if c.Decimals > tdb.MaxDecimals {
		c.Decimals = tdb.MaxDecimals
	}
	return nil
}
