// Package config loads y4mview settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

// StdinInput selects standard input as the stream source.
const StdinInput = "-"

// Config represents the structure of the configuration file.
type Config struct {
	// Input is a file path or "-" for stdin. Ignored when FFmpeg.URL is set.
	// The defaults package skips "-" tags, so it is filled in by setDefaults.
	Input        string   `yaml:"input"`
	FFmpeg       FFmpeg   `yaml:"ffmpeg"`
	ChunkSize    int      `yaml:"chunk_size" default:"65536"`
	MaxHeaderLen int      `yaml:"max_header_len" default:"4096"`
	HTTP         HTTP     `yaml:"http"`
	Snapshot     Snapshot `yaml:"snapshot"`
	LogLevel     string   `yaml:"log_level" default:"info"`
}

// FFmpeg configures an ffmpeg process transcoding URL into the stream.
type FFmpeg struct {
	Bin  string   `yaml:"bin" default:"ffmpeg"`
	URL  string   `yaml:"url"`
	Args []string `yaml:"args"`
}

// HTTP configures the preview server.
type HTTP struct {
	Addr string `yaml:"addr" default:"127.0.0.1:8080"`
}

// Snapshot configures JPEG snapshots.
type Snapshot struct {
	Width   int `yaml:"width" default:"640"`
	Height  int `yaml:"height"`
	Quality int `yaml:"quality" default:"85"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) setDefaults() error {
	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}
	if cfg.Input == "" {
		cfg.Input = StdinInput
	}
	return nil
}

// Load reads path and fills unset fields with defaults. An empty path yields
// the default configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML data and fills unset fields with defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.setDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive, got %d", cfg.ChunkSize))
	}
	if cfg.MaxHeaderLen < 0 {
		errs = append(errs, fmt.Errorf("max_header_len must not be negative, got %d", cfg.MaxHeaderLen))
	}
	if cfg.Snapshot.Width < 0 || cfg.Snapshot.Height < 0 {
		errs = append(errs, fmt.Errorf("snapshot size must not be negative, got %dx%d",
			cfg.Snapshot.Width, cfg.Snapshot.Height))
	}
	if cfg.Snapshot.Quality < 1 || cfg.Snapshot.Quality > 100 {
		errs = append(errs, fmt.Errorf("snapshot quality must be in 1..100, got %d", cfg.Snapshot.Quality))
	}
	return errors.Join(errs...)
}
