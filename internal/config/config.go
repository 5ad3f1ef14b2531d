package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jacklau/floatpack/internal/codec"
	"github.com/jacklau/floatpack/internal/datagen"
	"github.com/jacklau/floatpack/internal/pipeline"
)

// Config is the top-level configuration.
type Config struct {
	Codec    CodecConfig    `yaml:"codec"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Bench    BenchConfig    `yaml:"bench"`
	Store    StoreConfig    `yaml:"store"`
}

// CodecConfig holds the codec parameters.
type CodecConfig struct {
	// TruncateCountRaw is a pointer because 0 is a valid setting.
	TruncateCountRaw *int `yaml:"truncate_count"`
}

// PipelineConfig controls parallelism.
type PipelineConfig struct {
	Workers      int  `yaml:"workers"`
	ChunkRecords int  `yaml:"chunk_records"`
	Progress     bool `yaml:"progress"`
}

// BenchConfig holds defaults for the bench command.
type BenchConfig struct {
	Samples       int      `yaml:"samples"`
	Seed          uint64   `yaml:"seed"`
	Distributions []string `yaml:"distributions"`
}

// StoreConfig holds storage settings.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TruncateCount returns the configured truncate count, or the default.
func (c CodecConfig) TruncateCount() int {
	if c.TruncateCountRaw == nil {
		return codec.DefaultTruncateCount
	}
	return *c.TruncateCountRaw
}

// CodecConfig returns the validated codec configuration.
func (c *Config) CodecConfig() (codec.Config, error) {
	return codec.NewConfig(c.Codec.TruncateCount())
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	cfg.Pipeline.Progress = true
	return &cfg
}

// envVarPattern matches ${VAR} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} placeholders with environment variable values.
// Returns an error if any referenced variable is not set.
func expandEnvVars(data []byte) ([]byte, error) {
	var missing []string

	result := envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(varName))
		if !ok {
			missing = append(missing, string(varName))
			return match
		}
		return []byte(val)
	})

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return result, nil
}

// Load reads and parses a config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses config from raw YAML bytes, expanding env vars and validating.
func Parse(data []byte) (*Config, error) {
	expanded, err := expandEnvVars(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{Pipeline: PipelineConfig{Progress: true}}
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Pipeline.ChunkRecords == 0 {
		cfg.Pipeline.ChunkRecords = pipeline.DefaultChunkRecords
	}
	if cfg.Bench.Samples == 0 {
		cfg.Bench.Samples = 100000
	}
	if cfg.Bench.Seed == 0 {
		cfg.Bench.Seed = 1
	}
	if len(cfg.Bench.Distributions) == 0 {
		for _, d := range datagen.All {
			cfg.Bench.Distributions = append(cfg.Bench.Distributions, string(d))
		}
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "~/.floatpack/floatpack.db"
	}
}

func validate(cfg *Config) error {
	if _, err := cfg.CodecConfig(); err != nil {
		return err
	}

	if cfg.Pipeline.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.ChunkRecords < 0 {
		return fmt.Errorf("chunk_records must be non-negative, got %d", cfg.Pipeline.ChunkRecords)
	}
	if cfg.Bench.Samples < 0 {
		return fmt.Errorf("bench samples must be non-negative, got %d", cfg.Bench.Samples)
	}

	for _, d := range cfg.Bench.Distributions {
		if _, err := datagen.Parse(d); err != nil {
			return err
		}
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
