// Package config loads squarebench settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCount = 1_000_000

	EnvCount    = "SQUAREBENCH_COUNT"
	EnvWorkers  = "SQUAREBENCH_WORKERS"
	EnvQueueLen = "SQUAREBENCH_QUEUE_LEN"
	EnvModes    = "SQUAREBENCH_MODES"
)

var ErrInvalid = errors.New("invalid config")

var knownModes = map[string]bool{
	"sequential": true,
	"threaded":   true,
	"chunked":    true,
}

// Config holds all squarebench configuration.
type Config struct {
	// Count is the exclusive upper bound of the input sequence 1 .. Count-1.
	Count int `yaml:"count"`

	// Workers sizes the pool; 0 means min(32, NumCPU+4).
	Workers int `yaml:"workers"`

	QueueLen int `yaml:"queue_len"`

	Modes []string `yaml:"modes"`

	Verify bool `yaml:"verify"`

	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Count:  DefaultCount,
		Modes:  []string{"sequential", "threaded"},
		Verify: true,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	var err error

	if v := os.Getenv(EnvCount); v != "" {
		err = multierr.Append(err, parseInt(EnvCount, v, &c.Count))
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		err = multierr.Append(err, parseInt(EnvWorkers, v, &c.Workers))
	}
	if v := os.Getenv(EnvQueueLen); v != "" {
		err = multierr.Append(err, parseInt(EnvQueueLen, v, &c.QueueLen))
	}
	if v := os.Getenv(EnvModes); v != "" {
		c.Modes = splitModes(v)
	}

	return err
}

func parseInt(name, v string, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

func splitModes(v string) []string {
	var modes []string
	for _, m := range strings.Split(v, ",") {
		if m = strings.TrimSpace(m); m != "" {
			modes = append(modes, strings.ToLower(m))
		}
	}
	return modes
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var err error

	if c.Count < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: count must be >= 1, got %d", ErrInvalid, c.Count))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalid, c.Workers))
	}
	if c.QueueLen < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: queue_len must be >= 0, got %d", ErrInvalid, c.QueueLen))
	}
	if len(c.Modes) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: no modes", ErrInvalid))
	}
	for _, m := range c.Modes {
		if !knownModes[m] {
			err = multierr.Append(err, fmt.Errorf("%w: unknown mode %q", ErrInvalid, m))
		}
	}

	return err
}
