// Package config loads the settings of the irqstress command.
package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Lock kinds.
const (
	LockMutex  = "mutex"
	LockRWLock = "rwlock"
)

// Default configuration values. These reproduce the 1000-context
// convergence run.
const (
	DefaultWorkers    = 1000
	DefaultIterations = 1
	DefaultLock       = LockMutex
	DefaultLogLevel   = "info"
)

// Config describes one stress run.
type Config struct {
	Workers     int    `yaml:"workers"`      // Goroutines incrementing the counter.
	Iterations  int    `yaml:"iterations"`   // Increments per worker.
	Lock        string `yaml:"lock"`         // LockMutex or LockRWLock.
	Readers     int    `yaml:"readers"`      // Goroutines reading alongside the writers (rwlock only).
	LogLevel    string `yaml:"log_level"`    // A logrus level name.
	MetricsAddr string `yaml:"metrics_addr"` // Listen address for /metrics; empty disables it.
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Workers:    DefaultWorkers,
		Iterations: DefaultIterations,
		Lock:       DefaultLock,
		LogLevel:   DefaultLogLevel,
	}
}

// Load reads and validates a YAML file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for values the runner cannot use.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers = %d", ErrInvalidWorkers, c.Workers)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("%w: iterations = %d", ErrInvalidIterations, c.Iterations)
	}
	if c.Readers < 0 {
		return fmt.Errorf("%w: readers = %d", ErrInvalidReaders, c.Readers)
	}

	switch c.Lock {
	case LockMutex:
		if c.Readers > 0 {
			return fmt.Errorf("%w: lock = %s, readers = %d", ErrReadersWithMutex, c.Lock, c.Readers)
		}
	case LockRWLock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLock, c.Lock)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns LogLevel as a logrus level.
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return level, nil
}
