// Package config loads coverage run settings from a .flowcov.yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/backend/memory"
	"github.com/flowcov/go-flowcov/backend/redis"
	"github.com/flowcov/go-flowcov/backend/sqlite"
	"github.com/flowcov/go-flowcov/coverage"
	"github.com/flowcov/go-flowcov/runstate"
	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const FileName = ".flowcov.yaml"

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// Class is the default test class name for recorded runs
	Class string `yaml:"class"`

	ExcludedProcessDefinitionKeys []string `yaml:"excludedProcessDefinitionKeys"`

	// EndWithoutStart is one of record, drop, or fail
	EndWithoutStart string `yaml:"endWithoutStart"`

	Backend BackendConfig `yaml:"backend"`
}

type BackendConfig struct {
	// Type is one of memory, sqlite, or redis
	Type string `yaml:"type"`

	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`

	Redis struct {
		Addr       string        `yaml:"addr"`
		Username   string        `yaml:"username"`
		Password   string        `yaml:"password"`
		DB         int           `yaml:"db"`
		KeyPrefix  string        `yaml:"keyPrefix"`
		Expiration time.Duration `yaml:"expiration"`
	} `yaml:"redis"`
}

// Default returns a Config that records into a sqlite database below the working directory.
func Default() *Config {
	cfg := &Config{
		EndWithoutStart: coverage.EndWithoutStartRecord.String(),
	}

	cfg.Backend.Type = BackendSQLite
	cfg.Backend.SQLite.Path = filepath.Join(".flowcov", "coverage.db")
	cfg.Backend.Redis.Addr = "localhost:6379"
	cfg.Backend.Redis.KeyPrefix = "flowcov:"

	return cfg
}

// Load reads the configuration file at path. Settings missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - config file path is controlled
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Find looks for .flowcov.yaml in dir and its parent directories. It returns an empty string if there is none.
func Find(dir string) string {
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func (c *Config) Validate() error {
	if _, err := coverage.ParseEndWithoutStartPolicy(c.EndWithoutStart); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Backend.Type {
	case BackendMemory:
	case BackendSQLite:
		if c.Backend.SQLite.Path == "" {
			return fmt.Errorf("%w: sqlite backend requires a path", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.Backend.Redis.Addr == "" {
			return fmt.Errorf("%w: redis backend requires an address", ErrInvalidConfig)
		}
		if c.Backend.Redis.Expiration < 0 {
			return fmt.Errorf("%w: negative redis expiration", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend type %q", ErrInvalidConfig, c.Backend.Type)
	}

	return nil
}

// EndWithoutStartPolicy returns the configured policy. Invalid values, which Validate rejects, fall back to record.
func (c *Config) EndWithoutStartPolicy() coverage.EndWithoutStartPolicy {
	policy, err := coverage.ParseEndWithoutStartPolicy(c.EndWithoutStart)
	if err != nil {
		return coverage.EndWithoutStartRecord
	}

	return policy
}

// RunStateOptions returns the run state options for the configured exclusions and policy.
func (c *Config) RunStateOptions() []runstate.Option {
	opts := []runstate.Option{
		runstate.WithEndWithoutStartPolicy(c.EndWithoutStartPolicy()),
	}

	if len(c.ExcludedProcessDefinitionKeys) > 0 {
		opts = append(opts, runstate.WithExcludedProcessDefinitionKeys(c.ExcludedProcessDefinitionKeys...))
	}

	return opts
}

// OpenBackend creates the configured backend.
func (c *Config) OpenBackend(opts ...backend.BackendOption) (backend.Backend, error) {
	switch c.Backend.Type {
	case BackendMemory:
		return memory.NewMemoryBackend(opts...), nil

	case BackendSQLite:
		b, err := sqlite.New(c.Backend.SQLite.Path, sqlite.WithBackendOptions(opts...))
		if err != nil {
			return nil, err
		}

		return b, nil

	case BackendRedis:
		client := goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:    []string{c.Backend.Redis.Addr},
			Username: c.Backend.Redis.Username,
			Password: c.Backend.Redis.Password,
			DB:       c.Backend.Redis.DB,
		})

		b, err := redis.NewRedisBackend(client,
			redis.WithKeyPrefix(c.Backend.Redis.KeyPrefix),
			redis.WithAutoExpiration(c.Backend.Redis.Expiration),
			redis.WithBackendOptions(opts...),
		)
		if err != nil {
			client.Close()
			return nil, err
		}

		return b, nil
	}

	return nil, fmt.Errorf("%w: unknown backend type %q", ErrInvalidConfig, c.Backend.Type)
}
