package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harsh-s15/iitj-coder/internal/common/cache"
	"github.com/harsh-s15/iitj-coder/internal/common/db"
	"github.com/harsh-s15/iitj-coder/internal/common/storage"
	"github.com/harsh-s15/iitj-coder/internal/judge/sandbox"
	"github.com/harsh-s15/iitj-coder/pkg/utils/logger"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultWorkerPool      = 4
	defaultDrainTimeout    = 30 * time.Second
	defaultTestCaseRoot    = "/var/lib/judge/testcases"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// WorkerConfig holds worker pool settings.
type WorkerConfig struct {
	PoolSize     int           `yaml:"poolSize"`
	DrainTimeout time.Duration `yaml:"drainTimeout"`
}

// QueueConfig holds job queue settings.
type QueueConfig struct {
	Key         string        `yaml:"key"`
	PollTimeout time.Duration `yaml:"pollTimeout"`
}

// TestCaseConfig selects where hidden test cases live.
// Backend "fs" reads from Root; "minio" reads from object storage.
type TestCaseConfig struct {
	Backend string `yaml:"backend"`
	Root    string `yaml:"root"`
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server    ServerConfig        `yaml:"server"`
	Logger    logger.Config       `yaml:"logger"`
	Database  db.MySQLConfig      `yaml:"database"`
	Redis     cache.RedisConfig   `yaml:"redis"`
	MinIO     storage.MinIOConfig `yaml:"minio"`
	Sandbox   sandbox.Config      `yaml:"sandbox"`
	Worker    WorkerConfig        `yaml:"worker"`
	Queue     QueueConfig         `yaml:"queue"`
	TestCases TestCaseConfig      `yaml:"testCases"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	applyRedisDefaults(&cfg.Redis)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Worker.PoolSize <= 0 {
		cfg.Worker.PoolSize = defaultWorkerPool
	}
	if cfg.Worker.DrainTimeout == 0 {
		cfg.Worker.DrainTimeout = defaultDrainTimeout
	}
	switch cfg.TestCases.Backend {
	case "", "fs":
		cfg.TestCases.Backend = "fs"
		if cfg.TestCases.Root == "" {
			cfg.TestCases.Root = defaultTestCaseRoot
		}
	case "minio":
		if cfg.TestCases.Bucket == "" {
			cfg.TestCases.Bucket = cfg.MinIO.Bucket
		}
		if cfg.TestCases.Bucket == "" {
			return nil, fmt.Errorf("test case bucket is required for the minio backend")
		}
	default:
		return nil, fmt.Errorf("unknown test case backend %q", cfg.TestCases.Backend)
	}
	return &cfg, nil
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	if cfg == nil {
		return
	}
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.MinRetryBackoff == 0 {
		cfg.MinRetryBackoff = defaults.MinRetryBackoff
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
}
