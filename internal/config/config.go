package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Run modes
const (
	ModeAPI    = "api"
	ModeWorker = "worker"
	ModeAll    = "all"
)

// Config is the process configuration. Every key can be set in a YAML file
// or through the environment variable of the same name in upper case.
type Config struct {
	Host           string `mapstructure:"host" yaml:"host"`
	Port           int    `mapstructure:"port" yaml:"port"`
	DatabaseURL    string `mapstructure:"database_url" yaml:"database_url"`
	RedisURL       string `mapstructure:"redis_url" yaml:"redis_url"`
	UploadsDir     string `mapstructure:"uploads_dir" yaml:"uploads_dir"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	AllowedOrigins string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	WorkerConcurrency    int `mapstructure:"worker_concurrency" yaml:"worker_concurrency"`
	WorkerDequeueTimeout int `mapstructure:"worker_dequeue_timeout" yaml:"worker_dequeue_timeout"` // seconds

	CacheTTLSec int `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	LockTTLSec  int `mapstructure:"lock_ttl_sec" yaml:"lock_ttl_sec"`

	SweepIntervalSec int  `mapstructure:"sweep_interval_sec" yaml:"sweep_interval_sec"`
	SweeperEnabled   bool `mapstructure:"sweeper_enabled" yaml:"sweeper_enabled"`

	RunMode   string `mapstructure:"run_mode" yaml:"run_mode"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

var defaults = map[string]any{
	"host":                   "0.0.0.0",
	"port":                   8080,
	"database_url":           "",
	"redis_url":              "",
	"uploads_dir":            "uploads",
	"max_upload_mb":          10,
	"allowed_origins":        "*",
	"worker_concurrency":     2,
	"worker_dequeue_timeout": 5,
	"cache_ttl_sec":          600,
	"lock_ttl_sec":           10,
	"sweep_interval_sec":     60,
	"sweeper_enabled":        true,
	"run_mode":               ModeAll,
	"log_level":              "info",
	"log_format":             "text",
}

// Load reads defaults, then the optional YAML file at path, then the
// environment. A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the process cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("max_upload_mb must be positive"))
	}
	if c.UploadsDir == "" {
		errs = append(errs, errors.New("uploads_dir is required"))
	}
	if c.WorkerConcurrency <= 0 {
		errs = append(errs, errors.New("worker_concurrency must be positive"))
	}
	if c.WorkerDequeueTimeout <= 0 {
		errs = append(errs, errors.New("worker_dequeue_timeout must be positive"))
	}
	if c.CacheTTLSec <= 0 || c.LockTTLSec <= 0 || c.SweepIntervalSec <= 0 {
		errs = append(errs, errors.New("cache_ttl_sec, lock_ttl_sec and sweep_interval_sec must be positive"))
	}
	switch c.RunMode {
	case ModeAPI, ModeWorker, ModeAll:
	default:
		errs = append(errs, fmt.Errorf("unknown run_mode %q (use: api, worker, or all)", c.RunMode))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Origins splits AllowedOrigins on commas
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

func (c *Config) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }

func (c *Config) LockTTL() time.Duration { return time.Duration(c.LockTTLSec) * time.Second }

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSec) * time.Second
}

// NewLogger builds the root logger for the configured level and format
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
	return level, nil
}
