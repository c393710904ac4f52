package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and locates the task storage backend.
type DatabaseConfig struct {
	// Driver is either "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the SQLite database file. ":memory:" keeps it in RAM.
	Path string `mapstructure:"path" yaml:"path"`

	// URL is the Postgres connection string.
	URL string `mapstructure:"url" yaml:"url"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`

	// File receives log output in terminal mode, where stdout belongs to the UI.
	File string `mapstructure:"file" yaml:"file"`
}

// HTTPConfig holds settings for the JSON API server.
type HTTPConfig struct {
	Addr          string `mapstructure:"addr" yaml:"addr"`
	RateLimit     int    `mapstructure:"rate_limit" yaml:"rate_limit"`
	RateWindowSec int    `mapstructure:"rate_window_sec" yaml:"rate_window_sec"`
}

// RedisConfig locates the optional rate limiter backend. An empty Addr
// disables rate limiting.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
}

// EnvPrefix namespaces environment overrides, e.g. TASKBOARD_DATABASE_DRIVER.
const EnvPrefix = "TASKBOARD"

// DefaultConfigDir returns ~/.config/taskboard, or "." when the home
// directory cannot be resolved.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(dir, "tasks.db"),
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "taskboard.log"),
		},
		HTTP: HTTPConfig{
			Addr:          ":8080",
			RateLimit:     120,
			RateWindowSec: 60,
		},
	}
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"db-driver": "database.driver",
	"db-path":   "database.path",
	"db-url":    "database.url",
	"log-level": "log.level",
	"log-json":  "log.json",
	"log-file":  "log.file",
	"addr":      "http.addr",
}

// setDefaults mirrors defaultAppConfig into v so that env and flag lookups
// resolve keys that the file omits.
func setDefaults(v *viper.Viper) {
	d := defaultAppConfig()
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.url", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("http.rate_limit", d.HTTP.RateLimit)
	v.SetDefault("http.rate_window_sec", d.HTTP.RateWindowSec)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

// LoadConfig reads configuration from the YAML file at path, then applies a
// .env file from the working directory, TASKBOARD_* environment variables
// and any flags in fs (which may be nil), in increasing precedence.
// A missing config file is not an error.
func LoadConfig(path string, fs *pflag.FlagSet) (*AppConfig, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding flag --%s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail late at startup.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateWindowSec < 0 {
		return fmt.Errorf("http rate limit settings must not be negative")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)
	v.Set("http", cfg.HTTP)
	v.Set("redis", cfg.Redis)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
