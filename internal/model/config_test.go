package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("Driver = %q", cfg.Database.Driver)
	}
	if !strings.HasSuffix(cfg.Database.Path, "tasks.db") {
		t.Fatalf("Path = %q", cfg.Database.Path)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.RateLimit != 120 || cfg.HTTP.RateWindowSec != 60 {
		t.Fatalf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadConfig_FileEnvAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `
database:
  driver: sqlite
  path: /tmp/from-file.db
log:
  level: warn
http:
  addr: ":7000"
  rate_limit: 5
redis:
  addr: localhost:6379
`)

	t.Setenv("TASKBOARD_LOG_LEVEL", "debug")
	t.Setenv("TASKBOARD_HTTP_ADDR", ":7100")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", "", "")
	fs.String("db-path", "", "")
	if err := fs.Parse([]string{"--addr", ":7200"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := LoadConfig(path, fs)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Database.Path != "/tmp/from-file.db" {
		t.Fatalf("unset flag overrode file: Path = %q", cfg.Database.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("env did not override file: Level = %q", cfg.Log.Level)
	}
	if cfg.HTTP.Addr != ":7200" {
		t.Fatalf("flag did not override env: Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RateLimit != 5 || cfg.HTTP.RateWindowSec != 60 {
		t.Fatalf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "database: [unclosed\n")

	if _, err := LoadConfig(path, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults", func(*AppConfig) {}, ""},
		{"sqlite without path", func(c *AppConfig) { c.Database.Path = "" }, "database.path"},
		{"postgres without url", func(c *AppConfig) { c.Database.Driver = DriverPostgres }, "database.url"},
		{"postgres with url", func(c *AppConfig) {
			c.Database.Driver = DriverPostgres
			c.Database.URL = "postgres://localhost/tasks"
		}, ""},
		{"unknown driver", func(c *AppConfig) { c.Database.Driver = "oracle" }, "oracle"},
		{"negative rate", func(c *AppConfig) { c.HTTP.RateLimit = -1 }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultAppConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Database.Driver = DriverPostgres
	cfg.Database.URL = "postgres://app@localhost/tasks"
	cfg.Log.JSON = true
	cfg.Redis.Addr = "redis:6379"
	cfg.Redis.DB = 2

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path, nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Database != cfg.Database || loaded.Log != cfg.Log || loaded.HTTP != cfg.HTTP || loaded.Redis != cfg.Redis {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}
