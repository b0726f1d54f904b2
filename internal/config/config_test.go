package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Layout != "scoped" {
		t.Errorf("Storage.Layout = %q, want %q", cfg.Storage.Layout, "scoped")
	}
	if cfg.Storage.AppDirName != "CollectionKeeper" {
		t.Errorf("Storage.AppDirName = %q, want %q", cfg.Storage.AppDirName, "CollectionKeeper")
	}
	if cfg.Database.BusyTimeoutMs != 5000 {
		t.Errorf("Database.BusyTimeoutMs = %d, want 5000", cfg.Database.BusyTimeoutMs)
	}
	if cfg.Maintenance.MinFreeFallbackMB != 150 {
		t.Errorf("Maintenance.MinFreeFallbackMB = %d, want 150", cfg.Maintenance.MinFreeFallbackMB)
	}
	if cfg.Maintenance.BackupRetention != 8 {
		t.Errorf("Maintenance.BackupRetention = %d, want 8", cfg.Maintenance.BackupRetention)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestLoad_File(t *testing.T) {
	viper.Reset()

	content := `
storage:
  layout: legacy
  app_dir_name: StudyDecks
maintenance:
  min_free_fallback_mb: 500
  prune_interval: 30m
logging:
  level: debug
  format: text
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.Layout != "legacy" {
		t.Errorf("Storage.Layout = %q, want %q", cfg.Storage.Layout, "legacy")
	}
	if cfg.Storage.AppDirName != "StudyDecks" {
		t.Errorf("Storage.AppDirName = %q, want %q", cfg.Storage.AppDirName, "StudyDecks")
	}
	if cfg.Maintenance.MinFreeFallbackMB != 500 {
		t.Errorf("Maintenance.MinFreeFallbackMB = %d, want 500", cfg.Maintenance.MinFreeFallbackMB)
	}
	if got := cfg.Maintenance.GetPruneInterval(); got != 30*time.Minute {
		t.Errorf("GetPruneInterval() = %v, want %v", got, 30*time.Minute)
	}
	// Unset keys keep their defaults.
	if cfg.Database.BusyTimeoutMs != 5000 {
		t.Errorf("Database.BusyTimeoutMs = %d, want 5000", cfg.Database.BusyTimeoutMs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	viper.Reset()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage:     StorageConfig{Layout: "scoped", AppDirName: "CollectionKeeper"},
			Database:    DatabaseConfig{BusyTimeoutMs: 5000, CacheSizeMB: 32},
			Maintenance: MaintenanceConfig{MinFreeFallbackMB: 150, BackupRetention: 8, PruneInterval: "1h"},
			Logging:     LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "legacy layout",
			mutate: func(c *Config) { c.Storage.Layout = "legacy" },
		},
		{
			name:    "unknown layout",
			mutate:  func(c *Config) { c.Storage.Layout = "cloud" },
			wantErr: true,
		},
		{
			name:    "empty app dir name",
			mutate:  func(c *Config) { c.Storage.AppDirName = "" },
			wantErr: true,
		},
		{
			name:    "negative busy timeout",
			mutate:  func(c *Config) { c.Database.BusyTimeoutMs = -1 },
			wantErr: true,
		},
		{
			name:    "zero fallback",
			mutate:  func(c *Config) { c.Maintenance.MinFreeFallbackMB = 0 },
			wantErr: true,
		},
		{
			name:    "negative retention",
			mutate:  func(c *Config) { c.Maintenance.BackupRetention = -1 },
			wantErr: true,
		},
		{
			name:    "bad prune interval",
			mutate:  func(c *Config) { c.Maintenance.PruneInterval = "soon" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMinFreeFallbackBytes(t *testing.T) {
	c := MaintenanceConfig{MinFreeFallbackMB: 150}
	if got := c.MinFreeFallbackBytes(); got != 150_000_000 {
		t.Errorf("MinFreeFallbackBytes() = %d, want 150000000", got)
	}
}
