package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// StorageConfig controls where the collection directory lives
type StorageConfig struct {
	// Layout picks the directory-resolution strategy: "legacy" resolves a
	// shared user-visible directory, "scoped" an app-specific one.
	Layout string `mapstructure:"layout"`

	// BaseDir overrides directory resolution entirely when set
	BaseDir string `mapstructure:"base_dir"`

	// AppDirName is the directory name used by the resolvers
	AppDirName string `mapstructure:"app_dir_name"`

	// PrefsPath overrides the location of the preference file
	PrefsPath string `mapstructure:"prefs_path"`
}

// DatabaseConfig contains collection database settings
type DatabaseConfig struct {
	BusyTimeoutMs int `mapstructure:"busy_timeout_ms"`
	CacheSizeMB   int `mapstructure:"cache_size_mb"`
}

// MaintenanceConfig contains maintenance settings
type MaintenanceConfig struct {
	// MinFreeFallbackMB is the free-space floor requested when the
	// collection size cannot be measured
	MinFreeFallbackMB int `mapstructure:"min_free_fallback_mb"`

	// BackupRetention is how many collection backups to keep
	BackupRetention int `mapstructure:"backup_retention"`

	// PruneInterval is how often the background loop prunes old backups
	PruneInterval string `mapstructure:"prune_interval"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from the specified file path. An empty path
// yields the built-in defaults.
func Load(configPath string) (*Config, error) {
	viper.SetDefault("storage.layout", "scoped")
	viper.SetDefault("storage.base_dir", "")
	viper.SetDefault("storage.app_dir_name", "CollectionKeeper")
	viper.SetDefault("storage.prefs_path", "")
	viper.SetDefault("database.busy_timeout_ms", 5000)
	viper.SetDefault("database.cache_size_mb", 32)
	viper.SetDefault("maintenance.min_free_fallback_mb", 150)
	viper.SetDefault("maintenance.backup_retention", 8)
	viper.SetDefault("maintenance.prune_interval", "1h")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Layout {
	case "legacy", "scoped":
		// Valid layouts
	default:
		return fmt.Errorf("invalid storage.layout: %s", c.Storage.Layout)
	}

	if c.Storage.AppDirName == "" {
		return fmt.Errorf("storage.app_dir_name is required")
	}

	if c.Database.BusyTimeoutMs < 0 {
		return fmt.Errorf("database.busy_timeout_ms must not be negative")
	}

	if c.Maintenance.MinFreeFallbackMB <= 0 {
		return fmt.Errorf("maintenance.min_free_fallback_mb must be positive")
	}
	if c.Maintenance.BackupRetention < 0 {
		return fmt.Errorf("maintenance.backup_retention must not be negative")
	}
	if _, err := time.ParseDuration(c.Maintenance.PruneInterval); err != nil {
		return fmt.Errorf("invalid maintenance.prune_interval: %w", err)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// MinFreeFallbackBytes returns the fallback free-space floor in bytes.
// Decimal megabytes, so the rendered amount reads as an even figure.
func (c *MaintenanceConfig) MinFreeFallbackBytes() uint64 {
	return uint64(c.MinFreeFallbackMB) * 1000 * 1000
}

// GetPruneInterval returns the prune interval as time.Duration
func (c *MaintenanceConfig) GetPruneInterval() time.Duration {
	d, _ := time.ParseDuration(c.PruneInterval)
	if d == 0 {
		return time.Hour
	}
	return d
}
