package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deckhaven/collection-keeper/internal/adapter/filesystem"
	"github.com/deckhaven/collection-keeper/internal/adapter/sqlite"
	"github.com/deckhaven/collection-keeper/internal/config"
	"github.com/deckhaven/collection-keeper/internal/logger"
	"github.com/deckhaven/collection-keeper/internal/port"
	"github.com/deckhaven/collection-keeper/internal/prefs"
	"github.com/deckhaven/collection-keeper/internal/resolver"
	"github.com/deckhaven/collection-keeper/internal/service/collection"
	"github.com/deckhaven/collection-keeper/internal/service/headroom"
	"github.com/deckhaven/collection-keeper/internal/service/maintenance"
)

const version = "0.1.0"

// prefsDirName holds the preference file under the user config directory
const prefsDirName = "collection-keeper"

var (
	cfgFile string
	baseDir string

	app *appContext
)

// appContext wires the adapters and services behind the commands
type appContext struct {
	cfg     *config.Config
	logger  *zap.Logger
	fs      *filesystem.Manager
	prefs   *prefs.Store
	locator *resolver.Locator
	manager *collection.Manager
	maint   *maintenance.Service
}

var rootCmd = &cobra.Command{
	Use:     "collection-keeper",
	Short:   "Manages the storage location and lifecycle of a study collection database",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "override the collection directory")
}

// initApp loads configuration and builds the service graph
func initApp() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}
	zapLogger := logger.GetZapLogger()

	fsManager := filesystem.NewManager()

	prefsPath := cfg.Storage.PrefsPath
	if prefsPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve user config directory: %w", err)
		}
		prefsPath = filepath.Join(configDir, prefsDirName, "prefs.yaml")
	}
	prefStore, err := prefs.Open(prefsPath)
	if err != nil {
		return err
	}

	dirResolver, err := resolver.ForLayout(cfg.Storage.Layout, cfg.Storage.AppDirName)
	if err != nil {
		return err
	}

	override := cfg.Storage.BaseDir
	if baseDir != "" {
		override = baseDir
	}
	locator := resolver.NewLocator(dirResolver, prefStore, override)

	openStore := func(ctx context.Context, path string) (port.CollectionStore, error) {
		return sqlite.Open(path, &sqlite.Options{
			BusyTimeoutMs: cfg.Database.BusyTimeoutMs,
			CacheSizeMB:   cfg.Database.CacheSizeMB,
			Create:        true,
		})
	}
	manager := collection.NewManager(locator, fsManager, openStore, sqlite.ReadSchemaVersion, zapLogger)

	checker := headroom.NewChecker(fsManager, cfg.Maintenance.MinFreeFallbackBytes(), zapLogger)

	maint := maintenance.New(&maintenance.Config{
		MinFreeFallbackBytes: cfg.Maintenance.MinFreeFallbackBytes(),
		BackupRetention:      cfg.Maintenance.BackupRetention,
		PruneInterval:        cfg.Maintenance.GetPruneInterval(),
	}, manager, checker, fsManager, zapLogger)

	app = &appContext{
		cfg:     cfg,
		logger:  zapLogger,
		fs:      fsManager,
		prefs:   prefStore,
		locator: locator,
		manager: manager,
		maint:   maint,
	}
	return nil
}
