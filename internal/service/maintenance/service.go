// Package maintenance runs collection maintenance: vacuum, integrity
// checks, and backup housekeeping. Every operation that rewrites the
// collection file is gated behind the storage headroom check.
package maintenance

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deckhaven/collection-keeper/internal/domain"
	"github.com/deckhaven/collection-keeper/internal/port"
	"github.com/deckhaven/collection-keeper/internal/service/headroom"
)

// backupDirName is the directory under the collection base dir holding
// timestamped collection copies.
const backupDirName = "backups"

const (
	backupPrefix     = "collection-"
	backupSuffix     = ".anki2"
	backupTimeFormat = "20060102-150405"
)

// CollectionManager is the slice of the collection lifecycle this service
// needs.
type CollectionManager interface {
	CollectionPath() (string, error)
	Open(ctx context.Context) (port.CollectionStore, error)
}

// Config contains maintenance service configuration
type Config struct {
	// MinFreeFallbackBytes is the free-space floor used when the collection
	// size cannot be measured
	MinFreeFallbackBytes uint64

	// BackupRetention is how many backups to keep when pruning
	BackupRetention int

	// PruneInterval is how often the background loop prunes old backups
	PruneInterval time.Duration
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{
		MinFreeFallbackBytes: headroom.DefaultMinFreeBytes,
		BackupRetention:      8,
		PruneInterval:        time.Hour,
	}
}

// Service handles collection maintenance operations
type Service struct {
	config  *Config
	manager CollectionManager
	checker *headroom.Checker
	fs      port.FileSystem
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	now func() time.Time
}

// New creates a new maintenance Service
func New(cfg *Config, manager CollectionManager, checker *headroom.Checker, fs port.FileSystem, logger *zap.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MinFreeFallbackBytes == 0 {
		cfg.MinFreeFallbackBytes = headroom.DefaultMinFreeBytes
	}
	if cfg.BackupRetention <= 0 {
		cfg.BackupRetention = 8
	}
	if cfg.PruneInterval == 0 {
		cfg.PruneInterval = time.Hour
	}

	return &Service{
		config:  cfg,
		manager: manager,
		checker: checker,
		fs:      fs,
		logger:  logger,
		now:     time.Now,
	}
}

// CheckSpace runs the storage headroom check for the current collection
func (s *Service) CheckSpace() (headroom.CheckResult, error) {
	path, err := s.manager.CollectionPath()
	if err != nil {
		return headroom.CheckResult{}, err
	}
	return s.checker.CheckCollection(path), nil
}

// RunVacuum rewrites the collection file to reclaim free pages. The
// collection is backed up first. Refuses when the headroom check warns,
// unless force is set.
func (s *Service) RunVacuum(ctx context.Context, force bool) error {
	if err := s.gate(force, "vacuum"); err != nil {
		return err
	}

	if _, err := s.BackupNow(); err != nil {
		return fmt.Errorf("pre-vacuum backup failed: %w", err)
	}

	store, err := s.manager.Open(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("vacuuming collection", zap.String("path", store.Path()))
	start := s.now()
	if err := store.Vacuum(ctx); err != nil {
		return err
	}
	s.logger.Info("vacuum complete", zap.Duration("elapsed", s.now().Sub(start)))
	return nil
}

// RunIntegrityCheck verifies the collection file and returns the problems
// found. A healthy collection also gets its planner statistics refreshed.
// Refuses when the headroom check warns, unless force is set.
func (s *Service) RunIntegrityCheck(ctx context.Context, force bool) ([]string, error) {
	if err := s.gate(force, "integrity check"); err != nil {
		return nil, err
	}

	store, err := s.manager.Open(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("checking collection integrity", zap.String("path", store.Path()))
	problems, err := store.IntegrityCheck(ctx)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		s.logger.Error("collection integrity problems found",
			zap.Int("count", len(problems)))
		return problems, nil
	}

	if err := store.Optimize(ctx); err != nil {
		s.logger.Warn("failed to refresh planner statistics", zap.Error(err))
	}
	return nil, nil
}

// gate enforces the headroom check before a maintenance operation
func (s *Service) gate(force bool, op string) error {
	result, err := s.CheckSpace()
	if err != nil {
		return err
	}
	if !result.ShouldWarn() {
		return nil
	}
	if force {
		s.logger.Warn("proceeding despite storage warning",
			zap.String("operation", op), zap.String("warning", result.WarningText()))
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrInsufficientSpace, result.WarningText())
}

// BackupNow copies the collection file into the backups directory and
// prunes old backups. Returns the backup path.
func (s *Service) BackupNow() (string, error) {
	path, err := s.manager.CollectionPath()
	if err != nil {
		return "", err
	}
	if !s.fs.FileExists(path) {
		return "", fmt.Errorf("cannot back up %s: %w", path, domain.ErrNotOpen)
	}

	backupDir := filepath.Join(filepath.Dir(path), backupDirName)
	if err := s.fs.InitDir(backupDir); err != nil {
		return "", err
	}

	name := backupPrefix + s.now().Format(backupTimeFormat) + backupSuffix
	dst := filepath.Join(backupDir, name)
	written, err := s.fs.CopyFile(path, dst)
	if err != nil {
		return "", fmt.Errorf("backup copy failed: %w", err)
	}
	s.logger.Info("collection backed up",
		zap.String("backup", dst), zap.Int64("bytes", written))

	if err := s.pruneBackups(backupDir); err != nil {
		s.logger.Warn("failed to prune old backups", zap.Error(err))
	}
	return dst, nil
}

// pruneBackups removes the oldest backups beyond the retention count
func (s *Service) pruneBackups(backupDir string) error {
	files, err := s.fs.ListFiles(backupDir)
	if err != nil {
		return err
	}

	var backups []port.FileInfo
	for _, f := range files {
		if strings.HasPrefix(f.Name, backupPrefix) && strings.HasSuffix(f.Name, backupSuffix) {
			backups = append(backups, f)
		}
	}
	if len(backups) <= s.config.BackupRetention {
		return nil
	}

	// Newest first; everything past the retention count goes.
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})
	removed := 0
	for _, old := range backups[s.config.BackupRetention:] {
		if err := s.fs.RemoveFile(filepath.Join(backupDir, old.Name)); err != nil {
			s.logger.Warn("failed to remove old backup",
				zap.String("name", old.Name), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("pruned old backups", zap.Int("count", removed))
	}
	return nil
}

// Start starts the background maintenance loop
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("maintenance service already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("maintenance service started",
		zap.Duration("prune_interval", s.config.PruneInterval),
		zap.Int("backup_retention", s.config.BackupRetention))

	s.wg.Add(1)
	go s.maintenanceLoop(ctx)

	<-ctx.Done()
	s.wg.Wait()
	s.logger.Info("maintenance service stopped")
	return nil
}

// Stop stops the background maintenance loop
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.running = false
}

// maintenanceLoop handles periodic housekeeping
func (s *Service) maintenanceLoop(ctx context.Context) {
	defer s.wg.Done()

	pruneTicker := time.NewTicker(s.config.PruneInterval)
	defer pruneTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pruneTicker.C:
			s.runPrune()
		}
	}
}

// runPrune prunes old backups for the current collection
func (s *Service) runPrune() {
	path, err := s.manager.CollectionPath()
	if err != nil {
		s.logger.Error("failed to resolve collection path", zap.Error(err))
		return
	}
	backupDir := filepath.Join(filepath.Dir(path), backupDirName)
	if !s.fs.FileExists(backupDir) {
		return
	}
	if err := s.pruneBackups(backupDir); err != nil {
		s.logger.Error("failed to prune backups", zap.Error(err))
	}
}
