// Package service содержит планировщик задач.
package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	backupPrefix     = "lemiel-"
	backupExt        = ".json"
	backupTimeLayout = "20060102-150405.000"
	cleanupSpec      = "@every 1m"
)

// Exporter отдает состояние в формате config.json
type Exporter interface {
	ExportJSON() ([]byte, error)
}

// Cleaner очищает устаревшие записи (rate limiter, debouncer)
type Cleaner interface {
	Cleanup()
}

// SchedulerConfig описывает расписание резервных копий
type SchedulerConfig struct {
	BackupEnabled bool
	BackupCron    string
	BackupDir     string
	BackupKeep    int
	Location      *time.Location
}

// Scheduler управляет выполнением задач по расписанию
type Scheduler struct {
	exporter Exporter
	cleaners []Cleaner
	config   SchedulerConfig
	cron     *cron.Cron
	logger   *zap.Logger
	mu       sync.RWMutex
	running  bool
	now      func() time.Time

	lastBackup    string
	lastBackupErr error
}

// NewScheduler создает новый планировщик
func NewScheduler(exporter Exporter, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Scheduler{
		exporter: exporter,
		config:   cfg,
		cron:     cron.New(cron.WithLocation(cfg.Location)),
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterCleaner добавляет компонент в периодическую очистку
func (s *Scheduler) RegisterCleaner(cleaner Cleaner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleaners = append(s.cleaners, cleaner)
}

// Start запускает планировщик
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.logger.Info("Starting scheduler")

	if s.config.BackupEnabled {
		if _, err := s.cron.AddFunc(s.config.BackupCron, s.runBackup); err != nil {
			return fmt.Errorf("failed to add backup task to cron: %w", err)
		}
		s.logger.Info("Added backup task to cron",
			zap.String("cron_expression", s.config.BackupCron),
			zap.String("dir", s.config.BackupDir),
			zap.Int("keep", s.config.BackupKeep))
	}

	if len(s.cleaners) > 0 {
		if _, err := s.cron.AddFunc(cleanupSpec, s.runCleanup); err != nil {
			return fmt.Errorf("failed to add cleanup task to cron: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started successfully", zap.Int("tasks_count", len(s.cron.Entries())))
	return nil
}

// Stop останавливает планировщик и ждет завершения запущенных задач
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runBackup() {
	if _, err := s.Backup(); err != nil {
		s.logger.Error("Scheduled backup failed", zap.Error(err))
	}
}

func (s *Scheduler) runCleanup() {
	s.mu.RLock()
	cleaners := append([]Cleaner(nil), s.cleaners...)
	s.mu.RUnlock()

	for _, cleaner := range cleaners {
		cleaner.Cleanup()
	}
}

// Backup записывает экспорт в каталог резервных копий и удаляет старые копии
func (s *Scheduler) Backup() (string, error) {
	path, err := s.writeBackup()

	s.mu.Lock()
	s.lastBackupErr = err
	if err == nil {
		s.lastBackup = path
	}
	s.mu.Unlock()

	if err != nil {
		return "", err
	}

	s.logger.Info("Backup written", zap.String("path", path))

	if err := s.prune(); err != nil {
		s.logger.Warn("Failed to prune old backups", zap.Error(err))
	}
	return path, nil
}

func (s *Scheduler) writeBackup() (string, error) {
	data, err := s.exporter.ExportJSON()
	if err != nil {
		return "", fmt.Errorf("failed to export state: %w", err)
	}

	if err := os.MkdirAll(s.config.BackupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := backupPrefix + s.now().In(s.config.Location).Format(backupTimeLayout) + backupExt
	path := filepath.Join(s.config.BackupDir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize backup: %w", err)
	}
	return path, nil
}

// prune оставляет BackupKeep самых новых копий. Имена сортируются по времени.
func (s *Scheduler) prune() error {
	if s.config.BackupKeep <= 0 {
		return nil
	}

	backups, err := s.ListBackups()
	if err != nil {
		return err
	}
	if len(backups) <= s.config.BackupKeep {
		return nil
	}

	for _, name := range backups[:len(backups)-s.config.BackupKeep] {
		if err := os.Remove(filepath.Join(s.config.BackupDir, name)); err != nil {
			return fmt.Errorf("failed to remove backup %s: %w", name, err)
		}
		s.logger.Debug("Old backup removed", zap.String("name", name))
	}
	return nil
}

// ListBackups возвращает имена резервных копий от старых к новым
func (s *Scheduler) ListBackups() ([]string, error) {
	entries, err := os.ReadDir(s.config.BackupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupExt) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetStatus возвращает статус планировщика
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.cron.Entries()
	activeTasks := make([]map[string]interface{}, 0, len(entries))

	for _, entry := range entries {
		activeTasks = append(activeTasks, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
		})
	}

	status := map[string]interface{}{
		"running":        s.running,
		"active_tasks":   len(activeTasks),
		"tasks":          activeTasks,
		"backup_enabled": s.config.BackupEnabled,
		"last_backup":    s.lastBackup,
	}
	if s.lastBackupErr != nil {
		status["last_backup_error"] = s.lastBackupErr.Error()
	}
	return status
}
