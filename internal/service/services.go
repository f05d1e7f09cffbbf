// Package service содержит контейнер сервисов.
package service

import (
	"go.uber.org/zap"

	"lemiel/internal/config"
)

// Services содержит все сервисы приложения
type Services struct {
	State     *State
	Scheduler *Scheduler
}

// NewServices создает контейнер сервисов поверх загруженного состояния
func NewServices(state *State, cfg *config.Config, logger *zap.Logger) *Services {
	scheduler := NewScheduler(state, SchedulerConfig{
		BackupEnabled: cfg.BackupEnabled,
		BackupCron:    cfg.BackupCron,
		BackupDir:     cfg.BackupDir(),
		BackupKeep:    cfg.BackupKeep,
		Location:      cfg.Location(),
	}, logger)

	return &Services{
		State:     state,
		Scheduler: scheduler,
	}
}
