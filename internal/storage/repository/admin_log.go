package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"lemiel/internal/model"
)

// AdminLogRepository сохраняет журнал действий администраторов
type AdminLogRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewAdminLogRepository создает новый репозиторий журнала
func NewAdminLogRepository(db bun.IDB, logger *zap.Logger) *AdminLogRepository {
	return &AdminLogRepository{
		db:     db,
		logger: logger,
	}
}

// Load возвращает записи от новых к старым
func (r *AdminLogRepository) Load(ctx context.Context) ([]model.AdminLogEntry, error) {
	entries := []model.AdminLogEntry{}
	if err := r.db.NewSelect().Model(&entries).Order("id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query admin logs: %w", err)
	}
	return entries, nil
}

// Replace перезаписывает журнал
func (r *AdminLogRepository) Replace(ctx context.Context, entries []model.AdminLogEntry) error {
	if _, err := r.db.NewDelete().Model((*model.AdminLogEntry)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear admin logs: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := r.db.NewInsert().Model(&entries).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert admin logs: %w", err)
	}
	return nil
}
