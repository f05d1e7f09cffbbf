package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"lemiel/internal/model"
)

// DepartmentRepository сохраняет метаданные департаментов
type DepartmentRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewDepartmentRepository создает новый репозиторий департаментов
func NewDepartmentRepository(db bun.IDB, logger *zap.Logger) *DepartmentRepository {
	return &DepartmentRepository{
		db:     db,
		logger: logger,
	}
}

// Load возвращает отображение код → департамент
func (r *DepartmentRepository) Load(ctx context.Context) (map[string]model.Department, error) {
	var departments []model.Department
	if err := r.db.NewSelect().Model(&departments).Order("code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}

	result := make(map[string]model.Department, len(departments))
	for _, dept := range departments {
		result[dept.Code] = dept
	}
	return result, nil
}

// Replace перезаписывает все департаменты
func (r *DepartmentRepository) Replace(ctx context.Context, departments map[string]model.Department) error {
	if _, err := r.db.NewDelete().Model((*model.Department)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear departments: %w", err)
	}
	if len(departments) == 0 {
		return nil
	}

	rows := make([]model.Department, 0, len(departments))
	for code, dept := range departments {
		dept.Code = code
		rows = append(rows, dept)
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert departments: %w", err)
	}
	return nil
}
