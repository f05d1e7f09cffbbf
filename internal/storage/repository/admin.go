package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"lemiel/internal/model"
)

// AdminRow - администратор с позицией в whitelist
type AdminRow struct {
	bun.BaseModel `bun:"table:admins"`

	Username string `bun:"username,pk"`
	Position int    `bun:"position,notnull"`
}

// AdminRepository сохраняет whitelist администраторов
type AdminRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewAdminRepository создает новый репозиторий администраторов
func NewAdminRepository(db bun.IDB, logger *zap.Logger) *AdminRepository {
	return &AdminRepository{
		db:     db,
		logger: logger,
	}
}

// Load возвращает whitelist в сохраненном порядке
func (r *AdminRepository) Load(ctx context.Context) (*model.AdminsSection, error) {
	var rows []AdminRow
	if err := r.db.NewSelect().Model(&rows).Order("position ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}

	section := &model.AdminsSection{Whitelist: make([]string, 0, len(rows))}
	for _, row := range rows {
		section.Whitelist = append(section.Whitelist, row.Username)
	}
	return section, nil
}

// Replace перезаписывает whitelist
func (r *AdminRepository) Replace(ctx context.Context, section *model.AdminsSection) error {
	if _, err := r.db.NewDelete().Model((*AdminRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear admins: %w", err)
	}
	if section == nil || len(section.Whitelist) == 0 {
		return nil
	}

	rows := make([]AdminRow, 0, len(section.Whitelist))
	for i, username := range section.Whitelist {
		rows = append(rows, AdminRow{Username: username, Position: i})
	}
	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert admins: %w", err)
	}
	return nil
}
