package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"lemiel/internal/model"
)

// SectionRow отмечает, что раздел хотя бы раз сохранялся.
// Без отметки раздел берется из начального config.json.
type SectionRow struct {
	bun.BaseModel `bun:"table:storage_sections"`

	Name    string    `bun:"name,pk"`
	SavedAt time.Time `bun:"saved_at,notnull"`
}

// SectionRepository работает с отметками сохраненных разделов
type SectionRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewSectionRepository создает новый репозиторий отметок
func NewSectionRepository(db bun.IDB, logger *zap.Logger) *SectionRepository {
	return &SectionRepository{
		db:     db,
		logger: logger,
	}
}

// Saved возвращает множество сохраненных разделов
func (r *SectionRepository) Saved(ctx context.Context) (map[model.Section]bool, error) {
	var rows []SectionRow
	if err := r.db.NewSelect().Model(&rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query storage sections: %w", err)
	}

	result := make(map[model.Section]bool, len(rows))
	for _, row := range rows {
		result[model.Section(row.Name)] = true
	}
	return result, nil
}

// Mark отмечает раздел как сохраненный
func (r *SectionRepository) Mark(ctx context.Context, section model.Section) error {
	row := &SectionRow{Name: section.String(), SavedAt: time.Now().UTC()}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (name) DO UPDATE SET saved_at = EXCLUDED.saved_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark section %s: %w", section, err)
	}
	return nil
}
