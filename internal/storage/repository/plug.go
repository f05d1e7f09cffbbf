// Package repository содержит репозитории разделов состояния для PostgreSQL.
package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"lemiel/internal/model"
)

// BucketRow хранит упорядоченный список id плагов департамента
type BucketRow struct {
	bun.BaseModel `bun:"table:plug_buckets"`

	Code    string `bun:"code,pk"`
	PlugIDs []int  `bun:"plug_ids,array"`
}

// PlugRepository сохраняет плаги и индекс департаментов
type PlugRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewPlugRepository создает новый репозиторий плагов
func NewPlugRepository(db bun.IDB, logger *zap.Logger) *PlugRepository {
	return &PlugRepository{
		db:     db,
		logger: logger,
	}
}

// Load восстанавливает отображение департамент → плаги
func (r *PlugRepository) Load(ctx context.Context) (map[string][]model.Plug, error) {
	var plugs []model.Plug
	if err := r.db.NewSelect().Model(&plugs).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query plugs: %w", err)
	}

	var buckets []BucketRow
	if err := r.db.NewSelect().Model(&buckets).Order("code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query plug buckets: %w", err)
	}

	byID := make(map[int]model.Plug, len(plugs))
	for _, plug := range plugs {
		byID[plug.ID] = plug
	}

	result := make(map[string][]model.Plug, len(buckets))
	for _, bucket := range buckets {
		list := make([]model.Plug, 0, len(bucket.PlugIDs))
		for _, id := range bucket.PlugIDs {
			plug, ok := byID[id]
			if !ok {
				r.logger.Warn("Bucket references missing plug",
					zap.String("department", bucket.Code),
					zap.Int("plug_id", id))
				continue
			}
			list = append(list, plug.Clone())
		}
		result[bucket.Code] = list
	}
	return result, nil
}

// Replace перезаписывает все плаги и бакеты
func (r *PlugRepository) Replace(ctx context.Context, buckets map[string][]model.Plug) error {
	if _, err := r.db.NewDelete().Model((*BucketRow)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear plug buckets: %w", err)
	}
	if _, err := r.db.NewDelete().Model((*model.Plug)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear plugs: %w", err)
	}

	seen := make(map[int]struct{})
	var plugs []model.Plug
	rows := make([]BucketRow, 0, len(buckets))
	for code, list := range buckets {
		row := BucketRow{Code: code, PlugIDs: make([]int, 0, len(list))}
		for _, plug := range list {
			row.PlugIDs = append(row.PlugIDs, plug.ID)
			if _, ok := seen[plug.ID]; ok {
				continue
			}
			seen[plug.ID] = struct{}{}
			plugs = append(plugs, plug)
		}
		rows = append(rows, row)
	}

	if len(plugs) > 0 {
		if _, err := r.db.NewInsert().Model(&plugs).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert plugs: %w", err)
		}
	}
	if len(rows) > 0 {
		if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert plug buckets: %w", err)
		}
	}

	r.logger.Debug("Plugs saved", zap.Int("plugs", len(plugs)), zap.Int("buckets", len(rows)))
	return nil
}
