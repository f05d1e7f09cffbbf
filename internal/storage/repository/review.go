package repository

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"lemiel/internal/model"
)

// ReviewRepository сохраняет ожидающие и одобренные отзывы в одной таблице
type ReviewRepository struct {
	db     bun.IDB
	logger *zap.Logger
}

// NewReviewRepository создает новый репозиторий отзывов
func NewReviewRepository(db bun.IDB, logger *zap.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:     db,
		logger: logger,
	}
}

// Load разделяет отзывы по статусу
func (r *ReviewRepository) Load(ctx context.Context) (*model.ReviewsSection, error) {
	var reviews []model.Review
	if err := r.db.NewSelect().Model(&reviews).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}

	section := &model.ReviewsSection{Pending: []model.Review{}, Approved: []model.Review{}}
	for _, review := range reviews {
		switch review.Status {
		case model.ReviewStatusApproved:
			section.Approved = append(section.Approved, review)
		case model.ReviewStatusPending:
			section.Pending = append(section.Pending, review)
		default:
			r.logger.Warn("Skipping review with unknown status",
				zap.Int64("review_id", review.ID),
				zap.String("status", review.Status.String()))
		}
	}
	return section, nil
}

// Replace перезаписывает все отзывы
func (r *ReviewRepository) Replace(ctx context.Context, section *model.ReviewsSection) error {
	if _, err := r.db.NewDelete().Model((*model.Review)(nil)).Where("TRUE").Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear reviews: %w", err)
	}
	if section == nil {
		return nil
	}

	rows := make([]model.Review, 0, len(section.Pending)+len(section.Approved))
	for _, review := range section.Pending {
		review.Status = model.ReviewStatusPending
		rows = append(rows, review)
	}
	for _, review := range section.Approved {
		review.Status = model.ReviewStatusApproved
		rows = append(rows, review)
	}
	if len(rows) == 0 {
		return nil
	}

	if _, err := r.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert reviews: %w", err)
	}
	return nil
}
