package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lemiel/internal/model"
)

// Reviews возвращает очереди отзывов
func (s *State) Reviews() *model.ReviewsSection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Section()
}

// SubmitReview ставит отзыв в очередь модерации.
// Отзыв на несуществующий плаг отклоняется с ErrNotFound.
func (s *State) SubmitReview(ctx context.Context, input model.ReviewInput) (model.Review, error) {
	var submitted model.Review
	err := s.mutatePublic(ctx, []model.Section{model.SectionReviews}, func() (*auditRecord, error) {
		if err := input.Validate(); err != nil {
			return nil, err
		}
		if _, ok := s.store.Get(input.PlugID); !ok {
			return nil, model.NewNotFound("plug", input.PlugID)
		}
		r, err := s.queue.Submit(input)
		if err != nil {
			return nil, err
		}
		submitted = r
		return nil, nil
	})
	if err == nil {
		s.logger.Info("Review submitted",
			zap.Int64("review_id", submitted.ID),
			zap.Int("plug_id", submitted.PlugID),
			zap.String("username", submitted.Username))
	}
	return submitted, err
}

// ApproveReview одобряет отзыв и пересчитывает оценку плага
func (s *State) ApproveReview(ctx context.Context, admin string, id int64) (model.Review, error) {
	var approved model.Review
	sections := []model.Section{model.SectionReviews, model.SectionPlugs}
	err := s.mutate(ctx, admin, sections, func() (*auditRecord, error) {
		r, err := s.queue.Approve(id)
		if err != nil {
			return nil, err
		}
		approved = r
		s.recompute(r.PlugID)
		return &auditRecord{
			action:  model.ActionApproveReview,
			details: fmt.Sprintf("Avis #%d approuvé pour le plug #%d (%d/5)", r.ID, r.PlugID, r.Rating),
			after:   r,
		}, nil
	})
	return approved, err
}

// RejectReview удаляет ожидающий отзыв
func (s *State) RejectReview(ctx context.Context, admin string, id int64) (model.Review, error) {
	var rejected model.Review
	err := s.mutate(ctx, admin, []model.Section{model.SectionReviews}, func() (*auditRecord, error) {
		r, err := s.queue.Reject(id)
		if err != nil {
			return nil, err
		}
		rejected = r
		return &auditRecord{
			action:  model.ActionRejectReview,
			details: fmt.Sprintf("Avis #%d rejeté pour le plug #%d", r.ID, r.PlugID),
			before:  r,
		}, nil
	})
	return rejected, err
}

// DeleteReview удаляет одобренный отзыв и пересчитывает оценку плага
func (s *State) DeleteReview(ctx context.Context, admin string, id int64) (model.Review, error) {
	var deleted model.Review
	sections := []model.Section{model.SectionReviews, model.SectionPlugs}
	err := s.mutate(ctx, admin, sections, func() (*auditRecord, error) {
		r, err := s.queue.Delete(id)
		if err != nil {
			return nil, err
		}
		deleted = r
		s.recompute(r.PlugID)
		return &auditRecord{
			action:  model.ActionDeleteReview,
			details: fmt.Sprintf("Avis #%d supprimé pour le plug #%d", r.ID, r.PlugID),
			before:  r,
		}, nil
	})
	return deleted, err
}

// recompute пересчитывает оценку; висячая ссылка на плаг только логируется
func (s *State) recompute(plugID int) {
	rating, changed, err := s.aggregator.Recompute(plugID)
	if err != nil {
		s.logger.Warn("Failed to recompute plug rating",
			zap.Int("plug_id", plugID),
			zap.Error(err))
		return
	}
	if changed {
		s.logger.Info("Plug rating recomputed",
			zap.Int("plug_id", plugID),
			zap.Float64("rating", rating))
	}
}
