// Package review содержит очередь модерации отзывов и пересчет оценок.
package review

import (
	"strings"
	"time"

	"lemiel/internal/model"
)

// Queue хранит отзывы в двух списках: ожидающие и одобренные.
// Отклоненные отзывы удаляются без следа.
type Queue struct {
	pending  []model.Review
	approved []model.Review
	now      func() time.Time
	lastID   int64
}

// NewQueue создает очередь из сохраненного раздела отзывов
func NewQueue(section *model.ReviewsSection, now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	q := &Queue{now: now}
	if section != nil {
		q.pending = cloneReviews(section.Pending)
		q.approved = cloneReviews(section.Approved)
	}
	for _, r := range append(q.pending, q.approved...) {
		if r.ID > q.lastID {
			q.lastID = r.ID
		}
	}
	return q
}

// Submit ставит отзыв в очередь на модерацию; на оценку плага не влияет
func (q *Queue) Submit(input model.ReviewInput) (model.Review, error) {
	if err := input.Validate(); err != nil {
		return model.Review{}, err
	}

	now := q.now()
	review := model.Review{
		ID:       q.nextID(now),
		PlugID:   input.PlugID,
		Username: strings.TrimSpace(input.Username),
		Rating:   input.Rating,
		Comment:  strings.TrimSpace(input.Comment),
		Date:     now.UTC(),
		Status:   model.ReviewStatusPending,
	}
	q.pending = append(q.pending, review)
	return review, nil
}

// Approve переводит ожидающий отзыв в одобренные
func (q *Queue) Approve(id int64) (model.Review, error) {
	review, rest, ok := take(q.pending, id)
	if !ok {
		return model.Review{}, model.NewNotFound("pending review", id)
	}
	q.pending = rest
	review.Status = model.ReviewStatusApproved
	q.approved = append(q.approved, review)
	return review, nil
}

// Reject удаляет ожидающий отзыв
func (q *Queue) Reject(id int64) (model.Review, error) {
	review, rest, ok := take(q.pending, id)
	if !ok {
		return model.Review{}, model.NewNotFound("pending review", id)
	}
	q.pending = rest
	return review, nil
}

// Delete удаляет одобренный отзыв
func (q *Queue) Delete(id int64) (model.Review, error) {
	review, rest, ok := take(q.approved, id)
	if !ok {
		return model.Review{}, model.NewNotFound("approved review", id)
	}
	q.approved = rest
	return review, nil
}

// Pending возвращает копию ожидающих отзывов
func (q *Queue) Pending() []model.Review {
	return cloneReviews(q.pending)
}

// Approved возвращает копию одобренных отзывов
func (q *Queue) Approved() []model.Review {
	return cloneReviews(q.approved)
}

// ApprovedFor возвращает одобренные отзывы плага
func (q *Queue) ApprovedFor(plugID int) []model.Review {
	var result []model.Review
	for _, r := range q.approved {
		if r.PlugID == plugID {
			result = append(result, r)
		}
	}
	return result
}

// Section возвращает раздел для сохранения
func (q *Queue) Section() *model.ReviewsSection {
	return &model.ReviewsSection{
		Pending:  cloneReviews(q.pending),
		Approved: cloneReviews(q.approved),
	}
}

// nextID строит id из времени в миллисекундах, сохраняя строгий рост внутри процесса
func (q *Queue) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= q.lastID {
		id = q.lastID + 1
	}
	q.lastID = id
	return id
}

func take(reviews []model.Review, id int64) (model.Review, []model.Review, bool) {
	for i, r := range reviews {
		if r.ID == id {
			rest := make([]model.Review, 0, len(reviews)-1)
			rest = append(rest, reviews[:i]...)
			rest = append(rest, reviews[i+1:]...)
			return r, rest, true
		}
	}
	return model.Review{}, reviews, false
}

func cloneReviews(reviews []model.Review) []model.Review {
	return append([]model.Review{}, reviews...)
}
