// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Review, ReviewInput
package model

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review представляет отзыв пользователя о плаге
type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID       int64        `bun:"id,pk" json:"id"`
	PlugID   int          `bun:"plug_id,notnull" json:"plugId"`
	Username string       `bun:"username" json:"username"`
	Rating   int          `bun:"rating,notnull" json:"rating"`
	Comment  string       `bun:"comment" json:"comment"`
	Date     time.Time    `bun:"date,notnull" json:"date"`
	Status   ReviewStatus `bun:"status,notnull" json:"status"`
}

// ReviewInput содержит поля отправляемого отзыва
type ReviewInput struct {
	PlugID   int    `json:"plugId"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

// Validate проверяет оценку и комментарий
func (in *ReviewInput) Validate() error {
	var errs ValidationErrors
	if in.Rating == 0 {
		errs.Add(ValidationError{Field: "rating", Message: "is required"})
	} else {
		errs.Add(ValidateIntRange("rating", in.Rating, MinReviewRating, MaxReviewRating))
	}
	errs.Add(ValidateRequired("comment", in.Comment))
	return errs.Err()
}
