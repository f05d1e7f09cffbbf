// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Department
package model

import "github.com/uptrace/bun"

// Department представляет географическую группу (номер департамента)
type Department struct {
	bun.BaseModel `bun:"table:departments"`

	Code  string `bun:"code,pk" json:"code,omitempty"`
	Name  string `bun:"name,notnull" json:"name"`
	Emoji string `bun:"emoji" json:"emoji"`
}

// Validate проверяет обязательные поля
func (d *Department) Validate() error {
	var errs ValidationErrors
	errs.Add(ValidateRequired("code", d.Code))
	errs.Add(ValidateRequired("name", d.Name))
	return errs.Err()
}
