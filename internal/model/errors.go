// Package model содержит ошибки предметной области.
package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound возвращается, когда сущность с указанным ключом отсутствует
	ErrNotFound = errors.New("not found")

	// ErrForbidden возвращается, когда пользователь не входит в whitelist администраторов
	ErrForbidden = errors.New("forbidden: admin access required")

	// ErrSelfRemoval возвращается при попытке администратора удалить самого себя
	ErrSelfRemoval = errors.New("admin cannot remove themselves from the whitelist")
)

// NotFoundError описывает отсутствующую сущность
type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Is позволяет сравнивать через errors.Is(err, ErrNotFound)
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound создает NotFoundError для сущности с ключом любого типа
func NewNotFound(entity string, key any) error {
	return NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

// DuplicateError возвращается при попытке создать уже существующую сущность
type DuplicateError struct {
	Entity string
	Key    string
}

func (e DuplicateError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.Key)
}

// IsDuplicate проверяет, является ли ошибка DuplicateError
func IsDuplicate(err error) bool {
	var dup DuplicateError
	return errors.As(err, &dup)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации
func IsValidation(err error) bool {
	var single ValidationError
	var multi ValidationErrors
	return errors.As(err, &single) || errors.As(err, &multi)
}
