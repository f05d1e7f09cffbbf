// Package model содержит валидаторы для моделей.
//
// Группа: BASE - Базовые компоненты
// Содержит: Validator, ValidationError, ValidationErrors, валидаторы
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator представляет интерфейс валидатора
type Validator interface {
	Validate() error
}

// ValidationError представляет ошибку валидации
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors представляет множество ошибок валидации
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// HasErrors проверяет, есть ли ошибки валидации
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add добавляет ошибку, если она не nil
func (ve *ValidationErrors) Add(err error) {
	if err == nil {
		return
	}
	if v, ok := err.(ValidationError); ok {
		*ve = append(*ve, v)
		return
	}
	*ve = append(*ve, ValidationError{Field: "unknown", Message: err.Error()})
}

// Err возвращает nil, если ошибок нет
func (ve ValidationErrors) Err() error {
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// Regex для проверки URL
var urlRegex = regexp.MustCompile(`^https?://[^\s/$.?#].[^\s]*$`)

// ValidateRequired проверяет, что поле не пустое
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateLength проверяет длину строки
func ValidateLength(field, value string, min, max int) error {
	length := len([]rune(strings.TrimSpace(value)))
	if length < min {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters", min)}
	}
	if length > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}
	}
	return nil
}

// ValidateURL проверяет формат URL
func ValidateURL(field, url string) error {
	if url == "" {
		return nil // URL не обязателен
	}
	if !urlRegex.MatchString(url) {
		return ValidationError{Field: field, Message: "invalid URL format"}
	}
	return nil
}

// ValidateFloatRange проверяет, что число лежит в [min, max]
func ValidateFloatRange(field string, value, min, max float64) error {
	if value < min || value > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be between %g and %g", min, max)}
	}
	return nil
}

// ValidateIntRange проверяет, что целое число лежит в [min, max]
func ValidateIntRange(field string, value, min, max int) error {
	if value < min || value > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max)}
	}
	return nil
}

// ValidateNonEmptyList проверяет, что список содержит хотя бы один элемент
func ValidateNonEmptyList(field string, values []string) error {
	if len(values) == 0 {
		return ValidationError{Field: field, Message: "at least one value is required"}
	}
	return nil
}
