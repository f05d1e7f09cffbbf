// Package model содержит модели данных.
//
// Группа: ENTITIES - Основные сущности
// Содержит: Plug, PlugInput
package model

import (
	"regexp"
	"strings"

	"github.com/uptrace/bun"
)

const (
	// DefaultEmoji используется, если эмодзи не указан
	DefaultEmoji = "📍"

	// DefaultImage - изображение-заглушка для новых плагов
	DefaultImage = "https://i.ibb.co/mCTpqd9y/88f76eb4-a1ad-42ae-a853-2af312179d86-removebg-preview.png"

	// DefaultRating - начальная оценка, если она не задана
	DefaultRating = 4.5

	MinPlugRating = 0.0
	MaxPlugRating = 5.0
)

// Plug представляет запись каталога
type Plug struct {
	bun.BaseModel `bun:"table:plugs"`

	ID          int      `bun:"id,pk" json:"id"`
	Name        string   `bun:"name,notnull" json:"name"`
	Departments []string `bun:"departments,array" json:"departments"`
	// Department - устаревшее поле с одним департаментом, читается как fallback
	Department  string  `bun:"-" json:"department,omitempty"`
	Description string  `bun:"description" json:"description"`
	Telegram    string  `bun:"telegram" json:"telegram"`
	Emoji       string  `bun:"emoji" json:"emoji"`
	Image       string  `bun:"image" json:"image"`
	Rating      float64 `bun:"rating" json:"rating"`
	Active      bool    `bun:"active" json:"active"`
}

// DepartmentCodes возвращает список департаментов с учетом устаревшего поля
func (p *Plug) DepartmentCodes() []string {
	if len(p.Departments) > 0 {
		return NormalizeCodes(p.Departments)
	}
	if p.Department != "" {
		return NormalizeCodes([]string{p.Department})
	}
	return nil
}

// Clone возвращает независимую копию плага
func (p Plug) Clone() Plug {
	p.Departments = append([]string(nil), p.Departments...)
	return p
}

// TelegramHandle возвращает имя контакта без префикса t.me
func (p *Plug) TelegramHandle() string {
	handle := p.Telegram
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "https://telegram.me/", "http://telegram.me/"} {
		handle = strings.TrimPrefix(handle, prefix)
	}
	return handle
}

// Имя пользователя Telegram: 5-32 символа, начинается с буквы
var telegramUsername = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{4,31}$`)

// TelegramContact приводит контакт к ссылке: "@name", "name" и "t.me/name"
// становятся "https://t.me/name". Ссылки со схемой и нераспознанные значения
// возвращаются без изменений.
func TelegramContact(raw string) string {
	contact := strings.TrimSpace(raw)
	lower := strings.ToLower(contact)
	if contact == "" || strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return contact
	}

	contact = strings.TrimPrefix(contact, "@")
	for _, host := range []string{"t.me/", "telegram.me/"} {
		if strings.HasPrefix(strings.ToLower(contact), host) {
			return "https://" + contact
		}
	}
	if telegramUsername.MatchString(contact) {
		return "https://t.me/" + contact
	}
	return strings.TrimSpace(raw)
}

// PlugInput содержит поля для создания плага
type PlugInput struct {
	Name        string   `json:"name"`
	Departments []string `json:"departments"`
	// Department допускает строку вида "54,57,55"
	Department  string  `json:"department"`
	Description string  `json:"description"`
	Telegram    string  `json:"telegram"`
	Emoji       string  `json:"emoji"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating"`
}

// DepartmentCodes объединяет оба варианта указания департаментов
func (in *PlugInput) DepartmentCodes() []string {
	codes := append([]string(nil), in.Departments...)
	if in.Department != "" {
		codes = append(codes, strings.Split(in.Department, ",")...)
	}
	return NormalizeCodes(codes)
}

// Validate проверяет обязательные поля
func (in *PlugInput) Validate() error {
	var errs ValidationErrors

	errs.Add(ValidateRequired("name", in.Name))
	errs.Add(ValidateNonEmptyList("departments", in.DepartmentCodes()))
	errs.Add(ValidateRequired("description", in.Description))
	errs.Add(ValidateRequired("telegram", in.Telegram))
	errs.Add(ValidateURL("telegram", TelegramContact(in.Telegram)))
	errs.Add(ValidateURL("image", strings.TrimSpace(in.Image)))
	errs.Add(ValidateFloatRange("rating", in.Rating, MinPlugRating, MaxPlugRating))

	return errs.Err()
}

// NormalizeCodes обрезает пробелы, убирает пустые значения и дубликаты,
// сохраняя порядок первого вхождения
func NormalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	result := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		result = append(result, code)
	}
	return result
}
