// Package access содержит whitelist администраторов.
package access

import (
	"strings"

	"lemiel/internal/model"
)

// Whitelist хранит имена администраторов в исходном написании.
// Сравнение регистронезависимое, ведущий @ игнорируется.
type Whitelist struct {
	usernames []string
}

// NewWhitelist создает whitelist из списка имен, пропуская пустые и повторы
func NewWhitelist(usernames []string) *Whitelist {
	w := &Whitelist{}
	for _, username := range usernames {
		if Normalize(username) == "" || w.IsAdmin(username) {
			continue
		}
		w.usernames = append(w.usernames, clean(username))
	}
	return w
}

// Normalize приводит имя пользователя к виду для сравнения
func Normalize(username string) string {
	return strings.ToLower(clean(username))
}

func clean(username string) string {
	return strings.TrimPrefix(strings.TrimSpace(username), "@")
}

// IsAdmin проверяет, входит ли пользователь в whitelist
func (w *Whitelist) IsAdmin(username string) bool {
	return w.index(username) >= 0
}

// Add добавляет администратора
func (w *Whitelist) Add(username string) (string, error) {
	name := clean(username)
	if name == "" {
		return "", model.ValidationError{Field: "username", Message: "is required"}
	}
	if w.IsAdmin(name) {
		return "", model.DuplicateError{Entity: "admin", Key: name}
	}
	w.usernames = append(w.usernames, name)
	return name, nil
}

// Remove удаляет администратора и возвращает имя в сохраненном написании
func (w *Whitelist) Remove(username string) (string, error) {
	i := w.index(username)
	if i < 0 {
		return "", model.NewNotFound("admin", clean(username))
	}
	name := w.usernames[i]
	w.usernames = append(w.usernames[:i], w.usernames[i+1:]...)
	return name, nil
}

// List возвращает копию списка администраторов
func (w *Whitelist) List() []string {
	return append([]string{}, w.usernames...)
}

// Len возвращает количество администраторов
func (w *Whitelist) Len() int {
	return len(w.usernames)
}

func (w *Whitelist) index(username string) int {
	target := Normalize(username)
	if target == "" {
		return -1
	}
	for i, name := range w.usernames {
		if strings.ToLower(name) == target {
			return i
		}
	}
	return -1
}
