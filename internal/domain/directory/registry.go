package directory

import (
	"sort"
	"strings"

	"lemiel/internal/model"
)

// Registry хранит метаданные департаментов.
// Удаление департамента не трогает плаги: индекс в Store остается как есть.
type Registry struct {
	departments map[string]model.Department
	store       *Store
}

// NewRegistry создает реестр, связанный с хранилищем плагов
func NewRegistry(store *Store, departments map[string]model.Department) *Registry {
	r := &Registry{
		departments: make(map[string]model.Department, len(departments)),
		store:       store,
	}
	for code, dept := range departments {
		dept.Code = code
		r.departments[code] = dept
	}
	return r
}

// Add регистрирует департамент и создает для него пустой бакет
func (r *Registry) Add(code, name, emoji string) (model.Department, error) {
	dept := model.Department{
		Code:  strings.TrimSpace(code),
		Name:  strings.TrimSpace(name),
		Emoji: strings.TrimSpace(emoji),
	}
	if err := dept.Validate(); err != nil {
		return model.Department{}, err
	}
	if _, exists := r.departments[dept.Code]; exists {
		return model.Department{}, model.DuplicateError{Entity: "department", Key: dept.Code}
	}
	if dept.Emoji == "" {
		dept.Emoji = model.DefaultEmoji
	}

	r.departments[dept.Code] = dept
	if r.store != nil {
		r.store.EnsureBucket(dept.Code)
	}
	return dept, nil
}

// Delete удаляет метаданные департамента
func (r *Registry) Delete(code string) (model.Department, error) {
	dept, ok := r.departments[code]
	if !ok {
		return model.Department{}, model.NewNotFound("department", code)
	}
	delete(r.departments, code)
	return dept, nil
}

// Get возвращает департамент по коду
func (r *Registry) Get(code string) (model.Department, bool) {
	dept, ok := r.departments[code]
	return dept, ok
}

// List возвращает департаменты, отсортированные по коду
func (r *Registry) List() []model.Department {
	result := make([]model.Department, 0, len(r.departments))
	for _, dept := range r.departments {
		result = append(result, dept)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result
}

// Map возвращает отображение код → департамент (форма config.json)
func (r *Registry) Map() map[string]model.Department {
	result := make(map[string]model.Department, len(r.departments))
	for code, dept := range r.departments {
		result[code] = dept
	}
	return result
}

// Len возвращает количество департаментов
func (r *Registry) Len() int {
	return len(r.departments)
}
