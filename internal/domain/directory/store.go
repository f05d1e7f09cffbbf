// Package directory содержит хранилище плагов и реестр департаментов.
//
// Плаги хранятся один раз в таблице по id, а департаменты держат только
// упорядоченные списки id (вторичный индекс). Поэтому изменение плага
// видно из всех департаментов сразу.
package directory

import (
	"sort"
	"strings"

	"lemiel/internal/model"
)

// Store - хранилище плагов с индексом по департаментам
type Store struct {
	plugs   map[int]*model.Plug
	buckets map[string][]int
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		plugs:   make(map[int]*model.Plug),
		buckets: make(map[string][]int),
	}
}

// NewStoreFromBuckets строит хранилище из отображения департамент → плаги.
// Один и тот же id в нескольких департаментах сворачивается в одну запись
// (побеждает первое вхождение в порядке сортировки кодов).
func NewStoreFromBuckets(buckets map[string][]model.Plug) *Store {
	s := NewStore()

	codes := make([]string, 0, len(buckets))
	for code := range buckets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		s.EnsureBucket(code)
		for _, plug := range buckets[code] {
			if _, ok := s.plugs[plug.ID]; !ok {
				stored := plug.Clone()
				stored.Departments = plug.DepartmentCodes()
				stored.Department = ""
				s.plugs[plug.ID] = &stored
			}
			s.index(code, plug.ID)
		}
	}

	// Плаг мог объявить департамент, в бакете которого он не лежал
	for _, id := range s.sortedIDs() {
		plug := s.plugs[id]
		for _, code := range plug.Departments {
			s.index(code, id)
		}
		plug.Departments = s.membership(id, plug.Departments)
	}

	return s
}

// AddPlug проверяет поля, назначает id = max+1 и кладет плаг во все департаменты
func (s *Store) AddPlug(input model.PlugInput) (model.Plug, error) {
	if err := input.Validate(); err != nil {
		return model.Plug{}, err
	}

	plug := &model.Plug{
		ID:          s.maxID() + 1,
		Name:        strings.TrimSpace(input.Name),
		Departments: input.DepartmentCodes(),
		Description: strings.TrimSpace(input.Description),
		Telegram:    model.TelegramContact(input.Telegram),
		Emoji:       strings.TrimSpace(input.Emoji),
		Image:       strings.TrimSpace(input.Image),
		Rating:      input.Rating,
		Active:      true,
	}
	if plug.Emoji == "" {
		plug.Emoji = model.DefaultEmoji
	}
	if plug.Image == "" {
		plug.Image = model.DefaultImage
	}
	if plug.Rating == 0 {
		plug.Rating = model.DefaultRating
	}

	s.plugs[plug.ID] = plug
	for _, code := range plug.Departments {
		s.EnsureBucket(code)
		s.index(code, plug.ID)
	}

	return plug.Clone(), nil
}

// DeletePlug удаляет плаг из всех департаментов
func (s *Store) DeletePlug(id int) (model.Plug, error) {
	plug, ok := s.plugs[id]
	if !ok {
		return model.Plug{}, model.NewNotFound("plug", id)
	}

	for code, ids := range s.buckets {
		s.buckets[code] = removeID(ids, id)
	}
	delete(s.plugs, id)

	return plug.Clone(), nil
}

// Get возвращает копию плага по id
func (s *Store) Get(id int) (model.Plug, bool) {
	plug, ok := s.plugs[id]
	if !ok {
		return model.Plug{}, false
	}
	return plug.Clone(), true
}

// SetRating перезаписывает оценку плага
func (s *Store) SetRating(id int, rating float64) error {
	plug, ok := s.plugs[id]
	if !ok {
		return model.NewNotFound("plug", id)
	}
	plug.Rating = rating
	return nil
}

// ListUnique возвращает все плаги без повторов, отсортированные по id
func (s *Store) ListUnique() []model.Plug {
	ids := s.sortedIDs()
	result := make([]model.Plug, 0, len(ids))
	for _, id := range ids {
		result = append(result, s.plugs[id].Clone())
	}
	return result
}

// ListByDepartment возвращает плаги департамента в порядке добавления
func (s *Store) ListByDepartment(code string) []model.Plug {
	ids := s.buckets[code]
	result := make([]model.Plug, 0, len(ids))
	for _, id := range ids {
		if plug, ok := s.plugs[id]; ok {
			result = append(result, plug.Clone())
		}
	}
	return result
}

// Count возвращает количество плагов в департаменте
func (s *Store) Count(code string) int {
	return len(s.buckets[code])
}

// Len возвращает количество уникальных плагов
func (s *Store) Len() int {
	return len(s.plugs)
}

// EnsureBucket создает пустой департамент, если его еще нет
func (s *Store) EnsureBucket(code string) {
	if _, ok := s.buckets[code]; !ok {
		s.buckets[code] = []int{}
	}
}

// HasBucket проверяет наличие департамента в индексе
func (s *Store) HasBucket(code string) bool {
	_, ok := s.buckets[code]
	return ok
}

// Buckets возвращает отображение департамент → плаги (форма config.json)
func (s *Store) Buckets() map[string][]model.Plug {
	result := make(map[string][]model.Plug, len(s.buckets))
	for code := range s.buckets {
		result[code] = s.ListByDepartment(code)
	}
	return result
}

// BucketCodes возвращает отсортированные коды департаментов индекса
func (s *Store) BucketCodes() []string {
	codes := make([]string, 0, len(s.buckets))
	for code := range s.buckets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (s *Store) index(code string, id int) {
	for _, existing := range s.buckets[code] {
		if existing == id {
			return
		}
	}
	s.buckets[code] = append(s.buckets[code], id)
}

// membership возвращает департаменты плага: сначала объявленные, затем найденные в индексе
func (s *Store) membership(id int, declared []string) []string {
	codes := append([]string(nil), declared...)
	for _, code := range s.BucketCodes() {
		for _, existing := range s.buckets[code] {
			if existing == id {
				codes = append(codes, code)
				break
			}
		}
	}
	return model.NormalizeCodes(codes)
}

func (s *Store) maxID() int {
	maxID := 0
	for id := range s.plugs {
		if id > maxID {
			maxID = id
		}
	}
	return maxID
}

func (s *Store) sortedIDs() []int {
	ids := make([]int, 0, len(s.plugs))
	for id := range s.plugs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func removeID(ids []int, id int) []int {
	result := ids[:0]
	for _, existing := range ids {
		if existing != id {
			result = append(result, existing)
		}
	}
	return result
}
