package service

import (
	"context"
	"fmt"

	"lemiel/internal/model"
)

// Plugs возвращает отображение департамент → плаги
func (s *State) Plugs() map[string][]model.Plug {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Buckets()
}

// UniquePlugs возвращает плаги без повторов, по возрастанию id
func (s *State) UniquePlugs() []model.Plug {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.ListUnique()
}

// Plug возвращает плаг по id
func (s *State) Plug(id int) (model.Plug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plug, ok := s.store.Get(id)
	if !ok {
		return model.Plug{}, model.NewNotFound("plug", id)
	}
	return plug, nil
}

// DepartmentPlugs возвращает плаги департамента в порядке бакета
func (s *State) DepartmentPlugs(code string) []model.Plug {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.ListByDepartment(code)
}

// Departments возвращает отображение код → департамент
func (s *State) Departments() map[string]model.Department {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Map()
}

// DepartmentList возвращает департаменты по коду вместе с числом плагов
func (s *State) DepartmentList() ([]model.Department, map[string]int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	departments := s.registry.List()
	counts := make(map[string]int, len(departments))
	for _, dept := range departments {
		counts[dept.Code] = s.store.Count(dept.Code)
	}
	return departments, counts
}

// AddPlug создает плаг
func (s *State) AddPlug(ctx context.Context, admin string, input model.PlugInput) (model.Plug, error) {
	var created model.Plug
	err := s.mutate(ctx, admin, []model.Section{model.SectionPlugs}, func() (*auditRecord, error) {
		plug, err := s.store.AddPlug(input)
		if err != nil {
			return nil, err
		}
		created = plug
		return &auditRecord{
			action:  model.ActionAddPlug,
			details: fmt.Sprintf("Plug #%d ajouté: %s", plug.ID, plug.Name),
			after:   plug,
		}, nil
	})
	return created, err
}

// DeletePlug удаляет плаг из всех департаментов. Отзывы плага остаются.
func (s *State) DeletePlug(ctx context.Context, admin string, id int) (model.Plug, error) {
	var deleted model.Plug
	err := s.mutate(ctx, admin, []model.Section{model.SectionPlugs}, func() (*auditRecord, error) {
		plug, err := s.store.DeletePlug(id)
		if err != nil {
			return nil, err
		}
		deleted = plug
		return &auditRecord{
			action:  model.ActionDeletePlug,
			details: fmt.Sprintf("Plug #%d supprimé: %s", plug.ID, plug.Name),
			before:  plug,
		}, nil
	})
	return deleted, err
}

// AddDepartment регистрирует департамент и создает пустой бакет
func (s *State) AddDepartment(ctx context.Context, admin, code, name, emoji string) (model.Department, error) {
	var created model.Department
	sections := []model.Section{model.SectionDepartments, model.SectionPlugs}
	err := s.mutate(ctx, admin, sections, func() (*auditRecord, error) {
		dept, err := s.registry.Add(code, name, emoji)
		if err != nil {
			return nil, err
		}
		created = dept
		return &auditRecord{
			action:  model.ActionAddDepartment,
			details: fmt.Sprintf("Département ajouté: %s %s", dept.Code, dept.Name),
			after:   dept,
		}, nil
	})
	return created, err
}

// DeleteDepartment удаляет только метаданные; плаги и бакет остаются
func (s *State) DeleteDepartment(ctx context.Context, admin, code string) (model.Department, error) {
	var deleted model.Department
	err := s.mutate(ctx, admin, []model.Section{model.SectionDepartments}, func() (*auditRecord, error) {
		dept, err := s.registry.Delete(code)
		if err != nil {
			return nil, err
		}
		deleted = dept
		return &auditRecord{
			action:  model.ActionDeleteDepartment,
			details: fmt.Sprintf("Département supprimé: %s %s", dept.Code, dept.Name),
			before:  dept,
		}, nil
	})
	return deleted, err
}
