// Package model содержит модели данных.
//
// Группа: STATE - Снимок состояния
// Содержит: Snapshot, AdminsSection, ReviewsSection
package model

// Snapshot повторяет форму config.json. Nil-поле означает, что раздел отсутствует.
type Snapshot struct {
	Plugs       map[string][]Plug     `json:"plugs"`
	Departments map[string]Department `json:"departments"`
	Admins      *AdminsSection        `json:"admins,omitempty"`
	Reviews     *ReviewsSection       `json:"reviews,omitempty"`
	AdminLogs   []AdminLogEntry       `json:"adminLogs,omitempty"`
}

// AdminsSection содержит whitelist администраторов
type AdminsSection struct {
	Whitelist []string `json:"whitelist"`
}

// ReviewsSection содержит очереди отзывов
type ReviewsSection struct {
	Pending  []Review `json:"pending"`
	Approved []Review `json:"approved"`
}

// Has проверяет, присутствует ли раздел в снимке
func (s *Snapshot) Has(section Section) bool {
	if s == nil {
		return false
	}
	switch section {
	case SectionPlugs:
		return s.Plugs != nil
	case SectionDepartments:
		return s.Departments != nil
	case SectionReviews:
		return s.Reviews != nil
	case SectionAdminLogs:
		return s.AdminLogs != nil
	case SectionAdmins:
		return s.Admins != nil
	default:
		return false
	}
}

// Overlay возвращает снимок, в котором разделы из top заменяют разделы base
func Overlay(base, top *Snapshot) *Snapshot {
	result := &Snapshot{}
	if base != nil {
		*result = *base
	}
	if top == nil {
		return result
	}
	if top.Plugs != nil {
		result.Plugs = top.Plugs
	}
	if top.Departments != nil {
		result.Departments = top.Departments
	}
	if top.Admins != nil {
		result.Admins = top.Admins
	}
	if top.Reviews != nil {
		result.Reviews = top.Reviews
	}
	if top.AdminLogs != nil {
		result.AdminLogs = top.AdminLogs
	}
	return result
}
