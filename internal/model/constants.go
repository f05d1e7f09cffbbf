// Package model содержит константы для моделей.
//
// Группа: BASE - Базовые компоненты
// Содержит: ReviewStatus, Action, Section
package model

// ReviewStatus представляет статус отзыва
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
)

// String возвращает строковое представление статуса
func (s ReviewStatus) String() string {
	return string(s)
}

// IsValid проверяет валидность статуса
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved:
		return true
	default:
		return false
	}
}

// Action - имя действия администратора в журнале
type Action string

const (
	ActionAddPlug          Action = "add_plug"
	ActionDeletePlug       Action = "delete_plug"
	ActionAddDepartment    Action = "add_department"
	ActionDeleteDepartment Action = "delete_department"
	ActionApproveReview    Action = "approve_review"
	ActionRejectReview     Action = "reject_review"
	ActionDeleteReview     Action = "delete_review"
	ActionAddAdmin         Action = "add_admin"
	ActionRemoveAdmin      Action = "remove_admin"
	ActionClearLogs        Action = "clear_logs"
)

// Категории журнала определяются подстрокой в имени действия
const (
	LogCategoryPlug       = "plug"
	LogCategoryDepartment = "department"
	LogCategoryReview     = "review"
	LogCategoryAdmin      = "admin"
)

// LogCategories перечисляет известные категории журнала
var LogCategories = []string{LogCategoryPlug, LogCategoryDepartment, LogCategoryReview, LogCategoryAdmin}

// Section - раздел сохраняемого состояния; значения совпадают с ключами хранилища
type Section string

const (
	SectionPlugs       Section = "lemiel_plugs"
	SectionDepartments Section = "lemiel_departments"
	SectionReviews     Section = "lemiel_reviews"
	SectionAdminLogs   Section = "lemiel_admin_logs"
	SectionAdmins      Section = "lemiel_admins"
)

// AllSections перечисляет все разделы в порядке сохранения
var AllSections = []Section{SectionPlugs, SectionDepartments, SectionReviews, SectionAdminLogs, SectionAdmins}

// String возвращает ключ хранилища
func (s Section) String() string {
	return string(s)
}
