package storage

import (
	"encoding/json"
	"fmt"

	"lemiel/internal/model"
)

// EncodeSection сериализует раздел снимка в JSON
func EncodeSection(snap *model.Snapshot, section model.Section) ([]byte, error) {
	var value any
	switch section {
	case model.SectionPlugs:
		value = nonNilPlugs(snap.Plugs)
	case model.SectionDepartments:
		value = nonNilDepartments(snap.Departments)
	case model.SectionReviews:
		reviews := snap.Reviews
		if reviews == nil {
			reviews = &model.ReviewsSection{}
		}
		value = model.ReviewsSection{
			Pending:  nonNilReviews(reviews.Pending),
			Approved: nonNilReviews(reviews.Approved),
		}
	case model.SectionAdminLogs:
		logs := snap.AdminLogs
		if logs == nil {
			logs = []model.AdminLogEntry{}
		}
		value = logs
	case model.SectionAdmins:
		admins := model.AdminsSection{Whitelist: []string{}}
		if snap.Admins != nil && snap.Admins.Whitelist != nil {
			admins.Whitelist = snap.Admins.Whitelist
		}
		value = admins
	default:
		return nil, fmt.Errorf("unknown section %q", section)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode section %s: %w", section, err)
	}
	return data, nil
}

// DecodeSection разбирает JSON раздела и записывает его в dst.
// При ошибке dst не меняется.
func DecodeSection(dst *model.Snapshot, section model.Section, data []byte) error {
	switch section {
	case model.SectionPlugs:
		var plugs map[string][]model.Plug
		if err := json.Unmarshal(data, &plugs); err != nil {
			return err
		}
		dst.Plugs = nonNilPlugs(plugs)
	case model.SectionDepartments:
		var departments map[string]model.Department
		if err := json.Unmarshal(data, &departments); err != nil {
			return err
		}
		dst.Departments = nonNilDepartments(departments)
	case model.SectionReviews:
		var reviews model.ReviewsSection
		if err := json.Unmarshal(data, &reviews); err != nil {
			return err
		}
		dst.Reviews = &reviews
	case model.SectionAdminLogs:
		var logs []model.AdminLogEntry
		if err := json.Unmarshal(data, &logs); err != nil {
			return err
		}
		if logs == nil {
			logs = []model.AdminLogEntry{}
		}
		dst.AdminLogs = logs
	case model.SectionAdmins:
		var admins model.AdminsSection
		if err := json.Unmarshal(data, &admins); err != nil {
			return err
		}
		dst.Admins = &admins
	default:
		return fmt.Errorf("unknown section %q", section)
	}
	return nil
}

func nonNilPlugs(plugs map[string][]model.Plug) map[string][]model.Plug {
	if plugs == nil {
		return map[string][]model.Plug{}
	}
	for code, list := range plugs {
		if list == nil {
			plugs[code] = []model.Plug{}
		}
	}
	return plugs
}

func nonNilDepartments(departments map[string]model.Department) map[string]model.Department {
	if departments == nil {
		return map[string]model.Department{}
	}
	return departments
}

func nonNilReviews(reviews []model.Review) []model.Review {
	if reviews == nil {
		return []model.Review{}
	}
	return reviews
}
