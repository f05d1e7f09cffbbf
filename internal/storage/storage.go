// Package storage содержит бэкенды сохранения состояния каталога.
//
// Состояние сохраняется по разделам (lemiel_plugs, lemiel_departments,
// lemiel_reviews, lemiel_admin_logs, lemiel_admins). Каждая мутация
// перезаписывает затронутые разделы целиком.
package storage

import (
	"context"
	"errors"

	"lemiel/internal/model"
)

// ErrKeyNotFound возвращается KV-хранилищем при отсутствии ключа
var ErrKeyNotFound = errors.New("key not found")

// Backend - хранилище разделов состояния
type Backend interface {
	// Load возвращает снимок, в котором заполнены только сохраненные разделы
	Load(ctx context.Context) (*model.Snapshot, error)
	// Save перезаписывает указанные разделы; без списка сохраняются все
	Save(ctx context.Context, snap *model.Snapshot, sections ...model.Section) error
	Ping(ctx context.Context) error
	Close() error
	Name() string
}

func sectionsOrAll(sections []model.Section) []model.Section {
	if len(sections) == 0 {
		return model.AllSections
	}
	return sections
}
