// Package audit содержит журнал действий администраторов.
package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"lemiel/internal/model"
)

// MaxEntries - максимальное число записей в журнале
const MaxEntries = 200

// Log хранит записи от новых к старым
type Log struct {
	entries []model.AdminLogEntry
	now     func() time.Time
	lastID  int64
}

// NewLog создает журнал из сохраненных записей
func NewLog(entries []model.AdminLogEntry, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	l := &Log{now: now}
	for _, e := range entries {
		if e.ID > l.lastID {
			l.lastID = e.ID
		}
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	l.entries = append([]model.AdminLogEntry{}, entries...)
	return l
}

// Record добавляет запись в начало журнала. before и after сериализуются в JSON.
func (l *Log) Record(admin string, action model.Action, details string, before, after any) (model.AdminLogEntry, error) {
	beforeJSON, err := marshalSnapshot(before)
	if err != nil {
		return model.AdminLogEntry{}, fmt.Errorf("failed to encode before snapshot: %w", err)
	}
	afterJSON, err := marshalSnapshot(after)
	if err != nil {
		return model.AdminLogEntry{}, fmt.Errorf("failed to encode after snapshot: %w", err)
	}

	now := l.now()
	id := now.UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	entry := model.AdminLogEntry{
		ID:        id,
		Timestamp: now.UTC(),
		Admin:     admin,
		Action:    action,
		Details:   details,
		Before:    beforeJSON,
		After:     afterJSON,
	}

	l.entries = append([]model.AdminLogEntry{entry}, l.entries...)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
	return entry, nil
}

// Entries возвращает копию всех записей
func (l *Log) Entries() []model.AdminLogEntry {
	return append([]model.AdminLogEntry{}, l.entries...)
}

// Filter возвращает записи, удовлетворяющие предикату
func (l *Log) Filter(pred func(model.AdminLogEntry) bool) []model.AdminLogEntry {
	result := []model.AdminLogEntry{}
	for _, e := range l.entries {
		if pred(e) {
			result = append(result, e)
		}
	}
	return result
}

// ByCategory возвращает записи категории; пустая категория или "all" - все записи
func (l *Log) ByCategory(category string) []model.AdminLogEntry {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" || category == "all" {
		return l.Entries()
	}
	return l.Filter(func(e model.AdminLogEntry) bool {
		return strings.Contains(string(e.Action), category)
	})
}

// Clear очищает журнал
func (l *Log) Clear() {
	l.entries = nil
}

// Len возвращает число записей
func (l *Log) Len() int {
	return len(l.entries)
}

func marshalSnapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
