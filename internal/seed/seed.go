// Package seed загружает начальное состояние каталога из config.json.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"lemiel/internal/model"
)

//go:embed config.json
var bundled []byte

// Bundled возвращает встроенный config.json
func Bundled() []byte {
	return append([]byte(nil), bundled...)
}

// Load читает config.json из path, а при пустом path использует встроенный файл
func Load(path string) (*model.Snapshot, error) {
	data := bundled
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
		}
	}

	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed %q: %w", path, err)
	}
	return snap, nil
}

// Parse разбирает config.json и заполняет отсутствующие разделы пустыми значениями
func Parse(data []byte) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	if snap.Plugs == nil {
		snap.Plugs = map[string][]model.Plug{}
	}
	if snap.Departments == nil {
		snap.Departments = map[string]model.Department{}
	}
	if snap.Admins == nil {
		snap.Admins = &model.AdminsSection{}
	}
	if snap.Reviews == nil {
		snap.Reviews = &model.ReviewsSection{}
	}
	if snap.AdminLogs == nil {
		snap.AdminLogs = []model.AdminLogEntry{}
	}
	return &snap, nil
}
