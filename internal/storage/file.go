package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// manifestName - файл, указывающий на актуальные версии разделов.
// Его замена через rename является единственной точкой фиксации записи.
const manifestName = "manifest.json"

// fileManifest перечисляет файлы текущего поколения
type fileManifest struct {
	Generation int64             `json:"generation"`
	Files      map[string]string `json:"files"`
}

// FileKV хранит каждый раздел в отдельном JSON-файле каталога
type FileKV struct {
	dir    string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewFile создает файловый бэкенд в каталоге dir
func NewFile(dir string, logger *zap.Logger) (*KVBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	logger.Info("Using file storage", zap.String("dir", dir))
	return NewKVBackend("file", &FileKV{dir: dir, logger: logger}, logger), nil
}

// legacyPath - файл раздела без версии, читается, пока раздел не попал в манифест
func (f *FileKV) legacyPath(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) readManifest() (*fileManifest, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, manifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return &fileManifest{Files: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m fileManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = map[string]string{}
	}
	return &m, nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.readManifest()
	if err != nil {
		return nil, err
	}
	path := f.legacyPath(key)
	if name, ok := m.Files[key]; ok {
		path = filepath.Join(f.dir, name)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeyNotFound
	}
	return data, err
}

// SetMany пишет разделы в файлы нового поколения и затем заменяет манифест.
// При любой ошибке до замены манифеста новые файлы удаляются, а читатели
// продолжают видеть предыдущее поколение целиком.
func (f *FileKV) SetMany(ctx context.Context, values map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.readManifest()
	if err != nil {
		return err
	}

	next := fileManifest{
		Generation: current.Generation + 1,
		Files:      make(map[string]string, len(current.Files)+len(values)),
	}
	for key, name := range current.Files {
		next.Files[key] = name
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var written []string
	discard := func() {
		for _, path := range written {
			_ = os.Remove(path)
		}
	}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			discard()
			return err
		}
		name := fmt.Sprintf("%s.%d.json", key, next.Generation)
		path := filepath.Join(f.dir, name)
		if err := writeFileAtomic(f.dir, path, values[key]); err != nil {
			discard()
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
		written = append(written, path)
		next.Files[key] = name
	}

	data, err := json.Marshal(next)
	if err != nil {
		discard()
		return err
	}
	if err := writeFileAtomic(f.dir, filepath.Join(f.dir, manifestName), data); err != nil {
		discard()
		return fmt.Errorf("failed to commit manifest: %w", err)
	}

	// Поколение зафиксировано, предыдущие версии записанных разделов больше не нужны
	for _, key := range keys {
		old, ok := current.Files[key]
		if !ok {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, old)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("Failed to remove stale section file", zap.String("file", old), zap.Error(err))
		}
	}
	return nil
}

// writeFileAtomic пишет данные во временный файл и переименовывает его в path
func writeFileAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (f *FileKV) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *FileKV) Close() error { return nil }
