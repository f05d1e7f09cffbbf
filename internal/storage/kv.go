package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lemiel/internal/model"
)

// KV - минимальное key/value хранилище для разделов
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetMany записывает все значения одной операцией, если хранилище это умеет
	SetMany(ctx context.Context, values map[string][]byte) error
	Ping(ctx context.Context) error
	Close() error
}

// KVBackend хранит каждый раздел под собственным ключом
type KVBackend struct {
	name   string
	kv     KV
	logger *zap.Logger
}

// NewKVBackend создает бэкенд поверх KV-хранилища
func NewKVBackend(name string, kv KV, logger *zap.Logger) *KVBackend {
	return &KVBackend{name: name, kv: kv, logger: logger}
}

// Load читает все разделы. Поврежденный раздел пропускается с предупреждением.
func (b *KVBackend) Load(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	for _, section := range model.AllSections {
		data, err := b.kv.Get(ctx, section.String())
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read section %s: %w", section, err)
		}
		if err := DecodeSection(snap, section, data); err != nil {
			b.logger.Warn("Malformed stored section, falling back to seed",
				zap.String("backend", b.name),
				zap.String("section", section.String()),
				zap.Error(err))
			continue
		}
	}
	return snap, nil
}

// Save перезаписывает указанные разделы
func (b *KVBackend) Save(ctx context.Context, snap *model.Snapshot, sections ...model.Section) error {
	values := make(map[string][]byte)
	for _, section := range sectionsOrAll(sections) {
		data, err := EncodeSection(snap, section)
		if err != nil {
			return err
		}
		values[section.String()] = data
	}
	if err := b.kv.SetMany(ctx, values); err != nil {
		return fmt.Errorf("failed to write sections to %s: %w", b.name, err)
	}
	return nil
}

// Ping проверяет доступность хранилища
func (b *KVBackend) Ping(ctx context.Context) error {
	return b.kv.Ping(ctx)
}

// Close закрывает хранилище
func (b *KVBackend) Close() error {
	return b.kv.Close()
}

// Name возвращает имя бэкенда
func (b *KVBackend) Name() string {
	return b.name
}
