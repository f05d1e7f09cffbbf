// Package service содержит бизнес-логику приложения.
//
// State владеет всеми компонентами каталога и сериализует доступ к ним
// одним RWMutex. Обработчики HTTP и бота работают только через State.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lemiel/internal/domain/access"
	"lemiel/internal/domain/audit"
	"lemiel/internal/domain/directory"
	"lemiel/internal/domain/review"
	"lemiel/internal/model"
	"lemiel/internal/storage"
)

// State - состояние каталога
type State struct {
	mu sync.RWMutex

	store      *directory.Store
	registry   *directory.Registry
	whitelist  *access.Whitelist
	queue      *review.Queue
	aggregator *review.Aggregator
	audit      *audit.Log

	backend storage.Backend
	logger  *zap.Logger
	now     func() time.Time
}

// Option настраивает State
type Option func(*State)

// WithClock задает источник времени для id отзывов и журнала
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// LoadState читает сохраненные разделы и накладывает их на начальный снимок
func LoadState(ctx context.Context, seed *model.Snapshot, backend storage.Backend, logger *zap.Logger, opts ...Option) (*State, error) {
	stored, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state from %s: %w", backend.Name(), err)
	}

	for _, section := range model.AllSections {
		if stored.Has(section) {
			logger.Info("Loaded stored section",
				zap.String("backend", backend.Name()),
				zap.String("section", section.String()))
		}
	}

	return NewState(model.Overlay(seed, stored), backend, logger, opts...), nil
}

// NewState создает State из снимка
func NewState(snap *model.Snapshot, backend storage.Backend, logger *zap.Logger, opts ...Option) *State {
	s := &State{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore(snap)
	return s
}

// restore пересобирает компоненты из снимка
func (s *State) restore(snap *model.Snapshot) {
	if snap == nil {
		snap = &model.Snapshot{}
	}

	s.store = directory.NewStoreFromBuckets(snap.Plugs)
	s.registry = directory.NewRegistry(s.store, snap.Departments)

	var whitelist []string
	if snap.Admins != nil {
		whitelist = snap.Admins.Whitelist
	}
	s.whitelist = access.NewWhitelist(whitelist)

	s.queue = review.NewQueue(snap.Reviews, s.now)
	s.aggregator = review.NewAggregator(s.queue, s.store)
	s.audit = audit.NewLog(snap.AdminLogs, s.now)
}

// snapshot возвращает независимую копию состояния в форме config.json
func (s *State) snapshot() *model.Snapshot {
	return &model.Snapshot{
		Plugs:       s.store.Buckets(),
		Departments: s.registry.Map(),
		Admins:      &model.AdminsSection{Whitelist: s.whitelist.List()},
		Reviews:     s.queue.Section(),
		AdminLogs:   s.audit.Entries(),
	}
}

// Snapshot возвращает копию всего состояния
func (s *State) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// ExportJSON возвращает состояние в формате config.json
func (s *State) ExportJSON() ([]byte, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	return data, nil
}

// Ping проверяет хранилище
func (s *State) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Backend возвращает имя хранилища
func (s *State) Backend() string {
	return s.backend.Name()
}

// auditRecord - запись журнала, которую мутация хочет добавить
type auditRecord struct {
	action  model.Action
	details string
	before  any
	after   any
}

// mutate выполняет изменение под блокировкой: проверяет whitelist,
// пишет одну запись журнала и сохраняет затронутые разделы.
// При любой ошибке состояние возвращается к исходному.
func (s *State) mutate(ctx context.Context, admin string, sections []model.Section, fn func() (*auditRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.whitelist.IsAdmin(admin) {
		s.logger.Warn("Rejected admin operation", zap.String("user", admin))
		return model.ErrForbidden
	}
	return s.apply(ctx, admin, sections, fn)
}

// mutatePublic выполняет изменение, доступное любому пользователю
func (s *State) mutatePublic(ctx context.Context, sections []model.Section, fn func() (*auditRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(ctx, "", sections, fn)
}

func (s *State) apply(ctx context.Context, admin string, sections []model.Section, fn func() (*auditRecord, error)) error {
	before := s.snapshot()

	record, err := fn()
	if err != nil {
		s.restore(before)
		return err
	}

	if record != nil {
		if _, err := s.audit.Record(admin, record.action, record.details, record.before, record.after); err != nil {
			s.restore(before)
			return err
		}
		sections = append(sections, model.SectionAdminLogs)
	}

	if err := s.backend.Save(ctx, s.snapshot(), sections...); err != nil {
		s.restore(before)
		s.logger.Error("Failed to persist state, mutation rolled back",
			zap.String("backend", s.backend.Name()),
			zap.Error(err))
		return fmt.Errorf("failed to persist state: %w", err)
	}

	if record != nil {
		s.logger.Info("Admin action applied",
			zap.String("admin", admin),
			zap.String("action", string(record.action)),
			zap.String("details", record.details))
	}
	return nil
}

// IsAdmin проверяет, входит ли пользователь в whitelist
func (s *State) IsAdmin(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whitelist.IsAdmin(username)
}

// Admins возвращает whitelist
func (s *State) Admins() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.whitelist.List()
}

// AddAdmin добавляет администратора
func (s *State) AddAdmin(ctx context.Context, admin, username string) (string, error) {
	var added string
	err := s.mutate(ctx, admin, []model.Section{model.SectionAdmins}, func() (*auditRecord, error) {
		name, err := s.whitelist.Add(username)
		if err != nil {
			return nil, err
		}
		added = name
		return &auditRecord{
			action:  model.ActionAddAdmin,
			details: fmt.Sprintf("Administrateur ajouté: @%s", name),
			after:   name,
		}, nil
	})
	return added, err
}

// RemoveAdmin удаляет администратора; удалить самого себя нельзя
func (s *State) RemoveAdmin(ctx context.Context, admin, username string) (string, error) {
	var removed string
	err := s.mutate(ctx, admin, []model.Section{model.SectionAdmins}, func() (*auditRecord, error) {
		if access.Normalize(admin) == access.Normalize(username) {
			return nil, model.ErrSelfRemoval
		}
		name, err := s.whitelist.Remove(username)
		if err != nil {
			return nil, err
		}
		removed = name
		return &auditRecord{
			action:  model.ActionRemoveAdmin,
			details: fmt.Sprintf("Administrateur retiré: @%s", name),
			before:  name,
		}, nil
	})
	return removed, err
}

// Logs возвращает журнал по категории ("" или "all" - весь журнал)
func (s *State) Logs(admin, category string) ([]model.AdminLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.whitelist.IsAdmin(admin) {
		return nil, model.ErrForbidden
	}
	return s.audit.ByCategory(category), nil
}

// ClearLogs очищает журнал; после очистки в нем остается одна запись о том, кто ее выполнил
func (s *State) ClearLogs(ctx context.Context, admin string) error {
	return s.mutate(ctx, admin, nil, func() (*auditRecord, error) {
		cleared := s.audit.Len()
		s.audit.Clear()
		return &auditRecord{
			action:  model.ActionClearLogs,
			details: fmt.Sprintf("Journal vidé: %d entrées supprimées", cleared),
			before:  cleared,
		}, nil
	})
}

// Export возвращает config.json для администратора
func (s *State) Export(admin string) ([]byte, error) {
	if !s.IsAdmin(admin) {
		return nil, model.ErrForbidden
	}
	return s.ExportJSON()
}
