package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"

	"lemiel/internal/model"
	"lemiel/internal/storage/repository"
)

// PostgresOptions описывает подключение к PostgreSQL
type PostgresOptions struct {
	DSN        string
	MaxRetries int
	RetryDelay time.Duration
}

// Postgres хранит разделы в отдельных таблицах PostgreSQL
type Postgres struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewPostgres создает новое подключение к PostgreSQL с retry логикой
func NewPostgres(ctx context.Context, opts PostgresOptions, logger *zap.Logger) (*Postgres, error) {
	maxRetries := opts.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Info("Attempting to connect to database",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries))

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(opts.DSN)))

		// Настраиваем пул соединений
		sqldb.SetMaxOpenConns(25)
		sqldb.SetMaxIdleConns(10)
		sqldb.SetConnMaxLifetime(5 * time.Minute)
		sqldb.SetConnMaxIdleTime(1 * time.Minute)

		db := bun.NewDB(sqldb, pgdialect.New())

		// Добавляем отладку в режиме разработки
		if logger.Core().Enabled(zap.DebugLevel) {
			db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
				bundebug.FromEnv("BUNDEBUG"),
			))
		}

		pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
		lastErr = db.PingContext(pingCtx)
		pingCancel()

		if lastErr == nil {
			logger.Info("Connected to PostgreSQL database with Bun ORM", zap.Int("attempt", attempt))
			p := &Postgres{db: db, logger: logger}
			if err := p.migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
			return p, nil
		}

		logger.Warn("Failed to connect to database",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))
		if err := db.Close(); err != nil {
			logger.Warn("Failed to close database connection", zap.Error(err))
		}

		if attempt < maxRetries {
			logger.Info("Retrying connection", zap.Duration("delay", opts.RetryDelay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

// migrate создает таблицы разделов, если их нет
func (p *Postgres) migrate(ctx context.Context) error {
	models := []any{
		(*model.Plug)(nil),
		(*repository.BucketRow)(nil),
		(*model.Department)(nil),
		(*model.Review)(nil),
		(*model.AdminLogEntry)(nil),
		(*repository.AdminRow)(nil),
		(*repository.SectionRow)(nil),
	}
	for _, m := range models {
		if _, err := p.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
	}
	return nil
}

// Load читает только разделы, отмеченные как сохраненные
func (p *Postgres) Load(ctx context.Context) (*model.Snapshot, error) {
	saved, err := repository.NewSectionRepository(p.db, p.logger).Saved(ctx)
	if err != nil {
		return nil, err
	}

	snap := &model.Snapshot{}
	if saved[model.SectionPlugs] {
		if snap.Plugs, err = repository.NewPlugRepository(p.db, p.logger).Load(ctx); err != nil {
			return nil, err
		}
	}
	if saved[model.SectionDepartments] {
		if snap.Departments, err = repository.NewDepartmentRepository(p.db, p.logger).Load(ctx); err != nil {
			return nil, err
		}
	}
	if saved[model.SectionReviews] {
		if snap.Reviews, err = repository.NewReviewRepository(p.db, p.logger).Load(ctx); err != nil {
			return nil, err
		}
	}
	if saved[model.SectionAdminLogs] {
		if snap.AdminLogs, err = repository.NewAdminLogRepository(p.db, p.logger).Load(ctx); err != nil {
			return nil, err
		}
	}
	if saved[model.SectionAdmins] {
		if snap.Admins, err = repository.NewAdminRepository(p.db, p.logger).Load(ctx); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// Save перезаписывает разделы в одной транзакции
func (p *Postgres) Save(ctx context.Context, snap *model.Snapshot, sections ...model.Section) error {
	return p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		marks := repository.NewSectionRepository(tx, p.logger)
		for _, section := range sectionsOrAll(sections) {
			var err error
			switch section {
			case model.SectionPlugs:
				err = repository.NewPlugRepository(tx, p.logger).Replace(ctx, snap.Plugs)
			case model.SectionDepartments:
				err = repository.NewDepartmentRepository(tx, p.logger).Replace(ctx, snap.Departments)
			case model.SectionReviews:
				err = repository.NewReviewRepository(tx, p.logger).Replace(ctx, snap.Reviews)
			case model.SectionAdminLogs:
				err = repository.NewAdminLogRepository(tx, p.logger).Replace(ctx, snap.AdminLogs)
			case model.SectionAdmins:
				err = repository.NewAdminRepository(tx, p.logger).Replace(ctx, snap.Admins)
			default:
				err = fmt.Errorf("unknown section %q", section)
			}
			if err != nil {
				return err
			}
			if err := marks.Mark(ctx, section); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ping проверяет соединение
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close закрывает соединение с базой данных
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Name возвращает имя бэкенда
func (p *Postgres) Name() string {
	return "postgres"
}
