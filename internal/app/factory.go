// Package app содержит фабрику компонентов приложения.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"lemiel/internal/api"
	"lemiel/internal/bot"
	"lemiel/internal/config"
	"lemiel/internal/health"
	"lemiel/internal/links"
	"lemiel/internal/metrics"
	"lemiel/internal/middleware"
	"lemiel/internal/render"
	"lemiel/internal/seed"
	"lemiel/internal/service"
	"lemiel/internal/storage"
)

// ComponentFactory создает компоненты приложения
type ComponentFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewComponentFactory создает новую фабрику компонентов
func NewComponentFactory(config *config.Config, logger *zap.Logger) *ComponentFactory {
	if logger == nil {
		panic("Logger cannot be nil")
	}
	if config == nil {
		logger.Fatal("Config cannot be nil")
	}

	return &ComponentFactory{
		config: config,
		logger: logger,
	}
}

// CreateAppDataDirectory создает директорию данных приложения
func (f *ComponentFactory) CreateAppDataDirectory() error {
	dataDir := f.config.GetAppDataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		f.logger.Error("Failed to create app data directory", zap.String("dir", dataDir), zap.Error(err))
		return fmt.Errorf("failed to create app data directory: %w", err)
	}
	f.logger.Info("App data directory ready", zap.String("dir", dataDir))
	return nil
}

// CreateStorage открывает бэкенд хранилища
func (f *ComponentFactory) CreateStorage(ctx context.Context) (storage.Backend, error) {
	backend, err := storage.Open(ctx, f.config, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	f.logger.Info("Storage opened successfully", zap.String("driver", backend.Name()))
	return backend, nil
}

// CreateState загружает начальный снимок и накладывает на него сохраненные разделы.
// ADMIN_USERNAMES добавляются в whitelist снимка и действуют, пока раздел
// администраторов не сохранен в хранилище.
func (f *ComponentFactory) CreateState(ctx context.Context, backend storage.Backend) (*service.State, error) {
	snap, err := seed.Load(f.config.SeedPath)
	if err != nil {
		return nil, err
	}
	snap.Admins.Whitelist = append(snap.Admins.Whitelist, f.config.AdminUsernames...)

	state, err := service.LoadState(ctx, snap, backend, f.logger)
	if err != nil {
		return nil, err
	}

	if len(state.Admins()) == 0 {
		f.logger.Warn("Admin whitelist is empty; set ADMIN_USERNAMES to manage the directory")
	}
	f.logger.Info("State loaded successfully",
		zap.Int("plugs", len(state.UniquePlugs())),
		zap.Int("departments", len(state.Departments())))
	return state, nil
}

// CreateRateLimiter создает ограничитель запросов
func (f *ComponentFactory) CreateRateLimiter() *middleware.RateLimiter {
	return middleware.NewRateLimiter(f.config.RateLimitRequests, f.config.RateLimitWindow, f.logger)
}

// CreateAllowList создает список разрешенных хостов ссылок
func (f *ComponentFactory) CreateAllowList() *links.AllowList {
	allow := links.NewAllowList(f.config.LinkAllowedHosts)
	f.logger.Info("Link allow-list ready", zap.Strings("hosts", allow.Hosts()))
	return allow
}

// CreateAPIServer создает HTTP API
func (f *ComponentFactory) CreateAPIServer(state *service.State, allow *links.AllowList, limiter middleware.RateLimiterInterface) (*api.Server, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	server := api.NewServer(f.config.HTTPPort, state, renderer, allow, limiter, f.logger)
	f.logger.Info("API server created", zap.String("port", f.config.HTTPPort))
	return server, nil
}

// CreateHealthServer создает сервер health check
func (f *ComponentFactory) CreateHealthServer(backend health.Pinger) (*health.Server, error) {
	if !f.config.HealthCheckEnabled {
		f.logger.Info("Health check server is disabled")
		return nil, nil
	}

	if f.config.HealthPort == "" {
		return nil, fmt.Errorf("health port is required when health check is enabled")
	}

	server := health.NewServer(f.config.HealthPort, f.logger, backend)
	f.logger.Info("Health check server created", zap.String("port", f.config.HealthPort))
	return server, nil
}

// CreateTelegram создает клиент Telegram и роутер команд
func (f *ComponentFactory) CreateTelegram(state *service.State, allow *links.AllowList) (*bot.Client, *bot.Router, error) {
	if !f.config.BotEnabled {
		f.logger.Info("Telegram bot is disabled")
		return nil, nil, nil
	}
	if f.config.BotToken == "" {
		return nil, nil, fmt.Errorf("bot token is required")
	}

	client, err := bot.NewClient(f.config.BotToken, f.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	handlers := bot.New(state, client.Sender(), allow, f.logger)
	router := bot.NewRouter(handlers, middleware.New(f.CreateRateLimiter(), f.logger), f.logger)

	f.logger.Info("Telegram client created successfully")
	return client, router, nil
}

// CreateApp создает полный экземпляр приложения со всеми зависимостями
func (f *ComponentFactory) CreateApp(ctx context.Context) (*App, error) {
	// Создаем директорию данных приложения
	if err := f.CreateAppDataDirectory(); err != nil {
		return nil, err
	}

	backend, err := f.CreateStorage(ctx)
	if err != nil {
		return nil, err
	}

	app, err := f.assemble(ctx, backend)
	if err != nil {
		if closeErr := backend.Close(); closeErr != nil {
			f.logger.Error("Failed to close storage", zap.Error(closeErr))
		}
		return nil, err
	}

	f.logger.Info("Application created successfully with all dependencies")
	return app, nil
}

func (f *ComponentFactory) assemble(ctx context.Context, backend storage.Backend) (*App, error) {
	state, err := f.CreateState(ctx, backend)
	if err != nil {
		return nil, fmt.Errorf("failed to create state: %w", err)
	}

	services := service.NewServices(state, f.config, f.logger)
	allow := f.CreateAllowList()
	counters := metrics.NewMetrics(f.logger)

	limiter := f.CreateRateLimiter()
	services.Scheduler.RegisterCleaner(limiter)

	apiServer, err := f.CreateAPIServer(state, allow, limiter)
	if err != nil {
		return nil, fmt.Errorf("failed to create API server: %w", err)
	}
	apiServer.SetMetrics(counters)

	healthServer, err := f.CreateHealthServer(state)
	if err != nil {
		return nil, fmt.Errorf("failed to create health server: %w", err)
	}
	if healthServer != nil {
		healthServer.SetStats(statsProvider{metrics: counters, services: services})
	}

	client, router, err := f.CreateTelegram(state, allow)
	if err != nil {
		return nil, err
	}
	if router != nil {
		router.SetMetrics(counters)
		services.Scheduler.RegisterCleaner(router)
	}

	return &App{
		logger:   f.logger,
		backend:  backend,
		services: services,
		api:      apiServer,
		health:   healthServer,
		telegram: client,
		router:   router,
		stopChan: make(chan struct{}),
	}, nil
}
