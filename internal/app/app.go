// Package app содержит основную логику приложения.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"lemiel/internal/api"
	"lemiel/internal/bot"
	"lemiel/internal/config"
	"lemiel/internal/health"
	"lemiel/internal/service"
	"lemiel/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// App связывает хранилище, HTTP API, health check, планировщик и бота
type App struct {
	logger   *zap.Logger
	backend  storage.Backend
	services *service.Services
	api      *api.Server
	health   *health.Server
	telegram *bot.Client
	router   *bot.Router
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAppWithFactory создает приложение со всеми зависимостями
func NewAppWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	factory := NewComponentFactory(cfg, logger)
	return factory.CreateApp(ctx)
}

// Services возвращает контейнер сервисов
func (a *App) Services() *service.Services {
	return a.services
}

// Start запускает серверы и бота и блокируется до отмены ctx или Stop
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("Starting application")

	a.serve("api", a.api.Start)
	if a.health != nil {
		a.serve("health", a.health.Start)
	}

	// Запускаем планировщик задач
	if err := a.services.Scheduler.Start(); err != nil {
		a.logger.Error("Failed to start scheduler", zap.Error(err))
	} else {
		a.logger.Info("Scheduler started successfully")
	}

	if a.telegram == nil {
		a.logger.Info("Telegram bot is disabled")
		select {
		case <-ctx.Done():
			a.logger.Info("Application stopped by context")
		case <-a.stopChan:
			a.logger.Info("Application stopped by stop signal")
		}
		return nil
	}

	return a.runBot(ctx)
}

// serve запускает HTTP-сервер в отдельной горутине
func (a *App) serve(name string, start func() error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := start(); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				a.logger.Info("Server stopped normally", zap.String("server", name))
				return
			}
			a.logger.Error("Server failed", zap.String("server", name), zap.Error(err))
		}
	}()
}

// runBot крутит цикл обновлений с перезапуском при сбоях
func (a *App) runBot(ctx context.Context) error {
	maxRestartAttempts := 10
	restartAttempts := 0
	restartDelay := 10 * time.Second

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Bot main loop cancelled by context")
			return nil
		case <-a.stopChan:
			a.logger.Info("Bot main loop stopped by stop signal")
			return nil
		default:
		}

		err := a.telegram.Start(ctx, a.router)
		if err == nil || errors.Is(err, context.Canceled) {
			a.logger.Info("Update loop stopped")
			return nil
		}

		restartAttempts++
		a.logger.Error("Update loop error",
			zap.Error(err),
			zap.Int("restart_attempt", restartAttempts),
			zap.Int("max_attempts", maxRestartAttempts))

		if restartAttempts > maxRestartAttempts {
			return fmt.Errorf("max restart attempts reached: %w", err)
		}

		delay := time.Duration(restartAttempts) * restartDelay
		if delay > 5*time.Minute {
			delay = 5 * time.Minute
		}

		a.logger.Info("Waiting before restart", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return nil
		case <-a.stopChan:
			return nil
		case <-time.After(delay):
		}
	}
}

// Stop gracefully останавливает приложение
func (a *App) Stop() error {
	a.logger.Info("Stopping application gracefully")

	a.stopOnce.Do(func() {
		close(a.stopChan)
	})

	a.services.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.api.Stop(shutdownCtx); err != nil {
		a.logger.Error("Failed to stop API server", zap.Error(err))
	}
	if a.health != nil {
		if err := a.health.Stop(); err != nil {
			a.logger.Error("Failed to stop health check server", zap.Error(err))
		}
	}

	// Ждем завершения всех горутин с таймаутом
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.wg.Wait()
	}()

	select {
	case <-done:
		a.logger.Info("All goroutines stopped successfully")
	case <-shutdownCtx.Done():
		a.logger.Warn("Graceful shutdown timeout exceeded, forcing stop")
	}

	if err := a.backend.Close(); err != nil {
		a.logger.Error("Failed to close storage", zap.Error(err))
		return err
	}

	a.logger.Info("Application stopped successfully")
	return nil
}
