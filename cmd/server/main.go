// Package main запускает сервис каталога Lemiel: HTTP API, health check и Telegram-бота.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"lemiel/internal/app"
	"lemiel/internal/config"
	"lemiel/pkg/logger"
)

func main() {
	// Инициализация логгера
	log := logger.New()
	defer func() { _ = log.Sync() }()

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Создание контекста
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		cancel()
	}()

	// Создание приложения через фабрику
	application, err := app.NewAppWithFactory(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to create application", zap.Error(err))
	}

	// Запуск
	runErr := application.Start(ctx)
	if err := application.Stop(); err != nil {
		log.Error("Failed to stop application", zap.Error(err))
	}
	if runErr != nil {
		log.Error("Application stopped with error", zap.Error(runErr))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}
