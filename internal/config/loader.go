// Package config содержит утилиты для загрузки конфигурации
package config

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// SecretSource отдает значение секрета по имени переменной
type SecretSource interface {
	Get(key string) (string, error)
}

// FileSecrets читает секрет из файла, путь к которому лежит в <KEY>_FILE
type FileSecrets struct{}

// Get возвращает содержимое файла без завершающих пробелов
func (FileSecrets) Get(key string) (string, error) {
	path := os.Getenv(key + "_FILE")
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s_FILE: %w", key, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ConfigLoader представляет загрузчик секретов конфигурации
type ConfigLoader struct {
	source SecretSource
	logger *zap.Logger
}

// NewConfigLoader создает новый загрузчик конфигурации
func NewConfigLoader(source SecretSource, logger *zap.Logger) *ConfigLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigLoader{
		source: source,
		logger: logger,
	}
}

// LoadConfigValue загружает значение с приоритетом: env > источник секретов
func (cl *ConfigLoader) LoadConfigValue(envValue, configKey string) (string, error) {
	if envValue != "" {
		cl.logger.Debug("Using "+configKey+" from environment variables")
		return envValue, nil
	}

	value, err := cl.source.Get(configKey)
	if err != nil {
		return "", err
	}
	if value != "" {
		cl.logger.Info("Loaded " + configKey + " from secret source")
	}
	return value, nil
}

// LoadConfigValueWithSetter загружает значение и устанавливает его через setter
func (cl *ConfigLoader) LoadConfigValueWithSetter(envValue, configKey string, setter func(string)) error {
	value, err := cl.LoadConfigValue(envValue, configKey)
	if err != nil {
		return err
	}
	if value != "" {
		setter(value)
	}
	return nil
}

// LoadSecrets дополняет пустые секреты конфигурации из источника
func (cl *ConfigLoader) LoadSecrets(cfg *Config) error {
	// BOT_TOKEN
	if err := cl.LoadConfigValueWithSetter(cfg.BotToken, "BOT_TOKEN", func(value string) {
		cfg.BotToken = value
	}); err != nil {
		return err
	}

	// DB_DSN
	if err := cl.LoadConfigValueWithSetter(cfg.DatabaseURL, "DB_DSN", func(value string) {
		cfg.DatabaseURL = value
	}); err != nil {
		return err
	}

	// REDIS_PASSWORD
	return cl.LoadConfigValueWithSetter(cfg.Redis.Password, "REDIS_PASSWORD", func(value string) {
		cfg.Redis.Password = value
	})
}
