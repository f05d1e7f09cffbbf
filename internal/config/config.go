// Package config содержит загрузку и валидацию конфигурации.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config представляет конфигурацию приложения
type Config struct {
	// HTTP
	HTTPPort string

	// Health
	HealthPort         string
	HealthCheckEnabled bool

	// Storage
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string
	Redis         RedisConfig
	DBRetryConfig RetryConfig

	// Seed
	SeedPath string

	// Telegram
	BotToken   string
	BotEnabled bool

	// Access
	AdminUsernames []string

	// Links
	LinkAllowedHosts []string

	// Rate limit
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Backups
	BackupEnabled bool
	BackupCron    string
	BackupKeep    int

	// API client
	APIURL      string
	APITimeout  time.Duration
	RetryConfig RetryConfig

	// Logging
	LogLevel string
	LogPath  string

	// Timezone
	Timezone string

	// App Data Directory
	AppDataDir string
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RetryConfig представляет конфигурацию retry механизма
type RetryConfig struct {
	MaxRetries        int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	// Загружаем .env файл если он существует
	_ = godotenv.Load()

	appDataDir := getEnv("APP_DATA_DIR", "./data")

	config := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8000"),
		HealthPort:         getEnv("HEALTH_PORT", "8080"),
		HealthCheckEnabled: getEnvBool("HEALTH_CHECK_ENABLED", true),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", DriverFile)),
		DatabaseURL:        getEnv("DB_DSN", ""),
		SQLitePath:         getEnv("SQLITE_PATH", filepath.Join(appDataDir, "lemiel.db")),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", ""),
		},
		DBRetryConfig: RetryConfig{
			MaxRetries:   getEnvInt("DB_MAX_RETRIES", 10),
			InitialDelay: getEnvDuration("DB_RETRY_DELAY", 5*time.Second),
		},
		SeedPath:          getEnv("SEED_PATH", ""),
		BotToken:          getEnv("BOT_TOKEN", ""),
		BotEnabled:        getEnvBool("BOT_ENABLED", false),
		AdminUsernames:    getEnvList("ADMIN_USERNAMES"),
		LinkAllowedHosts:  getEnvList("LINK_ALLOWED_HOSTS"),
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		BackupEnabled:     getEnvBool("BACKUP_ENABLED", false),
		BackupCron:        getEnv("BACKUP_CRON", "0 4 * * *"),
		BackupKeep:        getEnvInt("BACKUP_KEEP", 7),
		APIURL:            getEnv("API_URL", "http://localhost:8000"),
		APITimeout:        getEnvDuration("API_TIMEOUT", 10*time.Second),
		RetryConfig: RetryConfig{
			MaxRetries:        getEnvInt("RETRY_MAX_RETRIES", 3),
			InitialDelay:      getEnvDuration("RETRY_INITIAL_DELAY", 500*time.Millisecond),
			MaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 10*time.Second),
			BackoffMultiplier: getEnvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0),
		},
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPath:    getEnv("LOG_PATH", filepath.Join(appDataDir, "app.log")),
		Timezone:   getEnv("TIMEZONE", "Europe/Paris"),
		AppDataDir: appDataDir,
	}

	// Секреты можно передать файлами: BOT_TOKEN_FILE, DB_DSN_FILE, REDIS_PASSWORD_FILE
	if err := NewConfigLoader(FileSecrets{}, nil).LoadSecrets(config); err != nil {
		return nil, err
	}

	// Валидация обязательных полей
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ClientConfig - настройки CLI-клиента API
type ClientConfig struct {
	APIURL      string
	Username    string
	Timeout     time.Duration
	RetryConfig RetryConfig
	LogLevel    string
}

// LoadClient загружает настройки клиента без проверки серверной части
func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		APIURL:   getEnv("API_URL", "http://localhost:8000"),
		Username: getEnv("PLUGCTL_USER", ""),
		Timeout:  getEnvDuration("API_TIMEOUT", 10*time.Second),
		RetryConfig: RetryConfig{
			MaxRetries:        getEnvInt("RETRY_MAX_RETRIES", 3),
			InitialDelay:      getEnvDuration("RETRY_INITIAL_DELAY", 500*time.Millisecond),
			MaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 10*time.Second),
			BackoffMultiplier: getEnvFloat("RETRY_BACKOFF_MULTIPLIER", 2.0),
		},
		LogLevel: getEnv("LOG_LEVEL", "warn"),
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory, DriverFile:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for redis storage")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_DSN is required for postgres storage")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for sqlite storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.BotEnabled && c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required when BOT_ENABLED is set")
	}

	if err := validatePort("HTTP_PORT", c.HTTPPort); err != nil {
		return err
	}
	if c.HealthCheckEnabled {
		if err := validatePort("HEALTH_PORT", c.HealthPort); err != nil {
			return err
		}
	}

	if c.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}

	if c.BackupEnabled && c.BackupKeep <= 0 {
		return fmt.Errorf("BACKUP_KEEP must be positive when backups are enabled")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}

	return nil
}

// GetAppDataDir возвращает директорию данных приложения
func (c *Config) GetAppDataDir() string {
	return c.AppDataDir
}

// BackupDir возвращает директорию резервных копий
func (c *Config) BackupDir() string {
	return filepath.Join(c.AppDataDir, "backups")
}

// Location возвращает часовой пояс; при ошибке UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func validatePort(name, value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%s must be a valid port, got %q", name, value)
	}
	return nil
}

// getEnv получает переменную окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает переменную окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration получает переменную окружения как time.Duration
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvBool получает переменную окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvFloat получает переменную окружения как float64
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvList получает переменную окружения как список через запятую
func getEnvList(key string) []string {
	var result []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
