// Package logger содержит настройку логгера.
package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options описывает вывод логгера
type Options struct {
	Level string
	// Path - файл с ротацией; пустой путь отключает файловый вывод
	Path string
	// Console - поток консольного вывода, по умолчанию stdout
	Console zapcore.WriteSyncer
}

// New создает логгер по переменным окружения LOG_LEVEL, LOG_PATH и APP_DATA_DIR
func New() *zap.Logger {
	return NewWithOptions(Options{
		Level: os.Getenv("LOG_LEVEL"),
		Path:  getLogPath(),
	})
}

// NewConsole создает логгер только с выводом в stderr (для CLI)
func NewConsole(level string) *zap.Logger {
	return NewWithOptions(Options{Level: level, Console: zapcore.Lock(os.Stderr)})
}

// NewWithOptions создает логгер с JSON-выводом в консоль и, при наличии пути, в файл
func NewWithOptions(opts Options) *zap.Logger {
	level := ParseLevel(opts.Level)

	// Настраиваем кодировщик
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	console := opts.Console
	if console == nil {
		console = zapcore.AddSync(os.Stdout)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), console, level),
	}

	// Файловый вывод
	if opts.Path != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.Path,
				MaxSize:    100, // MB
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// ParseLevel переводит строку уровня в zapcore.Level; по умолчанию info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// getLogPath получает путь к файлу логов из переменной окружения или использует значение по умолчанию
func getLogPath() string {
	if logPath := os.Getenv("LOG_PATH"); logPath != "" {
		return logPath
	}

	dataDir := os.Getenv("APP_DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}
	if err := os.MkdirAll(dataDir, 0755); err == nil {
		return filepath.Join(dataDir, "app.log")
	}

	// Если ничего не получилось, используем текущую директорию
	return "app.log"
}
