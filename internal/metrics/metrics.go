// Package metrics реализует in-process метрики сервиса.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Metrics собирает счетчики команд бота и HTTP-запросов
type Metrics struct {
	mu sync.RWMutex

	// Пользовательская активность
	totalCommands int64
	commands      map[string]int64
	uniqueUsers   map[string]struct{}

	// HTTP
	httpRequests int64
	httpByClass  map[string]int64

	// Метрики производительности
	avgResponseTime time.Duration
	totalRequests   int64
	errorCount      int64

	started time.Time
	now     func() time.Time
	logger  *zap.Logger
}

// NewMetrics создает новую систему метрик
func NewMetrics(logger *zap.Logger) *Metrics {
	return &Metrics{
		commands:    make(map[string]int64),
		uniqueUsers: make(map[string]struct{}),
		httpByClass: make(map[string]int64),
		started:     time.Now(),
		now:         time.Now,
		logger:      logger,
	}
}

// RecordUserCommand записывает выполнение команды бота
func (m *Metrics) RecordUserCommand(command, userKey string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalCommands++
	m.commands[command]++
	if userKey != "" {
		m.uniqueUsers[userKey] = struct{}{}
	}
}

// RecordRequest записывает HTTP-ответ; ответы 5xx считаются ошибками
func (m *Metrics) RecordRequest(status int, duration time.Duration) {
	m.mu.Lock()
	m.httpRequests++
	m.httpByClass[fmt.Sprintf("%dxx", status/100)]++
	m.mu.Unlock()

	m.RecordResponseTime(duration)
	if status >= 500 {
		m.RecordError()
	}
}

// RecordResponseTime записывает время ответа
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	// Простое скользящее среднее
	if m.avgResponseTime == 0 {
		m.avgResponseTime = duration
	} else {
		m.avgResponseTime = (m.avgResponseTime + duration) / 2
	}
}

// RecordError записывает ошибку
func (m *Metrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errorCount++
}

// GetStats возвращает все метрики в виде map
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	commands := make(map[string]int64, len(m.commands))
	for name, count := range m.commands {
		commands[name] = count
	}
	classes := make(map[string]int64, len(m.httpByClass))
	for class, count := range m.httpByClass {
		classes[class] = count
	}

	return map[string]interface{}{
		"user_activity": map[string]interface{}{
			"total_commands": m.totalCommands,
			"unique_users":   len(m.uniqueUsers),
			"commands":       commands,
		},
		"http": map[string]interface{}{
			"requests":  m.httpRequests,
			"by_status": classes,
		},
		"performance": map[string]interface{}{
			"avg_response_time": formatDuration(m.avgResponseTime),
			"total_requests":    m.totalRequests,
			"error_count":       m.errorCount,
			"error_rate":        m.calculateErrorRate(),
		},
		"system": map[string]interface{}{
			"uptime":     formatDuration(m.now().Sub(m.started)),
			"started_at": m.started.UTC().Format(time.RFC3339),
		},
	}
}

// calculateErrorRate вычисляет процент ошибок
func (m *Metrics) calculateErrorRate() float64 {
	if m.totalRequests > 0 {
		return float64(m.errorCount) / float64(m.totalRequests) * 100
	}
	return 0
}

// formatDuration форматирует duration с двумя знаками после запятой
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}
