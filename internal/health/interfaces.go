package health

import "context"

// Pinger определяет интерфейс для проверки здоровья хранилища
type Pinger interface {
	Ping(ctx context.Context) error
	Backend() string
}

// StatsProvider отдает снимок метрик для /metrics
type StatsProvider interface {
	GetStats() map[string]interface{}
}
