package app

import (
	"lemiel/internal/metrics"
	"lemiel/internal/service"
)

// statsProvider собирает /metrics из счетчиков, каталога и планировщика
type statsProvider struct {
	metrics  *metrics.Metrics
	services *service.Services
}

func (p statsProvider) GetStats() map[string]interface{} {
	stats := p.metrics.GetStats()

	reviews := p.services.State.Reviews()
	stats["directory"] = map[string]interface{}{
		"plugs":            len(p.services.State.UniquePlugs()),
		"departments":      len(p.services.State.Departments()),
		"pending_reviews":  len(reviews.Pending),
		"approved_reviews": len(reviews.Approved),
		"admins":           len(p.services.State.Admins()),
		"backend":          p.services.State.Backend(),
	}
	stats["scheduler"] = p.services.Scheduler.GetStatus()
	return stats
}
