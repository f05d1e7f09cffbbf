// Package health содержит health check сервер.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const checkTimeout = 3 * time.Second

// Server представляет health check сервер
type Server struct {
	server  *http.Server
	backend Pinger
	stats   StatsProvider
	logger  *zap.Logger
	now     func() time.Time
}

// NewServer создает новый health check сервер
func NewServer(port string, logger *zap.Logger, backend Pinger) *Server {
	mux := http.NewServeMux()

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthServer := &Server{
		server:  server,
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}

	// Регистрируем маршруты
	mux.HandleFunc("/health", healthServer.healthHandler)
	mux.HandleFunc("/ready", healthServer.readyHandler)
	mux.HandleFunc("/live", healthServer.liveHandler)
	mux.HandleFunc("/metrics", healthServer.metricsHandler)

	return healthServer
}

// SetStats подключает источник метрик для /metrics
func (s *Server) SetStats(stats StatsProvider) {
	s.stats = stats
}

// Handler возвращает обработчик маршрутов
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start запускает health check сервер
func (s *Server) Start() error {
	s.logger.Info("Starting health check server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop останавливает health check сервер
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Stopping health check server")
	return s.server.Shutdown(ctx)
}

// healthHandler обрабатывает запросы /health
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	// Проверяем хранилище
	if err := s.checkStorage(r.Context()); err != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		s.logger.Error("Health check failed", zap.Error(err))
	}

	s.write(w, code, status)
}

// readyHandler обрабатывает запросы /ready
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK

	// Проверяем готовность к работе
	if err := s.checkReadiness(r.Context()); err != nil {
		status = "not ready"
		code = http.StatusServiceUnavailable
		s.logger.Error("Readiness check failed", zap.Error(err))
	}

	s.write(w, code, status)
}

// liveHandler обрабатывает запросы /live
func (s *Server) liveHandler(w http.ResponseWriter, r *http.Request) {
	s.write(w, http.StatusOK, "alive")
}

// metricsHandler обрабатывает запросы /metrics
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		http.Error(w, "metrics disabled", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.stats.GetStats()); err != nil {
		s.logger.Error("Failed to encode metrics", zap.Error(err))
	}
}

func (s *Server) write(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, status, s.now().Format(time.RFC3339))
}

// checkStorage проверяет подключение к хранилищу
func (s *Server) checkStorage(ctx context.Context) error {
	if s.backend == nil {
		return fmt.Errorf("storage backend is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := s.backend.Ping(ctx); err != nil {
		return fmt.Errorf("storage %s ping failed: %w", s.backend.Backend(), err)
	}
	return nil
}

// checkReadiness проверяет готовность к работе
func (s *Server) checkReadiness(ctx context.Context) error {
	if s.backend == nil {
		return fmt.Errorf("storage is not initialized")
	}

	if err := s.checkStorage(ctx); err != nil {
		return fmt.Errorf("storage is not ready: %w", err)
	}

	return nil
}
