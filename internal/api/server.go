// Package api содержит HTTP-сервер каталога.
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"lemiel/internal/links"
	"lemiel/internal/middleware"
	"lemiel/internal/render"
	"lemiel/internal/service"
)

// Server обслуживает REST API и страницу каталога
type Server struct {
	server   *http.Server
	state    *service.State
	renderer *render.Renderer
	links    *links.AllowList
	limiter  middleware.RateLimiterInterface
	recorder middleware.RequestRecorder
	logger   *zap.Logger
}

// NewServer создает HTTP-сервер. limiter ограничивает отправку отзывов.
func NewServer(port string, state *service.State, renderer *render.Renderer, allow *links.AllowList, limiter middleware.RateLimiterInterface, logger *zap.Logger) *Server {
	s := &Server{
		state:    state,
		renderer: renderer,
		links:    allow,
		limiter:  limiter,
		logger:   logger,
	}

	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	adminOnly := middleware.AdminOnly(s.state, s.logger)
	admin := func(h http.HandlerFunc) http.Handler {
		return adminOnly(h)
	}
	limited := middleware.RateLimit(s.limiter, s.logger)

	// Страница и переход по ссылке
	mux.HandleFunc("GET /{$}", s.handleDirectoryPage)
	mux.HandleFunc("GET /open", s.handleOpen)

	// Плаги
	mux.HandleFunc("GET /plugs", s.handleListPlugs)
	mux.HandleFunc("GET /plugs/unique", s.handleUniquePlugs)
	mux.HandleFunc("GET /plugs/{id}", s.handleGetPlug)
	mux.Handle("POST /plugs", admin(s.handleAddPlug))
	mux.Handle("DELETE /plugs/{id}", admin(s.handleDeletePlug))

	// Департаменты
	mux.HandleFunc("GET /departments", s.handleListDepartments)
	mux.HandleFunc("GET /departments/{code}/plugs", s.handleDepartmentPlugs)
	mux.Handle("POST /departments", admin(s.handleAddDepartment))
	mux.Handle("DELETE /departments/{code}", admin(s.handleDeleteDepartment))

	// Администраторы
	mux.HandleFunc("GET /admins", s.handleListAdmins)
	mux.Handle("POST /admins", admin(s.handleAddAdmin))
	mux.Handle("DELETE /admins/{username}", admin(s.handleRemoveAdmin))

	// Отзывы
	mux.HandleFunc("GET /reviews", s.handleListReviews)
	mux.Handle("POST /reviews", limited(http.HandlerFunc(s.handleSubmitReview)))
	mux.Handle("PUT /reviews/{id}/approve", admin(s.handleApproveReview))
	mux.Handle("DELETE /reviews/{id}/reject", admin(s.handleRejectReview))
	mux.Handle("DELETE /reviews/{id}", admin(s.handleDeleteReview))

	// Журнал и экспорт
	mux.Handle("GET /logs", admin(s.handleLogs))
	mux.Handle("DELETE /logs", admin(s.handleClearLogs))
	mux.Handle("GET /export", admin(s.handleExport))

	chain := []func(http.Handler) http.Handler{middleware.RequestLogging(s.logger)}
	if s.recorder != nil {
		chain = append(chain, middleware.Metrics(s.recorder))
	}
	chain = append(chain, middleware.Recovery(s.logger))

	return middleware.Chain(mux, chain...)
}

// SetMetrics подключает учет запросов. Вызывается до Start.
func (s *Server) SetMetrics(recorder middleware.RequestRecorder) {
	s.recorder = recorder
	s.server.Handler = s.routes()
}

// Handler возвращает корневой обработчик
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start запускает HTTP-сервер
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop останавливает HTTP-сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
