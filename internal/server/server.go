// Пакет server — HTTP-сервер Results Module с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на ingress/прокси.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goresultboard/internal/api/handlers"
	"github.com/bigkaa/goresultboard/internal/api/middleware"
	"github.com/bigkaa/goresultboard/internal/config"
)

// Server — HTTP-сервер Results Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := NewRouter(logger, handler, jwtAuth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter создаёт chi-маршрутизатор со всеми routes и middleware.
// Административные маршруты регистрируются только внутри группы с JWT
// middleware, поэтому недостижимы без валидного токена.
// jwtAuth обязателен: без него группа admin не собирается.
func NewRouter(logger *slog.Logger, handler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) chi.Router {
	if jwtAuth == nil {
		panic("server: NewRouter требует JWT middleware")
	}

	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и metrics проверяются Kubernetes и Prometheus напрямую
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// Публичные маршруты — только чтение
	router.Get("/api/v1/results", handler.ListResults)
	router.Get("/api/v1/results/pinned", handler.ListPinnedResults)
	router.Get("/api/v1/results/{id}", handler.GetResult)

	// Аутентификация
	router.Post("/api/v1/auth/login", handler.Login)

	// Административные маршруты — под JWT middleware
	router.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(jwtAuth.Middleware())
		r.Get("/results", handler.ListAdminResults)
		r.Post("/results", handler.CreateResult)
		r.Patch("/results/{id}/pin", handler.SetResultPinned)
		r.Delete("/results/{id}", handler.DeleteResult)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
