package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ratecard-converter/internal/config"
	"ratecard-converter/internal/pkg/logger"
	"ratecard-converter/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server HTTP 服务
type Server struct {
	cfg     *config.Config
	svc     *service.Service
	handler http.Handler
	http    *http.Server
}

// New 创建服务并注册路由
func New(cfg *config.Config, svc *service.Service) *Server {
	s := &Server{cfg: cfg, svc: svc}
	s.handler = s.routes()
	return s
}

// Handler 路由（测试用）
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route(s.cfg.App.APIPrefix, func(r chi.Router) {
		r.Get("/fields", s.handleFields)
		r.Post("/convert-rate-card", s.handleConvert)
		r.Post("/preview-mapping", s.handlePreview)

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.handleSubmitJob)
			r.Get("/{id}", s.handleGetJob)
			r.Get("/{id}/ws", s.handleJobSocket)
		})

		r.Route("/rate-cards", func(r chi.Router) {
			r.Get("/", s.handleListRateCards)
			r.Get("/{id}", s.handleGetRateCard)
			r.Get("/{id}/report", s.handleRateCardReport)
			r.Delete("/{id}", s.handleDeleteRateCard)
		})
	})
	return r
}

// requestLogger 访问日志
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe 阻塞直到 ctx 取消，然后优雅退出
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.http = &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.http.Addr, "prefix", s.cfg.App.APIPrefix)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := s.http.Shutdown(shutdownCtx)
	s.svc.Wait()
	logger.Info("server stopped")
	return err
}
