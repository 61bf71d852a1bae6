package web

import (
	"BillionairesDashboard/src/config"
	"BillionairesDashboard/src/datasource/file"
	"BillionairesDashboard/src/processor"
	"BillionairesDashboard/src/storage"
	"BillionairesDashboard/src/telemetry"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// Datasets 数据集缓存，*file.Cache 实现了它
type Datasets interface {
	Get(path string) (*file.FileInfo, error)
	Clear() int
}

// Server 仪表盘的HTTP外壳，每个请求是一次渲染周期
type Server struct {
	cfg      *config.Config
	charts   *config.ChartConfig
	data     Datasets
	pipeline *processor.Pipeline
	logger   *storage.Logger
	metrics  *telemetry.Metrics
	tmpl     *template.Template
	router   chi.Router
}

func NewServer(
	cfg *config.Config,
	ccfg *config.ChartConfig,
	data Datasets,
	pipeline *processor.Pipeline,
	logger *storage.Logger,
	metrics *telemetry.Metrics,
) (*Server, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		charts:   ccfg,
		data:     data,
		pipeline: pipeline,
		logger:   logger,
		metrics:  metrics,
		tmpl:     tmpl,
	}
	s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// websocket不经过日志和Recoverer中间件
	r.Get("/ws/logs", s.handleLogStream)

	r.Group(func(r chi.Router) {
		r.Use(s.requestLogger)
		r.Use(middleware.Recoverer)

		r.Get("/", s.handleIndex)
		r.Get("/healthz", s.handleHealth)
		r.Get("/export.xlsx", s.handleExport)
		if s.cfg.EnableMetrics {
			r.Handle("/metrics", s.metrics.Handler())
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/charts/{id}", s.handleChart)
			r.Post("/cache/clear", s.handleClearCache)
		})
	})

	s.router = r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger 每个请求记录一条日志，带上request id
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		t1 := time.Now()
		defer func() {
			if s.logger == nil {
				return
			}
			s.logger.With("request_id", middleware.GetReqID(r.Context())).Info("http请求",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(t1).String(),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// Run 启动HTTP服务，ctx取消后优雅退出
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Std(),
		WriteTimeout: s.cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP服务已启动", "addr", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("HTTP服务已停止")
	return nil
}
