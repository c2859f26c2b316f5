package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"farmoffice/internal/domain/audit"
	"farmoffice/internal/domain/auth"
	"farmoffice/internal/domain/core"
	"farmoffice/internal/domain/payroll"
	"farmoffice/internal/domain/reports"
	"farmoffice/internal/domain/worklog"
	"farmoffice/internal/platform/config"
	"farmoffice/internal/platform/db"
	"farmoffice/internal/platform/metrics"
	"farmoffice/internal/transport/http/api"
	audithandler "farmoffice/internal/transport/http/handlers/audit"
	authhandler "farmoffice/internal/transport/http/handlers/auth"
	corehandler "farmoffice/internal/transport/http/handlers/core"
	payrollhandler "farmoffice/internal/transport/http/handlers/payroll"
	reportshandler "farmoffice/internal/transport/http/handlers/reports"
	worklogshandler "farmoffice/internal/transport/http/handlers/worklog"
	"farmoffice/internal/transport/http/middleware"
)

// AuditTrail records mutations and lists them back.
type AuditTrail interface {
	audit.Recorder
	audithandler.Lister
}

// Services is everything the router needs. New fills it from a database
// pool; tests may build it from in-memory fakes.
type Services struct {
	Auth        *auth.Service
	Core        core.StoreAPI
	WorkLogs    worklog.StoreAPI
	Audit       AuditTrail
	Idempotency middleware.IdempotencyBackend
	Ready       func(ctx context.Context) error
}

type App struct {
	Config  config.Config
	Logger  *zap.Logger
	DB      *pgxpool.Pool
	Metrics *metrics.Collector
	Router  http.Handler
}

// New connects to the database, applies migrations and the seed when
// configured, and assembles the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.RunMigrations {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	collector := metrics.New()
	services := Services{
		Auth:        auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL),
		Core:        core.NewStore(pool),
		WorkLogs:    worklog.NewStore(pool),
		Audit:       audit.New(pool),
		Idempotency: middleware.NewIdempotencyStore(pool),
		Ready:       pool.Ping,
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		DB:      pool,
		Metrics: collector,
		Router:  NewRouter(cfg, logger, collector, services),
	}, nil
}

func NewRouter(cfg config.Config, logger *zap.Logger, collector *metrics.Collector, svc Services) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.New()
	}
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.Logger(logger, collector))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready == nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := svc.Ready(ctx); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	payrollService := payroll.NewService(svc.WorkLogs, payroll.NewCoreDirectory(svc.Core), collector)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authHandler := authhandler.NewHandler(svc.Auth, perms, svc.Audit, logger)
		authHandler.RegisterPublicRoutes(r)
		authHandler.RegisterRoutes(r)

		corehandler.NewHandler(svc.Core, svc.Audit, perms, logger).RegisterRoutes(r)
		worklogshandler.NewHandler(svc.WorkLogs, svc.Audit, perms, svc.Idempotency, collector, logger).RegisterRoutes(r)
		payrollhandler.NewHandler(payrollService, perms, logger).RegisterRoutes(r)
		reportshandler.NewHandler(reports.NewService(svc.WorkLogs), perms, logger).RegisterRoutes(r)
		audithandler.NewHandler(svc.Audit, perms, logger).RegisterRoutes(r)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.Config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.Addr, err)
	}
	return a.Serve(ctx, listener)
}

func (a *App) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("farm office listening", zap.String("addr", listener.Addr().String()))
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.Config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		a.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if err == nil || os.IsNotExist(err) {
		index := filepath.Join(h.staticPath, h.indexPath)
		if _, err := os.Stat(index); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, index)
		return
	}

	http.NotFound(w, r)
}
