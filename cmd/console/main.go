package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"churchconsole/internal/adapters/api"
	web "churchconsole/internal/adapters/http"
	"churchconsole/internal/adapters/http/middleware"
	"churchconsole/internal/adapters/photo"
	"churchconsole/internal/adapters/storage"
	deletionStore "churchconsole/internal/adapters/storage/deletion"
	sessionStore "churchconsole/internal/adapters/storage/session"
	"churchconsole/internal/application/signin"
	"churchconsole/internal/application/workspace"
	"churchconsole/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// workspaceIdle is how long an untouched workspace stays in memory.
const workspaceIdle = 2 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_event", "event", "invalid", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
	middleware.SecureCookies = cfg.IsProduction()

	if err := run(cfg); err != nil {
		slog.Error("server_event", "event", "stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DBPath + "?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(4)
	if err := db.Ping(); err != nil {
		return err
	}
	if err := storage.InitDB(db); err != nil {
		return err
	}

	queryMetrics := storage.NewQueryMetrics()
	timedDB := storage.NewTimedDB(db, queryMetrics, cfg.SlowQuery)
	tokens := sessionStore.NewSQLiteStore(timedDB)
	deletions := deletionStore.NewSQLiteStore(timedDB)

	now := time.Now()
	if n, err := tokens.PurgeOlderThan(ctx, now.Add(-cfg.SessionMaxAge)); err != nil {
		slog.Warn("storage_event", "event", "session_purge_failed", "error", err)
	} else if n > 0 {
		slog.Info("storage_event", "event", "sessions_purged", "count", n)
	}
	if n, err := deletions.ExpireStale(ctx, now); err != nil {
		slog.Warn("storage_event", "event", "deletion_expiry_failed", "error", err)
	} else if n > 0 {
		slog.Info("storage_event", "event", "deletions_expired", "count", n)
	}

	backend, err := api.New(api.Config{
		BaseURL:         cfg.APIBaseURL,
		Timeout:         cfg.APITimeout,
		BreakerFailures: cfg.BreakerFailures,
	})
	if err != nil {
		return err
	}
	workspaces := workspace.NewRegistry(workspace.Deps{
		Backend:   backend,
		Tokens:    tokens,
		Deletions: deletions,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
	go limiter.Run(ctx)
	go sweepWorkspaces(ctx, workspaces)

	requestMetrics := middleware.NewRequestMetrics()
	registry := prometheus.NewRegistry()
	var collectors []prometheus.Collector
	collectors = append(collectors, api.Collectors()...)
	collectors = append(collectors, signin.Collectors()...)
	collectors = append(collectors, queryMetrics.Collectors()...)
	collectors = append(collectors, requestMetrics.Collectors()...)
	registry.MustRegister(collectors...)

	csrfKey := []byte(cfg.CSRFKey)
	if len(csrfKey) != 32 {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			return err
		}
		slog.Warn("config_event", "event", "csrf_key_generated", "note", "set CHURCH_CSRF_KEY to keep tokens valid across restarts")
	}

	handler := web.NewMux(web.Options{
		Workspaces:    workspaces,
		Photos:        photo.NewNormalizer(cfg.PhotoMaxPx),
		CSRFKey:       csrfKey,
		CORSOrigins:   cfg.CORSOrigins,
		Limiter:       limiter,
		SlowRequest:   cfg.SlowRequest,
		SessionMaxAge: cfg.SessionMaxAge,
		Metrics:       requestMetrics,
		Gatherer:      registry,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.APITimeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_event", "event", "starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "backend", cfg.APIBaseURL, "schema", storage.LatestSchemaVersion())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_event", "event", "shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sweepWorkspaces drops idle workspaces until ctx is done. Their operators are
// restored from the token store on their next request.
func sweepWorkspaces(ctx context.Context, workspaces *workspace.Registry) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			workspaces.Sweep(t.Add(-workspaceIdle))
		}
	}
}
