package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	specpkg "github.com/daap14/retrospecs/api"
	"github.com/daap14/retrospecs/internal/api"
	"github.com/daap14/retrospecs/internal/api/handler"
	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/backend"
	"github.com/daap14/retrospecs/internal/config"
	"github.com/daap14/retrospecs/internal/database"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/metrics"
	"github.com/daap14/retrospecs/internal/query"
	"github.com/daap14/retrospecs/internal/realtime"
	"github.com/daap14/retrospecs/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		cancel()
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	provider := initProvider(ctx, cfg)
	cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	repos := backend.NewPostgresRepositories(db.Pool())
	authService := auth.NewService(
		auth.NewUserRepository(db.Pool()),
		auth.NewSessionRepository(db.Pool()),
		cfg.BcryptCost,
		cfg.SessionTTL,
	)
	cookies := auth.CookieConfig{
		SessionName: cfg.SessionCookie,
		Secure:      cfg.Production(),
		MaxAge:      cfg.SessionTTL,
	}
	factory := backend.NewSessionFactory(repos, authService, provider, cookies, cfg.OIDCRedirectURL)

	std := loader.NewStandardChain(factory,
		query.WithStaleTime(cfg.QueryStaleTime),
		query.WithObserver(m),
	)

	var notifier realtime.Notifier = realtime.Nop{}
	var redisPinger handler.Pinger
	if cfg.RedisURL != "" {
		rdb, err := initRedis(cfg.RedisURL)
		if err != nil {
			slog.Warn("realtime feed disabled", "error", err)
		} else {
			defer rdb.Close()
			notifier = m.Notifier(realtime.NewPublisher(rdb, realtime.DefaultChannel))
			redisPinger = pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
	}

	router := api.NewRouter(api.RouterDeps{
		DBPinger:    db,
		RedisPinger: redisPinger,
		Version:     cfg.Version,
		Environment: cfg.Environment,
		Routes:      routes.New(std, notifier),
		Metrics:     m,
		OpenAPISpec: specpkg.OpenAPISpec,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting RetroSpecs server", "port", cfg.Port, "version", cfg.Version, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(logHandler))
}

// initProvider returns nil when no identity provider is configured, so
// sign-in attempts report that instead of failing startup.
func initProvider(ctx context.Context, cfg *config.Config) auth.IdentityProvider {
	if !cfg.OIDCEnabled() {
		slog.Warn("OIDC is not configured; sign-in is disabled")
		return nil
	}
	p, err := auth.NewOIDCProvider(ctx, auth.OIDCConfig{
		IssuerURL:    cfg.OIDCIssuerURL,
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
	})
	if err != nil {
		slog.Warn("OIDC provider initialization failed; sign-in is disabled", "error", err)
		return nil
	}
	return p
}

func initRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
