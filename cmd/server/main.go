package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/maillist/internal/config"
	"github.com/JonMunkholm/maillist/internal/core"
	"github.com/JonMunkholm/maillist/internal/logging"
	"github.com/JonMunkholm/maillist/internal/metrics"
	"github.com/JonMunkholm/maillist/internal/session"
	"github.com/JonMunkholm/maillist/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		opts   []core.ServiceOption
		checks = map[string]web.ReadinessCheck{}
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
		opts = append(opts, core.WithRunObserver(m))
	}

	if cfg.Database.Enabled() {
		pool, err := connectDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		audit := core.NewPgAuditRecorder(pool)
		if err := audit.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, core.WithAuditRecorder(audit))
		checks["database"] = pool.Ping

		go core.RunAuditRetention(ctx, audit, core.RetentionConfig{
			Retention:     cfg.Database.AuditRetention,
			CheckInterval: cfg.Database.AuditPurgeInterval,
		})
	} else {
		slog.Info("no database configured, audit log disabled")
	}

	var store core.SessionStore
	if cfg.Redis.Enabled() {
		client, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()

		rs := session.NewRedisStore(client, cfg.Redis.SessionTTL)
		checks["redis"] = rs.Ping
		store = rs
		slog.Info("sessions stored in redis", "ttl", cfg.Redis.SessionTTL)
	} else {
		ms := session.NewMemoryStore(cfg.Redis.SessionTTL)
		go ms.RunSweeper(ctx, cfg.Redis.SweepInterval)
		store = ms
		slog.Info("sessions stored in memory", "ttl", cfg.Redis.SessionTTL)
	}

	service := core.NewService(store, serviceConfig(cfg), opts...)

	server := web.NewServer(service, cfg, m)
	for name, check := range checks {
		server.AddReadinessCheck(name, check)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(cfg.Server.Addr()) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if status := service.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", status.Active)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		slog.Warn("uploads did not complete in time", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func serviceConfig(cfg *config.Config) core.ServiceConfig {
	return core.ServiceConfig{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWaitTime:   cfg.Upload.MaxWaitTime,
		UploadTimeout: cfg.Upload.Timeout,
		Defaults: core.ProcessingOptions{
			RemoveDuplicates:   cfg.Processing.RemoveDuplicates,
			RemoveInvalid:      cfg.Processing.RemoveInvalid,
			SortAlphabetically: cfg.Processing.SortAlphabetically,
		},
	}
}

func connectDatabase(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(dbCfg.MaxConns)
	poolConfig.MinConns = int32(dbCfg.MinConns)
	poolConfig.MaxConnLifetime = dbCfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(dbCfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}
	return pool, nil
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	slog.Info("connected to redis", "addr", opt.Addr)
	return client, nil
}
