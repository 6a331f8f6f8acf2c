package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estimate_portal_backend/internal/email"
	"estimate_portal_backend/internal/estimate"
	"estimate_portal_backend/internal/estimate/sessionstore"
	"estimate_portal_backend/internal/events"
	apphttp "estimate_portal_backend/internal/http"
	"estimate_portal_backend/internal/http/router"
	"estimate_portal_backend/internal/leads"
	"estimate_portal_backend/internal/notification"
	"estimate_portal_backend/internal/scheduler"
	"estimate_portal_backend/platform/config"
	"estimate_portal_backend/platform/db"
	"estimate_portal_backend/platform/logger"
	"estimate_portal_backend/platform/redisconn"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "leadStore", cfg.GetLeadStore())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if cfg.GetLeadStore() == config.LeadStorePostgres {
		if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
			p, err := db.NewPool(ctx, cfg)
			if err != nil {
				return err
			}
			pool = p
			return nil
		}); err != nil {
			log.Error("failed to connect to database", "error", err)
			panic("failed to connect to database: " + err.Error())
		}
		defer pool.Close()
		log.Info("database connection established")

		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, log)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	var redisClient *redis.Client
	if cfg.GetRedisURL() != "" {
		if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
			c, err := redisconn.NewClient(ctx, cfg)
			if err != nil {
				return err
			}
			redisClient = c
			return nil
		}); err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("redis connection established")
	} else {
		log.Warn("REDIS_URL not configured; sessions are kept in memory and lead notices are sent inline")
	}

	leadStore, err := leads.OpenStore(ctx, cfg, pool)
	if err != nil {
		log.Error("failed to open lead store", "error", err)
		panic("failed to open lead store: " + err.Error())
	}
	if leadStore == nil {
		log.Warn("lead store disabled; completed estimates will offer manual contact channels")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	problemCatalog, err := estimate.LoadCatalog(cfg, log)
	if err != nil {
		log.Error("failed to load catalog", "error", err)
		panic("failed to load catalog: " + err.Error())
	}
	log.Info("catalog loaded", "problems", problemCatalog.Len())

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(leadStore, eventBus, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(leadsModule.Reader(), email.NewSender(cfg), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	g, gctx := errgroup.WithContext(ctx)

	var sessions sessionstore.Store
	if redisClient != nil {
		sessions = sessionstore.NewRedis(redisClient, cfg.GetSessionTTL())

		noticeClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = noticeClient.Close() }()
		notificationModule.SetScheduler(noticeClient)

		worker, err := scheduler.NewWorker(cfg, eventBus, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
		g.Go(func() error { return worker.Run(gctx) })
	} else {
		memory := sessionstore.NewMemory(cfg.GetSessionTTL())
		sessions = memory
		sweeper := scheduler.NewSessionSweeper(memory, log, 0)
		g.Go(func() error {
			sweeper.Run(gctx)
			return nil
		})
	}

	estimateModule := estimate.NewModule(cfg, problemCatalog, sessions, leadsModule.Saver(), log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   healthCheck(pool, redisClient),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			estimateModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}

func healthCheck(pool *pgxpool.Pool, redisClient *redis.Client) apphttp.HealthChecker {
	return apphttp.HealthCheckerFunc(func(ctx context.Context) error {
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("database: %w", err)
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	})
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
