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

	"portal_backend/internal/adapters"
	"portal_backend/internal/auth"
	"portal_backend/internal/conversion"
	"portal_backend/internal/conversion/lock"
	"portal_backend/internal/conversion/ports"
	"portal_backend/internal/customers"
	"portal_backend/internal/email"
	"portal_backend/internal/events"
	apphttp "portal_backend/internal/http"
	"portal_backend/internal/http/router"
	"portal_backend/internal/leads"
	"portal_backend/internal/notification"
	"portal_backend/internal/scheduler"
	"portal_backend/migrations"
	"portal_backend/platform/config"
	"portal_backend/platform/db"
	"portal_backend/platform/logger"
	"portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
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

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, pool, migrations.FS)
	}); err != nil {
		log.Error("failed to run migrations", "error", err)
		panic("failed to run migrations: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// ========================================================================
	// Background queue (optional)
	// ========================================================================

	queueClient, worker, closeQueue := initScheduler(cfg, sender, log)
	defer closeQueue()

	notificationModule := notification.New(queueClient, sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// Domain modules
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, val, log)
	customersModule := customers.NewModule(pool)
	authModule := auth.NewModule(pool, log)

	locker, closeLocker := initLeadLocker(cfg, log)
	defer closeLocker()

	// Anti-Corruption Layer: the conversion pipeline only sees its own ports
	conversionModule := conversion.NewModule(conversion.Dependencies{
		Records:     adapters.NewConversionRecordStore(customersModule.Repository(), leadsModule.Repository()),
		Leads:       adapters.NewConversionLeadReader(leadsModule.Repository()),
		Credentials: adapters.NewConversionCredentialStore(authModule.Service()),
		Locker:      locker,
	}, eventBus, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			customersModule,
			conversionModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
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

	g.Go(func() error {
		return conversionModule.Service().RunJanitor(gctx, janitorInterval)
	})

	if worker != nil {
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if n := conversionModule.Service().Drain(drainCtx); n > 0 {
		log.Warn("open conversion sessions abandoned on shutdown", "count", n)
	}
	eventBus.Wait()
}

func initScheduler(cfg *config.Config, sender email.Sender, log *logger.Logger) (scheduler.ConversionNotifier, *scheduler.Worker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; conversion emails are sent inline")
		return nil, nil, func() {}
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil, func() {}
	}

	worker, err := scheduler.NewWorker(cfg, cfg, sender, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		_ = client.Close()
		return nil, nil, func() {}
	}

	return client, worker, func() {
		_ = client.Close()
	}
}

func initLeadLocker(cfg config.SchedulerConfig, log *logger.Logger) (ports.LeadLocker, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead locks are process-local")
		return lock.Noop{}, func() {}
	}

	locker, err := lock.NewRedisLockerFromURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize lead locker", "error", err)
		panic("failed to initialize lead locker: " + err.Error())
	}

	return locker, func() {
		_ = locker.Close()
	}
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
