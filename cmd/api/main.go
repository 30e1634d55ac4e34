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

	"hackdesk_backend/internal/calllog"
	"hackdesk_backend/internal/email"
	"hackdesk_backend/internal/events"
	apphttp "hackdesk_backend/internal/http"
	"hackdesk_backend/internal/http/router"
	"hackdesk_backend/internal/messaging"
	"hackdesk_backend/internal/scheduler"
	"hackdesk_backend/internal/storage"
	"hackdesk_backend/internal/teams"
	"hackdesk_backend/migrations"
	"hackdesk_backend/platform/config"
	"hackdesk_backend/platform/db"
	"hackdesk_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
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

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSender(cfg)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	teamsModule := teams.NewModule(pool, eventBus, cfg, log)
	calllogModule := calllog.NewModule(pool, log)
	messagingModule, err := messaging.NewModule(pool, eventBus, sender, cfg, log)
	if err != nil {
		log.Error("failed to initialize messaging module", "error", err)
		panic("failed to initialize messaging module: " + err.Error())
	}

	// CSV archive storage (MinIO) is optional; imports work without it.
	if cfg.IsMinIOEnabled() {
		archiver, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		bucket := cfg.GetMinioBucketImports()
		if err := withRetry(ctx, log, "ensure imports bucket", 5, 2*time.Second, func() error {
			return archiver.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			log.Error("failed to ensure imports bucket exists", "error", err, "bucket", bucket)
			panic("failed to ensure imports bucket exists: " + err.Error())
		}
		teamsModule.SetArchiver(archiver, bucket)
		log.Info("storage service initialized", "importsBucket", bucket)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; CSV archiving disabled")
	}

	// Redis backs the campaign queue and the recipient-count cache. Both
	// are optional; without Redis, campaigns run inline and counts are
	// computed per request.
	if cfg.GetRedisURL() != "" {
		enqueuer, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize campaign scheduler client", "error", err)
		} else {
			defer enqueuer.Close()
			messagingModule.SetEnqueuer(enqueuer)
		}

		if opt, err := redis.ParseURL(cfg.GetRedisURL()); err == nil {
			redisClient := redis.NewClient(opt)
			defer redisClient.Close()
			messagingModule.SetRecipientCountCache(redisClient)
		} else {
			log.Error("failed to parse redis url", "error", err)
		}
	} else {
		log.Warn("REDIS_URL not configured; campaigns run inline, recipient counts uncached")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			teamsModule,
			calllogModule,
			messagingModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	g, gctx := errgroup.WithContext(ctx)
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
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
