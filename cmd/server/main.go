package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/forumkit/forumkit/internal/api"
	"github.com/forumkit/forumkit/internal/config"
	"github.com/forumkit/forumkit/internal/db"
	"github.com/forumkit/forumkit/internal/mailer"
	"github.com/forumkit/forumkit/internal/metrics"
	"github.com/forumkit/forumkit/internal/queue"
	"github.com/forumkit/forumkit/internal/ratelimiter"
	"github.com/forumkit/forumkit/internal/repository"
	"github.com/forumkit/forumkit/internal/service"
	"github.com/forumkit/forumkit/internal/sms"
	"github.com/forumkit/forumkit/internal/worker"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- repositories ----
	jobRepo := repository.NewPgJobRepository(pool)
	prefRepo := repository.NewPgPreferenceRepository(pool)
	notifRepo := repository.NewPgNotificationRepository(pool)
	userRepo := repository.NewPgUserRepository(pool)
	threadRepo := repository.NewPgThreadRepository(pool)

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	broker := queue.NewBroker(jobRepo, logger, queue.Options{
		MaxAttempts:  cfg.JobMaxAttempts,
		BackoffBase:  cfg.JobBackoffBase,
		PollInterval: cfg.DispatchInterval,
	})
	broker.Register(queue.QueueNotifications)
	broker.Register(queue.QueueEmails)

	var transport mailer.Transport
	if cfg.SMTPHost == "" {
		transport = mailer.NewLogTransport(logger)
		logger.Info("email transport: log (no SMTP_HOST configured)")
	} else {
		transport = mailer.NewSMTPTransport(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}

	notificationSvc := service.NewNotificationService(prefRepo, notifRepo, broker, logger)
	threadSvc := service.NewThreadService(threadRepo, userRepo, notificationSvc, logger)

	// ---- broker dispatchers + worker pools ----
	// Context for all background goroutines; cancelled on shutdown signal.
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	broker.Start(workerCtx)

	onProcessed, onFailed := m.PoolHooks()
	hooks := worker.MetricHooks{OnProcessed: onProcessed, OnFailed: onFailed}

	notificationHandler := worker.NewNotificationHandler(
		prefRepo, notifRepo, userRepo, broker, sms.NewMockSender(logger), logger, m.ChannelHook(),
	)
	notificationPool := worker.NewPool(
		queue.QueueNotifications, broker, notificationHandler,
		cfg.NotificationWorkers, logger, hooks,
	)
	notificationPool.Start(workerCtx)

	emailHandler := worker.NewEmailHandler(
		transport, ratelimiter.New(cfg.EmailRatePerSec), logger, m.EmailSentHook(),
	)
	emailPool := worker.NewPool(
		queue.QueueEmails, broker, emailHandler,
		cfg.EmailWorkers, logger, hooks,
	)
	emailPool.Start(workerCtx)

	// Periodic queue-depth gauge refresh.
	go func() {
		ticker := time.NewTicker(cfg.DispatchInterval * 5)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if depths, err := broker.Depths(workerCtx); err == nil {
					m.SetQueueDepths(depths)
				}
			}
		}
	}()

	// ---- HTTP server ----
	router := api.NewRouter(notificationSvc, threadSvc, broker, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests (and with them, new enqueues).
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal dispatchers and workers to stop claiming new jobs.
	cancelWorkers()

	// 3. Wait for in-flight jobs to finish. Jobs still pending simply stay
	//    in the store and are picked up by the next process.
	notificationPool.Wait()
	emailPool.Wait()
	broker.Wait()

	logger.Info("server stopped cleanly")
}
