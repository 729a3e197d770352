package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/app"
	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/scheduler"
	"github.com/mrlokans/mangashelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func waitForSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	return <-quit
}

// ShutdownTimeout is the grace period for stopping background work.
func ShutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Global.ShutdownTimeoutInSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
}

// Serve runs handler on addr until SIGINT or SIGTERM, then shuts down
// gracefully within timeout.
func Serve(handler http.Handler, addr string, timeout time.Duration, log *zap.Logger, onShutdown ShutdownFunc) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	go func() { sigCh <- waitForSignal() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-sigCh:
		log.Info("shutting down server", zap.Stringer("signal", sig), zap.Duration("timeout", timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}

// signedInSyncer picks up a login made by another process since the daemon
// started.
type signedInSyncer struct {
	a *app.App
}

func (s signedInSyncer) SyncDown(ctx context.Context) cloudsync.Report {
	if !s.a.Session.IsAuthenticated() {
		s.a.Session.Bootstrap(ctx)
	}
	return s.a.Engine.SyncDown(ctx)
}

// Run is the serve daemon: it keeps the local collection in step with the
// cloud on a schedule, renews the session token and drains queued cloud
// echoes until interrupted.
func Run(cfg *config.Config, version string) error {
	l := logger.New()
	if err := l.Init(cfg.Log.Level); err != nil {
		return err
	}
	log := l.Log
	defer log.Sync()

	log.Info("starting mangashelf daemon", zap.String("version", version))

	a, err := app.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("error closing application", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.Session.Bootstrap(ctx)
	if a.Session.IsAuthenticated() {
		log.Info("session restored")
	} else {
		log.Warn("not signed in, cloud sync will be skipped until 'login' is run")
	}

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = a.OpenTasks()
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Warn("error closing task client", zap.Error(err))
			}
		}()
		go taskClient.Start(ctx)
	}

	var jobs []*scheduler.Job
	if cfg.CloudSync.Enabled {
		job := scheduler.NewCollectionSyncScheduler(cfg.CloudSync.Schedule, signedInSyncer{a}, a.SyncRuns, log.Named("scheduler"))
		if err := job.Start(ctx); err != nil {
			return err
		}
		job.RunNow(ctx)
		jobs = append(jobs, job)
	} else {
		log.Info("collection sync scheduler disabled")
	}
	if cfg.TokenRefresh.Enabled {
		job := scheduler.NewTokenRefreshScheduler(cfg.TokenRefresh.Schedule, a.Session, log.Named("scheduler"))
		if err := job.Start(ctx); err != nil {
			return err
		}
		jobs = append(jobs, job)
	} else {
		log.Info("token refresh scheduler disabled")
	}

	sig := waitForSignal()
	timeout := ShutdownTimeout(cfg)
	log.Info("shutting down", zap.Stringer("signal", sig), zap.Duration("timeout", timeout))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	if taskClient != nil {
		taskClient.Stop(stopCtx)
	}
	cancel()
	for _, job := range jobs {
		job.Stop()
		job.Wait()
	}

	log.Info("daemon exiting")
	return nil
}
