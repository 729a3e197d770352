// Package app wires the client's components from configuration. The CLI
// commands and the serve daemon both start from Open.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/catalog"
	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/collection"
	"github.com/mrlokans/mangashelf/internal/config"
	"github.com/mrlokans/mangashelf/internal/credstore"
	"github.com/mrlokans/mangashelf/internal/database"
	dbcollection "github.com/mrlokans/mangashelf/internal/database/collection"
	dbsync "github.com/mrlokans/mangashelf/internal/database/sync"
	applog "github.com/mrlokans/mangashelf/internal/logger"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
	"github.com/mrlokans/mangashelf/internal/tasks"
)

// flushTimeout bounds how long a command waits for queued cloud echoes
// before leaving them to the daemon.
const flushTimeout = 15 * time.Second

type Option func(*options)

type options struct {
	syncObserver func(cloudsync.Event)
	authObserver auth.Observer
}

// WithSyncObserver receives every sync engine event.
func WithSyncObserver(fn func(cloudsync.Event)) Option {
	return func(o *options) { o.syncObserver = fn }
}

// WithAuthObserver receives every session state change.
func WithAuthObserver(fn auth.Observer) Option {
	return func(o *options) { o.authObserver = fn }
}

// App holds one process's worth of components.
type App struct {
	Config *config.Config
	Log    *zap.Logger

	API         *mangaapi.Client
	Credentials *credstore.Store
	DB          *database.Database
	Session     *auth.Session
	Collection  *dbcollection.Repository
	SyncRuns    *dbsync.Repository
	Engine      *cloudsync.Engine
}

// Open builds every component. The session starts signed out; call
// Session.Bootstrap to restore a stored login.
func Open(cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	log = applog.OrNop(log)
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	api := mangaapi.NewClient(mangaapi.Config{
		BaseURL:   cfg.API.BaseURL,
		AppToken:  cfg.API.AppToken,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
	})

	creds, err := credstore.New(credstore.Config{
		DatabasePath:  cfg.Credentials.DatabasePath,
		EncryptionKey: cfg.Credentials.EncryptionKey,
		KeyFilePath:   cfg.Credentials.KeyFilePath,
		Logger:        log.Named("credstore"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	db, err := database.NewDatabase(cfg.Database.Path, log.Named("database"))
	if err != nil {
		creds.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	authOpts := []auth.Option{auth.WithLogger(log.Named("auth"))}
	if o.authObserver != nil {
		authOpts = append(authOpts, auth.WithObserver(o.authObserver))
	}
	session := auth.NewSession(api, creds, authOpts...)

	store := dbcollection.NewRepository(db.DB)
	syncOpts := []cloudsync.Option{cloudsync.WithLogger(log.Named("cloudsync"))}
	if o.syncObserver != nil {
		syncOpts = append(syncOpts, cloudsync.WithObserver(o.syncObserver))
	}

	return &App{
		Config:      cfg,
		Log:         log,
		API:         api,
		Credentials: creds,
		DB:          db,
		Session:     session,
		Collection:  store,
		SyncRuns:    dbsync.NewRepository(db.DB),
		Engine:      cloudsync.NewEngine(api, store, session, syncOpts...),
	}, nil
}

// Catalog returns a query manager over the remote catalog.
func (a *App) Catalog(opts ...catalog.Option) *catalog.Manager {
	opts = append([]catalog.Option{catalog.WithLogger(a.Log.Named("catalog"))}, opts...)
	return catalog.NewManager(a.API, a.Config.Catalog.PageSize, opts...)
}

func (a *App) tasksConfig() tasks.Config {
	return tasks.Config{
		Workers:         a.Config.Tasks.Workers,
		TaskTimeout:     a.Config.Tasks.TaskTimeout,
		ReleaseAfter:    a.Config.Tasks.ReleaseAfter,
		CleanupInterval: a.Config.Tasks.CleanupInterval,
	}
}

// OpenTasks opens the task queue with the sync queues registered. Workers
// are not started.
func (a *App) OpenTasks() (*tasks.Client, error) {
	client, err := tasks.NewClient(a.Config.Database.Path, a.tasksConfig(), a.Log)
	if err != nil {
		return nil, err
	}
	client.Register(tasks.NewSyncQueues(a.Engine, a.Collection, a.tasksConfig(), a.Log.Named("tasks"))...)
	return client, nil
}

// Editor returns a collection editor whose cloud echoes go through the
// returned flush. Call flush before exiting: it waits for inline echoes, or
// for queued ones up to flushTimeout, and reports how many are left queued.
func (a *App) Editor(ctx context.Context) (*collection.Editor, func() int, error) {
	log := a.Log.Named("collection")

	if !a.Config.Tasks.Enabled {
		dispatcher := cloudsync.NewDispatcher(ctx, a.Engine)
		editor := collection.NewEditor(a.Collection, collection.WithLogger(log), collection.WithSubmitter(dispatcher))
		return editor, func() int { dispatcher.Wait(); return 0 }, nil
	}

	client, err := a.OpenTasks()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open task queue: %w", err)
	}
	submitter := tasks.NewSubmitter(client, a.Log)
	editor := collection.NewEditor(a.Collection, collection.WithLogger(log), collection.WithSubmitter(submitter))

	flush := func() int {
		defer client.Close()
		ids := submitter.Submitted()
		if len(ids) == 0 {
			return 0
		}

		workCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go client.Start(workCtx)

		waitCtx, waitCancel := context.WithTimeout(ctx, flushTimeout)
		defer waitCancel()
		left := client.Await(waitCtx, ids, 100*time.Millisecond)

		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		client.Stop(stopCtx)
		return len(left)
	}
	return editor, flush, nil
}

func (a *App) Close() error {
	var firstErr error
	if err := a.DB.Close(); err != nil {
		firstErr = err
	}
	if err := a.Credentials.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
