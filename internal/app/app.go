// Package app wires configuration, storage, the library and the AI session
// together for every command.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/config"
	"github.com/nikbrunner/xbm/internal/format"
	"github.com/nikbrunner/xbm/internal/httpserver"
	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/storage"
	"github.com/nikbrunner/xbm/internal/version"
	"github.com/nikbrunner/xbm/internal/watcher"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	store   *storage.BestEffort
	library *library.Library
	session *ai.Session
}

// New loads configuration and restores the saved collection. A storage
// backend that cannot be opened is logged and the app runs in memory only.
func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	loggerClient := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	a := &App{cfg: cfg, logger: loggerClient}

	backend, err := storage.Open(context.Background(), cfg.Storage)
	if err != nil {
		loggerClient.Warn("storage unavailable, bookmarks will not persist",
			logger.String("backend", cfg.Storage.Backend),
			logger.Error(err))
	} else {
		a.store = storage.NewBestEffort(backend, loggerClient)
	}

	libParams := library.Params{Logger: loggerClient}
	var stateStore ai.StateStore
	if a.store != nil {
		libParams.Store = a.store
		stateStore = a.store
	}

	a.library = library.New(libParams)
	a.library.Restore()

	a.session = ai.NewSession(ai.SessionParams{
		Quota:      ai.NewQuota(stateStore, cfg.AI.FreeQueryLimit),
		DefaultKey: cfg.AI.APIKey,
		Client: ai.ClientParams{
			Model:     cfg.AI.Model,
			MaxTokens: cfg.AI.MaxTokens,
		},
		Formatter: format.New(),
		Logger:    loggerClient,
	})

	return a, nil
}

func (a *App) Config() *config.Config    { return a.cfg }
func (a *App) Logger() logger.Logger     { return a.logger }
func (a *App) Library() *library.Library { return a.library }
func (a *App) Session() *ai.Session      { return a.session }

// AskContext bounds one AI request by the configured timeout.
func (a *App) AskContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.AI.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.cfg.AI.Timeout)
}

// Close releases the storage backend and flushes the logger.
func (a *App) Close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// Watch re-imports path on every change until interrupted.
func (a *App) Watch(path string, onReload func()) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.watch(ctx, path, onReload)
}

func (a *App) watch(ctx context.Context, path string, onReload func()) error {
	opts := watcher.Options{Logger: a.logger}
	if onReload != nil {
		opts.OnReload = func(_ importer.Outcome, err error) {
			if err == nil {
				onReload()
			}
		}
	}
	w, err := watcher.New(path, a.library, opts)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// Serve runs the HTTP server until interrupted. When watchPath is set the
// export file is re-imported on change while serving.
func (a *App) Serve(watchPath string) error {
	a.logger.Infof("Starting %s on %s", version.String(), a.cfg.Server.Addr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps.Deps{
		Logger:    a.logger,
		StartTime: time.Now(),
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: version.GoVersion,
		Library:   a.library,
		Session:   a.session,
		Backend:   a.cfg.Storage.Backend,
		Store:     a.store,
	}
	server := httpserver.New(a.cfg.Server, a.logger, d)

	errCh := make(chan error, 2)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if watchPath != "" {
		go func() {
			if err := a.watch(ctx, watchPath, nil); err != nil {
				errCh <- fmt.Errorf("watcher error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("server stopped cleanly")
	return nil
}
