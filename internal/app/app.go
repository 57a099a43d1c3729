package app

import (
	"context"
	"fmt"

	"keel/internal/config"
	"keel/internal/daemon"
	"keel/internal/logger"
	"keel/internal/store"
	"keel/internal/store/eventlog"
	controlhttp "keel/internal/transport/http/control"

	"golang.org/x/sync/errgroup"
)

// App owns application-level orchestration: config in, wired dependencies
// out, control loop and HTTP surface running side by side.
type App struct {
	cfg     *config.Config
	daemon  *daemon.Daemon
	httpSrv *controlhttp.Server
	store   store.Store
	events  *eventlog.EventLog

	stopWatch func()
}

// NewApp builds the application object from config without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the daemon and the control HTTP server. It blocks until ctx
// is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		group.Go(func() error {
			logger.Infof("control http server listening on %s", a.httpSrv.Addr())
			if err := a.httpSrv.Start(ctx); err != nil {
				return fmt.Errorf("control http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		if err := a.daemon.Start(ctx); err != nil {
			return fmt.Errorf("daemon start failed: %w", err)
		}
		<-ctx.Done()
		a.daemon.Stop("shutdown")
		return nil
	})

	return group.Wait()
}

// Daemon exposes the control loop, used by replay and test harnesses.
func (a *App) Daemon() *daemon.Daemon {
	if a == nil {
		return nil
	}
	return a.daemon
}

// Close releases held resources. Safe to call more than once.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.stopWatch != nil {
		a.stopWatch()
		a.stopWatch = nil
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			logger.Warnf("event log close failed: %v", err)
		}
		a.events = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("store close failed: %v", err)
		}
		a.store = nil
	}
}
