package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"timesheet-admin/internal/api"
	"timesheet-admin/internal/config"
	"timesheet-admin/internal/dispatch"
	"timesheet-admin/internal/errors"
	"timesheet-admin/internal/external"
	"timesheet-admin/internal/logging"
	"timesheet-admin/internal/repository/sqlite"
	"timesheet-admin/internal/services"
	"timesheet-admin/internal/sync"
)

// Dispatcher pool sizing for notification and payroll side effects.
const (
	dispatchWorkers   = 4
	dispatchQueueSize = 256
	dispatchTimeout   = 30 * time.Second
)

// App holds the wired application for one command invocation
type App struct {
	config    *config.Config
	logger    *logrus.Logger
	repo      sqlite.Repository
	api       api.API
	engine    *sync.Engine
	scheduler *sync.Scheduler
	out       io.Writer
	closers   []func()
}

// Dependencies lets callers supply pre-built collaborators. Nil fields are
// built from configuration.
type Dependencies struct {
	Repo   sqlite.Repository
	Source external.AttendanceSource
	Guard  sync.RunGuard
	Logger *logrus.Logger
	Out    io.Writer
}

// NewApp wires the application from configuration
func NewApp(cfg *config.Config) (*App, error) {
	return NewAppWithDependencies(cfg, Dependencies{})
}

// NewAppWithDependencies wires the application, building whatever deps leaves unset
func NewAppWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	app := &App{config: cfg, logger: deps.Logger, out: deps.Out}
	if app.logger == nil {
		app.logger = logging.New(cfg.Logging)
	}
	if app.out == nil {
		app.out = os.Stdout
	}

	app.repo = deps.Repo
	if app.repo == nil {
		repo, err := config.CreateRepository(cfg)
		if err != nil {
			return nil, err
		}
		app.repo = repo
		app.onClose(func() { repo.Close() })
	}

	source := deps.Source
	if source == nil {
		source = app.buildSource()
	}

	guard := deps.Guard
	if guard == nil {
		guard = app.buildGuard()
	}

	dispatcher := dispatch.New(app.logger, dispatchWorkers, dispatchQueueSize, dispatchTimeout)
	app.onClose(dispatcher.Close)

	container := services.NewServiceContainer(app.repo, cfg, app.logger, services.TimesheetDeps{
		Logger:     app.logger,
		Dispatcher: dispatcher,
		Notifier:   external.LogNotifier{Logger: app.logger},
		Payroll:    external.LogPayrollSync{Logger: app.logger},
	})

	app.engine = sync.NewEngine(app.repo, source, cfg, guard, app.logger)
	app.scheduler = sync.NewScheduler(app.engine, cfg.Sync.Interval, app.logger)
	app.api = api.New(app.repo, app.engine, container.TimesheetService, container.EntryService)
	return app, nil
}

func (a *App) buildSource() external.AttendanceSource {
	source, err := external.NewHTTPSource(a.config.External)
	if err != nil {
		a.logger.WithError(err).Debug("external attendance source not configured")
		return unconfiguredSource{cause: err}
	}
	a.onClose(source.Close)
	return source
}

func (a *App) buildGuard() sync.RunGuard {
	if a.config.Sync.LockBackend != config.LockBackendRedis {
		if a.config.IsProduction() {
			a.logger.Warn("memory run lock only guards this process; set TS_SYNC_LOCK_BACKEND=redis for shared deployments")
		}
		return sync.NewMemoryRunGuard()
	}
	client := redis.NewClient(&redis.Options{Addr: a.config.Sync.RedisAddress})
	a.onClose(func() { client.Close() })
	return sync.NewRedisRunGuard(client, sync.DefaultLockKey, a.config.Sync.LockTTL)
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases everything the app opened, in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// unconfiguredSource fails every call with the configuration error.
type unconfiguredSource struct {
	cause error
}

func (s unconfiguredSource) GetCurrentPeriod(context.Context) (external.Period, error) {
	return external.Period{}, errors.NewExternalError("resolve current period", s.cause)
}

func (s unconfiguredSource) GetRows(context.Context, string, string) ([]external.Row, error) {
	return nil, errors.NewExternalError("fetch attendance rows", s.cause)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
