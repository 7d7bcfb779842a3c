package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"timesheet-admin/internal/api"
	"timesheet-admin/internal/logging"
)

const shutdownTimeout = 15 * time.Second

// ServeCommand runs the operational HTTP surface and, when enabled, the sync
// scheduler until ctx is cancelled.
type ServeCommand struct {
	app *App
	// ready receives the bound address once the listener is up.
	ready chan<- string
}

// NewServeCommand creates a new serve command handler
func NewServeCommand(app *App) *ServeCommand {
	return &ServeCommand{app: app}
}

// Execute runs the serve command
func (c *ServeCommand) Execute(ctx context.Context, args []string) error {
	cfg := c.app.config
	log := c.app.logger.WithField("module", "cli")

	handler := api.NewHandler(c.app.api, c.app.logger)
	server := api.NewServer(cfg.Server.Addr, api.NewRouter(handler, c.app.logger))

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return NewErrorHandler().Handle("listen on "+cfg.Server.Addr, err)
	}
	if c.ready != nil {
		c.ready <- listener.Addr().String()
	}

	if cfg.Sync.SchedulerEnabled {
		c.app.scheduler.Start(ctx)
		defer c.app.scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", listener.Addr().String()).Info("http server listening")
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.LogError(log, "cli", "ServeCommand.Execute", "http server shutdown", nil, err)
		return err
	}
	log.Info("http server stopped")
	return nil
}
