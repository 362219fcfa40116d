package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/taskdash/internal/client"
	"github.com/phrazzld/taskdash/internal/config"
	"github.com/phrazzld/taskdash/internal/dashboard"
	"github.com/phrazzld/taskdash/internal/present"
	"github.com/phrazzld/taskdash/internal/push"
	"github.com/phrazzld/taskdash/internal/redact"
	"github.com/phrazzld/taskdash/internal/web"
)

// application holds the process-wide dependencies so they can be shut down
// together.
type application struct {
	config *config.Config
	logger *slog.Logger

	controller *dashboard.Controller
	server     *web.Server
}

// newApplication wires the REST client, the terminal presenter, the
// controller and, when enabled, the status server.
func newApplication(cfg *config.Config, logger *slog.Logger, out io.Writer, verbose bool) (*application, error) {
	rest, err := client.New(client.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.RequestTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	pushURL, err := cfg.Backend.PushURL()
	if err != nil {
		return nil, fmt.Errorf("failed to derive push url: %w", err)
	}

	terminal := present.NewTerminal(out)
	terminal.Verbose = verbose

	controller, err := dashboard.New(dashboard.Options{
		Backend:    rest,
		Presenter:  terminal,
		PushURL:    pushURL,
		PushDialer: push.NewWebsocketDialer(cfg.Backend.RequestTimeout, nil),
		Policy: push.Policy{
			Interval:    cfg.Push.ReconnectInterval,
			MaxAttempts: cfg.Push.MaxReconnectAttempts,
		},
		PongWait:     cfg.Push.PongWait,
		WriteWait:    cfg.Push.WriteWait,
		PollInterval: cfg.Poll.Interval,
		DisplayLimit: cfg.Dashboard.DisplayLimit,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard: %w", err)
	}

	app := &application{
		config:     cfg,
		logger:     logger,
		controller: controller,
	}

	if cfg.Web.Enabled {
		router := web.NewRouter(web.NewHandler(controller, logger), logger)
		app.server = web.NewServer(cfg.Web.Addr, router, logger)
	}

	logger.Info("application initialized",
		"push_url", redact.String(pushURL),
		"session_id", rest.SessionID())
	return app, nil
}

// Run starts the dashboard and blocks until ctx is cancelled or the status
// server fails.
func (app *application) Run(ctx context.Context) error {
	if err := app.controller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}
	defer app.cleanup()

	if app.server == nil {
		<-ctx.Done()
		return nil
	}

	if err := app.server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	app.controller.Stop()
	app.logger.Info("application shutdown completed")
}
