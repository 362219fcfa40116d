// Package main implements the taskdash entry point: a long-running dashboard
// that follows a task backend over its push channel and REST API and renders
// the task view to the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskdash/internal/config"
	"github.com/phrazzld/taskdash/internal/platform/logger"
	"github.com/phrazzld/taskdash/internal/redact"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskdash: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithOutput(args, os.Stdout)
}

// runWithOutput parses flags, loads configuration and blocks until SIGINT or
// SIGTERM. The dashboard is rendered to stdout; logs go to stderr.
func runWithOutput(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("taskdash", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to a YAML config file")
	verbose := flags.BoolP("verbose", "v", false, "print every task update, not just the list")
	printConfig := flags.Bool("print-config", false, "print the effective configuration as YAML and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if *printConfig {
		out, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		_, err = stdout.Write(out)
		return err
	}

	l, err := logger.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("configuration loaded",
		"backend", redact.String(cfg.Backend.BaseURL),
		"poll_interval", cfg.Poll.Interval,
		"reconnect_interval", cfg.Push.ReconnectInterval,
		"max_reconnect_attempts", cfg.Push.MaxReconnectAttempts,
		"web_enabled", cfg.Web.Enabled)

	app, err := newApplication(cfg, l, stdout, *verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx)
}
