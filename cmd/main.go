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

	"github.com/okian/slalom/internal/adapters/http/api"
	"github.com/okian/slalom/internal/adapters/http/swagger"
	service "github.com/okian/slalom/internal/app"
	"github.com/okian/slalom/internal/config"
	"github.com/okian/slalom/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := applyLogFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	l := logger.Get()
	defer func() {
		_ = logger.Sync()
	}()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		l.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, l); err != nil {
		l.Error(ctx, "controller stopped with error", logger.Error(err))
		return 1
	}
	return 0
}

// applyLogFormat re-initialises the global logger when JSON lines are requested.
func applyLogFormat(format string) error {
	if format != "json" {
		return nil
	}
	if err := logger.Init(logger.WithJSON(true)); err != nil {
		return fmt.Errorf("json logger: %w", err)
	}
	return nil
}

// run drives the controller until ctx ends or a transport fails. Teardown
// happens in reverse order of construction: ops HTTP, telemetry, transports.
func run(ctx context.Context, cfg *config.Config, l logger.Logger) error {
	tr, err := openTransports(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer tr.Close()

	tel, err := startTelemetry(cfg, l)
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLogger(l.Named("controller")),
		service.WithThresholds(cfg.Thresholds()),
		service.WithMaxIterations(cfg.RecoveryMaxIterations),
		service.WithTurnRatio(cfg.RecoveryTurnRatio),
		service.WithClamp(cfg.ClampSpeedLaws),
	}
	if tel != nil {
		opts = append(opts, service.WithTelemetry(tel.queue))
	}
	svc := service.New(tr.source, tr.sink, opts...)

	var srv *http.Server
	if cfg.Addr != "" {
		router := api.NewServer(svc).Router()
		swagger.Register(router)
		srv = &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		go func() {
			l.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error(ctx, "HTTP server failed", logger.Error(errors.Join(api.ErrServe, err)))
			}
		}()
	}

	runErr := svc.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
		}
	}
	if tel != nil {
		tel.stop(shutdownCtx)
	}

	l.Info(shutdownCtx, "controller exited", logger.String("run_id", svc.RunID()))
	return runErr
}
