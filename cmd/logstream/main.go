package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/crimson-sun/logstream/internal/config"
	"github.com/crimson-sun/logstream/internal/connector/auth"
	"github.com/crimson-sun/logstream/internal/connector/websocket"
	"github.com/crimson-sun/logstream/internal/directory"
	"github.com/crimson-sun/logstream/internal/engine"
	"github.com/crimson-sun/logstream/internal/logging"
	"github.com/crimson-sun/logstream/internal/metrics"
	"github.com/crimson-sun/logstream/internal/model"
	"github.com/crimson-sun/logstream/internal/output"
	"github.com/crimson-sun/logstream/internal/output/async"
	"github.com/crimson-sun/logstream/internal/output/stdout"
	"github.com/crimson-sun/logstream/internal/pipeline"
	"github.com/crimson-sun/logstream/internal/tui"
)

// errQuit ends the session when the user leaves the viewer.
var errQuit = errors.New("quit")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "logstream: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if cfg.ShowVersion {
		fmt.Printf("logstream %s\n", config.Version)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config:\n%w", err)
	}

	interactive := cfg.Output == config.OutputTUI
	closeLog, err := logging.Init(interactive, cfg.Output == config.OutputNDJSON, cfg.LogFile, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds := auth.Default(cfg.AuthURL, cfg.SessionToken, cfg.CookieFile)
	services, selected, err := resolveService(ctx, cfg, creds)
	if err != nil {
		return err
	}
	if selected == nil && !interactive {
		return errors.New("--service is required unless --output=tui")
	}

	var outs []output.Output
	if !interactive {
		format := stdout.Text
		if cfg.Output == config.OutputNDJSON {
			format = stdout.NDJSON
		}
		outs = append(outs, async.New(stdout.New(format, output.ParseVerbosity(cfg.Verbosity))))
	}

	p := pipeline.New(websocket.New(), creds, engine.New(), pipeline.Config{
		StreamBase:  cfg.WSURL,
		Live:        cfg.Live,
		DialTimeout: cfg.DialTimeout,
		Reconnect: pipeline.Reconnect{
			Enabled:     cfg.Reconnect.Enabled,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
			BaseDelay:   cfg.Reconnect.BaseDelay,
			MaxDelay:    cfg.Reconnect.MaxDelay,
		},
	}, outs...)
	defer func() {
		if err := p.Close(); err != nil {
			slog.Warn("closing outputs", "error", err)
		}
	}()

	slog.Info("logstream starting", "version", config.Version, "output", cfg.Output, "live", cfg.Live)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return metrics.Serve(gctx, cfg.MetricsAddr) })
	}
	g.Go(func() error {
		if selected != nil {
			if err := p.SelectService(gctx, *selected); err != nil {
				return err
			}
		}
		if !interactive {
			<-gctx.Done()
			return gctx.Err()
		}
		if err := tui.Run(gctx, p, services); err != nil {
			return err
		}
		return errQuit
	})

	err = g.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// resolveService loads the service directory and resolves --service
// against it. When the directory is unreachable a configured service is
// used as a bare id.
func resolveService(ctx context.Context, cfg config.Config, creds auth.TokenSource) ([]model.Service, *model.Service, error) {
	services, err := directory.New(cfg.APIURL, creds).List(ctx)
	if err != nil {
		if cfg.Service == "" {
			return nil, nil, fmt.Errorf("loading services: %w", err)
		}
		slog.Warn("service directory unavailable, using service as id", "service", cfg.Service, "error", err)
		svc := model.Service{ID: cfg.Service, Name: cfg.Service}
		return []model.Service{svc}, &svc, nil
	}
	if cfg.Service == "" {
		return services, nil, nil
	}
	svc, err := directory.Find(services, cfg.Service)
	if err != nil {
		return nil, nil, err
	}
	return services, &svc, nil
}
