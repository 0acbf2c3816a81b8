package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	rsm "github.com/alnah/go-rsm"
	"github.com/alnah/go-rsm/internal/config"
	"github.com/alnah/go-rsm/internal/devserver"
)

// runServe runs the serve command.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseServeFlags(args, env.Stdout)
	if err != nil {
		return usageError(err)
	}
	if len(inputs) != 1 {
		return fmt.Errorf("%w: serve takes exactly one manuscript", ErrUsage)
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := resolveConfig(flags.common, flags.build, flags.set, envCfg)
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Serve.Addr = flags.addr
	}
	if flags.staticDir != "" {
		cfg.Serve.StaticDir = flags.staticDir
	}
	if flags.interval != "" {
		cfg.Serve.Interval = flags.interval
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := newLogger(env.Stderr, cfg.Build.Verbosity, flags.common.quiet, flags.common.logJSON)
	return serve(ctx, inputs[0], cfg, log, flags.common.quiet, env)
}

// serve watches source and serves it until ctx is cancelled.
func serve(ctx context.Context, source string, cfg *config.Config, log *slog.Logger, quiet bool, env *Environment) error {
	interval, err := cfg.Serve.PollInterval()
	if err != nil {
		return err
	}

	srv, err := devserver.New(devserver.Options{
		Source:    source,
		Builder:   rsm.NewBuilder(rsm.WithLogger(log)),
		Config:    buildConfig(cfg),
		StaticDir: cfg.Serve.StaticDir,
		Interval:  interval,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		_ = srv.Watch(ctx)
	}()

	if !quiet {
		fmt.Fprintf(env.Stderr, "Serving %s on http://%s (Ctrl+C to stop)\n", source, cfg.Serve.Addr)
	}
	err = srv.ListenAndServe(ctx, cfg.Serve.Addr)
	cancel()
	<-watchDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
