package main

import (
	"fmt"
	"io"
	"log/slog"

	rsm "github.com/alnah/go-rsm"
	"github.com/alnah/go-rsm/internal/config"
	"github.com/alnah/go-rsm/internal/parser"
)

// resolveConfig layers the settings: defaults, config file, environment,
// then flags. The result is validated.
func resolveConfig(common commonFlags, build buildFlags, set map[string]bool, env *envConfig) (*config.Config, error) {
	cfg, err := loadConfigFile(common.config, env.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyEnvConfig(env, cfg)
	mergeBuildFlags(build, common, set, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile loads the named config, or the default one when present.
// Without either the defaults apply.
func loadConfigFile(flagName, envName string) (*config.Config, error) {
	name := flagName
	if name == "" {
		name = envName
	}
	if name == "" {
		path, ok := config.FindDefault()
		if !ok {
			return config.DefaultConfig(), nil
		}
		name = path
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// mergeBuildFlags merges CLI flags into config. CLI values override config values.
func mergeBuildFlags(f buildFlags, common commonFlags, set map[string]bool, cfg *config.Config) {
	if set["lint"] {
		cfg.Build.Lint = f.lint
	}
	if f.noLint {
		cfg.Build.Lint = false
	}

	if f.treesitter {
		cfg.Build.Parser = parser.BackendAlternate
	}
	if f.parser != "" {
		cfg.Build.Parser = f.parser
	}

	if set["structured"] {
		cfg.Build.Structured = f.structured
	}
	if set["handrails"] {
		cfg.Build.Handrails = f.handrails
	}
	if set["strict"] {
		cfg.Build.Strict = f.strict
	}
	if common.verbose > 0 {
		cfg.Build.Verbosity = min(common.verbose, config.MaxVerbosity)
	}

	if f.assetDir != "" {
		cfg.Assets.Dir = f.assetDir
	}
	if f.staticPath != "" {
		cfg.Assets.StaticPath = f.staticPath
	}
	cfg.Assets.Extra = append(cfg.Assets.Extra, f.assets...)
	cfg.Lint.Disable = append(cfg.Lint.Disable, f.disableRules...)
}

// buildConfig converts file settings into the library configuration.
// The CLI prints diagnostics itself, so library logging is only turned on
// from verbosity 2, where stage timings become useful.
func buildConfig(cfg *config.Config) rsm.Config {
	verbosity := cfg.Build.Verbosity
	if verbosity < 2 {
		verbosity = 0
	}
	return rsm.Config{
		Lint:          cfg.Build.Lint,
		Verbosity:     verbosity,
		Parser:        cfg.Build.Parser,
		Structured:    cfg.Build.Structured,
		Handrails:     cfg.Build.Handrails,
		StaticPath:    cfg.Assets.StaticPath,
		AssetDir:      cfg.Assets.Dir,
		ExtraAssets:   cfg.Assets.Extra,
		DisabledRules: cfg.Lint.Disable,
	}
}

// newLogger returns the CLI logger. Level follows -v: warn by default, info
// at -v, debug from -vv. Quiet keeps errors only.
func newLogger(w io.Writer, verbosity int, quiet, jsonOut bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if jsonOut {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
