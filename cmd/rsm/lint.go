package main

import (
	"context"
	"fmt"
	"os"

	rsm "github.com/alnah/go-rsm"
)

// runLint parses and lints each manuscript and prints the diagnostics.
// Nothing is rendered.
func runLint(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseLintFlags(args, env.Stdout)
	if err != nil {
		return usageError(err)
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	// The lint command lints unless told otherwise on its own command line.
	if !flags.build.noLint && !flags.set["lint"] {
		flags.build.lint = true
		flags.set["lint"] = true
	}
	cfg, err := resolveConfig(flags.common, flags.build, flags.set, envCfg)
	if err != nil {
		return err
	}
	log := newLogger(env.Stderr, cfg.Build.Verbosity, flags.common.quiet, flags.common.logJSON)

	jobs, err := discoverJobs(inputs, outputPlan{stdout: true})
	if err != nil {
		return fmt.Errorf("discovering manuscripts: %w", err)
	}

	builder := rsm.NewBuilder(rsm.WithLogger(log))
	bcfg := buildConfig(cfg)

	var total, withErrors int
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := os.ReadFile(j.Input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadSource, err)
		}
		diags, err := builder.Lint(ctx, rsm.Source{Name: j.Input, Text: string(text)}, bcfg)
		if err != nil {
			return fmt.Errorf("%s: %w", j.Input, err)
		}

		printDiagnostics(env, j.Input, diags, flags.common.quiet)
		total += len(diags)
		for _, d := range diags {
			if d.Severity == rsm.SeverityError {
				withErrors++
				break
			}
		}
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "%d problem(s) in %d manuscript(s)\n", total, len(jobs))
	}
	if cfg.Build.Strict && withErrors > 0 {
		return fmt.Errorf("%w in %d manuscript(s)", ErrStrict, withErrors)
	}
	return nil
}
