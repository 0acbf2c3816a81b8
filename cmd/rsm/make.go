package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	rsm "github.com/alnah/go-rsm"
	"github.com/alnah/go-rsm/internal/config"
	"github.com/alnah/go-rsm/internal/fileutil"
	"github.com/alnah/go-rsm/internal/pdf"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrReadSource         = errors.New("failed to read source file")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrExporterInit       = errors.New("failed to acquire PDF exporter")
	ErrStrict             = errors.New("error diagnostics reported")
)

// jobResult holds the outcome of one build.
type jobResult struct {
	job
	Diagnostics []rsm.Diagnostic
	HasErrors   bool
	Stdout      []byte // output held back for stdout
	Err         error
	Duration    time.Duration
}

// batch builds jobs concurrently. Each worker holds at most one exporter.
type batch struct {
	builder *rsm.Builder
	cfg     rsm.Config
	pool    exporterPool // nil without --pdf
	pdfOpts pdf.Options
	log     *slog.Logger
}

// runMake orchestrates the make command.
func runMake(ctx context.Context, args []string, env *Environment) error {
	flags, inputs, err := parseMakeFlags(args, env.Stdout)
	if err != nil {
		return usageError(err)
	}
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}
	if len(inputs) == 0 {
		return ErrNoInput
	}

	envCfg := loadEnvConfig()
	warnUnknownEnvVars(env.Stderr)

	cfg, err := resolveConfig(flags.common, flags.build, flags.set, envCfg)
	if err != nil {
		return err
	}
	log := newLogger(env.Stderr, cfg.Build.Verbosity, flags.common.quiet, flags.common.logJSON)

	if flags.serve {
		if len(inputs) != 1 {
			return fmt.Errorf("%w: --serve takes exactly one manuscript", ErrUsage)
		}
		return serve(ctx, inputs[0], cfg, log, flags.common.quiet, env)
	}

	jobs, err := discoverJobs(inputs, outputPlan{
		output:     flags.output,
		stdout:     flags.stdout,
		structured: cfg.Build.Structured,
		pdf:        flags.pdf,
	})
	if err != nil {
		return fmt.Errorf("discovering manuscripts: %w", err)
	}
	if len(jobs) == 0 {
		return fmt.Errorf("%w: no %s files found", ErrNoInput, sourceExt)
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}
	size := pdf.ResolvePoolSize(workers)
	log.Debug("starting", "manuscripts", len(jobs), "workers", size)

	b := &batch{
		builder: rsm.NewBuilder(rsm.WithLogger(log)),
		cfg:     buildConfig(cfg),
		log:     log,
	}
	if flags.pdf {
		b.pool, b.pdfOpts, err = newPDFPool(cfg, size, env)
		if err != nil {
			return err
		}
		defer func() {
			if err := b.pool.Close(); err != nil {
				log.Warn("closing browsers", "error", err)
			}
		}()
	}

	results := b.run(ctx, jobs, size)
	return printResults(results, flags.common.quiet, cfg.Build.Verbosity > 0, cfg.Build.Strict, env)
}

// newPDFPool prepares the exporter pool and print options from the pdf
// config section.
func newPDFPool(cfg *config.Config, size int, env *Environment) (exporterPool, pdf.Options, error) {
	opts := pdf.Options{PageSize: cfg.PDF.PageSize, Margin: cfg.PDF.Margin}
	if err := opts.Validate(); err != nil {
		return nil, opts, err
	}
	timeout, err := cfg.PDF.TimeoutDuration()
	if err != nil {
		return nil, opts, err
	}
	return env.NewPDFPool(size, timeout), opts, nil
}

// run builds all jobs with up to size workers. Results keep job order.
func (b *batch) run(ctx context.Context, jobs []job, size int) []jobResult {
	if len(jobs) == 0 {
		return nil
	}
	concurrency := min(size, len(jobs))

	results := make([]jobResult, len(jobs))
	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var exp exporter
			if b.pool != nil {
				exp = b.pool.Acquire()
				if exp == nil {
					for idx := range queue {
						results[idx] = jobResult{job: jobs[idx], Err: ErrExporterInit}
					}
					return
				}
				defer b.pool.Release(exp)
			}

			for idx := range queue {
				if ctx.Err() != nil {
					results[idx] = jobResult{job: jobs[idx], Err: ctx.Err()}
					continue
				}
				results[idx] = b.buildOne(ctx, exp, jobs[idx])
			}
		}()
	}

	wg.Wait()
	return results
}

// buildOne builds a single manuscript and writes its outputs.
func (b *batch) buildOne(ctx context.Context, exp exporter, j job) (r jobResult) {
	start := time.Now()
	r = jobResult{job: j}
	defer func() { r.Duration = time.Since(start) }()

	text, err := os.ReadFile(j.Input) // #nosec G304 -- user-provided path
	if err != nil {
		r.Err = fmt.Errorf("%w: %w", ErrReadSource, err)
		return r
	}

	res, err := b.builder.Build(ctx, rsm.Source{Name: j.Input, Text: string(text)}, b.cfg)
	if err != nil {
		r.Err = err
		return r
	}
	r.Diagnostics = res.Diagnostics
	r.HasErrors = res.HasErrors()

	out, err := encodeResult(res)
	if err != nil {
		r.Err = err
		return r
	}
	if j.Output == "" {
		r.Stdout = out
	} else if err := fileutil.WriteFile(j.Output, out); err != nil {
		r.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
		return r
	}

	if exp != nil && j.PDF != "" {
		data, err := exp.Export(ctx, res.Document(), b.pdfOpts)
		if err != nil {
			r.Err = fmt.Errorf("exporting %s: %w", j.PDF, err)
			return r
		}
		if err := fileutil.WriteFile(j.PDF, data); err != nil {
			r.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
			return r
		}
	}

	b.log.Info("built", "source", j.Input, "diagnostics", len(res.Diagnostics), "elapsed", time.Since(start))
	return r
}

// encodeResult returns the JSON triplet in structured mode, the document
// otherwise.
func encodeResult(res *rsm.Result) ([]byte, error) {
	if !res.Structured {
		return []byte(res.Document()), nil
	}
	data, err := json.MarshalIndent(res.Output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding output: %w", err)
	}
	return append(data, '\n'), nil
}

// printResults writes diagnostics, outputs and the summary, and returns the
// error that decides the exit code.
func printResults(results []jobResult, quiet, verbose, strict bool, env *Environment) error {
	var failed, withErrors int
	var firstErr error

	for _, r := range results {
		printDiagnostics(env, r.Input, r.Diagnostics, quiet)
		if r.HasErrors {
			withErrors++
		}

		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Input, r.Err)
			}
			continue
		}

		if r.Stdout != nil {
			_, _ = env.Stdout.Write(r.Stdout)
		}
		if quiet {
			continue
		}
		for _, path := range []string{r.Output, r.PDF} {
			if path == "" {
				continue
			}
			if verbose {
				fmt.Fprintf(env.Stderr, "%s -> %s (%v)\n", r.Input, path, r.Duration.Round(time.Millisecond))
			} else {
				fmt.Fprintf(env.Stderr, "Created %s\n", path)
			}
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stderr, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}

	switch {
	case failed == 1 && len(results) == 1:
		return firstErr
	case failed > 0:
		return fmt.Errorf("%d of %d build(s) failed: %w", failed, len(results), firstErr)
	case strict && withErrors > 0:
		return fmt.Errorf("%w in %d manuscript(s)", ErrStrict, withErrors)
	}
	return nil
}

// printDiagnostics writes one "file:line:col: severity: message [rule]"
// line per diagnostic. Quiet keeps errors only.
func printDiagnostics(env *Environment, name string, diags []rsm.Diagnostic, quiet bool) {
	for _, d := range diags {
		if quiet && d.Severity != rsm.SeverityError {
			continue
		}
		fmt.Fprintf(env.Stderr, "%s:%s\n", name, d)
	}
}

// usageError marks flag parsing failures as usage errors. Help requests
// pass through unchanged.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}
