package rsm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/alnah/go-rsm/internal/assets"
	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
	"github.com/alnah/go-rsm/internal/lint"
	"github.com/alnah/go-rsm/internal/parser"
	"github.com/alnah/go-rsm/internal/render"
	"github.com/alnah/go-rsm/internal/transform"
)

// Builder sequences parse, lint, transform and render.
// Create with NewBuilder and call Build for each manuscript. A Builder keeps
// no state between builds and is safe for concurrent use.
type Builder struct {
	resolver AssetResolver
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithResolver makes every build resolve assets through r instead of the
// resolver derived from Config.AssetDir and Config.StaticPath.
func WithResolver(r AssetResolver) Option {
	return func(b *Builder) {
		b.resolver = r
	}
}

// WithLogger sets the logger for build events. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder creates a Builder with default collaborators.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b
}

var defaultBuilder = NewBuilder()

// Make builds src with a default Builder.
func Make(ctx context.Context, src Source, cfg Config) (*Result, error) {
	return defaultBuilder.Build(ctx, src, cfg)
}

// Build runs the full pipeline over src.
// Fatal conditions (invalid configuration, unusable asset directory, asset
// resolution failure, cancellation, internal panic) return a nil Result.
// Everything else is reported in Result.Diagnostics.
func (b *Builder) Build(ctx context.Context, src Source, cfg Config) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	log := b.logger.With("source", src.Name)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolver, err := b.resolverFor(cfg)
	if err != nil {
		return nil, err
	}

	tree, diags, err := b.front(ctx, log, src, cfg)
	if err != nil {
		return nil, err
	}

	// Transform
	start := time.Now()
	rtree, tdiags := transform.Transform(tree, transform.Options{Handrails: cfg.Handrails})
	diags = append(diags, tdiags...)
	b.stage(log, cfg, "transform", start, len(tdiags))
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// Render
	start = time.Now()
	out, err := render.Render(rtree, render.Options{
		Resolver:   resolver,
		StaticPath: cfg.staticPath(),
		Extra:      cfg.ExtraAssets,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssetResolution, convertAssetError(err))
	}
	b.stage(log, cfg, "render", start, 0)

	b.report(ctx, log, cfg, diags)
	return &Result{
		Output:      Output(out),
		Structured:  cfg.Structured,
		Diagnostics: diags,
	}, nil
}

// Lint parses src and, when cfg.Lint is set, lints it. No output is produced.
func (b *Builder) Lint(ctx context.Context, src Source, cfg Config) (diags []Diagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			diags = nil
			err = fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	log := b.logger.With("source", src.Name)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	_, diags, err = b.front(ctx, log, src, cfg)
	if err != nil {
		return nil, err
	}
	b.report(ctx, log, cfg, diags)
	return diags, nil
}

// front runs the parse and lint stages.
func (b *Builder) front(ctx context.Context, log *slog.Logger, src Source, cfg Config) (*ast.Manuscript, []Diagnostic, error) {
	p, err := parser.ForBackend(cfg.Parser)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, ErrUnknownParser)
	}

	start := time.Now()
	tree, diags := p.Parse(ast.NewSource(src.Name, src.Text))
	b.stage(log, cfg, "parse", start, len(diags), "backend", p.Name())
	if ctx.Err() != nil {
		return nil, nil, ctx.Err()
	}

	if cfg.Lint {
		start = time.Now()
		ldiags := lint.Lint(tree, lint.Options{Disabled: cfg.DisabledRules})
		diags = append(diags, ldiags...)
		b.stage(log, cfg, "lint", start, len(ldiags))
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
	}
	return tree, diags, nil
}

// resolverFor returns the builder's resolver, or opens the one the
// configuration describes.
func (b *Builder) resolverFor(cfg Config) (assets.Resolver, error) {
	if b.resolver != nil {
		return internalResolver(b.resolver), nil
	}
	r, err := NewAssetResolver(cfg.AssetDir, cfg.staticPath())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return internalResolver(r), nil
}

func (b *Builder) stage(log *slog.Logger, cfg Config, name string, start time.Time, n int, attrs ...any) {
	if cfg.Verbosity < 2 {
		return
	}
	attrs = append(attrs, "stage", name, "diagnostics", n, "elapsed", time.Since(start))
	log.Debug("stage done", attrs...)
}

func (b *Builder) report(ctx context.Context, log *slog.Logger, cfg Config, diags []Diagnostic) {
	if cfg.Verbosity < 1 {
		return
	}
	for _, d := range diags {
		level := slog.LevelWarn
		if d.Severity == diag.Error {
			level = slog.LevelError
		}
		log.Log(ctx, level, d.Message,
			"stage", string(d.Stage), "rule", d.Rule, "pos", d.Span.Start.String())
	}
}
