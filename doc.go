// Package rsm compiles RSM manuscripts into HTML.
//
// # Quick Start
//
// Create a builder, build a manuscript, and use the structured output or the
// full document:
//
//	b := rsm.NewBuilder()
//	res, err := b.Build(ctx, rsm.Source{Name: "paper.rsm", Text: ":rsm: Hello world! ::"}, rsm.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("paper.html", []byte(res.Document()), 0o644)
//
// The result carries both views of one render: res.Output holds the head,
// body and init script as separate fragments, res.Document() wraps them into
// a complete HTML page. Config.Structured only selects which one Value
// returns.
//
// # Build Pipeline
//
// A build runs these stages in order:
//
//  1. Parsing with the configured backend ("classic" or "alternate")
//  2. Linting (when Config.Lint is set), advisory only
//  3. Transformation: numbering, cross-reference resolution, handrails
//  4. Rendering: asset resolution into the head, body markup, init script
//
// Parse, lint and transform problems are reported in Result.Diagnostics and
// never stop the build. Invalid configuration and asset resolution failures
// are fatal: Build returns an error and no result.
//
// # Configuration
//
// Per-build settings live in Config:
//
//	cfg := rsm.DefaultConfig()
//	cfg.Parser = rsm.ParserAlternate
//	cfg.Handrails = true
//	cfg.DisabledRules = []string{"heading-skip"}
//	cfg.ExtraAssets = []string{"mathjax"}
//
// Builder-wide collaborators are set with functional options:
//
//	b := rsm.NewBuilder(
//	    rsm.WithLogger(slog.Default()),
//	    rsm.WithResolver(myResolver),
//	)
//
// # Custom Assets
//
// By default asset names resolve against the embedded manifest. Point
// Config.AssetDir at a directory of name.css / name.js files to inline local
// copies, or implement AssetResolver for another backend.
//
// A Builder holds no per-build state and may be shared across goroutines.
package rsm
