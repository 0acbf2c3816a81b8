package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose int
	logJSON bool
}

// buildFlags holds flags that shape a build (make, lint and serve).
type buildFlags struct {
	lint         bool
	noLint       bool
	treesitter   bool
	parser       string
	structured   bool
	handrails    bool
	assetDir     string
	staticPath   string
	assets       []string
	disableRules []string
	strict       bool
}

// makeFlags holds all flags for the make command.
type makeFlags struct {
	common  commonFlags
	build   buildFlags
	output  string
	stdout  bool
	workers int
	pdf     bool
	serve   bool
	set     map[string]bool // flags given explicitly
}

// lintFlags holds all flags for the lint command.
type lintFlags struct {
	common commonFlags
	build  buildFlags
	set    map[string]bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	build     buildFlags
	addr      string
	staticDir string
	interval  string
	set       map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.CountVarP(&f.verbose, "verbose", "v", "more logging (repeat for more)")
	fs.BoolVar(&f.logJSON, "log-json", false, "log as JSON lines")
}

// addBuildFlags adds build flags to a FlagSet.
func addBuildFlags(fs *flag.FlagSet, f *buildFlags) {
	fs.BoolVar(&f.lint, "lint", true, "run the linter")
	fs.BoolVar(&f.noLint, "no-lint", false, "skip the linter")
	fs.BoolVarP(&f.treesitter, "treesitter", "t", false, "use the alternate parser")
	fs.StringVar(&f.parser, "parser", "", "parser backend: classic, alternate")
	fs.BoolVar(&f.structured, "structured", false, "emit head, body and init_script as JSON")
	fs.BoolVar(&f.handrails, "handrails", false, "add handrails to block elements")
	fs.StringVar(&f.assetDir, "asset-dir", "", "directory of local asset files")
	fs.StringVar(&f.staticPath, "static-path", "", "runtime base path (default /static/)")
	fs.StringArrayVar(&f.assets, "asset", nil, "extra asset name (repeatable)")
	fs.StringArrayVar(&f.disableRules, "disable-rule", nil, "lint rule to skip (repeatable)")
	fs.BoolVar(&f.strict, "strict", false, "fail when any error diagnostic is reported")
}

// visited records which flags were set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return set
}

// makeFlagSet registers the make command flags into f.
func makeFlagSet(f *makeFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("make", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.BoolVar(&f.stdout, "stdout", false, "write output to stdout")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.pdf, "pdf", false, "also print each manuscript to PDF")
	fs.BoolVar(&f.serve, "serve", false, "serve the manuscript with live reload")

	addCommonFlags(fs, &f.common)
	addBuildFlags(fs, &f.build)
	return fs
}

// lintFlagSet registers the lint command flags into f.
func lintFlagSet(f *lintFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addCommonFlags(fs, &f.common)
	addBuildFlags(fs, &f.build)
	return fs
}

// serveFlagSet registers the serve command flags into f.
func serveFlagSet(f *serveFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&f.addr, "addr", "", "listen address (default 127.0.0.1:8000)")
	fs.StringVar(&f.staticDir, "static-dir", "", "serve runtime files from this directory")
	fs.StringVar(&f.interval, "interval", "", "source polling period (e.g. 500ms)")

	addCommonFlags(fs, &f.common)
	addBuildFlags(fs, &f.build)
	return fs
}

// doctorFlagSet registers the doctor command's only flag into jsonOutput.
func doctorFlagSet(jsonOutput *bool) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(jsonOutput, "json", false, "print results as JSON")
	return fs
}

// parseMakeFlags parses make command flags and returns positional args.
func parseMakeFlags(args []string, usage io.Writer) (*makeFlags, []string, error) {
	f := &makeFlags{}
	fs := makeFlagSet(f)
	fs.Usage = func() { printMakeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = visited(fs)
	return f, fs.Args(), nil
}

// parseLintFlags parses lint command flags and returns positional args.
func parseLintFlags(args []string, usage io.Writer) (*lintFlags, []string, error) {
	f := &lintFlags{}
	fs := lintFlagSet(f)
	fs.Usage = func() { printLintUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = visited(fs)
	return f, fs.Args(), nil
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := serveFlagSet(f)
	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = visited(fs)
	return f, fs.Args(), nil
}
