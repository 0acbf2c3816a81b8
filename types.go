package rsm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-rsm/internal/assets"
	"github.com/alnah/go-rsm/internal/diag"
	"github.com/alnah/go-rsm/internal/lint"
	"github.com/alnah/go-rsm/internal/parser"
	"github.com/alnah/go-rsm/internal/render"
)

// Parser backend names.
const (
	ParserClassic   = parser.BackendClassic
	ParserAlternate = parser.BackendAlternate
)

// DefaultStaticPath is the runtime base path used by DefaultConfig.
const DefaultStaticPath = render.DefaultStaticPath

// MaxVerbosity caps Config.Verbosity.
const MaxVerbosity = 3

// Config controls a single build.
type Config struct {
	Lint       bool   // run the linter (default: true)
	Verbosity  int    // 0 quiet, 1 log diagnostics, 2+ log stage details
	Parser     string // "classic" or "alternate" (default: "classic")
	Structured bool   // Result.Value returns the triplet instead of the document
	Handrails  bool   // attach handrail markers to eligible nodes

	// StaticPath is the runtime base path used by the init script and by
	// manifest entries with relative sources. Must end with "/".
	StaticPath string

	// AssetDir, when set, holds name.css / name.js files that take precedence
	// over the embedded manifest. Ignored when the builder has a resolver.
	AssetDir string

	ExtraAssets   []string // asset names requested in addition to content needs
	DisabledRules []string // lint rule names to skip
}

// DefaultConfig returns the configuration used by the rsm command without
// flags.
func DefaultConfig() Config {
	return Config{
		Lint:       true,
		Parser:     ParserClassic,
		StaticPath: DefaultStaticPath,
	}
}

// Validate checks that the configuration is usable.
// Does not touch the filesystem; AssetDir is checked when the build opens it.
func (c Config) Validate() error {
	if c.Verbosity < 0 || c.Verbosity > MaxVerbosity {
		return fmt.Errorf("%w: %w: %d (must be between 0 and %d)", ErrInvalidConfig, ErrInvalidVerbose, c.Verbosity, MaxVerbosity)
	}
	if _, err := parser.ForBackend(c.Parser); err != nil {
		return fmt.Errorf("%w: %w: %q (available: %s)", ErrInvalidConfig, ErrUnknownParser, c.Parser, strings.Join(parser.Backends(), ", "))
	}
	if err := assets.ValidateBasePath(c.staticPath()); err != nil {
		return fmt.Errorf("%w: static path: %v", ErrInvalidConfig, err)
	}
	for _, name := range c.ExtraAssets {
		if err := assets.ValidateAssetName(name); err != nil {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrInvalidAssetName, name)
		}
	}
	if err := lint.ValidateDisabled(c.DisabledRules); err != nil {
		var unknown []string
		for _, name := range c.DisabledRules {
			if !slices.Contains(lint.RuleNames(), name) {
				unknown = append(unknown, name)
			}
		}
		return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrUnknownRule, strings.Join(unknown, ", "))
	}
	return nil
}

func (c Config) staticPath() string {
	if c.StaticPath == "" {
		return DefaultStaticPath
	}
	return c.StaticPath
}

// Source is one manuscript to build.
type Source struct {
	Name string // used only in diagnostics
	Text string
}

// Output is the structured build result. Its JSON form has exactly the keys
// head, body and init_script.
type Output struct {
	Head       string `json:"head"`
	Body       string `json:"body"`
	InitScript string `json:"init_script"`
}

// Diagnostic is a non-fatal problem found while building.
type Diagnostic = diag.Diagnostic

// Diagnostic severities.
const (
	SeverityWarning = diag.Warning
	SeverityError   = diag.Error
)

// Result is a successful build.
type Result struct {
	Output      Output
	Structured  bool
	Diagnostics []Diagnostic // parse, then lint, then transform
}

// Document returns the complete HTML page wrapping Output.
func (r *Result) Document() string {
	return render.Document(render.Output(r.Output))
}

// Value returns Output when the build was structured and Document otherwise.
func (r *Result) Value() any {
	if r.Structured {
		return r.Output
	}
	return r.Document()
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	return diag.HasErrors(r.Diagnostics)
}
