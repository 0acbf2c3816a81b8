package assets

import (
	"fmt"
	"slices"
	"strings"
)

// Kind says how an entry is written into the head.
type Kind string

const (
	// KindScript is a <script src> reference.
	KindScript Kind = "script"
	// KindStyle is a <link rel="stylesheet"> reference.
	KindStyle Kind = "style"
	// KindInline is literal content in a <script> or <style> element,
	// chosen by Entry.Type.
	KindInline Kind = "inline"
)

// Inline content types.
const (
	TypeCSS = "text/css"
	TypeJS  = "text/javascript"
)

// Entry is one resolved asset.
type Entry struct {
	Name string
	Kind Kind
	// Content is the URL for scripts and styles, the literal text for inline
	// entries.
	Content string
	// Type is TypeCSS or TypeJS for inline entries.
	Type string
	// Async marks scripts that may load out of order.
	Async bool
}

// Resolver maps logical asset names to head entries.
type Resolver interface {
	Resolve(names []string) ([]Entry, error)
}

// Canonical asset names known to the embedded manifest.
const (
	JQuery         = "jquery"
	TooltipsterJS  = "tooltipster-js"
	TooltipsterCSS = "tooltipster-css"
	RSMCSS         = "rsm-css"
	MathJax        = "mathjax"
	HighlightCSS   = "highlight-css"
	Tooltips       = "tooltips"
)

// Baseline lists the assets every manuscript requires.
func Baseline() []string {
	return []string{JQuery, TooltipsterJS, TooltipsterCSS, RSMCSS}
}

// canonical deduplicates names and orders them by manifest position, with
// names outside the manifest last in alphabetical order.
func canonical(names []string) []string {
	out := slices.Clone(names)
	slices.SortStableFunc(out, func(a, b string) int {
		ia, ib := manifestIndex(a), manifestIndex(b)
		if ia != ib {
			return ia - ib
		}
		return strings.Compare(a, b)
	})
	return slices.Compact(out)
}

func notFound(missing []string) error {
	return fmt.Errorf("%w: %s", ErrAssetNotFound, strings.Join(missing, ", "))
}
