// Package render serializes a render tree into the three build artifacts:
// the document head (asset tags), the body (manuscript markup) and the init
// script that boots the client runtime.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-rsm/internal/assets"
	"github.com/alnah/go-rsm/internal/transform"
)

// DefaultStaticPath is the runtime base path used when none is configured.
const DefaultStaticPath = "/static/"

// WrapperClass marks the root container of every body.
const WrapperClass = "manuscriptwrapper"

// ErrNoResolver is returned when Render is called without a resolver.
var ErrNoResolver = errors.New("render: no asset resolver")

// Options configures a render.
type Options struct {
	Resolver   assets.Resolver
	StaticPath string
	// Extra lists asset names requested in addition to those the content
	// needs.
	Extra []string
}

// Output is the structured build result.
type Output struct {
	Head       string `json:"head"`
	Body       string `json:"body"`
	InitScript string `json:"init_script"`
}

// Render runs the two passes: collect and resolve assets, then serialize.
func Render(root *transform.Node, opts Options) (Output, error) {
	if opts.Resolver == nil {
		return Output{}, ErrNoResolver
	}
	base := opts.StaticPath
	if base == "" {
		base = DefaultStaticPath
	}

	names := append(RequiredAssets(root), opts.Extra...)
	entries, err := opts.Resolver.Resolve(names)
	if err != nil {
		return Output{}, fmt.Errorf("resolving assets: %w", err)
	}

	return Output{
		Head:       Head(entries),
		Body:       Body(root),
		InitScript: InitScript(base),
	}, nil
}

// RequiredAssets lists the assets the tree needs: the baseline plus math,
// highlighting and tooltip support when such content is present.
func RequiredAssets(root *transform.Node) []string {
	names := assets.Baseline()
	var math, code, tips bool
	transform.Walk(root, func(n *transform.Node) {
		switch n.Kind {
		case transform.KindMath, transform.KindMathBlock:
			math = true
		case transform.KindCodeBlock:
			code = true
		case transform.KindRef, transform.KindCite, transform.KindNote:
			tips = true
		}
	})
	if code {
		names = append(names, assets.HighlightCSS)
	}
	if tips {
		names = append(names, assets.Tooltips)
	}
	if math {
		names = append(names, assets.MathJax)
	}
	return names
}

// InitScript is the module statement that boots the client runtime. It
// depends only on the base path.
func InitScript(base string) string {
	return fmt.Sprintf("import { onload } from '%sonload.js'; onload(document, { path: '%s' });", base, base)
}

// Document concatenates the structured output into one HTML document. The
// head and body regions hold exactly the structured fields.
func Document(out Output) string {
	var sb strings.Builder
	sb.Grow(len(out.Head) + len(out.Body) + len(out.InitScript) + 128)
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	sb.WriteString(out.Head)
	sb.WriteString("\n</head>\n<body>\n")
	sb.WriteString(out.Body)
	sb.WriteString("\n</body>\n<script type=\"module\">")
	sb.WriteString(out.InitScript)
	sb.WriteString("</script>\n</html>\n")
	return sb.String()
}
