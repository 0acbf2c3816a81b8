package render

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/util"
)

// DefaultHighlightStyle is the chroma style of the generated stylesheet.
const DefaultHighlightStyle = "github"

var formatter = chromahtml.New(chromahtml.WithClasses(true))

// highlight renders source as classed chroma markup. Unknown languages and
// tokenizer failures fall back to an escaped <pre>.
func highlight(source, lang string) string {
	lexer := lexers.Get(lang)
	if lang == "" || lexer == nil {
		return plainCode(source)
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return plainCode(source)
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, styles.Fallback, it); err != nil {
		return plainCode(source)
	}
	return sb.String()
}

func plainCode(source string) string {
	return `<pre class="chroma"><code>` + string(util.EscapeHTML([]byte(source))) + "</code></pre>"
}

// HighlightCSS generates the stylesheet served as highlight.css.
func HighlightCSS(style string) (string, error) {
	if style == "" {
		style = DefaultHighlightStyle
	}
	s := styles.Get(style)
	var sb strings.Builder
	if err := formatter.WriteCSS(&sb, s); err != nil {
		return "", fmt.Errorf("generating highlight css: %w", err)
	}
	return sb.String(), nil
}

// HighlightStyles lists the available chroma style names.
func HighlightStyles() []string {
	return styles.Names()
}
