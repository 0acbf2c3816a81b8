package render

import (
	"strings"

	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-rsm/internal/assets"
)

// Head serializes entries in the order given, one tag per line.
func Head(entries []assets.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, headTag(e))
	}
	return strings.Join(lines, "\n")
}

func headTag(e assets.Entry) string {
	switch e.Kind {
	case assets.KindStyle:
		return `<link rel="stylesheet" type="text/css" href="` + attr(e.Content) + `" />`
	case assets.KindInline:
		if e.Type == assets.TypeCSS {
			return "<style>\n" + e.Content + "\n</style>"
		}
		return "<script>\n" + e.Content + "\n</script>"
	}
	async := ""
	if e.Async {
		async = " async"
	}
	return `<script src="` + attr(e.Content) + `"` + async + `></script>`
}

func attr(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}
