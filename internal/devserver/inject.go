package devserver

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoBody is returned when a document has no body element to inject into.
var ErrNoBody = errors.New("document has no body")

// reloadScript polls the version endpoint and reloads once it moves past the
// version the page was served with.
const reloadScript = `(function () {
  var version = %d;
  function poll() {
    fetch('%s?since=' + version, { cache: 'no-store' })
      .then(function (r) { return r.json(); })
      .then(function (v) {
        if (v.version !== version) { location.reload(); return; }
        poll();
      })
      .catch(function () { setTimeout(poll, 1000); });
  }
  poll();
})();`

// InjectReload appends the live-reload script as the last child of body.
func InjectReload(document string, version int) (string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("parsing document: %w", err)
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		return "", ErrNoBody
	}

	script := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr:     []html.Attribute{{Key: "data-rsm-reload", Val: ""}},
	}
	script.AppendChild(&html.Node{
		Type: html.TextNode,
		Data: fmt.Sprintf(reloadScript, version, VersionPath),
	})
	body.AppendChild(script)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return "", fmt.Errorf("rendering document: %w", err)
	}
	return sb.String(), nil
}

// findElement returns the first element with the given atom, depth first.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
