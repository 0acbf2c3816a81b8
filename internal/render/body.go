package render

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark/util"

	"github.com/alnah/go-rsm/internal/transform"
)

// Body serializes the tree inside the manuscript wrapper.
func Body(root *transform.Node) string {
	w := &writer{}
	w.raw(`<div class="` + WrapperClass + `">` + "\n")
	if root != nil {
		w.node(root)
	}
	w.raw("</div>")
	return w.sb.String()
}

type writer struct {
	sb strings.Builder
}

func (w *writer) raw(s string) { w.sb.WriteString(s) }

func (w *writer) text(s string) { w.sb.Write(util.EscapeHTML([]byte(s))) }

// open writes a start tag with class, the optional id and extra attributes
// given as name/value pairs.
func (w *writer) open(tag, class, id string, attrs ...string) {
	w.raw("<" + tag)
	if class != "" {
		w.raw(` class="` + attr(class) + `"`)
	}
	if id != "" {
		w.raw(` id="` + attr(id) + `"`)
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		w.raw(" " + attrs[i] + `="` + attr(attrs[i+1]) + `"`)
	}
	w.raw(">")
}

func (w *writer) close(tag string) { w.raw("</" + tag + ">") }

// handrail writes the empty hook element for n, if it has one.
func (w *writer) handrail(n *transform.Node) {
	h := n.Handrail
	if h == nil {
		return
	}
	w.open("span", "handrail", "",
		"data-handrail", string(n.Kind),
		"data-title", h.Title,
		"data-collapsible", strconv.FormatBool(h.Collapsible))
	w.close("span")
}

func (w *writer) children(n *transform.Node) {
	for _, c := range n.Children {
		w.node(c)
	}
}

func (w *writer) node(n *transform.Node) {
	switch n.Kind {
	case transform.KindManuscript:
		w.manuscript(n)
	case transform.KindSection:
		w.section(n)
	case transform.KindHeading:
		// Written by section.
	case transform.KindParagraph:
		w.open("p", "paragraph", n.ID)
		w.handrail(n)
		w.children(n)
		w.close("p")
		w.raw("\n")
	case transform.KindText:
		w.text(n.Text)
	case transform.KindSpan:
		w.span(n)
	case transform.KindMath:
		w.open("span", "math", n.ID)
		w.text(`\(` + n.Source + `\)`)
		w.close("span")
	case transform.KindMathBlock:
		w.open("div", "mathblock", n.ID)
		w.handrail(n)
		w.open("div", "eqn", "")
		w.text(`\[` + n.Source + `\]`)
		w.close("div")
		if n.Number != "" {
			w.open("span", "eqn-number", "")
			w.text("(" + n.Number + ")")
			w.close("span")
		}
		w.close("div")
		w.raw("\n")
	case transform.KindCode:
		w.open("code", "code", n.ID)
		w.text(n.Source)
		w.close("code")
	case transform.KindCodeBlock:
		w.open("div", "codeblock", n.ID, "data-lang", n.Lang)
		w.handrail(n)
		w.raw(highlight(n.Source, n.Lang))
		w.close("div")
		w.raw("\n")
	case transform.KindRef:
		w.ref(n)
	case transform.KindCite:
		w.cite(n)
	case transform.KindURL:
		w.open("a", "url", n.ID, "href", string(util.URLEscape([]byte(n.Href), true)))
		w.text(n.Text)
		w.close("a")
	case transform.KindNote:
		w.note(n)
	case transform.KindKeyword, transform.KindDraft:
		w.open("span", string(n.Kind), n.ID)
		w.children(n)
		w.close("span")
	case transform.KindClaim:
		w.block(n, "claim "+n.Variant, claimHead(n))
	case transform.KindProof:
		w.block(n, "proof", "Proof.")
	case transform.KindStep:
		w.open("div", "step", n.ID)
		w.handrail(n)
		w.open("span", "step-head", "")
		w.text(n.Number)
		w.close("span")
		w.children(n)
		w.close("div")
		w.raw("\n")
	case transform.KindList:
		w.list(n)
	case transform.KindItem:
		w.open("li", "item", n.ID)
		w.children(n)
		w.close("li")
		w.raw("\n")
	case transform.KindAbstract:
		w.block(n, "abstract", "Abstract.")
	case transform.KindBibliography:
		w.open("section", "bibliography", n.ID)
		w.raw("<h2>References</h2>\n<ol>\n")
		w.items(n, transform.KindBibItem)
		w.raw("</ol>")
		w.close("section")
		w.raw("\n")
	case transform.KindBibItem:
		w.open("li", "bibitem", n.ID)
		w.open("span", "bibitem-number", "")
		w.text("[" + n.Number + "]")
		w.close("span")
		w.children(n)
		w.close("li")
		w.raw("\n")
	}
}

func (w *writer) manuscript(n *transform.Node) {
	w.open("div", "manuscript", n.ID)
	w.handrail(n)
	w.raw("\n")
	if n.Caption != "" && !startsWithTitle(n) {
		w.raw("<h1>")
		w.text(n.Caption)
		w.raw("</h1>\n")
	}
	for _, key := range []string{"authors", "date"} {
		if v := n.Attrs[key]; v != "" {
			w.open("p", key, "")
			w.text(v)
			w.close("p")
			w.raw("\n")
		}
	}
	w.children(n)
	w.close("div")
	w.raw("\n")
}

func startsWithTitle(n *transform.Node) bool {
	return len(n.Children) > 0 && n.Children[0].Kind == transform.KindSection && n.Children[0].Level == 1
}

func (w *writer) section(n *transform.Node) {
	w.open("section", "section level-"+strconv.Itoa(n.Level), n.ID)
	w.handrail(n)
	w.raw("\n")
	tag := "h" + strconv.Itoa(min(n.Level, 6))
	w.open(tag, "heading", "")
	if n.Number != "" {
		w.open("span", "number", "")
		w.text(n.Number)
		w.close("span")
	}
	if len(n.Children) > 0 && n.Children[0].Kind == transform.KindHeading {
		w.children(n.Children[0])
	}
	w.close(tag)
	w.raw("\n")
	w.children(n)
	w.close("section")
	w.raw("\n")
}

func (w *writer) span(n *transform.Node) {
	tag, class := "span", "span"
	switch {
	case n.Strong && n.Emphasis:
		w.open("strong", "", n.ID)
		w.open("em", "", "")
		w.children(n)
		w.close("em")
		w.close("strong")
		return
	case n.Strong:
		tag, class = "strong", ""
	case n.Emphasis:
		tag, class = "em", ""
	}
	w.open(tag, class, n.ID)
	w.children(n)
	w.close(tag)
}

func (w *writer) ref(n *transform.Node) {
	if n.Broken || len(n.Targets) == 0 {
		w.open("span", "reference broken", "", "data-label", labelOf(n))
		w.text(transform.BrokenRef)
		w.close("span")
		return
	}
	t := n.Targets[0]
	w.open("a", "reference", "", "href", "#"+t.ID, "data-tooltip", t.Title)
	w.text(n.Text)
	w.close("a")
}

func labelOf(n *transform.Node) string {
	if len(n.Targets) > 0 {
		return n.Targets[0].Label
	}
	return ""
}

func (w *writer) cite(n *transform.Node) {
	class := "cite"
	if n.Broken {
		class += " broken"
	}
	w.open("span", class, "")
	w.raw("[")
	for i, t := range n.Targets {
		if i > 0 {
			w.raw(", ")
		}
		if t.Broken {
			w.open("span", "broken", "", "data-label", t.Label)
			w.text(transform.BrokenRef)
			w.close("span")
			continue
		}
		w.open("a", "", "", "href", "#"+t.ID, "data-tooltip", t.Title)
		w.text(t.Number)
		w.close("a")
	}
	w.raw("]")
	w.close("span")
}

func (w *writer) note(n *transform.Node) {
	w.open("span", "note", n.ID)
	w.open("sup", "note-mark", "", "data-tooltip", plain(n))
	w.text(n.Number)
	w.close("sup")
	w.open("span", "note-body", "")
	w.children(n)
	w.close("span")
	w.close("span")
}

// block writes a titled container such as a claim or proof.
func (w *writer) block(n *transform.Node, class, head string) {
	w.open("div", class, n.ID)
	w.handrail(n)
	first := strings.Fields(class)[0]
	w.open("div", first+"-head", "")
	w.text(head)
	w.close("div")
	w.raw("\n")
	w.children(n)
	w.close("div")
	w.raw("\n")
}

func claimHead(n *transform.Node) string {
	head := "Claim"
	if n.Variant != "" {
		head = strings.ToUpper(n.Variant[:1]) + n.Variant[1:]
	}
	if n.Number != "" {
		head += " " + n.Number
	}
	if n.Caption != "" {
		head += " (" + n.Caption + ")"
	}
	return head + "."
}

func (w *writer) list(n *transform.Node) {
	tag, class := "ul", "itemize"
	if n.Ordered {
		tag, class = "ol", "enumerate"
	}
	w.open(tag, class, n.ID)
	w.raw("\n")
	w.items(n, transform.KindItem)
	w.close(tag)
	w.raw("\n")
}

// items writes the children of a list container. Children of any other kind
// than item are wrapped so the container only holds <li> elements.
func (w *writer) items(n *transform.Node, item transform.Kind) {
	for _, c := range n.Children {
		if c.Kind != item {
			w.raw("<li>")
			w.node(c)
			w.raw("</li>\n")
			continue
		}
		w.node(c)
	}
}

// plain flattens the text of n for tooltips.
func plain(n *transform.Node) string {
	var sb strings.Builder
	transform.Walk(n, func(c *transform.Node) {
		sb.WriteString(c.Text)
		sb.WriteString(c.Source)
	})
	return sb.String()
}
