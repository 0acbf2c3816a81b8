// Package transform turns a parsed manuscript into the render tree: the same
// shape as the syntax tree, with numbers assigned, cross-references resolved
// and optional handrail markers attached.
package transform

// Kind identifies a render node.
type Kind string

const (
	KindManuscript   Kind = "manuscript"
	KindSection      Kind = "section"
	KindHeading      Kind = "heading"
	KindParagraph    Kind = "paragraph"
	KindText         Kind = "text"
	KindSpan         Kind = "span"
	KindMath         Kind = "math"
	KindMathBlock    Kind = "mathblock"
	KindCode         Kind = "code"
	KindCodeBlock    Kind = "codeblock"
	KindRef          Kind = "ref"
	KindCite         Kind = "cite"
	KindURL          Kind = "url"
	KindNote         Kind = "note"
	KindKeyword      Kind = "keyword"
	KindDraft        Kind = "draft"
	KindClaim        Kind = "claim"
	KindProof        Kind = "proof"
	KindStep         Kind = "step"
	KindList         Kind = "list"
	KindItem         Kind = "item"
	KindAbstract     Kind = "abstract"
	KindBibliography Kind = "bibliography"
	KindBibItem      Kind = "bibitem"
)

// Node is a render tree node. One struct serves every kind; fields that do
// not apply to a kind stay zero.
type Node struct {
	Kind Kind

	// ID is the anchor id, set for labelled nodes and for notes and
	// bibliography entries.
	ID     string
	Label  string
	Number string // display number without decoration, e.g. "1.2"

	// Caption is a user title from `:title:` meta.
	Caption string
	// Variant is the claim variant, e.g. "theorem".
	Variant string

	Text   string // text value, or resolved link text for ref and url
	Source string // math and code source
	Lang   string
	Href   string

	Level    int
	Ordered  bool
	Strong   bool
	Emphasis bool

	// Targets holds the resolved targets of a ref (one) or cite (one per key).
	Targets []Target
	// Broken marks a reference whose target does not exist.
	Broken bool

	// Attrs carries manuscript meta such as authors and date.
	Attrs map[string]string

	// Handrail is nil unless handrails are enabled and the kind is eligible.
	Handrail *Handrail

	Children []*Node
}

// Target is what a label resolves to.
type Target struct {
	ID     string
	Label  string
	Kind   Kind
	Number string
	// Title is the human form used as link text and tooltip,
	// e.g. "Theorem 3" or "Section 1.2".
	Title string
	// Broken is set on placeholders for unknown labels.
	Broken bool
}

// Handrail is the presentation hook attached to an eligible block. It carries
// no manuscript text.
type Handrail struct {
	// Title names the block in the handrail menu, e.g. "Lemma 2".
	Title string
	// Collapsible blocks can be folded by the reader.
	Collapsible bool
}

// Walk visits n and its descendants depth-first.
func Walk(n *Node, f func(*Node)) {
	if n == nil {
		return
	}
	f(n)
	for _, c := range n.Children {
		Walk(c, f)
	}
}

// BrokenRef is the text shown for a reference that could not be resolved.
const BrokenRef = "??"
