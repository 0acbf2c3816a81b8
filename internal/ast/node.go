package ast

// Node is implemented by every syntax tree node. The set of kinds is closed:
// only types in this package satisfy it.
type Node interface {
	Range() Range
	Children() []Node
	node()
}

// Base holds what every node shares: its source span and ordered children.
type Base struct {
	Span  Range
	Nodes []Node
}

func (b *Base) Range() Range     { return b.Span }
func (b *Base) Children() []Node { return b.Nodes }
func (b *Base) Append(n ...Node) { b.Nodes = append(b.Nodes, n...) }
func (*Base) node()              {}

// BaseNode gives builders in other packages access to the shared fields of
// any node.
func (b *Base) BaseNode() *Base { return b }

// Manuscript is the root produced by `:rsm: ... ::`.
type Manuscript struct {
	Base
	Meta
}

// Section is opened by a heading line. Its first child is always the
// *Heading; the remaining children are its blocks and nested sections.
type Section struct {
	Base
	Meta
	Level int
}

// Heading holds the inline title of a section.
type Heading struct {
	Base
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Base
}

// Text is literal text with escapes already resolved.
type Text struct {
	Base
	Value string
}

// Span is inline emphasis, written `*...*` or `:span: {...} ... ::`.
type Span struct {
	Base
	Meta
	Strong   bool
	Emphasis bool
}

// Math is inline math, `$...$` or `:math:...::`.
type Math struct {
	Base
	Source string
}

// MathBlock is display math, `:mathblock: ... ::`.
type MathBlock struct {
	Base
	Meta
	Source string
}

// Code is inline code, written with backticks or `:code:...::`.
type Code struct {
	Base
	Source string
}

// CodeBlock is `:codeblock: {:lang: go} ... ::`.
type CodeBlock struct {
	Base
	Meta
	Lang   string
	Source string
}

// Reference is `:ref:target[,text]::`.
type Reference struct {
	Base
	Target string
	Text   string
}

// Cite is `:cite:key1,key2::`.
type Cite struct {
	Base
	Keys []string
}

// URL is `:url:href[,text]::`.
type URL struct {
	Base
	Href string
	Text string
}

// Note is an inline footnote.
type Note struct {
	Base
	Meta
}

// Keyword marks a defined term.
type Keyword struct {
	Base
	Meta
}

// Draft marks content that is hidden in final builds by the stylesheet.
type Draft struct {
	Base
	Meta
}

// Claim variants.
const (
	ClaimTheorem     = "theorem"
	ClaimLemma       = "lemma"
	ClaimProposition = "proposition"
	ClaimCorollary   = "corollary"
	ClaimDefinition  = "definition"
	ClaimRemark      = "remark"
)

// Claim is a numbered mathematical environment such as a theorem.
type Claim struct {
	Base
	Meta
	Variant string
}

// Proof groups steps and paragraphs.
type Proof struct {
	Base
	Meta
}

// Step is a proof step; steps nest.
type Step struct {
	Base
	Meta
}

// List is `:itemize:` (Ordered false) or `:enumerate:`.
type List struct {
	Base
	Meta
	Ordered bool
}

// Item is a list entry.
type Item struct {
	Base
	Meta
}

// Abstract is the manuscript abstract.
type Abstract struct {
	Base
	Meta
}

// Bibliography holds bibitems.
type Bibliography struct {
	Base
	Meta
}

// BibItem is one bibliography entry; its label is the cite key.
type BibItem struct {
	Base
	Meta
}
