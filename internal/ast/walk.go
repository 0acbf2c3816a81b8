package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Inspect traverses the tree rooted at n in depth-first order. If f returns
// false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, f)
	}
}

// InspectWithParents is Inspect with the chain of ancestors, outermost
// first. The slice is reused between calls and must not be retained.
func InspectWithParents(n Node, f func(n Node, parents []Node) bool) {
	var parents []Node
	var walk func(Node)
	walk = func(n Node) {
		if !f(n, parents) {
			return
		}
		parents = append(parents, n)
		for _, c := range n.Children() {
			walk(c)
		}
		parents = parents[:len(parents)-1]
	}
	if n != nil {
		walk(n)
	}
}

// KindName returns the short name of the node kind, used in messages.
func KindName(n Node) string {
	switch n := n.(type) {
	case *Manuscript:
		return "manuscript"
	case *Section:
		return "section"
	case *Heading:
		return "heading"
	case *Paragraph:
		return "paragraph"
	case *Text:
		return "text"
	case *Span:
		return "span"
	case *Math:
		return "math"
	case *MathBlock:
		return "mathblock"
	case *Code:
		return "code"
	case *CodeBlock:
		return "codeblock"
	case *Reference:
		return "ref"
	case *Cite:
		return "cite"
	case *URL:
		return "url"
	case *Note:
		return "note"
	case *Keyword:
		return "keyword"
	case *Draft:
		return "draft"
	case *Claim:
		return n.Variant
	case *Proof:
		return "proof"
	case *Step:
		return "step"
	case *List:
		if n.Ordered {
			return "enumerate"
		}
		return "itemize"
	case *Item:
		return "item"
	case *Abstract:
		return "abstract"
	case *Bibliography:
		return "bibliography"
	case *BibItem:
		return "bibitem"
	}
	return fmt.Sprintf("%T", n)
}

// DumpOptions controls Dump output.
type DumpOptions struct {
	Spans bool // include source offsets
}

// Dump renders the tree as an indented s-expression. Two trees with equal
// dumps are structurally equivalent.
func Dump(n Node, opts DumpOptions) string {
	var sb strings.Builder
	dump(&sb, n, 0, opts)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int, opts DumpOptions) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("(")
	sb.WriteString(KindName(n))
	if opts.Spans {
		r := n.Range()
		fmt.Fprintf(sb, " @%d..%d", r.Start.Offset, r.End.Offset)
	}

	switch n := n.(type) {
	case *Section:
		fmt.Fprintf(sb, " level=%d", n.Level)
	case *Text:
		sb.WriteString(" " + strconv.Quote(n.Value))
	case *Span:
		fmt.Fprintf(sb, " strong=%t emphasis=%t", n.Strong, n.Emphasis)
	case *Math:
		sb.WriteString(" " + strconv.Quote(n.Source))
	case *MathBlock:
		sb.WriteString(" " + strconv.Quote(n.Source))
	case *Code:
		sb.WriteString(" " + strconv.Quote(n.Source))
	case *CodeBlock:
		sb.WriteString(" lang=" + strconv.Quote(n.Lang) + " " + strconv.Quote(n.Source))
	case *Reference:
		sb.WriteString(" " + strconv.Quote(n.Target) + " " + strconv.Quote(n.Text))
	case *Cite:
		sb.WriteString(" " + strconv.Quote(strings.Join(n.Keys, ",")))
	case *URL:
		sb.WriteString(" " + strconv.Quote(n.Href) + " " + strconv.Quote(n.Text))
	}

	if a, ok := n.(Annotated); ok {
		for _, e := range a.Attributes().Entries {
			fmt.Fprintf(sb, " :%s:=%s", e.Key, strconv.Quote(e.Value))
		}
	}

	children := n.Children()
	if len(children) == 0 {
		sb.WriteString(")\n")
		return
	}
	sb.WriteString("\n")
	for _, c := range children {
		dump(sb, c, depth+1, opts)
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(")\n")
}
