package transform

import (
	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

// Options configures a transform.
type Options struct {
	Handrails bool
}

// Transform builds the render tree of root. Unresolved references and
// citations are reported as errors and rendered as broken placeholders.
func Transform(root *ast.Manuscript, opts Options) (*Node, []diag.Diagnostic) {
	if root == nil {
		return nil, nil
	}
	t := &transformer{opts: opts, table: buildTable(root)}
	out := t.node(root)
	diag.SortByPosition(t.diags)
	return out, t.diags
}

type transformer struct {
	opts  Options
	table *table
	diags []diag.Diagnostic
}

func (t *transformer) errorf(span ast.Range, format string, args ...any) {
	t.diags = append(t.diags, diag.Errorf(diag.StageTransform, span, format, args...))
}

func (t *transformer) node(n ast.Node) *Node {
	r := &Node{
		Kind:   kindOf(n),
		ID:     t.table.ids[n],
		Label:  ast.LabelOf(n),
		Number: t.table.numbers[n],
	}
	if a, ok := n.(ast.Annotated); ok {
		r.Caption, _ = a.Attributes().Get("title")
	}

	switch n := n.(type) {
	case *ast.Manuscript:
		for _, e := range n.Entries {
			if e.Key == "label" {
				continue
			}
			if r.Attrs == nil {
				r.Attrs = map[string]string{}
			}
			r.Attrs[e.Key] = e.Value
		}
	case *ast.Section:
		r.Level = n.Level
	case *ast.Text:
		r.Text = n.Value
	case *ast.Span:
		r.Strong, r.Emphasis = n.Strong, n.Emphasis
	case *ast.Math:
		r.Source = n.Source
	case *ast.MathBlock:
		r.Source = n.Source
	case *ast.Code:
		r.Source = n.Source
	case *ast.CodeBlock:
		r.Source, r.Lang = n.Source, n.Lang
	case *ast.Reference:
		t.resolveRef(r, n)
	case *ast.Cite:
		t.resolveCite(r, n)
	case *ast.URL:
		r.Href, r.Text = n.Href, n.Text
		if r.Text == "" {
			r.Text = n.Href
		}
	case *ast.Claim:
		r.Variant = n.Variant
	case *ast.List:
		r.Ordered = n.Ordered
	}

	if t.opts.Handrails && eligible(r.Kind) {
		r.Handrail = &Handrail{
			Title:       t.table.title(n),
			Collapsible: collapsible(r.Kind),
		}
	}

	if children := n.Children(); len(children) > 0 {
		r.Children = make([]*Node, len(children))
		for i, c := range children {
			r.Children[i] = t.node(c)
		}
	}
	return r
}

func (t *transformer) resolveRef(r *Node, ref *ast.Reference) {
	target, ok := t.table.labels[ref.Target]
	if !ok {
		t.errorf(ref.Range(), "unresolved reference to %q", ref.Target)
		r.Broken = true
		r.Text = BrokenRef
		r.Targets = []Target{{Label: ref.Target, Title: BrokenRef, Broken: true}}
		return
	}
	r.Targets = []Target{target}
	r.Text = ref.Text
	if r.Text == "" {
		r.Text = target.Title
	}
}

func (t *transformer) resolveCite(r *Node, c *ast.Cite) {
	if len(c.Keys) == 0 {
		t.errorf(c.Range(), "citation without keys")
		r.Broken = true
	}
	for _, key := range c.Keys {
		target, ok := t.table.labels[key]
		if !ok || target.Kind != KindBibItem {
			t.errorf(c.Range(), "unresolved citation key %q", key)
			r.Broken = true
			r.Targets = append(r.Targets, Target{Label: key, Title: BrokenRef, Broken: true})
			continue
		}
		r.Targets = append(r.Targets, target)
	}
}

func eligible(k Kind) bool {
	switch k {
	case KindManuscript, KindSection, KindParagraph, KindClaim, KindProof,
		KindStep, KindMathBlock, KindCodeBlock, KindAbstract:
		return true
	}
	return false
}

func collapsible(k Kind) bool {
	switch k {
	case KindSection, KindClaim, KindProof, KindStep:
		return true
	}
	return false
}
