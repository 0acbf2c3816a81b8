package ast_test

import (
	"strings"
	"testing"

	"github.com/alnah/go-rsm/internal/ast"
)

// ---------------------------------------------------------------------------
// TestSource - Line endings and positions
// ---------------------------------------------------------------------------

func TestSource_Position(t *testing.T) {
	t.Parallel()

	src := ast.NewSource("pos.rsm", "ab\r\ncd\ref")
	if src.Text != "ab\ncd\nef" {
		t.Fatalf("Text = %q, want normalized newlines", src.Text)
	}

	tests := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{offset: 0, wantLine: 1, wantCol: 1},
		{offset: 2, wantLine: 1, wantCol: 3},
		{offset: 3, wantLine: 2, wantCol: 1},
		{offset: 7, wantLine: 3, wantCol: 2},
		{offset: -4, wantLine: 1, wantCol: 1},
		{offset: 100, wantLine: 3, wantCol: 3},
	}
	for _, tt := range tests {
		p := src.Position(tt.offset)
		if p.Line != tt.wantLine || p.Column != tt.wantCol {
			t.Errorf("Position(%d) = %d:%d, want %d:%d", tt.offset, p.Line, p.Column, tt.wantLine, tt.wantCol)
		}
	}

	if got := src.Line(2); got != "cd" {
		t.Errorf("Line(2) = %q, want %q", got, "cd")
	}
	if got := src.Line(9); got != "" {
		t.Errorf("Line(9) = %q, want empty", got)
	}
}

func TestRange(t *testing.T) {
	t.Parallel()

	src := ast.NewSource("r.rsm", "0123456789")
	outer := src.Range(2, 8)
	inner := src.Range(3, 5)

	if !outer.Contains(inner) {
		t.Error("outer should contain inner")
	}
	if inner.Contains(outer) {
		t.Error("inner should not contain outer")
	}
	if outer.Len() != 6 {
		t.Errorf("Len() = %d, want 6", outer.Len())
	}
	if r := src.Range(5, 2); r.Len() != 0 {
		t.Errorf("reversed Range Len() = %d, want 0", r.Len())
	}
}

// ---------------------------------------------------------------------------
// TestMeta - Lookup semantics
// ---------------------------------------------------------------------------

func TestMeta(t *testing.T) {
	t.Parallel()

	c := &ast.Claim{Variant: ast.ClaimLemma}
	c.Entries = []ast.MetaEntry{
		{Key: "label", Value: "first"},
		{Key: "nonum"},
		{Key: "label", Value: "second"},
	}

	if got := ast.LabelOf(c); got != "second" {
		t.Errorf("LabelOf = %q, want last value %q", got, "second")
	}
	if !c.Has("nonum") {
		t.Error("Has(nonum) = false, want true")
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
	if got := ast.LabelOf(&ast.Text{Value: "x"}); got != "" {
		t.Errorf("LabelOf(text) = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// TestWalk - Traversal order and parents
// ---------------------------------------------------------------------------

func sampleTree() *ast.Manuscript {
	para := &ast.Paragraph{}
	para.Append(&ast.Text{Value: "a"}, &ast.Math{Source: "x"})
	proof := &ast.Proof{}
	proof.Append(&ast.Step{})
	root := &ast.Manuscript{}
	root.Append(para, proof)
	return root
}

func TestInspect(t *testing.T) {
	t.Parallel()

	var kinds []string
	ast.Inspect(sampleTree(), func(n ast.Node) bool {
		kinds = append(kinds, ast.KindName(n))
		_, isProof := n.(*ast.Proof)
		return !isProof
	})

	want := "manuscript paragraph text math proof"
	if got := strings.Join(kinds, " "); got != want {
		t.Errorf("visit order = %q, want %q", got, want)
	}
}

func TestInspectWithParents(t *testing.T) {
	t.Parallel()

	var depthOfStep int
	ast.InspectWithParents(sampleTree(), func(n ast.Node, parents []ast.Node) bool {
		if _, ok := n.(*ast.Step); ok {
			depthOfStep = len(parents)
			if _, ok := parents[len(parents)-1].(*ast.Proof); !ok {
				t.Errorf("step parent = %T, want *ast.Proof", parents[len(parents)-1])
			}
		}
		return true
	})
	if depthOfStep != 2 {
		t.Errorf("step depth = %d, want 2", depthOfStep)
	}
}

func TestDump(t *testing.T) {
	t.Parallel()

	got := ast.Dump(sampleTree(), ast.DumpOptions{})
	want := `(manuscript
  (paragraph
    (text "a")
    (math "x")
  )
  (proof
    (step)
  )
)
`
	if got != want {
		t.Errorf("Dump =\n%s\nwant:\n%s", got, want)
	}

	withSpans := ast.Dump(&ast.Text{Value: "t"}, ast.DumpOptions{Spans: true})
	if !strings.Contains(withSpans, "@0..0") {
		t.Errorf("Dump with spans = %q, want offsets", withSpans)
	}
}

func TestKindName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		node ast.Node
		want string
	}{
		{&ast.List{}, "itemize"},
		{&ast.List{Ordered: true}, "enumerate"},
		{&ast.Claim{Variant: ast.ClaimCorollary}, "corollary"},
		{&ast.Reference{}, "ref"},
		{&ast.BibItem{}, "bibitem"},
	}
	for _, tt := range tests {
		if got := ast.KindName(tt.node); got != tt.want {
			t.Errorf("KindName(%T) = %q, want %q", tt.node, got, tt.want)
		}
	}
}
