package transform

import (
	"strconv"
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
)

// table is the first pass: numbers for every numbered node and the label
// lookup used to resolve references. It lives for one build.
type table struct {
	numbers map[ast.Node]string
	ids     map[ast.Node]string
	labels  map[string]Target

	sections [7]int
	claims   int
	eqs      int
	notes    int
	bib      int
}

// steps numbers proof steps hierarchically within one proof.
type steps struct {
	counts []int
	depth  int
}

func buildTable(root *ast.Manuscript) *table {
	t := &table{
		numbers: map[ast.Node]string{},
		ids:     map[ast.Node]string{},
		labels:  map[string]Target{},
	}
	t.walk(root, &steps{})
	return t
}

func (t *table) walk(n ast.Node, st *steps) {
	meta, _ := n.(ast.Annotated)
	nonum := meta != nil && meta.Attributes().Has("nonum")

	switch n := n.(type) {
	case *ast.Section:
		if n.Level >= 2 && !nonum {
			t.sections[n.Level]++
			for l := n.Level + 1; l < len(t.sections); l++ {
				t.sections[l] = 0
			}
			parts := make([]string, 0, n.Level-1)
			for l := 2; l <= n.Level; l++ {
				parts = append(parts, strconv.Itoa(t.sections[l]))
			}
			t.numbers[n] = strings.Join(parts, ".")
		}
	case *ast.Claim:
		if !nonum {
			t.claims++
			t.numbers[n] = strconv.Itoa(t.claims)
		}
	case *ast.MathBlock:
		if n.Label() != "" && !nonum {
			t.eqs++
			t.numbers[n] = strconv.Itoa(t.eqs)
		}
	case *ast.Proof:
		st = &steps{}
	case *ast.Step:
		if len(st.counts) <= st.depth {
			st.counts = append(st.counts, 0)
		}
		st.counts[st.depth]++
		st.counts = st.counts[:st.depth+1]
		parts := make([]string, len(st.counts))
		for i, c := range st.counts {
			parts[i] = strconv.Itoa(c)
		}
		t.numbers[n] = strings.Join(parts, ".")
	case *ast.List:
		if n.Ordered {
			i := 0
			for _, c := range n.Children() {
				if item, ok := c.(*ast.Item); ok {
					i++
					t.numbers[item] = strconv.Itoa(i)
				}
			}
		}
	case *ast.BibItem:
		t.bib++
		t.numbers[n] = strconv.Itoa(t.bib)
		t.ids[n] = "bib-" + t.numbers[n]
	case *ast.Note:
		t.notes++
		t.numbers[n] = strconv.Itoa(t.notes)
		t.ids[n] = "note-" + t.numbers[n]
	}

	if label := ast.LabelOf(n); label != "" {
		t.ids[n] = label
		if _, dup := t.labels[label]; !dup {
			t.labels[label] = Target{
				ID:     label,
				Label:  label,
				Kind:   kindOf(n),
				Number: t.numbers[n],
				Title:  t.title(n),
			}
		}
	}

	if _, ok := n.(*ast.Step); ok {
		st.depth++
		defer func() { st.depth-- }()
	}
	for _, c := range n.Children() {
		t.walk(c, st)
	}
}

// title is the human name of n, used for link text and handrails.
func (t *table) title(n ast.Node) string {
	num := t.numbers[n]
	switch n := n.(type) {
	case *ast.Section:
		if num != "" {
			return "Section " + num
		}
		if h := n.Children(); len(h) > 0 {
			if s := plainText(h[0]); s != "" {
				return s
			}
		}
		return "Section"
	case *ast.Claim:
		return joinTitle(capitalize(n.Variant), num)
	case *ast.MathBlock:
		if num != "" {
			return "(" + num + ")"
		}
		return "Equation"
	case *ast.BibItem:
		return "[" + num + "]"
	case *ast.Step, *ast.Item, *ast.Note:
		return joinTitle(capitalize(ast.KindName(n)), num)
	case *ast.CodeBlock:
		return "Code"
	}
	return capitalize(ast.KindName(n))
}

func joinTitle(name, num string) string {
	if num == "" {
		return name
	}
	return name + " " + num
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// plainText flattens the inline content of n.
func plainText(n ast.Node) string {
	var sb strings.Builder
	ast.Inspect(n, func(c ast.Node) bool {
		switch c := c.(type) {
		case *ast.Text:
			sb.WriteString(c.Value)
		case *ast.Math:
			sb.WriteString(c.Source)
		case *ast.Code:
			sb.WriteString(c.Source)
		}
		return true
	})
	return sb.String()
}

func kindOf(n ast.Node) Kind {
	switch n.(type) {
	case *ast.Manuscript:
		return KindManuscript
	case *ast.Section:
		return KindSection
	case *ast.Heading:
		return KindHeading
	case *ast.Paragraph:
		return KindParagraph
	case *ast.Text:
		return KindText
	case *ast.Span:
		return KindSpan
	case *ast.Math:
		return KindMath
	case *ast.MathBlock:
		return KindMathBlock
	case *ast.Code:
		return KindCode
	case *ast.CodeBlock:
		return KindCodeBlock
	case *ast.Reference:
		return KindRef
	case *ast.Cite:
		return KindCite
	case *ast.URL:
		return KindURL
	case *ast.Note:
		return KindNote
	case *ast.Keyword:
		return KindKeyword
	case *ast.Draft:
		return KindDraft
	case *ast.Claim:
		return KindClaim
	case *ast.Proof:
		return KindProof
	case *ast.Step:
		return KindStep
	case *ast.List:
		return KindList
	case *ast.Item:
		return KindItem
	case *ast.Abstract:
		return KindAbstract
	case *ast.Bibliography:
		return KindBibliography
	case *ast.BibItem:
		return KindBibItem
	}
	return Kind(ast.KindName(n))
}
