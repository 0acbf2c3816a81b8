package lint

import (
	"net/url"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

var registry = []Rule{
	{Name: "section-title", Severity: diag.Warning, Summary: "every section has a non-empty title", check: checkSectionTitle},
	{Name: "ref-target", Severity: diag.Warning, Summary: "every reference points to a defined label", check: checkRefTarget},
	{Name: "cite-target", Severity: diag.Warning, Summary: "every citation key has a bibliography entry", check: checkCiteTarget},
	{Name: "duplicate-label", Severity: diag.Error, Summary: "labels are unique", check: checkDuplicateLabel},
	{Name: "list-items", Severity: diag.Warning, Summary: "lists contain only items", check: checkListItems},
	{Name: "step-in-proof", Severity: diag.Warning, Summary: "steps appear only inside proofs", check: checkStepInProof},
	{Name: "meta-keys", Severity: diag.Warning, Summary: "meta keys are known for their directive", check: checkMetaKeys},
	{Name: "title-heading", Severity: diag.Warning, Summary: "a single title heading opens the manuscript", check: checkTitleHeading},
	{Name: "heading-skip", Severity: diag.Warning, Summary: "heading levels do not skip", check: checkHeadingSkip},
	{Name: "empty-directive", Severity: diag.Warning, Summary: "claims, proofs, notes and items have content", check: checkEmptyDirective},
	{Name: "codeblock-lang", Severity: diag.Warning, Summary: "code block languages are known to the highlighter", check: checkCodeblockLang},
	{Name: "url-scheme", Severity: diag.Warning, Summary: "urls are well formed and use a supported scheme", check: checkURLScheme},
}

func checkSectionTitle(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		sec, ok := n.(*ast.Section)
		if !ok {
			return true
		}
		if h := sec.Children(); len(h) == 0 || len(h[0].Children()) == 0 {
			r.report(sec.Range(), "section has an empty title")
		}
		return true
	})
}

func checkRefTarget(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		if ref, ok := n.(*ast.Reference); ok {
			if ref.Target == "" {
				r.report(ref.Range(), "reference has no target")
			} else if _, ok := r.labels.defs[ref.Target]; !ok {
				r.report(ref.Range(), "reference to undefined label %q", ref.Target)
			}
		}
		return true
	})
}

func checkCiteTarget(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		c, ok := n.(*ast.Cite)
		if !ok {
			return true
		}
		if len(c.Keys) == 0 {
			r.report(c.Range(), "citation has no keys")
		}
		for _, k := range c.Keys {
			if !r.labels.bib[k] {
				r.report(c.Range(), "citation key %q has no bibliography entry", k)
			}
		}
		return true
	})
}

func checkDuplicateLabel(r *run) {
	first := map[string]ast.Node{}
	ast.Inspect(r.root, func(n ast.Node) bool {
		label := ast.LabelOf(n)
		if label == "" {
			return true
		}
		if prev, ok := first[label]; ok {
			r.report(labelSpan(n), "duplicate label %q, first defined at %s", label, prev.Range().Start)
			return true
		}
		first[label] = n
		return true
	})
}

// labelSpan narrows a diagnostic to the label entry when there is one.
func labelSpan(n ast.Node) ast.Range {
	if a, ok := n.(ast.Annotated); ok {
		for _, e := range a.Attributes().Entries {
			if e.Key == "label" {
				return e.Span
			}
		}
	}
	return n.Range()
}

func checkListItems(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		if l, ok := n.(*ast.List); ok {
			for _, c := range l.Children() {
				if _, ok := c.(*ast.Item); !ok {
					r.report(c.Range(), "%s may only contain items, found %s", ast.KindName(l), ast.KindName(c))
				}
			}
		}
		return true
	})
}

func checkStepInProof(r *run) {
	ast.InspectWithParents(r.root, func(n ast.Node, parents []ast.Node) bool {
		if _, ok := n.(*ast.Step); !ok {
			return true
		}
		switch parents[len(parents)-1].(type) {
		case *ast.Proof, *ast.Step:
		default:
			r.report(n.Range(), "step outside of a proof")
		}
		return true
	})
}

var metaKeys = map[string][]string{
	"manuscript":   {"title", "subtitle", "date", "authors", "lang", "version"},
	"section":      {"nonum"},
	"span":         {"strong", "emphas", "emphasis", "title"},
	"codeblock":    {"lang", "title", "nonum"},
	"mathblock":    {"nonum"},
	"claim":        {"title", "nonum", "goals"},
	"proof":        {"title"},
	"step":         {"title", "nonum"},
	"bibitem":      {"author", "title", "year", "journal", "doi", "url", "publisher", "volume", "number", "pages"},
	"bibliography": {"title"},
}

func knownKey(n ast.Node, key string) bool {
	if key == "label" || key == "types" {
		return true
	}
	kind := ast.KindName(n)
	if _, ok := n.(*ast.Claim); ok {
		kind = "claim"
	}
	for _, k := range metaKeys[kind] {
		if k == key {
			return true
		}
	}
	return false
}

func checkMetaKeys(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		a, ok := n.(ast.Annotated)
		if !ok {
			return true
		}
		for _, e := range a.Attributes().Entries {
			if !knownKey(n, e.Key) {
				r.report(e.Span, "unknown meta key %q for %s", e.Key, ast.KindName(n))
			}
		}
		return true
	})
}

func checkTitleHeading(r *run) {
	seen := false
	for i, c := range r.root.Children() {
		sec, ok := c.(*ast.Section)
		if !ok || sec.Level != 1 {
			continue
		}
		switch {
		case seen:
			r.report(sec.Children()[0].Range(), "more than one title heading")
		case i > 0:
			r.report(sec.Children()[0].Range(), "title heading should be the first block")
		}
		seen = true
	}
	ast.Inspect(r.root, func(n ast.Node) bool {
		sec, ok := n.(*ast.Section)
		if !ok {
			return true
		}
		for _, c := range sec.Children() {
			if sub, ok := c.(*ast.Section); ok && sub.Level == 1 {
				r.report(sub.Range(), "title heading nested in a section")
			}
		}
		return true
	})
}

func checkHeadingSkip(r *run) {
	ast.InspectWithParents(r.root, func(n ast.Node, parents []ast.Node) bool {
		sec, ok := n.(*ast.Section)
		if !ok {
			return true
		}
		parent := 0
		if p, ok := parents[len(parents)-1].(*ast.Section); ok {
			parent = p.Level
		}
		// Manuscripts without a title heading start at level 2.
		if sec.Level > parent+1 && !(parent == 0 && sec.Level == 2) {
			r.report(sec.Children()[0].Range(), "heading level jumps from %d to %d", parent, sec.Level)
		}
		return true
	})
}

func checkEmptyDirective(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Claim, *ast.Proof, *ast.Note, *ast.Item, *ast.Abstract:
			if len(n.Children()) == 0 {
				r.report(n.Range(), "empty :%s: directive", ast.KindName(n))
			}
		case *ast.MathBlock:
			if strings.TrimSpace(n.(*ast.MathBlock).Source) == "" {
				r.report(n.Range(), "empty :mathblock: directive")
			}
		}
		return true
	})
}

func checkCodeblockLang(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		cb, ok := n.(*ast.CodeBlock)
		if ok && cb.Lang != "" && lexers.Get(cb.Lang) == nil {
			r.report(cb.Range(), "unknown code language %q", cb.Lang)
		}
		return true
	})
}

func checkURLScheme(r *run) {
	ast.Inspect(r.root, func(n ast.Node) bool {
		u, ok := n.(*ast.URL)
		if !ok {
			return true
		}
		parsed, err := url.Parse(u.Href)
		switch {
		case u.Href == "":
			r.report(u.Range(), "url has no target")
		case err != nil:
			r.report(u.Range(), "malformed url %q", u.Href)
		case parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" && parsed.Scheme != "mailto":
			r.report(u.Range(), "url %q uses unsupported scheme %q", u.Href, parsed.Scheme)
		}
		return true
	})
}
