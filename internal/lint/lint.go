// Package lint checks a parsed manuscript for structural and semantic
// problems. Rules only read the tree; their findings are advisory and never
// stop a build.
package lint

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

// ErrUnknownRule is returned when a disabled rule name does not exist.
var ErrUnknownRule = errors.New("unknown lint rule")

// Rule is one independent check.
type Rule struct {
	Name     string
	Severity diag.Severity
	Summary  string

	check func(r *run)
}

// Options configures a lint run.
type Options struct {
	// Disabled lists rule names to skip.
	Disabled []string
}

// Rules returns the registered rules in execution order.
func Rules() []Rule {
	return slices.Clone(registry)
}

// RuleNames returns the names of all rules.
func RuleNames() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.Name
	}
	return names
}

// ValidateDisabled checks that every name refers to a registered rule.
func ValidateDisabled(names []string) error {
	var unknown []string
	for _, n := range names {
		if !slices.Contains(RuleNames(), n) {
			unknown = append(unknown, n)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRule, strings.Join(unknown, ", "))
	}
	return nil
}

// Lint runs every enabled rule over root. Each rule reports in source order;
// the combined result is sorted by position.
func Lint(root *ast.Manuscript, opts Options) []diag.Diagnostic {
	if root == nil {
		return nil
	}
	labels := collectLabels(root)

	var out []diag.Diagnostic
	for i := range registry {
		rule := &registry[i]
		if slices.Contains(opts.Disabled, rule.Name) {
			continue
		}
		r := &run{root: root, labels: labels, rule: rule}
		rule.check(r)
		out = append(out, r.out...)
	}
	diag.SortByPosition(out)
	return out
}

// run is the state of one rule over one tree.
type run struct {
	root   *ast.Manuscript
	labels *labelIndex
	rule   *Rule
	out    []diag.Diagnostic
}

func (r *run) report(span ast.Range, format string, args ...any) {
	d := diag.Warnf(diag.StageLint, span, format, args...)
	d.Severity = r.rule.Severity
	d.Rule = r.rule.Name
	r.out = append(r.out, d)
}

// labelIndex records where each label is defined, in source order.
type labelIndex struct {
	defs  map[string][]ast.Node
	order []string
	bib   map[string]bool
}

func collectLabels(root ast.Node) *labelIndex {
	idx := &labelIndex{defs: map[string][]ast.Node{}, bib: map[string]bool{}}
	ast.Inspect(root, func(n ast.Node) bool {
		label := ast.LabelOf(n)
		if label == "" {
			return true
		}
		if _, seen := idx.defs[label]; !seen {
			idx.order = append(idx.order, label)
		}
		idx.defs[label] = append(idx.defs[label], n)
		if _, ok := n.(*ast.BibItem); ok {
			idx.bib[label] = true
		}
		return true
	})
	return idx
}
