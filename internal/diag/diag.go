// Package diag holds the non-fatal diagnostics produced while building a
// manuscript.
package diag

import (
	"fmt"
	"sort"

	"github.com/alnah/go-rsm/internal/ast"
)

// Severity of a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Stage names the pipeline stage that reported a diagnostic.
type Stage string

const (
	StageParse     Stage = "parse"
	StageLint      Stage = "lint"
	StageTransform Stage = "transform"
)

// Diagnostic is a message attached to a source span. Rule is set for lint
// diagnostics only.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     ast.Range
	Stage    Stage
	Rule     string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s: %s", d.Span.Start, d.Severity, d.Message)
	if d.Rule != "" {
		s += " [" + d.Rule + "]"
	}
	return s
}

// Errorf builds an error diagnostic.
func Errorf(stage Stage, span ast.Range, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Message: fmt.Sprintf(format, args...), Span: span, Stage: stage}
}

// Warnf builds a warning diagnostic.
func Warnf(stage Stage, span ast.Range, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Span: span, Stage: stage}
}

// SortByPosition orders diagnostics by start offset. The sort is stable so
// ties keep detection order.
func SortByPosition(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Span.Start.Offset < ds[j].Span.Start.Offset
	})
}

// HasErrors reports whether any diagnostic has Error severity.
func HasErrors(ds []Diagnostic) bool {
	return Count(ds, Error) > 0
}

// Count returns the number of diagnostics with the given severity.
func Count(ds []Diagnostic, sev Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
