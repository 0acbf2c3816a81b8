// Package ast defines the manuscript syntax tree shared by every parser
// backend, together with source positions used in diagnostics.
package ast

import (
	"fmt"
	"sort"
	"strings"
)

// Source is an immutable manuscript text plus the identifier used in
// diagnostics. Line endings are normalized to "\n" on construction and all
// offsets refer to the normalized text.
type Source struct {
	Name string
	Text string

	lineStarts []int
}

// NewSource normalizes line endings and indexes line starts.
func NewSource(name, text string) *Source {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Source{Name: name, Text: text, lineStarts: starts}
}

// Len returns the length of the normalized text in bytes.
func (s *Source) Len() int {
	return len(s.Text)
}

// Position converts a byte offset into a Position. Offsets outside the text
// are clamped.
func (s *Source) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(s.Text) {
		offset = len(s.Text)
	}
	line := sort.Search(len(s.lineStarts), func(i int) bool {
		return s.lineStarts[i] > offset
	}) - 1
	return Position{
		Offset: offset,
		Line:   line + 1,
		Column: offset - s.lineStarts[line] + 1,
	}
}

// Range builds the Range covering [start, end).
func (s *Source) Range(start, end int) Range {
	if end < start {
		end = start
	}
	return Range{Start: s.Position(start), End: s.Position(end)}
}

// Line returns the text of the 1-based line n without its newline.
func (s *Source) Line(n int) string {
	if n < 1 || n > len(s.lineStarts) {
		return ""
	}
	start := s.lineStarts[n-1]
	end := len(s.Text)
	if n < len(s.lineStarts) {
		end = s.lineStarts[n] - 1
	}
	return s.Text[start:end]
}

// Position is a point in a Source. Line and Column are 1-based; Column
// counts bytes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Range is a half-open source span.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether o lies within r.
func (r Range) Contains(o Range) bool {
	return r.Start.Offset <= o.Start.Offset && o.End.Offset <= r.End.Offset
}

// Len returns the number of bytes covered.
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}
