// Package parser turns RSM source text into a syntax tree.
//
// Two backends implement the same grammar: Classic scans the text directly
// and Alternate builds the tree from a token stream. For well-formed input
// both produce the same tree.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

// Backend names accepted by ForBackend.
const (
	BackendClassic   = "classic"
	BackendAlternate = "alternate"
)

// ErrUnknownBackend is returned by ForBackend for an unrecognized name.
var ErrUnknownBackend = errors.New("unknown parser backend")

// Parser parses a source into a manuscript tree. The tree is always
// returned, possibly partial, together with any parse diagnostics.
type Parser interface {
	Name() string
	Parse(src *ast.Source) (*ast.Manuscript, []diag.Diagnostic)
}

// ForBackend returns the parser registered under name. The empty name
// selects the classic backend.
func ForBackend(name string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendClassic:
		return Classic{}, nil
	case BackendAlternate, "treesitter", "tree-sitter":
		return Alternate{}, nil
	}
	return nil, fmt.Errorf("%w: %q (valid: %s)", ErrUnknownBackend, name, strings.Join(Backends(), ", "))
}

// Backends lists the canonical backend names.
func Backends() []string {
	return []string{BackendClassic, BackendAlternate}
}
