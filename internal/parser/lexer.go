package parser

import (
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokText
	tokSpace
	tokNewline
	tokEscape
	tokTag
	tokClose
	tokMeta
	tokStar
	tokMath
	tokCode
	tokRaw
)

var tokenNames = [...]string{
	tokEOF:     "EOF",
	tokText:    "Text",
	tokSpace:   "Space",
	tokNewline: "Newline",
	tokEscape:  "Escape",
	tokTag:     "Tag",
	tokClose:   "Close",
	tokMeta:    "Meta",
	tokStar:    "Star",
	tokMath:    "Math",
	tokCode:    "Code",
	tokRaw:     "Raw",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "Unknown"
}

type token struct {
	kind       tokenKind
	start, end int
	value      string // literal text, escaped byte, or verbatim content

	// Tag
	name  string
	class tagClass

	// Meta
	meta  ast.Meta
	diags []diag.Diagnostic

	closed  bool // Math and Code
	blank   bool // Newline: the next line is blank
	heading bool // Newline: the next line is a heading
}

const textStops = " \t\n\\:*$`"

// lexer produces tokens on demand over [pos, limit). Tags pull their meta
// block and verbatim content along, so the builder never sees raw text as
// markup.
type lexer struct {
	src   *ast.Source
	text  string
	pos   int
	limit int
	queue []token
}

func newLexer(src *ast.Source, from, limit int) *lexer {
	return &lexer{src: src, text: src.Text, pos: from, limit: limit}
}

func (l *lexer) peek() token {
	if len(l.queue) == 0 {
		l.queue = l.scan()
	}
	return l.queue[0]
}

func (l *lexer) next() token {
	t := l.peek()
	l.queue = l.queue[1:]
	return t
}

// seek discards buffered tokens and restarts at pos.
func (l *lexer) seek(pos int) {
	l.pos = pos
	l.queue = nil
}

func (l *lexer) scan() []token {
	if l.pos >= l.limit {
		return []token{{kind: tokEOF, start: l.limit, end: l.limit}}
	}
	start := l.pos
	switch c := l.text[start]; c {
	case ' ', '\t':
		for l.pos < l.limit && isBlank(l.text[l.pos]) {
			l.pos++
		}
		return l.emit(tokSpace, start)
	case '\n':
		l.pos++
		t := token{
			kind:    tokNewline,
			start:   start,
			end:     l.pos,
			value:   "\n",
			blank:   lineIsBlank(l.text, l.pos, l.limit),
			heading: headingAfter(l.text, start, l.limit),
		}
		return []token{t}
	case '\\':
		if start+1 < l.limit && isEscapable(l.text[start+1]) {
			l.pos += 2
			return []token{{kind: tokEscape, start: start, end: l.pos, value: l.text[start+1 : l.pos]}}
		}
		l.pos++
		return l.emit(tokText, start)
	case ':':
		if name, class, end, ok := tagAt(l.text, start, l.limit); ok {
			return l.tag(name, class, start, end)
		}
		if isClose(l.text, start, l.limit) {
			l.pos += 2
			return l.emit(tokClose, start)
		}
		l.pos++
		return l.emit(tokText, start)
	case '*':
		l.pos++
		return l.emit(tokStar, start)
	case '$', '`':
		end, closed := scanRawInline(l.text, start+1, l.limit, string(c))
		kind := tokMath
		if c == '`' {
			kind = tokCode
		}
		t := token{kind: kind, start: start, value: l.text[start+1 : end], closed: closed}
		if closed {
			end++
		}
		l.pos, t.end = end, end
		return []token{t}
	}

	i := strings.IndexAny(l.text[start:l.limit], textStops)
	if i < 0 {
		l.pos = l.limit
	} else {
		l.pos = start + i
	}
	return l.emit(tokText, start)
}

func (l *lexer) emit(kind tokenKind, start int) []token {
	return []token{{kind: kind, start: start, end: l.pos, value: l.text[start:l.pos]}}
}

// tag emits the tag token followed by its meta block and, for verbatim
// directives, the raw content and the closing token.
func (l *lexer) tag(name string, class tagClass, start, end int) []token {
	toks := []token{{kind: tokTag, start: start, end: end, name: name, class: class}}
	l.pos = end

	if class != tagRawInline {
		if meta, mend, diags, ok := metaAfter(l.src, l.pos, l.limit, class.isBlock()); ok {
			toks = append(toks, token{kind: tokMeta, start: l.pos, end: mend, meta: meta, diags: diags})
			l.pos = mend
		}
	}

	var (
		rend   int
		closed bool
		value  string
	)
	switch class {
	case tagRawInline:
		rend, closed = scanRawInline(l.text, l.pos, l.limit, "::")
		value = l.text[l.pos:rend]
	case tagRawBlock:
		rend, closed = scanRawBlock(l.text, l.pos, l.limit, name == "codeblock")
		value = rawBlockValue(l.text[l.pos:rend])
	default:
		return toks
	}
	toks = append(toks, token{kind: tokRaw, start: l.pos, end: rend, value: value})
	l.pos = rend
	if closed {
		l.pos += 2
		toks = append(toks, token{kind: tokClose, start: rend, end: l.pos, value: "::"})
	}
	return toks
}
