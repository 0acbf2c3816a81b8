package parser

import (
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

// Alternate builds the tree from the lexer's token stream instead of
// scanning bytes. It accepts the same grammar as Classic.
type Alternate struct{}

// Compile-time interface check.
var _ Parser = Alternate{}

func (Alternate) Name() string { return BackendAlternate }

// Parse builds the syntax tree of src.
func (Alternate) Parse(src *ast.Source) (*ast.Manuscript, []diag.Diagnostic) {
	b := &treeBuilder{src: src, lex: newLexer(src, 0, src.Len())}
	root := b.document()
	diag.SortByPosition(b.diags)
	return root, b.diags
}

type treeBuilder struct {
	src   *ast.Source
	lex   *lexer
	diags []diag.Diagnostic
}

func (b *treeBuilder) errorf(start, end int, format string, args ...any) {
	b.diags = append(b.diags, diag.Errorf(diag.StageParse, b.src.Range(start, end), format, args...))
}

func skipSpace(lx *lexer) {
	for k := lx.peek().kind; k == tokSpace || k == tokNewline; k = lx.peek().kind {
		lx.next()
	}
}

// takeMeta consumes a meta token if one follows.
func (b *treeBuilder) takeMeta(lx *lexer, n ast.Node) {
	if lx.peek().kind != tokMeta {
		return
	}
	t := lx.next()
	b.diags = append(b.diags, t.diags...)
	setMeta(n, t.meta)
}

func (b *treeBuilder) document() *ast.Manuscript {
	root := &ast.Manuscript{}
	n := b.src.Len()

	skipSpace(b.lex)
	start := b.lex.peek().start
	if strings.HasPrefix(b.src.Text[start:], rootTag) {
		pos := start + len(rootTag)
		b.lex.seek(pos)
		if meta, end, diags, ok := metaAfter(b.src, pos, n, true); ok {
			b.diags = append(b.diags, diags...)
			setMeta(root, meta)
			b.lex.seek(end)
		}
	} else {
		b.errorf(start, min(start+1, n), "manuscript must begin with %s", rootTag)
	}

	children := b.blocks(true, 0)
	end := n
	if t := b.lex.peek(); t.kind == tokClose {
		b.lex.next()
		end = t.end
	} else {
		b.errorf(start, n, "unterminated manuscript, missing closing ::")
	}

	skipSpace(b.lex)
	if t := b.lex.peek(); t.kind != tokEOF {
		b.errorf(t.start, n, "unexpected content after the end of the manuscript")
	}

	finish(b.src, root, start, end, children)
	return root
}

func (b *treeBuilder) blocks(headings bool, level int) []ast.Node {
	var nodes []ast.Node
	for {
		skipSpace(b.lex)
		t := b.lex.peek()
		switch {
		case t.kind == tokEOF || t.kind == tokClose:
			return nodes
		case headings && t.kind == tokText:
			if lvl, ok := headingAt(b.src.Text, t.start, b.lex.limit); ok {
				if lvl <= level {
					return nodes
				}
				nodes = append(nodes, b.section(t.start, lvl))
				continue
			}
		case t.kind == tokTag && t.class.isBlock():
			nodes = append(nodes, b.blockDirective())
			continue
		}
		if para := b.paragraph(headings); para != nil {
			nodes = append(nodes, para)
		}
	}
}

func (b *treeBuilder) section(start, level int) ast.Node {
	eol := lineEnd(b.src.Text, start)
	parts := splitHeading(b.src.Text, start, eol, level)

	sec := &ast.Section{Level: level}
	if parts.metaStart >= 0 {
		meta, _, diags := scanMeta(b.src, parts.metaStart, parts.end)
		b.diags = append(b.diags, diags...)
		setMeta(sec, meta)
	}

	sub := newLexer(b.src, parts.titleStart, parts.titleEnd)
	title := b.inline(sub, inlineStops{})
	if t := sub.peek(); t.kind != tokEOF {
		b.errorf(t.start, parts.titleEnd, "unexpected directive in section title")
	}
	heading := finish(b.src, &ast.Heading{}, start, parts.end, trimInline(b.src, title))

	b.lex.seek(eol)
	children := append([]ast.Node{heading}, b.blocks(true, level)...)
	_, end := spanOf(children)
	return finish(b.src, sec, start, end, children)
}

func (b *treeBuilder) blockDirective() ast.Node {
	tag := b.lex.next()
	node := newDirective(tag.name)
	b.takeMeta(b.lex, node)

	if tag.class == tagRawBlock {
		raw := b.lex.next()
		setRaw(node, raw.value)
		end := raw.end
		if t := b.lex.peek(); t.kind == tokClose {
			b.lex.next()
			end = t.end
		} else {
			b.errorf(tag.start, raw.end, "unterminated :%s: directive, missing closing ::", tag.name)
		}
		return finish(b.src, node, tag.start, end, nil)
	}

	children := b.blocks(false, 0)
	t := b.lex.peek()
	end := t.start
	if t.kind == tokClose {
		b.lex.next()
		end = t.end
	} else {
		b.errorf(tag.start, t.start, "unterminated :%s: directive, missing closing ::", tag.name)
	}
	return finish(b.src, node, tag.start, end, children)
}

func (b *treeBuilder) paragraph(headings bool) ast.Node {
	children := trimInline(b.src, b.inline(b.lex, inlineStops{headings: headings}))
	if len(children) == 0 {
		return nil
	}
	start, end := spanOf(children)
	return finish(b.src, &ast.Paragraph{}, start, end, children)
}

// inline collects inline nodes until a token that ends the run. The
// stopping token is left in the stream.
func (b *treeBuilder) inline(lx *lexer, st inlineStops) []ast.Node {
	var (
		nodes []ast.Node
		run   textRun
	)
	for {
		t := lx.peek()
		switch t.kind {
		case tokText, tokSpace, tokEscape:
			run.add(t.start, t.end, t.value)
			lx.next()
		case tokNewline:
			if t.blank || st.headings && t.heading {
				return run.flush(b.src, nodes)
			}
			run.add(t.start, t.end, t.value)
			lx.next()
		case tokTag:
			if t.class.isBlock() {
				return run.flush(b.src, nodes)
			}
			nodes = run.flush(b.src, nodes)
			nodes = append(nodes, b.inlineDirective(lx, st))
		case tokStar:
			if st.star {
				return run.flush(b.src, nodes)
			}
			nodes = run.flush(b.src, nodes)
			nodes = append(nodes, b.strong(lx, st))
		case tokMath, tokCode:
			nodes = run.flush(b.src, nodes)
			nodes = append(nodes, b.delimited(lx))
		default:
			return run.flush(b.src, nodes)
		}
	}
}

func (b *treeBuilder) strong(lx *lexer, st inlineStops) ast.Node {
	open := lx.next()
	children := b.inline(lx, inlineStops{star: true, headings: st.headings})
	t := lx.peek()
	end := t.start
	if t.kind == tokStar {
		lx.next()
		end = t.end
	} else {
		b.errorf(open.start, t.start, "unterminated strong emphasis, missing closing *")
	}
	return finish(b.src, &ast.Span{Strong: true}, open.start, end, children)
}

func (b *treeBuilder) delimited(lx *lexer) ast.Node {
	t := lx.next()
	delim := b.src.Text[t.start]
	node := delimited(delim, t.value)
	if !t.closed {
		b.errorf(t.start, t.end, "unterminated %s, missing closing %c", ast.KindName(node), delim)
	}
	return finish(b.src, node, t.start, t.end, nil)
}

func (b *treeBuilder) inlineDirective(lx *lexer, st inlineStops) ast.Node {
	tag := lx.next()

	if tag.class == tagRawInline {
		raw := lx.next()
		node := rawInline(tag.name, raw.value)
		end := raw.end
		if t := lx.peek(); t.kind == tokClose {
			lx.next()
			end = t.end
		} else {
			b.errorf(tag.start, raw.end, "unterminated :%s: directive, missing closing ::", tag.name)
		}
		return finish(b.src, node, tag.start, end, nil)
	}

	node := newDirective(tag.name)
	b.takeMeta(lx, node)
	children := trimInline(b.src, b.inline(lx, inlineStops{headings: st.headings}))
	t := lx.peek()
	end := t.start
	if t.kind == tokClose {
		lx.next()
		end = t.end
	} else {
		b.errorf(tag.start, t.start, "unterminated :%s: directive, missing closing ::", tag.name)
	}
	return finish(b.src, node, tag.start, end, children)
}
