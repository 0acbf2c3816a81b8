package parser

import (
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

// Classic is the direct recursive scanner backend. It walks the text once,
// deciding at each byte which construct starts there.
type Classic struct{}

// Compile-time interface check.
var _ Parser = Classic{}

func (Classic) Name() string { return BackendClassic }

// Parse builds the syntax tree of src.
func (Classic) Parse(src *ast.Source) (*ast.Manuscript, []diag.Diagnostic) {
	p := &classicParser{src: src, text: src.Text}
	root := p.parseDocument()
	diag.SortByPosition(p.diags)
	return root, p.diags
}

type classicParser struct {
	src   *ast.Source
	text  string
	pos   int
	diags []diag.Diagnostic
}

func (p *classicParser) errorf(start, end int, format string, args ...any) {
	p.diags = append(p.diags, diag.Errorf(diag.StageParse, p.src.Range(start, end), format, args...))
}

func (p *classicParser) skipSpace() {
	for p.pos < len(p.text) && (isBlank(p.text[p.pos]) || p.text[p.pos] == '\n') {
		p.pos++
	}
}

func (p *classicParser) parseDocument() *ast.Manuscript {
	root := &ast.Manuscript{}
	n := len(p.text)

	p.skipSpace()
	start := p.pos
	if strings.HasPrefix(p.text[p.pos:], rootTag) {
		p.pos += len(rootTag)
		p.meta(root, n, true)
	} else {
		p.errorf(start, min(start+1, n), "manuscript must begin with %s", rootTag)
	}

	children := p.parseBlocks(true, 0)
	if isClose(p.text, p.pos, n) {
		p.pos += 2
	} else {
		p.errorf(start, n, "unterminated manuscript, missing closing ::")
	}
	end := p.pos

	p.skipSpace()
	if p.pos < n {
		p.errorf(p.pos, n, "unexpected content after the end of the manuscript")
	}

	finish(p.src, root, start, end, children)
	return root
}

// meta attaches an optional meta block following a tag.
func (p *classicParser) meta(n ast.Node, limit int, multiline bool) {
	meta, end, diags, ok := metaAfter(p.src, p.pos, limit, multiline)
	if !ok {
		return
	}
	p.diags = append(p.diags, diags...)
	setMeta(n, meta)
	p.pos = end
}

func (p *classicParser) parseBlocks(headings bool, level int) []ast.Node {
	var nodes []ast.Node
	n := len(p.text)
	for {
		p.skipSpace()
		if p.pos >= n || isClose(p.text, p.pos, n) {
			return nodes
		}
		if headings {
			if lvl, ok := headingAt(p.text, p.pos, n); ok {
				if lvl <= level {
					return nodes
				}
				nodes = append(nodes, p.parseSection(lvl))
				continue
			}
		}
		if name, class, end, ok := tagAt(p.text, p.pos, n); ok && class.isBlock() {
			nodes = append(nodes, p.parseBlockDirective(name, class, end))
			continue
		}
		if para := p.parseParagraph(headings); para != nil {
			nodes = append(nodes, para)
		}
	}
}

func (p *classicParser) parseSection(level int) ast.Node {
	start := p.pos
	eol := lineEnd(p.text, start)
	parts := splitHeading(p.text, start, eol, level)

	sec := &ast.Section{Level: level}
	if parts.metaStart >= 0 {
		meta, _, diags := scanMeta(p.src, parts.metaStart, parts.end)
		p.diags = append(p.diags, diags...)
		setMeta(sec, meta)
	}

	p.pos = parts.titleStart
	title := p.parseInline(inlineStops{limit: parts.titleEnd})
	if p.pos < parts.titleEnd {
		p.errorf(p.pos, parts.titleEnd, "unexpected directive in section title")
	}
	heading := finish(p.src, &ast.Heading{}, start, parts.end, trimInline(p.src, title))

	p.pos = eol
	children := append([]ast.Node{heading}, p.parseBlocks(true, level)...)
	_, end := spanOf(children)
	return finish(p.src, sec, start, end, children)
}

func (p *classicParser) parseBlockDirective(name string, class tagClass, tagEnd int) ast.Node {
	n := len(p.text)
	start := p.pos
	node := newDirective(name)
	p.pos = tagEnd
	p.meta(node, n, true)

	if class == tagRawBlock {
		contentStart := p.pos
		end, closed := scanRawBlock(p.text, contentStart, n, name == "codeblock")
		setRaw(node, rawBlockValue(p.text[contentStart:end]))
		if closed {
			p.pos = end + 2
		} else {
			p.pos = n
			p.errorf(start, n, "unterminated :%s: directive, missing closing ::", name)
		}
		return finish(p.src, node, start, p.pos, nil)
	}

	children := p.parseBlocks(false, 0)
	if isClose(p.text, p.pos, n) {
		p.pos += 2
	} else {
		p.errorf(start, p.pos, "unterminated :%s: directive, missing closing ::", name)
	}
	return finish(p.src, node, start, p.pos, children)
}

func (p *classicParser) parseParagraph(headings bool) ast.Node {
	children := trimInline(p.src, p.parseInline(inlineStops{headings: headings, limit: len(p.text)}))
	if len(children) == 0 {
		return nil
	}
	start, end := spanOf(children)
	return finish(p.src, &ast.Paragraph{}, start, end, children)
}

func (p *classicParser) parseInline(st inlineStops) []ast.Node {
	var (
		nodes []ast.Node
		run   textRun
	)
loop:
	for p.pos < st.limit {
		c := p.text[p.pos]
		switch c {
		case '\n':
			if lineIsBlank(p.text, p.pos+1, st.limit) || st.headings && headingAfter(p.text, p.pos, st.limit) {
				break loop
			}
		case ':':
			if name, class, end, ok := tagAt(p.text, p.pos, st.limit); ok {
				if class.isBlock() {
					break loop
				}
				nodes = run.flush(p.src, nodes)
				nodes = append(nodes, p.parseInlineDirective(name, class, end, st))
				continue
			}
			if isClose(p.text, p.pos, st.limit) {
				break loop
			}
		case '\\':
			if p.pos+1 < st.limit && isEscapable(p.text[p.pos+1]) {
				run.add(p.pos, p.pos+2, p.text[p.pos+1:p.pos+2])
				p.pos += 2
				continue
			}
		case '*':
			if st.star {
				break loop
			}
			nodes = run.flush(p.src, nodes)
			nodes = append(nodes, p.parseStrong(st))
			continue
		case '$', '`':
			nodes = run.flush(p.src, nodes)
			nodes = append(nodes, p.parseDelimited(c, st))
			continue
		}
		run.add(p.pos, p.pos+1, p.text[p.pos:p.pos+1])
		p.pos++
	}
	return run.flush(p.src, nodes)
}

func (p *classicParser) parseStrong(st inlineStops) ast.Node {
	start := p.pos
	p.pos++
	children := p.parseInline(inlineStops{star: true, headings: st.headings, limit: st.limit})
	if p.pos < st.limit && p.text[p.pos] == '*' {
		p.pos++
	} else {
		p.errorf(start, p.pos, "unterminated strong emphasis, missing closing *")
	}
	return finish(p.src, &ast.Span{Strong: true}, start, p.pos, children)
}

func (p *classicParser) parseDelimited(delim byte, st inlineStops) ast.Node {
	start := p.pos
	end, closed := scanRawInline(p.text, start+1, st.limit, string(delim))
	node := delimited(delim, p.text[start+1:end])
	if closed {
		p.pos = end + 1
	} else {
		p.pos = end
		p.errorf(start, end, "unterminated %s, missing closing %c", ast.KindName(node), delim)
	}
	return finish(p.src, node, start, p.pos, nil)
}

func (p *classicParser) parseInlineDirective(name string, class tagClass, tagEnd int, st inlineStops) ast.Node {
	start := p.pos
	p.pos = tagEnd

	if class == tagRawInline {
		end, closed := scanRawInline(p.text, p.pos, st.limit, "::")
		node := rawInline(name, p.text[p.pos:end])
		if closed {
			p.pos = end + 2
		} else {
			p.pos = end
			p.errorf(start, end, "unterminated :%s: directive, missing closing ::", name)
		}
		return finish(p.src, node, start, p.pos, nil)
	}

	node := newDirective(name)
	p.meta(node, st.limit, false)
	children := trimInline(p.src, p.parseInline(inlineStops{headings: st.headings, limit: st.limit}))
	if isClose(p.text, p.pos, st.limit) {
		p.pos += 2
	} else {
		p.errorf(start, p.pos, "unterminated :%s: directive, missing closing ::", name)
	}
	return finish(p.src, node, start, p.pos, children)
}

// delimited builds the node for `$...$` or a backtick span.
func delimited(delim byte, content string) ast.Node {
	if delim == '$' {
		return &ast.Math{Source: content}
	}
	return &ast.Code{Source: content}
}
