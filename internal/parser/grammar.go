package parser

import (
	"strings"

	"github.com/alnah/go-rsm/internal/ast"
	"github.com/alnah/go-rsm/internal/diag"
)

// tagClass decides how the content after a tag is read.
type tagClass int

const (
	tagBlock     tagClass = iota + 1 // blocks until ::
	tagRawBlock                      // verbatim until ::
	tagInline                        // inline content until ::
	tagRawInline                     // verbatim until :: on the same line
)

func (c tagClass) isBlock() bool {
	return c == tagBlock || c == tagRawBlock
}

const rootTag = ":rsm:"

// tags lists every directive name. Anything else between colons is text.
var tags = map[string]tagClass{
	"abstract":     tagBlock,
	"theorem":      tagBlock,
	"lemma":        tagBlock,
	"proposition":  tagBlock,
	"corollary":    tagBlock,
	"definition":   tagBlock,
	"remark":       tagBlock,
	"proof":        tagBlock,
	"step":         tagBlock,
	"itemize":      tagBlock,
	"enumerate":    tagBlock,
	"item":         tagBlock,
	"bibliography": tagBlock,
	"bibitem":      tagBlock,
	"codeblock":    tagRawBlock,
	"mathblock":    tagRawBlock,
	"span":         tagInline,
	"note":         tagInline,
	"keyword":      tagInline,
	"draft":        tagInline,
	"ref":          tagRawInline,
	"cite":         tagRawInline,
	"url":          tagRawInline,
	"math":         tagRawInline,
	"code":         tagRawInline,
}

// Tags returns the known directive names, for tooling.
func Tags() []string {
	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	return names
}

const escapable = "\\:*$`#{}"

func isEscapable(c byte) bool {
	return strings.IndexByte(escapable, c) >= 0
}

// inlineStops describes when an inline run ends besides the universal
// terminators (limit, ::, a block tag and a blank line).
type inlineStops struct {
	star     bool // '*' closes the enclosing strong span
	headings bool // a heading line ends the paragraph
	limit    int
}

// tagAt recognizes a known `:name:` tag at pos.
func tagAt(text string, pos, limit int) (name string, class tagClass, end int, ok bool) {
	if pos >= limit || text[pos] != ':' {
		return "", 0, 0, false
	}
	j := pos + 1
	for j < limit && text[j] >= 'a' && text[j] <= 'z' {
		j++
	}
	if j == pos+1 || j >= limit || text[j] != ':' {
		return "", 0, 0, false
	}
	name = text[pos+1 : j]
	class, ok = tags[name]
	if !ok {
		return "", 0, 0, false
	}
	return name, class, j + 1, true
}

func isClose(text string, pos, limit int) bool {
	return pos+1 < limit && text[pos] == ':' && text[pos+1] == ':'
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// atLineStart reports whether only spaces and tabs precede pos on its line.
func atLineStart(text string, pos int) bool {
	i := pos - 1
	for i >= 0 && isBlank(text[i]) {
		i--
	}
	return i < 0 || text[i] == '\n'
}

// headingAt recognizes `#`..`######` followed by a space at line start.
func headingAt(text string, pos, limit int) (level int, ok bool) {
	if pos >= limit || text[pos] != '#' || !atLineStart(text, pos) {
		return 0, false
	}
	j := pos
	for j < limit && text[j] == '#' {
		j++
	}
	level = j - pos
	if level > 6 || j >= limit || text[j] != ' ' {
		return 0, false
	}
	return level, true
}

// lineIsBlank reports whether the line starting at from holds only spaces.
func lineIsBlank(text string, from, limit int) bool {
	i := from
	for i < limit && isBlank(text[i]) {
		i++
	}
	return i >= limit || text[i] == '\n'
}

// headingAfter reports whether the line after the newline at nl is a heading.
func headingAfter(text string, nl, limit int) bool {
	i := nl + 1
	for i < limit && isBlank(text[i]) {
		i++
	}
	_, ok := headingAt(text, i, limit)
	return ok
}

func lineEnd(text string, pos int) int {
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(text)
}

// scanRawInline finds delim on the current line. contentEnd is where the
// verbatim content stops either way.
func scanRawInline(text string, from, limit int, delim string) (contentEnd int, closed bool) {
	for i := from; i < limit; i++ {
		if text[i] == '\n' {
			return i, false
		}
		if strings.HasPrefix(text[i:limit], delim) {
			return i, true
		}
	}
	return limit, false
}

// scanRawBlock finds the closing :: of a verbatim block. Code blocks only
// close on a :: that starts a line, so `std::vector` stays content.
func scanRawBlock(text string, from, limit int, lineStartOnly bool) (contentEnd int, closed bool) {
	for i := from; i+1 < limit; i++ {
		if text[i] == ':' && text[i+1] == ':' && (!lineStartOnly || atLineStart(text, i)) {
			return i, true
		}
	}
	return limit, false
}

// rawBlockValue drops a blank opening line, the common indentation and
// trailing whitespace.
func rawBlockValue(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 && strings.TrimSpace(s[:i]) == "" {
		s = s[i+1:]
	} else if i < 0 {
		return strings.TrimSpace(s)
	}
	s = strings.TrimRight(s, " \t\n")

	lines := strings.Split(s, "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return s
	}
	for i, l := range lines {
		if len(l) >= indent {
			lines[i] = l[indent:]
		} else {
			lines[i] = strings.TrimLeft(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// scanMeta reads a `{:key: value, ...}` block starting at the '{' at pos.
func scanMeta(src *ast.Source, pos, limit int) (ast.Meta, int, []diag.Diagnostic) {
	text := src.Text
	var (
		meta  ast.Meta
		diags []diag.Diagnostic
	)
	i := pos + 1
	for {
		for i < limit && (isBlank(text[i]) || text[i] == '\n') {
			i++
		}
		if i >= limit {
			diags = append(diags, diag.Errorf(diag.StageParse, src.Range(pos, limit),
				"unterminated meta block, missing closing }"))
			break
		}
		if text[i] == '}' {
			i++
			break
		}

		entryStart := i
		key, valueStart, ok := metaKey(text, i, limit)
		if !ok {
			i = skipMetaEntry(text, i, limit)
			diags = append(diags, diag.Errorf(diag.StageParse, src.Range(entryStart, i),
				"malformed meta entry, expected :key: value"))
			if i < limit && text[i] == ',' {
				i++
			}
			continue
		}

		i = valueStart
		var val strings.Builder
		for i < limit && text[i] != ',' && text[i] != '}' {
			if text[i] == '\\' && i+1 < limit && strings.IndexByte(",}{\\:", text[i+1]) >= 0 {
				val.WriteByte(text[i+1])
				i += 2
				continue
			}
			val.WriteByte(text[i])
			i++
		}
		meta.Entries = append(meta.Entries, ast.MetaEntry{
			Key:   key,
			Value: strings.TrimSpace(val.String()),
			Span:  src.Range(entryStart, i),
		})
		if i < limit && text[i] == ',' {
			i++
		}
	}
	meta.MetaSpan = src.Range(pos, i)
	return meta, i, diags
}

func metaKey(text string, i, limit int) (key string, next int, ok bool) {
	if text[i] != ':' {
		return "", 0, false
	}
	j := i + 1
	for j < limit && (text[j] >= 'a' && text[j] <= 'z' || text[j] >= '0' && text[j] <= '9' || text[j] == '-' || text[j] == '_') {
		j++
	}
	if j == i+1 || j >= limit || text[j] != ':' {
		return "", 0, false
	}
	return text[i+1 : j], j + 1, true
}

func skipMetaEntry(text string, i, limit int) int {
	for i < limit && text[i] != ',' && text[i] != '}' {
		i++
	}
	return i
}

// metaAfter looks for a meta block after a tag that ends at pos. Block
// directives may put it on the following line.
func metaAfter(src *ast.Source, pos, limit int, multiline bool) (ast.Meta, int, []diag.Diagnostic, bool) {
	text := src.Text
	i := pos
	crossed := false
	for i < limit && (isBlank(text[i]) || multiline && text[i] == '\n') {
		crossed = crossed || text[i] == '\n'
		i++
	}
	if i >= limit || text[i] != '{' {
		return ast.Meta{}, pos, nil, false
	}
	// On a later line only `{:` opens meta, so a code block may start with a brace.
	if crossed && (i+1 >= limit || text[i+1] != ':') {
		return ast.Meta{}, pos, nil, false
	}
	meta, end, diags := scanMeta(src, i, limit)
	return meta, end, diags, true
}

// headingParts splits a heading line into title and trailing meta.
type headingParts struct {
	titleStart, titleEnd int
	metaStart, end       int // metaStart is -1 without meta
}

func splitHeading(text string, start, eol, level int) headingParts {
	end := eol
	for end > start && isBlank(text[end-1]) {
		end--
	}
	titleStart := start + level + 1
	if titleStart > end {
		titleStart = end
	}
	h := headingParts{titleStart: titleStart, titleEnd: end, metaStart: -1, end: end}
	if end > titleStart && text[end-1] == '}' {
		if k := strings.LastIndex(text[titleStart:end], "{:"); k >= 0 {
			h.metaStart = titleStart + k
			h.titleEnd = h.metaStart
		}
	}
	return h
}

// newDirective allocates the node for a block or inline-content tag.
func newDirective(name string) ast.Node {
	switch name {
	case "abstract":
		return &ast.Abstract{}
	case ast.ClaimTheorem, ast.ClaimLemma, ast.ClaimProposition,
		ast.ClaimCorollary, ast.ClaimDefinition, ast.ClaimRemark:
		return &ast.Claim{Variant: name}
	case "proof":
		return &ast.Proof{}
	case "step":
		return &ast.Step{}
	case "itemize":
		return &ast.List{}
	case "enumerate":
		return &ast.List{Ordered: true}
	case "item":
		return &ast.Item{}
	case "bibliography":
		return &ast.Bibliography{}
	case "bibitem":
		return &ast.BibItem{}
	case "codeblock":
		return &ast.CodeBlock{}
	case "mathblock":
		return &ast.MathBlock{}
	case "span":
		return &ast.Span{}
	case "note":
		return &ast.Note{}
	case "keyword":
		return &ast.Keyword{}
	case "draft":
		return &ast.Draft{}
	}
	panic("parser: no node for tag " + name)
}

// rawInline builds the node for a verbatim inline directive.
func rawInline(name, content string) ast.Node {
	switch name {
	case "ref":
		target, text := splitPair(content)
		return &ast.Reference{Target: target, Text: text}
	case "url":
		href, text := splitPair(content)
		return &ast.URL{Href: href, Text: text}
	case "cite":
		var keys []string
		for _, k := range strings.Split(content, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		return &ast.Cite{Keys: keys}
	case "math":
		return &ast.Math{Source: strings.TrimSpace(content)}
	case "code":
		return &ast.Code{Source: strings.TrimSpace(content)}
	}
	panic("parser: no node for tag " + name)
}

func splitPair(s string) (first, second string) {
	first, second, _ = strings.Cut(s, ",")
	return strings.TrimSpace(first), strings.TrimSpace(second)
}

// setMeta stores meta on n and derives typed attributes from it.
func setMeta(n ast.Node, meta ast.Meta) {
	a, ok := n.(ast.Annotated)
	if !ok {
		return
	}
	*a.Attributes() = meta
	switch n := n.(type) {
	case *ast.Span:
		n.Strong = n.Has("strong")
		n.Emphasis = n.Has("emphas") || n.Has("emphasis")
	case *ast.CodeBlock:
		n.Lang, _ = n.Get("lang")
	}
}

func setRaw(n ast.Node, value string) {
	switch n := n.(type) {
	case *ast.CodeBlock:
		n.Source = value
	case *ast.MathBlock:
		n.Source = value
	}
}

type based interface {
	BaseNode() *ast.Base
}

func finish(src *ast.Source, n ast.Node, start, end int, children []ast.Node) ast.Node {
	b := n.(based).BaseNode()
	b.Span = src.Range(start, end)
	b.Nodes = children
	return n
}

// textRun accumulates literal text between inline constructs.
type textRun struct {
	sb         strings.Builder
	start, end int
	open       bool
}

func (t *textRun) add(start, end int, s string) {
	if !t.open {
		t.open = true
		t.start = start
	}
	t.end = end
	t.sb.WriteString(s)
}

func (t *textRun) flush(src *ast.Source, nodes []ast.Node) []ast.Node {
	if !t.open {
		return nodes
	}
	n := &ast.Text{Value: t.sb.String()}
	n.Span = src.Range(t.start, t.end)
	t.sb.Reset()
	t.open = false
	return append(nodes, n)
}

// trimInline removes leading and trailing whitespace from an inline run.
func trimInline(src *ast.Source, nodes []ast.Node) []ast.Node {
	if len(nodes) == 0 {
		return nodes
	}
	if t, ok := nodes[0].(*ast.Text); ok {
		trimmed := strings.TrimLeft(t.Value, " \t\n")
		start := t.Span.Start.Offset + len(t.Value) - len(trimmed)
		t.Value = trimmed
		t.Span = src.Range(start, t.Span.End.Offset)
		if trimmed == "" {
			nodes = nodes[1:]
		}
	}
	if len(nodes) == 0 {
		return nodes
	}
	if t, ok := nodes[len(nodes)-1].(*ast.Text); ok {
		trimmed := strings.TrimRight(t.Value, " \t\n")
		end := t.Span.End.Offset - (len(t.Value) - len(trimmed))
		t.Value = trimmed
		t.Span = src.Range(t.Span.Start.Offset, end)
		if trimmed == "" {
			nodes = nodes[:len(nodes)-1]
		}
	}
	return nodes
}

func spanOf(nodes []ast.Node) (start, end int) {
	return nodes[0].Range().Start.Offset, nodes[len(nodes)-1].Range().End.Offset
}
