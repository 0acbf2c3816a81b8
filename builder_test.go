package rsm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-rsm/internal/diag"
)

// Notes:
// - Builds run against the embedded manifest unless a test injects a resolver.
// - The head/body regexes match the ones downstream tooling uses to split a
//   concatenated document.
// ---------------------------------------------------------------------------

const helloWorld = ":rsm: Hello world! ::"

var (
	headRegion = regexp.MustCompile(`(?s)<head>(.*?)</head>`)
	bodyRegion = regexp.MustCompile(`(?s)<body[^>]*>(.*?)</body>`)
)

// mockResolver records requested names and answers from a fixed table.
type mockResolver struct {
	mu      sync.Mutex
	calls   [][]string
	entries map[string]AssetEntry
	err     error
	panics  bool
}

func (m *mockResolver) Resolve(names []string) ([]AssetEntry, error) {
	m.mu.Lock()
	m.calls = append(m.calls, slices.Clone(names))
	m.mu.Unlock()
	if m.panics {
		panic("resolver exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []AssetEntry
	for _, n := range names {
		e, ok := m.entries[n]
		if !ok {
			return nil, errors.Join(ErrAssetNotFound, errors.New(n))
		}
		out = append(out, e)
	}
	return out, nil
}

func mustBuild(t *testing.T, b *Builder, text string, cfg Config) *Result {
	t.Helper()
	res, err := b.Build(context.Background(), Source{Name: "test.rsm", Text: text}, cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return res
}

func TestBuild_HelloWorld(t *testing.T) {
	t.Parallel()

	res := mustBuild(t, NewBuilder(), helloWorld, DefaultConfig())

	if !strings.Contains(res.Output.Body, "manuscriptwrapper") {
		t.Errorf("body missing wrapper marker: %s", res.Output.Body)
	}
	if !strings.Contains(res.Output.Body, "Hello world!") {
		t.Errorf("body missing text: %s", res.Output.Body)
	}
	for _, want := range []string{"jquery-3.6.0.js", "tooltipster.bundle.js", "tooltipster.bundle.css", "rsm.css"} {
		if !strings.Contains(res.Output.Head, want) {
			t.Errorf("head missing %s:\n%s", want, res.Output.Head)
		}
	}
	want := "import { onload } from '/static/onload.js'; onload(document, { path: '/static/' });"
	if res.Output.InitScript != want {
		t.Errorf("InitScript = %q, want %q", res.Output.InitScript, want)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("Diagnostics = %v, want none", res.Diagnostics)
	}
}

func TestBuild_StructuredAndDocumentAgree(t *testing.T) {
	t.Parallel()

	sources := []string{
		helloWorld,
		":rsm:\n# Title\n\n## Intro {:label: sec-intro}\n\nSee :ref:sec-intro::.\n\n:theorem: {:label: thm}\nAll $x$ are *fine*.\n::\n\n::",
		":rsm:\n:codeblock: {:lang: go}\nfunc main() {}\n::\n\nA note :note: aside ::.\n::",
	}

	for _, parserName := range []string{ParserClassic, ParserAlternate} {
		for _, handrails := range []bool{false, true} {
			for _, src := range sources {
				cfg := DefaultConfig()
				cfg.Parser = parserName
				cfg.Handrails = handrails

				cfg.Structured = true
				structured := mustBuild(t, NewBuilder(), src, cfg)
				cfg.Structured = false
				concatenated := mustBuild(t, NewBuilder(), src, cfg)

				out, ok := structured.Value().(Output)
				if !ok {
					t.Fatalf("structured Value() = %T, want Output", structured.Value())
				}
				doc, ok := concatenated.Value().(string)
				if !ok {
					t.Fatalf("document Value() = %T, want string", concatenated.Value())
				}

				head := headRegion.FindStringSubmatch(doc)
				body := bodyRegion.FindStringSubmatch(doc)
				if head == nil || body == nil {
					t.Fatalf("document lacks head or body region:\n%s", doc)
				}
				if strings.TrimSpace(head[1]) != strings.TrimSpace(out.Head) {
					t.Errorf("[%s handrails=%v] head region differs from structured head", parserName, handrails)
				}
				if strings.TrimSpace(body[1]) != strings.TrimSpace(out.Body) {
					t.Errorf("[%s handrails=%v] body region differs from structured body", parserName, handrails)
				}
				if !strings.Contains(doc, out.InitScript) {
					t.Errorf("[%s handrails=%v] document does not embed init script", parserName, handrails)
				}
			}
		}
	}
}

func TestBuild_OutputKeySet(t *testing.T) {
	t.Parallel()

	for _, handrails := range []bool{false, true} {
		for _, p := range []string{ParserClassic, ParserAlternate} {
			cfg := DefaultConfig()
			cfg.Parser = p
			cfg.Handrails = handrails
			res := mustBuild(t, NewBuilder(), helloWorld, cfg)

			data, err := json.Marshal(res.Output)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			var m map[string]any
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			var keys []string
			for k := range m {
				keys = append(keys, k)
			}
			slices.Sort(keys)
			if !slices.Equal(keys, []string{"body", "head", "init_script"}) {
				t.Errorf("keys = %v, want [body head init_script]", keys)
			}
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	src := ":rsm:\n## A {:label: a}\n\n:ref:a:: and :ref:b::.\n\n:mathblock: {:label: eq}\nx^2\n::\n::"
	cfg := DefaultConfig()
	cfg.Handrails = true
	first := mustBuild(t, NewBuilder(), src, cfg)
	for range 5 {
		again := mustBuild(t, NewBuilder(), src, cfg)
		if again.Output != first.Output {
			t.Fatal("repeated builds produced different output")
		}
		if len(again.Diagnostics) != len(first.Diagnostics) {
			t.Fatal("repeated builds produced different diagnostics")
		}
	}
}

// bodyText returns the text content of an HTML body fragment, tags removed.
func bodyText(t *testing.T, body string) string {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(body), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
	if err != nil {
		t.Fatalf("html.ParseFragment: %v", err)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}

func TestBuild_HandrailsKeepText(t *testing.T) {
	t.Parallel()

	corpus := []string{
		helloWorld,
		":rsm:\n## Intro\n\nSome text.\n\n:proof:\nTrivial.\n::\n::",
		":rsm: {:title: Demo}\n\n:abstract:\nShort.\n::\n\n# Intro {:label: intro}\nSee :ref:intro:: and :cite:k::.\n\n:theorem: {:label: t}\nA *term* holds.\n::\n\n:proof:\n:step: First $x = 1$.\n::\n:step: Then `y`.\n::\n::\n\n:bibliography:\n:bibitem: {:label: k}\nThe Art.\n::\n::\n::",
		":rsm:\n:enumerate:\n:item: one\n::\n:item: two :note: foot ::\n::\n::\n\n:mathblock: {:label: eq}\n  a + b\n::\n::",
		":rsm:\n:codeblock: {:lang: go}\nfunc main() {}\n::\n\ntext :url:https://example.com,site:: end\n::",
	}
	off := DefaultConfig()
	on := DefaultConfig()
	on.Handrails = true

	var hooks int
	for _, src := range corpus {
		plain := mustBuild(t, NewBuilder(), src, off)
		rails := mustBuild(t, NewBuilder(), src, on)

		if strings.Contains(plain.Output.Body, "data-handrail") {
			t.Errorf("handrails disabled but body has handrail markup:\n%s", plain.Output.Body)
		}
		hooks += strings.Count(rails.Output.Body, "data-handrail")

		if got, want := bodyText(t, rails.Output.Body), bodyText(t, plain.Output.Body); got != want {
			t.Errorf("handrails changed the text of %q\non:  %q\noff: %q", src, got, want)
		}
		if rails.Output.Head != plain.Output.Head || rails.Output.InitScript != plain.Output.InitScript {
			t.Errorf("handrails changed head or init script of %q", src)
		}
	}
	if hooks == 0 {
		t.Error("handrails enabled but no body has handrail markup")
	}
}

func TestBuild_MalformedInput(t *testing.T) {
	t.Parallel()

	src := ":rsm: Some *bold text ::"
	for _, p := range []string{ParserClassic, ParserAlternate} {
		cfg := DefaultConfig()
		cfg.Parser = p
		res := mustBuild(t, NewBuilder(), src, cfg)

		if !res.HasErrors() {
			t.Fatalf("[%s] expected an error diagnostic", p)
		}
		var found bool
		for _, d := range res.Diagnostics {
			if d.Severity == SeverityError && d.Stage == diag.StageParse {
				found = true
				if d.Span.Start.Offset < strings.Index(src, "*") || d.Span.End.Offset > len(src) {
					t.Errorf("[%s] span %v outside the malformed region", p, d.Span)
				}
			}
		}
		if !found {
			t.Errorf("[%s] no parse error in %v", p, res.Diagnostics)
		}
		if !strings.Contains(res.Output.Body, "bold text") {
			t.Errorf("[%s] partial tree not rendered: %s", p, res.Output.Body)
		}
	}
}

func TestBuild_DiagnosticStageOrder(t *testing.T) {
	t.Parallel()

	// Parse error at the end, lint warning and transform error before it.
	src := ":rsm: See :ref:nowhere::. Then *oops ::"
	res := mustBuild(t, NewBuilder(), src, DefaultConfig())

	rank := map[diag.Stage]int{diag.StageParse: 0, diag.StageLint: 1, diag.StageTransform: 2}
	var stages []diag.Stage
	for _, d := range res.Diagnostics {
		stages = append(stages, d.Stage)
	}
	for i := 1; i < len(stages); i++ {
		if rank[stages[i]] < rank[stages[i-1]] {
			t.Fatalf("stages out of order: %v", stages)
		}
	}
	for _, want := range []diag.Stage{diag.StageParse, diag.StageLint, diag.StageTransform} {
		if !slices.Contains(stages, want) {
			t.Errorf("no %s diagnostic in %v", want, res.Diagnostics)
		}
	}
}

func TestBuild_LintToggle(t *testing.T) {
	t.Parallel()

	src := ":rsm:\n## \n\nText.\n::"
	on := mustBuild(t, NewBuilder(), src, DefaultConfig())
	cfg := DefaultConfig()
	cfg.Lint = false
	off := mustBuild(t, NewBuilder(), src, cfg)

	if diag.Count(on.Diagnostics, diag.Warning) == 0 {
		t.Error("lint enabled but no warnings reported")
	}
	for _, d := range off.Diagnostics {
		if d.Stage == diag.StageLint {
			t.Errorf("lint disabled but got %v", d)
		}
	}
	if on.Output != off.Output {
		t.Error("linting changed the rendered output")
	}
}

func TestBuild_DisabledRule(t *testing.T) {
	t.Parallel()

	src := ":rsm:\n## \n\nText.\n::"
	cfg := DefaultConfig()
	cfg.DisabledRules = []string{"section-title"}
	res := mustBuild(t, NewBuilder(), src, cfg)

	for _, d := range res.Diagnostics {
		if d.Rule == "section-title" {
			t.Errorf("disabled rule reported: %v", d)
		}
	}
}

func TestBuild_ContentAssets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		want   []string
		absent []string
	}{
		{
			name:   "plain text",
			src:    helloWorld,
			absent: []string{"mathjax", "highlight.css", "tooltips.js"},
		},
		{
			name:   "math",
			src:    ":rsm: Inline $x$. ::",
			want:   []string{"mathjax"},
			absent: []string{"highlight.css", "tooltips.js"},
		},
		{
			name:   "codeblock",
			src:    ":rsm:\n:codeblock:\nx\n::\n::",
			want:   []string{"highlight.css"},
			absent: []string{"mathjax", "tooltips.js"},
		},
		{
			name:   "note",
			src:    ":rsm: Text :note: aside ::. ::",
			want:   []string{"tooltips.js"},
			absent: []string{"mathjax", "highlight.css"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := mustBuild(t, NewBuilder(), tt.src, DefaultConfig())
			for _, w := range tt.want {
				if !strings.Contains(res.Output.Head, w) {
					t.Errorf("head missing %s:\n%s", w, res.Output.Head)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(res.Output.Head, a) {
					t.Errorf("head should not contain %s:\n%s", a, res.Output.Head)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Fatal conditions
// ---------------------------------------------------------------------------

func TestBuild_UnknownExtraAsset(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ExtraAssets = []string{"no-such-asset"}
	res, err := NewBuilder().Build(context.Background(), Source{Text: helloWorld}, cfg)

	if res != nil {
		t.Error("expected no result")
	}
	if !errors.Is(err, ErrAssetResolution) {
		t.Errorf("error = %v, want ErrAssetResolution", err)
	}
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("error = %v, want ErrAssetNotFound", err)
	}
}

func TestBuild_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"unknown parser", func(c *Config) { c.Parser = "pegasus" }, ErrUnknownParser},
		{"negative verbosity", func(c *Config) { c.Verbosity = -1 }, ErrInvalidVerbose},
		{"verbosity too high", func(c *Config) { c.Verbosity = MaxVerbosity + 1 }, ErrInvalidVerbose},
		{"static path without slash", func(c *Config) { c.StaticPath = "/static" }, ErrInvalidConfig},
		{"bad extra asset name", func(c *Config) { c.ExtraAssets = []string{"../etc"} }, ErrInvalidAssetName},
		{"unknown lint rule", func(c *Config) { c.DisabledRules = []string{"no-such-rule"} }, ErrUnknownRule},
		{"missing asset dir", func(c *Config) { c.AssetDir = "/nonexistent/rsm-assets" }, ErrInvalidAssetPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			res, err := NewBuilder().Build(context.Background(), Source{Text: helloWorld}, cfg)
			if res != nil {
				t.Error("expected no result")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestBuild_EmptySource(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "  \n", "\t\n\n "} {
		res, err := NewBuilder().Build(context.Background(), Source{Name: "empty.rsm", Text: text}, DefaultConfig())
		if err != nil {
			t.Fatalf("Build(%q) error = %v, want diagnostics", text, err)
		}
		if !res.HasErrors() {
			t.Fatalf("Build(%q) reported no error diagnostics", text)
		}
		found := false
		for _, d := range res.Diagnostics {
			found = found || strings.Contains(d.Message, "manuscript must begin with :rsm:")
		}
		if !found {
			t.Errorf("Build(%q) diagnostics = %v, want missing root tag", text, res.Diagnostics)
		}
	}
}

func TestBuild_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewBuilder().Build(ctx, Source{Text: helloWorld}, DefaultConfig())
	if res != nil || !errors.Is(err, context.Canceled) {
		t.Errorf("Build() = %v, %v; want nil, context.Canceled", res, err)
	}
}

func TestBuild_PanicRecovered(t *testing.T) {
	t.Parallel()

	b := NewBuilder(WithResolver(&mockResolver{panics: true}))
	res, err := b.Build(context.Background(), Source{Text: helloWorld}, DefaultConfig())
	if res != nil {
		t.Error("expected no result")
	}
	if !errors.Is(err, ErrInternal) {
		t.Errorf("error = %v, want ErrInternal", err)
	}
}

// ---------------------------------------------------------------------------
// Collaborators
// ---------------------------------------------------------------------------

func TestBuild_CustomResolver(t *testing.T) {
	t.Parallel()

	m := &mockResolver{entries: map[string]AssetEntry{
		"jquery":          {Name: "jquery", Kind: AssetScript, Content: "https://cdn.example/jq.js"},
		"tooltipster-js":  {Name: "tooltipster-js", Kind: AssetScript, Content: "/t.js"},
		"tooltipster-css": {Name: "tooltipster-css", Kind: AssetStyle, Content: "/t.css"},
		"rsm-css":         {Name: "rsm-css", Kind: AssetInline, Type: "text/css", Content: "body{}"},
	}}
	res := mustBuild(t, NewBuilder(WithResolver(m)), helloWorld, DefaultConfig())

	if len(m.calls) != 1 {
		t.Fatalf("resolver called %d times, want 1", len(m.calls))
	}
	for _, want := range []string{"https://cdn.example/jq.js", "/t.css", "<style", "body{}"} {
		if !strings.Contains(res.Output.Head, want) {
			t.Errorf("head missing %q:\n%s", want, res.Output.Head)
		}
	}
}

func TestBuild_CustomResolverError(t *testing.T) {
	t.Parallel()

	boom := errors.New("index offline")
	b := NewBuilder(WithResolver(&mockResolver{err: boom}))
	_, err := b.Build(context.Background(), Source{Text: helloWorld}, DefaultConfig())
	if !errors.Is(err, boom) || !errors.Is(err, ErrAssetResolution) {
		t.Errorf("error = %v, want wrapped %v and ErrAssetResolution", err, boom)
	}
}

func TestBuild_AssetDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "rsm-css.css"), []byte(".local{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.AssetDir = dir
	res := mustBuild(t, NewBuilder(), helloWorld, cfg)

	if !strings.Contains(res.Output.Head, ".local{}") {
		t.Errorf("head missing inlined local stylesheet:\n%s", res.Output.Head)
	}
	if !strings.Contains(res.Output.Head, "jquery-3.6.0.js") {
		t.Errorf("head missing manifest fallback:\n%s", res.Output.Head)
	}
}

func TestBuild_Logger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := DefaultConfig()
	cfg.Verbosity = 2
	mustBuild(t, NewBuilder(WithLogger(logger)), ":rsm: See :ref:nowhere::. ::", cfg)

	out := buf.String()
	for _, want := range []string{"stage=parse", "stage=lint", "stage=transform", "stage=render", "unresolved reference"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestBuild_Quiet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mustBuild(t, NewBuilder(WithLogger(logger)), ":rsm: See :ref:nowhere::. ::", DefaultConfig())
	if buf.Len() != 0 {
		t.Errorf("verbosity 0 logged:\n%s", buf.String())
	}
}

func TestBuilder_Concurrent(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	srcs := []string{helloWorld, ":rsm: Inline $x$. ::", ":rsm:\n## A\n\nText.\n::"}
	want := make([]Output, len(srcs))
	for i, s := range srcs {
		want[i] = mustBuild(t, b, s, DefaultConfig()).Output
	}

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := i % len(srcs)
			res, err := b.Build(context.Background(), Source{Text: srcs[k]}, DefaultConfig())
			if err != nil {
				errs <- err.Error()
				return
			}
			if res.Output != want[k] {
				errs <- "concurrent build diverged"
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestLint(t *testing.T) {
	t.Parallel()

	diags, err := NewBuilder().Lint(context.Background(), Source{Text: ":rsm:\n## \n\nText.\n::"}, DefaultConfig())
	if err != nil {
		t.Fatalf("Lint() error = %v", err)
	}
	if len(diags) == 0 {
		t.Error("expected lint diagnostics")
	}
}

func TestNewAssetResolver(t *testing.T) {
	t.Parallel()

	r, err := NewAssetResolver("", "")
	if err != nil {
		t.Fatalf("NewAssetResolver() error = %v", err)
	}
	entries, err := r.Resolve([]string{"rsm-css", "jquery"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "jquery" || entries[0].Kind != AssetScript {
		t.Errorf("entries = %+v, want jquery first as script", entries)
	}

	_, err = r.Resolve([]string{"missing"})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("error = %v, want ErrAssetNotFound", err)
	}

	_, err = NewAssetResolver("", "static")
	if !errors.Is(err, ErrInvalidAssetPath) {
		t.Errorf("error = %v, want ErrInvalidAssetPath", err)
	}
}
