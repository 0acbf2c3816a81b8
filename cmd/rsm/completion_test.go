package main

// Notes:
// - GenerateCompletion: we check each script for its shell's markers and for
//   every command, flag and enum value. Running the scripts inside the shells
//   themselves is out of reach for unit tests.
// - getCommands: flags come from the same FlagSets the commands parse, so a
//   flag added to make/lint/serve shows up here without extra wiring.

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/alnah/go-rsm/internal/lint"
	"github.com/alnah/go-rsm/internal/parser"
)

func generate(t *testing.T, shell Shell) string {
	t.Helper()
	var buf bytes.Buffer
	if err := GenerateCompletion(&buf, shell); err != nil {
		t.Fatalf("GenerateCompletion(%q) error = %v", shell, err)
	}
	if buf.Len() == 0 {
		t.Fatalf("GenerateCompletion(%q) produced empty output", shell)
	}
	return buf.String()
}

func command(t *testing.T, name string) commandDef {
	t.Helper()
	for _, c := range getCommands() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("command %q not found", name)
	return commandDef{}
}

func flagByName(t *testing.T, c commandDef, long string) flagDef {
	t.Helper()
	for _, f := range c.Flags {
		if f.Long == long {
			return f
		}
	}
	t.Fatalf("%s: flag --%s not found", c.Name, long)
	return flagDef{}
}

// ---------------------------------------------------------------------------
// TestGenerateCompletion_SupportedShells - Shell markers
// ---------------------------------------------------------------------------

func TestGenerateCompletion_SupportedShells(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell Shell
		want  []string
	}{
		{ShellBash, []string{"_rsm_completions", "complete -F _rsm_completions rsm", "compgen", "--output|-o", "--parser", "compgen -d", "'!*.rsm'"}},
		{ShellZsh, []string{"#compdef rsm", "_rsm", "_arguments", "_describe", `_files -g "*.rsm"`, "_files -/", `_files -g "*.(yaml|yml)"`}},
		{ShellFish, []string{"complete -c rsm", "__fish_rsm_needs_command", "__fish_rsm_using_command", "-l output", "-s t -l treesitter", "__fish_complete_suffix .rsm", "__fish_complete_directories"}},
		{ShellPowerShell, []string{"Register-ArgumentCompleter", "-CommandName rsm", "CompletionResult", "'--parser' = @('classic', 'alternate')"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.shell), func(t *testing.T) {
			t.Parallel()
			out := generate(t, tt.shell)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q", w)
				}
			}
		})
	}
}

func TestGenerateCompletion_AllCommandsAndEnums(t *testing.T) {
	t.Parallel()

	values := append(parser.Backends(), lint.RuleNames()...)
	values = append(values, "jquery", "mathjax")

	for _, shell := range []Shell{ShellBash, ShellZsh, ShellFish, ShellPowerShell} {
		out := generate(t, shell)
		for _, c := range getCommands() {
			if !strings.Contains(out, c.Name) {
				t.Errorf("%s: missing command %q", shell, c.Name)
			}
		}
		for _, v := range values {
			if !strings.Contains(out, v) {
				t.Errorf("%s: missing enum value %q", shell, v)
			}
		}
	}
}

func TestGenerateCompletion_UnsupportedShell(t *testing.T) {
	t.Parallel()

	for _, shell := range []Shell{"", "tcsh", "BASH", "cmd.exe"} {
		var buf bytes.Buffer
		err := GenerateCompletion(&buf, shell)
		if !errors.Is(err, ErrUnsupportedShell) {
			t.Errorf("GenerateCompletion(%q) error = %v, want ErrUnsupportedShell", shell, err)
		}
		if buf.Len() != 0 {
			t.Errorf("GenerateCompletion(%q) wrote output on error", shell)
		}
	}
}

// ---------------------------------------------------------------------------
// TestGetCommands - Command and flag definitions
// ---------------------------------------------------------------------------

func TestGetCommands(t *testing.T) {
	t.Parallel()

	var names []string
	for _, c := range getCommands() {
		names = append(names, c.Name)
	}
	want := []string{"make", "lint", "serve", "doctor", "version", "help", "completion"}
	if !slices.Equal(names, want) {
		t.Errorf("commands = %v, want %v", names, want)
	}

	for _, name := range []string{"make", "lint", "serve"} {
		c := command(t, name)
		if !c.TakesFiles || c.FilePattern != "*.rsm" {
			t.Errorf("%s: TakesFiles=%v FilePattern=%q", name, c.TakesFiles, c.FilePattern)
		}
	}
	if got := command(t, "help").Args; !slices.Equal(got, want) {
		t.Errorf("help args = %v, want %v", got, want)
	}
	if got := command(t, "completion").Args; !slices.Equal(got, []string{"bash", "zsh", "fish", "powershell"}) {
		t.Errorf("completion args = %v", got)
	}
}

func TestGetCommands_FlagTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command    string
		flag       string
		short      string
		typ        flagType
		repeatable bool
	}{
		{"make", "output", "o", flagDir, false},
		{"make", "workers", "w", flagInt, false},
		{"make", "pdf", "", flagBool, false},
		{"make", "config", "c", flagFile, false},
		{"make", "verbose", "v", flagBool, true},
		{"make", "parser", "", flagEnum, false},
		{"make", "asset", "", flagEnum, true},
		{"make", "asset-dir", "", flagDir, false},
		{"make", "static-path", "", flagString, false},
		{"lint", "disable-rule", "", flagEnum, true},
		{"lint", "treesitter", "t", flagBool, false},
		{"serve", "static-dir", "", flagDir, false},
		{"serve", "addr", "", flagString, false},
		{"doctor", "json", "", flagBool, false},
	}

	for _, tt := range tests {
		f := flagByName(t, command(t, tt.command), tt.flag)
		if f.Short != tt.short || f.Type != tt.typ || f.Repeatable != tt.repeatable {
			t.Errorf("%s --%s = {short %q type %v repeatable %v}, want {%q %v %v}",
				tt.command, tt.flag, f.Short, f.Type, f.Repeatable, tt.short, tt.typ, tt.repeatable)
		}
	}

	if f := flagByName(t, command(t, "make"), "parser"); !slices.Equal(f.Values, []string{"classic", "alternate"}) {
		t.Errorf("--parser values = %v", f.Values)
	}
	if f := flagByName(t, command(t, "make"), "config"); f.FileGlob != "*.yaml,*.yml" {
		t.Errorf("--config glob = %q", f.FileGlob)
	}
	if c := command(t, "serve"); slices.ContainsFunc(c.Flags, func(f flagDef) bool { return f.Long == "pdf" }) {
		t.Error("serve lists make-only flag --pdf")
	}
}

// ---------------------------------------------------------------------------
// TestZshSpec - Argument spec quoting
// ---------------------------------------------------------------------------

func TestZshSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		flag flagDef
		want string
	}{
		{flagDef{Long: "pdf", Type: flagBool, Desc: "print to PDF"}, `'--pdf[print to PDF]'`},
		{flagDef{Long: "quiet", Short: "q", Type: flagBool, Desc: "only errors"}, `'(-q --quiet)'{-q,--quiet}'[only errors]'`},
		{flagDef{Long: "verbose", Short: "v", Type: flagBool, Repeatable: true, Desc: "more"}, `'*'{-v,--verbose}'[more]'`},
		{flagDef{Long: "parser", Type: flagEnum, Values: []string{"classic", "alternate"}, Desc: "backend: a [b]"}, `'--parser[backend\: a \[b\]]:parser:(classic alternate)'`},
		{flagDef{Long: "asset-dir", Type: flagDir, Desc: "dir"}, `'--asset-dir[dir]:directory:_files -/'`},
		{flagDef{Long: "addr", Type: flagString, Desc: "it's here"}, `'--addr[it'\''s here]:value: '`},
	}

	for _, tt := range tests {
		if got := zshSpec(tt.flag); got != tt.want {
			t.Errorf("zshSpec(--%s) = %s, want %s", tt.flag.Long, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunCompletion - Command entry point
// ---------------------------------------------------------------------------

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	env, stdout, _ := newTestEnv()
	if err := runCompletion(nil, env); err != nil {
		t.Fatalf("runCompletion() error = %v", err)
	}
	for _, want := range []string{"Usage: rsm completion", "bash", "zsh", "fish", "powershell", "Installation"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}

	env, stdout, _ = newTestEnv()
	if err := runCompletion([]string{"fish"}, env); err != nil {
		t.Fatalf("runCompletion(fish) error = %v", err)
	}
	if !strings.Contains(stdout.String(), "complete -c rsm") {
		t.Error("fish script not written to stdout")
	}

	env, _, _ = newTestEnv()
	if err := runCompletion([]string{"tcsh"}, env); !errors.Is(err, ErrUnsupportedShell) {
		t.Errorf("runCompletion(tcsh) error = %v, want ErrUnsupportedShell", err)
	}
}
