package main

// Notes:
// - run/runMain: we test command dispatch, help and version output, and the
//   error line format. Build behavior is covered in make_test.go.
// - poolAdapter: we test Size and the panic on a foreign exporter. Acquire is
//   exercised without a browser because exporters start Chrome lazily.
// - serve: started with a cancelled context so it returns without blocking.

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-rsm/internal/pdf"
)

// ---------------------------------------------------------------------------
// TestRun_Dispatch - Commands, help and version
// ---------------------------------------------------------------------------

func TestRun_Dispatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		code       int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitUsage, "", "Usage: rsm <command>"},
		{"version", []string{"version"}, ExitSuccess, "rsm dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help make", []string{"help", "make"}, ExitSuccess, "--treesitter", ""},
		{"help lint", []string{"help", "lint"}, ExitSuccess, "Usage: rsm lint", ""},
		{"help serve", []string{"help", "serve"}, ExitSuccess, "--static-dir", ""},
		{"help doctor", []string{"help", "doctor"}, ExitSuccess, "rsm doctor", ""},
		{"help completion", []string{"help", "completion"}, ExitSuccess, "Usage: rsm completion", ""},
		{"completion", []string{"completion", "zsh"}, ExitSuccess, "#compdef rsm", ""},
		{"completion unknown shell", []string{"completion", "tcsh"}, ExitUsage, "", "unsupported shell"},
		{"help unknown", []string{"help", "bogus"}, ExitUsage, "", "unknown command"},
		{"make -h", []string{"make", "-h"}, ExitSuccess, "Usage: rsm make", ""},
		{"lint --help", []string{"lint", "--help"}, ExitSuccess, "Usage: rsm lint", ""},
		{"unknown", []string{"bogus"}, ExitUsage, "", "error: invalid usage: unknown command \"bogus\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, stdout, stderr := newTestEnv()
			if code := runMain(tt.args, env); code != tt.code {
				t.Errorf("exit = %d, want %d\nstderr:\n%s", code, tt.code, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout.String())
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestLooksLikeManuscript(t *testing.T) {
	t.Parallel()

	for arg, want := range map[string]bool{
		"paper.rsm":      true,
		"dir/paper.rsm":  true,
		"make":           false,
		"paper.rsm.html": false,
		"notes.md":       false,
	} {
		if got := looksLikeManuscript(arg); got != want {
			t.Errorf("looksLikeManuscript(%q) = %v, want %v", arg, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestPoolAdapter - pdf.Pool behind the exporterPool interface
// ---------------------------------------------------------------------------

func TestPoolAdapter(t *testing.T) {
	t.Parallel()

	adapter := &poolAdapter{pool: pdf.NewPool(2, 0)}
	defer adapter.Close()

	if adapter.Size() != 2 {
		t.Errorf("Size() = %d, want 2", adapter.Size())
	}
	e := adapter.Acquire()
	if e == nil {
		t.Fatal("Acquire() = nil")
	}
	adapter.Release(e)
}

func TestPoolAdapter_ReleaseWrongType(t *testing.T) {
	t.Parallel()

	adapter := &poolAdapter{pool: pdf.NewPool(1, 0)}
	defer adapter.Close()

	defer func() {
		r := recover()
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "unexpected type") {
			t.Fatalf("recover() = %v, want unexpected type panic", r)
		}
	}()
	adapter.Release(&fakeExporter{})
}

func TestPoolAdapter_AcquireAfterClose(t *testing.T) {
	t.Parallel()

	adapter := &poolAdapter{pool: pdf.NewPool(1, 0)}
	_ = adapter.Close()
	if e := adapter.Acquire(); e != nil {
		t.Errorf("Acquire() after Close = %v, want nil interface", e)
	}
}

// ---------------------------------------------------------------------------
// TestServe - Argument checks and shutdown
// ---------------------------------------------------------------------------

func TestServe_Args(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "paper.rsm"), cleanSource)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no input", []string{"serve"}, ExitUsage},
		{"two inputs", []string{"serve", in, in}, ExitUsage},
		{"bad interval", []string{"serve", "--interval", "1ms", in}, ExitUsage},
		{"missing static dir", []string{"serve", "--static-dir", filepath.Join(dir, "nope"), in}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _, stderr := newTestEnv()
			if code := runMain(tt.args, env); code != tt.want {
				t.Errorf("exit = %d, want %d\nstderr:\n%s", code, tt.want, stderr.String())
			}
		})
	}
}

func TestServe_CancelledContext(t *testing.T) {
	t.Parallel()

	in := writeFile(t, filepath.Join(t.TempDir(), "paper.rsm"), cleanSource)
	env, _, stderr := newTestEnv()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := run(ctx, []string{"serve", "--addr", "127.0.0.1:0", in}, env); err != nil {
		t.Errorf("run() = %v", err)
	}
	if !strings.Contains(stderr.String(), "Serving "+in) {
		t.Errorf("stderr = %q", stderr.String())
	}
}
