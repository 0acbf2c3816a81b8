package fileutil_test

// Notes:
// - TestWriteTempFile_CreateTempError sets TMPDIR and cannot run in parallel.
// - The write and close error branches of fill are not tested; triggering
//   disk write failures is platform-specific.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-rsm/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ext     string
		wantErr error
	}{
		{"html", "html", nil},
		{"pdf", "pdf", nil},
		{"empty", "", fileutil.ErrExtensionEmpty},
		{"slash", "a/b", fileutil.ErrExtensionPathTraversal},
		{"backslash", `a\b`, fileutil.ErrExtensionPathTraversal},
		{"null byte", "ht\x00ml", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := fileutil.ValidateExtension(tt.ext)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.ext, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	content := "<!DOCTYPE html><html><body>manuscript</body></html>"
	path, cleanup, err := fileutil.WriteTempFile(content, "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}
	defer cleanup()

	if !strings.HasPrefix(filepath.Base(path), "rsm-") || !strings.HasSuffix(path, ".html") {
		t.Errorf("path = %q, want rsm-*.html", path)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Errorf("content = %q, want %q", got, content)
	}

	cleanup()
	if fileutil.FileExists(path) {
		t.Error("cleanup did not remove the file")
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := fileutil.WriteTempFile("x", "../html")
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("error = %v, want ErrExtensionPathTraversal", err)
	}
	if cleanup != nil {
		t.Error("cleanup should be nil on error")
	}
}

func TestWriteTempFile_CreateTempError(t *testing.T) {
	t.Setenv("TMPDIR", filepath.Join(t.TempDir(), "missing"))

	_, _, err := fileutil.WriteTempFile("x", "html")
	if err == nil || !strings.Contains(err.Error(), "creating temp file") {
		t.Errorf("error = %v, want creating temp file error", err)
	}
}

// ---------------------------------------------------------------------------
// TestFileExists
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "paper.rsm")
	if err := os.WriteFile(file, []byte(":rsm: ::"), 0o600); err != nil {
		t.Fatal(err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true")
	}
	if fileutil.FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists(missing) = true")
	}
}

// ---------------------------------------------------------------------------
// TestOutputPath
// ---------------------------------------------------------------------------

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, outDir, ext, want string
	}{
		{"paper.rsm", "", "html", "paper.html"},
		{filepath.Join("docs", "paper.rsm"), "", "html", filepath.Join("docs", "paper.html")},
		{filepath.Join("docs", "paper.rsm"), "out", "pdf", filepath.Join("out", "paper.pdf")},
		{"notes", "", "html", "notes.html"},
		{"archive.tar.rsm", "", "html", "archive.tar.html"},
	}

	for _, tt := range tests {
		if got := fileutil.OutputPath(tt.input, tt.outDir, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q, %q) = %q, want %q", tt.input, tt.outDir, tt.ext, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestWriteFile
// ---------------------------------------------------------------------------

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a", "b", "paper.html")
	if err := fileutil.WriteFile(path, []byte("<html></html>")); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "<html></html>" {
		t.Errorf("read back %q, %v", got, err)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := fileutil.WriteFile(filepath.Join(blocker, "x.html"), nil); err == nil {
		t.Error("expected error when parent is a file")
	}
}

func TestWriteFile_Replaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "paper.html")
	for _, body := range []string{"first version", "second"} {
		if err := fileutil.WriteFile(path, []byte(body)); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	if got, _ := os.ReadFile(path); string(got) != "second" {
		t.Errorf("content = %q, want second", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("leftover files: %v", names)
	}
}
