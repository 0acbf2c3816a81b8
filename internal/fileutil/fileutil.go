// Package fileutil holds the file helpers shared by the CLI, the PDF exporter
// and the dev server.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrExtensionEmpty         = errors.New("extension cannot be empty")
	ErrExtensionPathTraversal = errors.New("extension contains path separator or null byte")
)

// outputMode is applied to written documents; they are meant to be served.
const outputMode = 0o644

// ValidateExtension rejects extensions that could escape a file name.
func ValidateExtension(extension string) error {
	switch {
	case extension == "":
		return ErrExtensionEmpty
	case strings.ContainsAny(extension, "/\\\x00"):
		return ErrExtensionPathTraversal
	}
	return nil
}

// WriteTempFile stores content in a fresh file under the system temp
// directory. The caller runs cleanup once done with path.
func WriteTempFile(content, extension string) (path string, cleanup func(), err error) {
	if err := ValidateExtension(extension); err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp("", "rsm-*."+extension)
	if err != nil {
		return "", nil, fmt.Errorf("creating temp file: %w", err)
	}
	path = f.Name()
	cleanup = func() { _ = os.Remove(path) }

	if err := fill(f, []byte(content)); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// WriteFile replaces path with data, creating missing parent directories.
// The data lands in a sibling temp file first and is renamed into place, so
// a watcher or browser never reads a half-written document.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmp := f.Name()
	if err := fill(f, data); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmp, outputMode); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// fill writes data to f and closes it.
func fill(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return nil
}

// FileExists reports whether path is an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// OutputPath swaps the extension of input for extension. The result sits
// next to input unless outDir is set.
//
//	("paper.rsm", "", "html")         -> "paper.html"
//	("docs/paper.rsm", "out", "pdf")  -> "out/paper.pdf"
func OutputPath(input, outDir, extension string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, base+"."+extension)
}
