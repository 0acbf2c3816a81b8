package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskResolver reads assets from a directory and inlines them. A name
// resolves to {dir}/{name}.css as a style or {dir}/{name}.js as a script,
// CSS first.
type DiskResolver struct {
	basePath string
}

// NewDiskResolver creates a DiskResolver for dir.
// Returns ErrInvalidBasePath if the path is not a readable directory.
func NewDiskResolver(dir string) (*DiskResolver, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}

	// Containment checks compare real paths.
	if realPath, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = realPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, absPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, absPath)
	}
	if _, err := os.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &DiskResolver{basePath: absPath}, nil
}

// Dir returns the resolved directory.
func (d *DiskResolver) Dir() string {
	return d.basePath
}

// Resolve reads every requested asset. Missing files are collected into one
// ErrAssetNotFound; read failures abort immediately.
func (d *DiskResolver) Resolve(names []string) ([]Entry, error) {
	var (
		out     []Entry
		missing []string
	)
	for _, name := range canonical(names) {
		e, err := d.load(name)
		if errors.Is(err, ErrAssetNotFound) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if len(missing) > 0 {
		return nil, notFound(missing)
	}
	return out, nil
}

func (d *DiskResolver) load(name string) (Entry, error) {
	if err := ValidateAssetName(name); err != nil {
		return Entry{}, err
	}

	for _, c := range []struct{ ext, typ string }{{".css", TypeCSS}, {".js", TypeJS}} {
		filePath := filepath.Join(d.basePath, name+c.ext)
		if err := d.verifyPathContainment(filePath); err != nil {
			return Entry{}, err
		}

		content, err := os.ReadFile(filePath) // #nosec G304 -- path validated above
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrAssetRead, err)
		}
		return Entry{Name: name, Kind: KindInline, Content: string(content), Type: c.typ}, nil
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
}

// verifyPathContainment ensures the resolved file path is within basePath,
// following symlinks so a link cannot point outside it.
func (d *DiskResolver) verifyPathContainment(filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathTraversal)
	}

	// A missing file keeps its unresolved path; opening it fails later.
	if realPath, err := filepath.EvalSymlinks(absFilePath); err == nil {
		absFilePath = realPath
	}

	if !strings.HasPrefix(absFilePath, d.basePath+string(filepath.Separator)) {
		return fmt.Errorf("%w: path escapes base directory", ErrPathTraversal)
	}
	return nil
}

// Compile-time interface check.
var _ Resolver = (*DiskResolver)(nil)
