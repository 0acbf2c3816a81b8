package assets

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/alnah/go-rsm/internal/yamlutil"
)

//go:embed manifest.yaml
var manifestYAML []byte

type manifestAsset struct {
	Name  string `yaml:"name"`
	Kind  Kind   `yaml:"kind"`
	Src   string `yaml:"src"`
	Async bool   `yaml:"async"`
}

type manifestFile struct {
	Assets []manifestAsset `yaml:"assets"`
}

var (
	manifestOnce  sync.Once
	manifestList  []manifestAsset
	manifestErr   error
	manifestOrder map[string]int
)

func loadManifest() ([]manifestAsset, error) {
	manifestOnce.Do(func() {
		var m manifestFile
		if err := yamlutil.UnmarshalStrict(manifestYAML, &m); err != nil {
			manifestErr = fmt.Errorf("%w: %v", ErrInvalidManifest, err)
			return
		}
		manifestOrder = make(map[string]int, len(m.Assets))
		for i, a := range m.Assets {
			if err := ValidateAssetName(a.Name); err != nil {
				manifestErr = fmt.Errorf("%w: %v", ErrInvalidManifest, err)
				return
			}
			if a.Kind != KindScript && a.Kind != KindStyle {
				manifestErr = fmt.Errorf("%w: %s has kind %q", ErrInvalidManifest, a.Name, a.Kind)
				return
			}
			manifestOrder[a.Name] = i
		}
		manifestList = m.Assets
	})
	return manifestList, manifestErr
}

// manifestIndex is the position of name in the manifest, or a value past
// the end for unknown names.
func manifestIndex(name string) int {
	if _, err := loadManifest(); err != nil {
		return 0
	}
	if i, ok := manifestOrder[name]; ok {
		return i
	}
	return len(manifestOrder)
}

// ManifestResolver resolves names against the embedded manifest. Relative
// sources are prefixed with the static base path.
type ManifestResolver struct {
	base    string
	entries map[string]Entry
}

// NewManifestResolver creates a resolver whose relative references live
// under base, for example "/static/".
func NewManifestResolver(base string) (*ManifestResolver, error) {
	if err := ValidateBasePath(base); err != nil {
		return nil, err
	}
	list, err := loadManifest()
	if err != nil {
		return nil, err
	}
	r := &ManifestResolver{base: base, entries: make(map[string]Entry, len(list))}
	for _, a := range list {
		src := a.Src
		if !strings.Contains(src, "://") {
			src = base + src
		}
		r.entries[a.Name] = Entry{Name: a.Name, Kind: a.Kind, Content: src, Async: a.Async}
	}
	return r, nil
}

// Names returns the manifest names in order.
func (r *ManifestResolver) Names() []string {
	list, _ := loadManifest()
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name
	}
	return names
}

// Has reports whether name is in the manifest.
func (r *ManifestResolver) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Resolve returns the entries for names in manifest order.
func (r *ManifestResolver) Resolve(names []string) ([]Entry, error) {
	var (
		out     []Entry
		missing []string
	)
	for _, name := range canonical(names) {
		e, ok := r.entries[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out = append(out, e)
	}
	if len(missing) > 0 {
		return nil, notFound(missing)
	}
	return out, nil
}

// Compile-time interface check.
var _ Resolver = (*ManifestResolver)(nil)
