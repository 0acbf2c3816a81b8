package assets

import (
	"errors"
	"fmt"
)

// FallbackResolver tries a primary resolver first and falls back to a
// secondary one for names the primary does not have. Only ErrAssetNotFound
// triggers the fallback; validation and I/O errors are returned as is.
type FallbackResolver struct {
	primary   Resolver
	secondary Resolver
}

// NewFallbackResolver combines primary and secondary.
func NewFallbackResolver(primary, secondary Resolver) *FallbackResolver {
	return &FallbackResolver{primary: primary, secondary: secondary}
}

// NewResolver builds the resolver for a configuration: the manifest alone
// when dir is empty, otherwise the directory with the manifest behind it.
func NewResolver(dir, base string) (Resolver, error) {
	manifest, err := NewManifestResolver(base)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return manifest, nil
	}
	disk, err := NewDiskResolver(dir)
	if err != nil {
		return nil, err
	}
	return NewFallbackResolver(disk, manifest), nil
}

// Resolve resolves names one at a time so each name can fall back on its own,
// then returns them in canonical order.
func (f *FallbackResolver) Resolve(names []string) ([]Entry, error) {
	var (
		out     []Entry
		missing []string
	)
	for _, name := range canonical(names) {
		e, err := f.one(name)
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

func (f *FallbackResolver) one(name string) (Entry, error) {
	es, err := f.primary.Resolve([]string{name})
	if err == nil && len(es) == 1 {
		return es[0], nil
	}
	if err != nil && !errors.Is(err, ErrAssetNotFound) {
		return Entry{}, err
	}
	es, err = f.secondary.Resolve([]string{name})
	if err != nil {
		return Entry{}, err
	}
	if len(es) != 1 {
		return Entry{}, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	return es[0], nil
}

// Compile-time interface check.
var _ Resolver = (*FallbackResolver)(nil)
