package rsm

import (
	"errors"

	"github.com/alnah/go-rsm/internal/assets"
)

// AssetKind says how an entry is written into the head.
type AssetKind string

// Asset kinds.
const (
	AssetScript AssetKind = AssetKind(assets.KindScript)
	AssetStyle  AssetKind = AssetKind(assets.KindStyle)
	AssetInline AssetKind = AssetKind(assets.KindInline)
)

// AssetEntry is one resolved head dependency.
type AssetEntry struct {
	Name    string
	Kind    AssetKind
	Content string // URL for scripts and styles, literal text for inline entries
	Type    string // "text/css" or "text/javascript" for inline entries
	Async   bool
}

// AssetResolver maps logical asset names to head entries.
// Implementations may read from the embedded manifest, a directory, a CDN
// index, a database, etc.
//
// Resolve must return entries in a stable order for a given set of names and
// report unknown names with an error wrapping ErrAssetNotFound. It may be
// called from several goroutines at once.
type AssetResolver interface {
	Resolve(names []string) ([]AssetEntry, error)
}

// NewAssetResolver creates the resolver a build uses by default.
// If dir is empty, names resolve against the embedded manifest only.
// If dir is set, files in it take precedence with fallback to the manifest.
//
// The directory holds one file per asset name, name.css or name.js, whose
// content is inlined into the head.
//
// Returns ErrInvalidAssetPath if dir is set but not a readable directory, or
// if staticPath is malformed.
func NewAssetResolver(dir, staticPath string) (AssetResolver, error) {
	if staticPath == "" {
		staticPath = DefaultStaticPath
	}
	r, err := assets.NewResolver(dir, staticPath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &internalResolverAdapter{resolver: r}, nil
}

// internalResolverAdapter exposes an internal resolver with public types.
type internalResolverAdapter struct {
	resolver assets.Resolver
}

func (a *internalResolverAdapter) Resolve(names []string) ([]AssetEntry, error) {
	entries, err := a.resolver.Resolve(names)
	if err != nil {
		return nil, convertAssetError(err)
	}
	out := make([]AssetEntry, len(entries))
	for i, e := range entries {
		out[i] = AssetEntry{
			Name:    e.Name,
			Kind:    AssetKind(e.Kind),
			Content: e.Content,
			Type:    e.Type,
			Async:   e.Async,
		}
	}
	return out, nil
}

// publicResolverAdapter lets the renderer use a caller-supplied resolver.
type publicResolverAdapter struct {
	pub AssetResolver
}

func (a *publicResolverAdapter) Resolve(names []string) ([]assets.Entry, error) {
	entries, err := a.pub.Resolve(names)
	if err != nil {
		return nil, err
	}
	out := make([]assets.Entry, len(entries))
	for i, e := range entries {
		out[i] = assets.Entry{
			Name:    e.Name,
			Kind:    assets.Kind(e.Kind),
			Content: e.Content,
			Type:    e.Type,
			Async:   e.Async,
		}
	}
	return out, nil
}

// internalResolver unwraps adapters built by NewAssetResolver so the renderer
// talks to the internal resolver directly.
func internalResolver(r AssetResolver) assets.Resolver {
	if a, ok := r.(*internalResolverAdapter); ok {
		return a.resolver
	}
	return &publicResolverAdapter{pub: r}
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, assets.ErrAssetNotFound):
		return wrapError(ErrAssetNotFound, err)
	case errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrInvalidAssetName, err)
	case errors.Is(err, assets.ErrInvalidBasePath), errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	default:
		return err
	}
}

// wrapError returns an error that keeps the original message and matches the
// public sentinel with errors.Is.
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

// Unwrap returns the public sentinel only; internal errors stay hidden.
func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}
