// Package assets resolves the logical asset names a rendered manuscript
// needs (scripts and stylesheets) into the entries written to the document
// head.
//
// # Resolver Architecture
//
//	Resolver (interface)
//	    │
//	    ├── ManifestResolver  - fixed embedded manifest, references under a base path
//	    ├── DiskResolver      - reads name.css / name.js from a directory, inlines them
//	    └── FallbackResolver  - disk first, manifest for names the directory lacks
//
// Every resolver returns entries in canonical order (manifest order, then
// unknown names alphabetically) so identical requests always produce
// identical heads. Resolvers are immutable after construction and safe for
// concurrent use.
//
// # Runtime Files
//
// The files the browser loads at runtime (onload.js, rsm.css, tooltips.js)
// are embedded and exposed through Static for the development server.
//
// # Error Handling
//
// A name no resolver knows is fatal: Resolve returns ErrAssetNotFound
// listing every missing name. Directory access is guarded against path
// traversal and symlink escape (ErrPathTraversal).
package assets
