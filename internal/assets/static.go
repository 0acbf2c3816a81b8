package assets

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var static embed.FS

// Static returns the embedded runtime files, rooted so that "onload.js" is
// at the top level.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic("assets: embedded static directory missing: " + err.Error())
	}
	return sub
}
