package rsm

import "errors"

// Sentinel errors for library operations.
var (
	ErrInternal = errors.New("internal error")

	// Configuration errors. All are fatal and reported before any stage runs.
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrUnknownParser  = errors.New("unknown parser backend")
	ErrUnknownRule    = errors.New("unknown lint rule")
	ErrInvalidVerbose = errors.New("invalid verbosity")

	// Asset errors.
	ErrAssetNotFound    = errors.New("asset not found")
	ErrInvalidAssetName = errors.New("invalid asset name")
	ErrInvalidAssetPath = errors.New("invalid asset path")
	ErrAssetResolution  = errors.New("asset resolution failed")
)
