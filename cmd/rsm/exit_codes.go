package main

import (
	"context"
	"errors"
	"os"

	rsm "github.com/alnah/go-rsm"
	"github.com/alnah/go-rsm/internal/assets"
	"github.com/alnah/go-rsm/internal/config"
	"github.com/alnah/go-rsm/internal/hints"
	"github.com/alnah/go-rsm/internal/lint"
	"github.com/alnah/go-rsm/internal/parser"
	"github.com/alnah/go-rsm/internal/pdf"
)

// Exit codes for the rsm CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess     = 0 // Successful build
	ExitGeneral     = 1 // General/unexpected error
	ExitUsage       = 2 // Invalid flags, config, or validation
	ExitIO          = 3 // File not found, permission denied
	ExitBrowser     = 4 // Browser/Chrome errors
	ExitDiagnostics = 5 // Error diagnostics under --strict
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrStrict) {
		return ExitDiagnostics
	}

	// Browser errors (exit 4)
	if errors.Is(err, pdf.ErrBrowserConnect) ||
		errors.Is(err, pdf.ErrPageCreate) ||
		errors.Is(err, pdf.ErrPageLoad) ||
		errors.Is(err, pdf.ErrPDFGeneration) ||
		errors.Is(err, ErrExporterInit) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, rsm.ErrInvalidConfig) ||
		errors.Is(err, rsm.ErrAssetResolution) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, pdf.ErrInvalidPageSize) ||
		errors.Is(err, pdf.ErrInvalidMargin) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error) string {
	switch {
	case errors.Is(err, pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, pdf.ErrPageLoad), errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, config.ErrConfigNotFound):
		var nf *config.NotFoundError
		if errors.As(err, &nf) {
			return hints.ForConfigNotFound(nf.Tried)
		}
		return hints.ForConfigNotFound(nil)
	case errors.Is(err, rsm.ErrAssetNotFound):
		return hints.ForAssetNotFound(manifestNames())
	case errors.Is(err, rsm.ErrInvalidAssetPath):
		return hints.ForAssetDir()
	case errors.Is(err, rsm.ErrUnknownParser):
		return hints.ForUnknownParser(parser.Backends())
	case errors.Is(err, rsm.ErrUnknownRule):
		return hints.ForUnknownRule(lint.RuleNames())
	case errors.Is(err, ErrStrict):
		return hints.ForStrict()
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}

func manifestNames() []string {
	r, err := assets.NewManifestResolver(rsm.DefaultStaticPath)
	if err != nil {
		return nil
	}
	return r.Names()
}
