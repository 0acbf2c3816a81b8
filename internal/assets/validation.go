package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that an asset name is safe for use as a filename.
// Names are lowercase words joined by hyphens or underscores; dots, path
// separators and anything else that could select another file are rejected.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}

// ValidateBasePath checks the static base path used in references and in the
// init script: it must end with a slash and must not break out of a quoted
// JavaScript string.
func ValidateBasePath(base string) error {
	if base == "" || !strings.HasSuffix(base, "/") {
		return fmt.Errorf("%w: %q must end with /", ErrInvalidBasePath, base)
	}
	if strings.ContainsAny(base, "'\"\\<> \n\r\t") {
		return fmt.Errorf("%w: %q contains characters not allowed in a URL path", ErrInvalidBasePath, base)
	}
	return nil
}
