// Package yamlutil decodes YAML for the config file and the asset manifest.
// All decoding goes through here so size limits and error shapes are the
// same everywhere.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrSyntax         = errors.New("yamlutil: invalid document")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// UnmarshalStrict rejects unknown fields in the input.
func UnmarshalStrict(data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return nil
}

// UnmarshalStrictNamed is UnmarshalStrict with the decoder's error rendered
// against the source (line, column, offending snippet) and prefixed by name.
func UnmarshalStrictNamed(name string, data []byte, v any) error {
	if err := validateInput(data, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return &namedError{name: name, detail: yaml.FormatError(err, false, true), err: err}
	}
	return nil
}

type namedError struct {
	name   string
	detail string
	err    error
}

func (e *namedError) Error() string {
	return e.name + ": " + e.detail
}

func (e *namedError) Unwrap() []error {
	return []error{ErrSyntax, e.err}
}
