package yamlutil_test

// Notes:
// - TestInputSizeLimit mutates the package-level MaxInputSize and therefore
//   does not run in parallel.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-rsm/internal/yamlutil"
)

type buildSection struct {
	Parser string `yaml:"parser"`
	Lint   bool   `yaml:"lint"`
	Level  int    `yaml:"level"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{name: "known fields", data: "parser: classic\nlint: false"},
		{name: "unknown field", data: "parser: classic\ncolour: red", wantErr: yamlutil.ErrSyntax},
		{name: "type mismatch", data: "level: high", wantErr: yamlutil.ErrSyntax},
		{name: "syntax error", data: "parser: [classic", wantErr: yamlutil.ErrSyntax},
		{name: "empty", data: "", wantErr: yamlutil.ErrNilData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var dst buildSection
			err := yamlutil.UnmarshalStrict([]byte(tt.data), &dst)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("UnmarshalStrict() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("UnmarshalStrict() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshalStrictNamed(t *testing.T) {
	t.Parallel()

	var dst buildSection
	err := yamlutil.UnmarshalStrictNamed("rsm.yaml", []byte("parser: classic\ncolour: red\n"), &dst)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !errors.Is(err, yamlutil.ErrSyntax) {
		t.Errorf("error = %v, want ErrSyntax", err)
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "rsm.yaml: ") {
		t.Errorf("error %q lacks file name prefix", msg)
	}
	if !strings.Contains(msg, "colour") {
		t.Errorf("error %q does not point at the offending key", msg)
	}

	err = yamlutil.UnmarshalStrictNamed("empty.yaml", nil, &dst)
	if !errors.Is(err, yamlutil.ErrNilData) || !strings.HasPrefix(err.Error(), "empty.yaml: ") {
		t.Errorf("error = %v, want named ErrNilData", err)
	}
}

func TestUnmarshalStrict_Values(t *testing.T) {
	t.Parallel()

	var got buildSection
	if err := yamlutil.UnmarshalStrict([]byte("parser: alternate\nlint: true\nlevel: 3"), &got); err != nil {
		t.Fatal(err)
	}
	if got != (buildSection{Parser: "alternate", Lint: true, Level: 3}) {
		t.Errorf("got %+v", got)
	}

	if err := yamlutil.UnmarshalStrict([]byte("lint: true"), nil); !errors.Is(err, yamlutil.ErrNilDestination) {
		t.Errorf("nil destination error = %v, want ErrNilDestination", err)
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit
// ---------------------------------------------------------------------------

func TestInputSizeLimit(t *testing.T) {
	originalMax := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = originalMax })
	yamlutil.MaxInputSize = 32

	big := []byte("parser: " + strings.Repeat("x", 64))
	var dst buildSection

	if err := yamlutil.UnmarshalStrict(big, &dst); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("UnmarshalStrict() error = %v, want ErrInputTooLarge", err)
	}
	if err := yamlutil.UnmarshalStrictNamed("big.yaml", big, &dst); !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Errorf("UnmarshalStrictNamed() error = %v, want ErrInputTooLarge", err)
	}
	if err := yamlutil.UnmarshalStrict([]byte("lint: true"), &dst); err != nil {
		t.Errorf("small input rejected: %v", err)
	}
}
