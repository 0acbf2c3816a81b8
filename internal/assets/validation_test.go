package assets

import (
	"errors"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple name", input: "jquery"},
		{name: "name with hyphen", input: "tooltipster-js"},
		{name: "name with underscore", input: "my_style"},
		{name: "name with numbers", input: "style123"},
		{name: "empty name", input: "", wantErr: ErrInvalidAssetName},
		{name: "forward slash", input: "path/to/style", wantErr: ErrInvalidAssetName},
		{name: "backslash", input: "path\\to\\style", wantErr: ErrInvalidAssetName},
		{name: "traversal", input: "..", wantErr: ErrInvalidAssetName},
		{name: "extension", input: "rsm.css", wantErr: ErrInvalidAssetName},
		{name: "uppercase", input: "JQuery", wantErr: ErrInvalidAssetName},
		{name: "null byte", input: "a\x00b", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAssetName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateBasePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "/static/"},
		{input: "https://cdn.example.com/rsm/"},
		{input: "./"},
		{input: "", wantErr: true},
		{input: "/static", wantErr: true},
		{input: "/sta'tic/", wantErr: true},
		{input: "/a b/", wantErr: true},
	}

	for _, tt := range tests {
		err := ValidateBasePath(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateBasePath(%q) error = %v, wantErr %t", tt.input, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidBasePath) {
			t.Errorf("ValidateBasePath(%q) = %v, want ErrInvalidBasePath", tt.input, err)
		}
	}
}

func TestCanonical(t *testing.T) {
	t.Parallel()

	got := canonical([]string{"zeta", RSMCSS, JQuery, "alpha", RSMCSS, MathJax})
	want := []string{JQuery, RSMCSS, MathJax, "alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("canonical = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("canonical = %v, want %v", got, want)
			break
		}
	}
}
