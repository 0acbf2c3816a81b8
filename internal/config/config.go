package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-rsm/internal/assets"
	"github.com/alnah/go-rsm/internal/lint"
	"github.com/alnah/go-rsm/internal/parser"
	"github.com/alnah/go-rsm/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// NotFoundError reports a config name that matched no file. It matches
// ErrConfigNotFound with errors.Is.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s (tried %s)", ErrConfigNotFound, e.Name, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrConfigNotFound }

// DefaultName is the config name looked up when none is given.
const DefaultName = "rsm"

// Field length limits.
const (
	MaxPathLength     = 4096
	MaxAddrLength     = 255
	MaxDurationLength = 20 // "1m30s", "250ms"
	MaxPageSizeLength = 10 // "letter", "a4", "legal"
	MaxListLength     = 64 // entries in assets.extra and lint.disable
)

// Bounds for numeric settings.
const (
	MaxVerbosity = 3
	MinMargin    = 0.25
	MaxMargin    = 3.0
	MinInterval  = 50 * time.Millisecond
)

// Config holds the settings read from an rsm.yaml file.
type Config struct {
	Build  BuildConfig  `yaml:"build"`
	Assets AssetsConfig `yaml:"assets"`
	Lint   LintConfig   `yaml:"lint"`
	Serve  ServeConfig  `yaml:"serve"`
	PDF    PDFConfig    `yaml:"pdf"`
}

// BuildConfig mirrors the per-build switches.
type BuildConfig struct {
	Lint       bool   `yaml:"lint"`
	Handrails  bool   `yaml:"handrails"`
	Parser     string `yaml:"parser"` // "classic" or "alternate"
	Structured bool   `yaml:"structured"`
	Verbosity  int    `yaml:"verbosity"`
	Strict     bool   `yaml:"strict"` // fail when any error diagnostic is reported
}

// AssetsConfig defines asset resolution.
type AssetsConfig struct {
	Dir        string   `yaml:"dir"`        // Empty = embedded manifest only
	StaticPath string   `yaml:"staticPath"` // Runtime base path, e.g. "/static/"
	Extra      []string `yaml:"extra"`
}

// LintConfig selects lint rules.
type LintConfig struct {
	Disable []string `yaml:"disable"`
}

// ServeConfig defines the dev server.
type ServeConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"staticDir"` // Empty = embedded runtime files
	Interval  string `yaml:"interval"`  // Source polling period
}

// PDFConfig defines PDF export.
type PDFConfig struct {
	PageSize string  `yaml:"pageSize"` // "letter", "a4", "legal"
	Margin   float64 `yaml:"margin"`   // inches
	Timeout  string  `yaml:"timeout"`
}

// DefaultConfig returns the settings used when no file is loaded.
func DefaultConfig() *Config {
	return &Config{
		Build:  BuildConfig{Lint: true, Parser: parser.BackendClassic},
		Assets: AssetsConfig{StaticPath: "/static/"},
		Serve:  ServeConfig{Addr: "127.0.0.1:8000", Interval: "500ms"},
		PDF:    PDFConfig{PageSize: "letter", Margin: 0.5, Timeout: "30s"},
	}
}

// Validate checks values and field lengths.
// Called automatically by LoadConfig, but available for callers that build a
// Config by hand.
func (c *Config) Validate() error {
	if _, err := parser.ForBackend(c.Build.Parser); err != nil {
		return fmt.Errorf("%w: build.parser: %q (must be one of %s)", ErrInvalidValue, c.Build.Parser, strings.Join(parser.Backends(), ", "))
	}
	if c.Build.Verbosity < 0 || c.Build.Verbosity > MaxVerbosity {
		return fmt.Errorf("%w: build.verbosity: must be between 0 and %d, got %d", ErrInvalidValue, MaxVerbosity, c.Build.Verbosity)
	}

	if err := validateFieldLength("assets.dir", c.Assets.Dir, MaxPathLength); err != nil {
		return err
	}
	if c.Assets.StaticPath != "" {
		if err := validateFieldLength("assets.staticPath", c.Assets.StaticPath, MaxPathLength); err != nil {
			return err
		}
		if err := assets.ValidateBasePath(c.Assets.StaticPath); err != nil {
			return fmt.Errorf("%w: assets.staticPath: %v", ErrInvalidValue, err)
		}
	}
	if len(c.Assets.Extra) > MaxListLength {
		return fmt.Errorf("%w: assets.extra (%d entries, max %d)", ErrFieldTooLong, len(c.Assets.Extra), MaxListLength)
	}
	for i, name := range c.Assets.Extra {
		if err := assets.ValidateAssetName(name); err != nil {
			return fmt.Errorf("%w: assets.extra[%d]: %q", ErrInvalidValue, i, name)
		}
	}

	if len(c.Lint.Disable) > MaxListLength {
		return fmt.Errorf("%w: lint.disable (%d entries, max %d)", ErrFieldTooLong, len(c.Lint.Disable), MaxListLength)
	}
	if err := lint.ValidateDisabled(c.Lint.Disable); err != nil {
		return fmt.Errorf("%w: lint.disable: %v", ErrInvalidValue, err)
	}

	if err := validateFieldLength("serve.addr", c.Serve.Addr, MaxAddrLength); err != nil {
		return err
	}
	if err := validateFieldLength("serve.staticDir", c.Serve.StaticDir, MaxPathLength); err != nil {
		return err
	}
	if _, err := c.Serve.PollInterval(); err != nil {
		return err
	}

	if err := validateFieldLength("pdf.pageSize", c.PDF.PageSize, MaxPageSizeLength); err != nil {
		return err
	}
	if c.PDF.PageSize != "" {
		switch strings.ToLower(c.PDF.PageSize) {
		case "letter", "a4", "legal":
			// valid
		default:
			return fmt.Errorf("%w: pdf.pageSize: %q (must be letter, a4, or legal)", ErrInvalidValue, c.PDF.PageSize)
		}
	}
	if c.PDF.Margin != 0 && (c.PDF.Margin < MinMargin || c.PDF.Margin > MaxMargin) {
		return fmt.Errorf("%w: pdf.margin: must be between %.2f and %.2f, got %.2f", ErrInvalidValue, MinMargin, MaxMargin, c.PDF.Margin)
	}
	if _, err := c.PDF.TimeoutDuration(); err != nil {
		return err
	}

	return nil
}

// PollInterval parses serve.interval. Empty means the default of 500ms.
func (s ServeConfig) PollInterval() (time.Duration, error) {
	d, err := parseDuration("serve.interval", s.Interval, 500*time.Millisecond)
	if err != nil {
		return 0, err
	}
	if d < MinInterval {
		return 0, fmt.Errorf("%w: serve.interval: must be at least %s, got %s", ErrInvalidValue, MinInterval, d)
	}
	return d, nil
}

// TimeoutDuration parses pdf.timeout. Empty means the default of 30s.
func (p PDFConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("pdf.timeout", p.Timeout, 30*time.Second)
}

func parseDuration(field, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	if err := validateFieldLength(field, value, MaxDurationLength); err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s: %q is not a positive duration", ErrInvalidValue, field, value)
	}
	return d, nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Name: nameOrPath, Tried: []string{configPath}}
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrictNamed(configPath, data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return cfg, nil
}

// FindDefault returns the path of the default config file if one exists.
// The second result is false when no file was found; that is not an error.
func FindDefault() (string, bool) {
	p, err := resolveConfigPath(DefaultName)
	if err != nil {
		return "", false
	}
	return p, true
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-rsm/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-rsm", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", &NotFoundError{Name: name, Tried: triedPaths}
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
