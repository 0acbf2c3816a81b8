package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-rsm/internal/config"
)

// envConfig holds configuration from environment variables.
type envConfig struct {
	ConfigPath string // RSM_CONFIG: config file name or path
	Parser     string // RSM_PARSER: classic or alternate
	StaticPath string // RSM_STATIC_PATH: runtime base path
	AssetDir   string // RSM_ASSET_DIR: local asset directory
	Workers    int    // RSM_WORKERS: parallel workers
	Addr       string // RSM_ADDR: dev server listen address
}

// knownEnvVars lists valid RSM_* environment variables.
// RSM_BROWSER_BIN is read by the PDF exporter directly.
var knownEnvVars = map[string]bool{
	"RSM_CONFIG":      true,
	"RSM_PARSER":      true,
	"RSM_STATIC_PATH": true,
	"RSM_ASSET_DIR":   true,
	"RSM_WORKERS":     true,
	"RSM_ADDR":        true,
	"RSM_BROWSER_BIN": true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("RSM_CONFIG"),
		Parser:     os.Getenv("RSM_PARSER"),
		StaticPath: os.Getenv("RSM_STATIC_PATH"),
		AssetDir:   os.Getenv("RSM_ASSET_DIR"),
		Addr:       os.Getenv("RSM_ADDR"),
	}

	if workers := os.Getenv("RSM_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints a warning for each unrecognized RSM_* variable.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "RSM_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment values over the config file.
// Flags are merged afterwards and win over both.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Parser != "" {
		cfg.Build.Parser = env.Parser
	}
	if env.StaticPath != "" {
		cfg.Assets.StaticPath = env.StaticPath
	}
	if env.AssetDir != "" {
		cfg.Assets.Dir = env.AssetDir
	}
	if env.Addr != "" {
		cfg.Serve.Addr = env.Addr
	}
}
