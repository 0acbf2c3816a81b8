package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	rsm "github.com/alnah/go-rsm"
	"github.com/alnah/go-rsm/internal/config"
)

// ErrDoctor is returned when doctor finds blocking problems.
var ErrDoctor = errors.New("doctor found errors")

type level string

const (
	levelOK    level = "OK"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

type finding struct {
	Level   level  `json:"level"`
	Message string `json:"message"`
}

type section struct {
	Title    string    `json:"title"`
	Findings []finding `json:"findings"`
}

func (s *section) add(lv level, format string, args ...any) {
	s.Findings = append(s.Findings, finding{Level: lv, Message: fmt.Sprintf(format, args...)})
}

// doctorResult is what `rsm doctor --json` prints.
type doctorResult struct {
	Status   string     `json:"status"` // ready, warnings or errors
	Setup    setupInfo  `json:"setup"`
	Chrome   chromeInfo `json:"chrome"`
	Env      envInfo    `json:"environment"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`

	sections []*section
}

type setupInfo struct {
	ConfigPath   string `json:"config_path,omitempty"`
	ConfigValid  bool   `json:"config_valid"`
	AssetsLoaded bool   `json:"assets_loaded"`
	AssetDir     string `json:"asset_dir,omitempty"`
	TempWritable bool   `json:"temp_writable"`
}

type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"browser_bin"`
}

// runDoctor checks that this machine can build manuscripts and export PDFs.
// A missing browser only affects --pdf and is reported as a warning.
func runDoctor(args []string, env *Environment) error {
	var jsonOutput bool
	fs := doctorFlagSet(&jsonOutput)
	fs.Usage = func() { printDoctorUsage(env.Stdout) }
	if err := fs.Parse(args); err != nil {
		return usageError(err)
	}

	result := diagnose()
	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ErrDoctor
	}
	return nil
}

func diagnose() *doctorResult {
	r := &doctorResult{Status: "ready"}
	r.sections = []*section{
		r.checkSetup(),
		r.checkChrome(),
		r.checkEnvironment(),
	}

	for _, s := range r.sections {
		for _, f := range s.Findings {
			switch f.Level {
			case levelWarn:
				r.Warnings = append(r.Warnings, f.Message)
			case levelError:
				r.Errors = append(r.Errors, f.Message)
			}
		}
	}
	switch {
	case len(r.Errors) > 0:
		r.Status = "errors"
	case len(r.Warnings) > 0:
		r.Status = "warnings"
	}
	return r
}

// checkSetup loads the config file and the asset sources it names, then
// checks the temp directory the PDF exporter stages documents in.
func (r *doctorResult) checkSetup() *section {
	s := &section{Title: "Setup"}

	cfg := config.DefaultConfig()
	r.Setup.ConfigValid = true
	if path, ok := config.FindDefault(); ok {
		r.Setup.ConfigPath = path
		loaded, err := config.LoadConfig(path)
		if err != nil {
			r.Setup.ConfigValid = false
			s.add(levelError, "Config %s: %v", path, err)
		} else {
			cfg = loaded
			s.add(levelOK, "Config: %s", path)
		}
	} else {
		s.add(levelOK, "Config: none (defaults)")
	}

	if _, err := rsm.NewAssetResolver("", rsm.DefaultStaticPath); err != nil {
		s.add(levelError, "Asset manifest: %v", err)
	} else {
		r.Setup.AssetsLoaded = true
		s.add(levelOK, "Asset manifest: loaded")
	}

	if dir := cfg.Assets.Dir; dir != "" {
		r.Setup.AssetDir = dir
		if _, err := rsm.NewAssetResolver(dir, cfg.Assets.StaticPath); err != nil {
			s.add(levelError, "Asset directory %s: %v", dir, err)
		} else {
			s.add(levelOK, "Asset directory: %s", dir)
		}
	}
	if dir := cfg.Serve.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			s.add(levelWarn, "serve.staticDir %s is not a directory; rsm serve will fail", dir)
		}
	}

	scratch := filepath.Join(os.TempDir(), "rsm-doctor-check")
	if err := os.WriteFile(scratch, []byte("ok"), 0o600); err != nil {
		s.add(levelError, "Temp directory not writable: %s", os.TempDir())
	} else {
		_ = os.Remove(scratch)
		r.Setup.TempWritable = true
		s.add(levelOK, "Temp directory: writable")
	}
	return s
}

func (r *doctorResult) checkChrome() *section {
	s := &section{Title: "Chrome/Chromium (for --pdf)"}

	bin := os.Getenv("RSM_BROWSER_BIN")
	if bin == "" {
		bin = os.Getenv("ROD_BROWSER_BIN")
	}
	r.Env.BrowserBin = bin
	r.Env.NoSandbox = os.Getenv("ROD_NO_SANDBOX")

	path := bin
	if path == "" {
		found := false
		if path, found = launcher.LookPath(); !found {
			s.add(levelWarn, "Chrome/Chromium not found; --pdf will download Chromium, or set RSM_BROWSER_BIN")
			return s
		}
	}
	if _, err := os.Stat(path); err != nil {
		s.add(levelError, "Chrome not found at %s", path)
		return s
	}
	r.Chrome.Found = true
	r.Chrome.Path = path
	s.add(levelOK, "Found at %s", path)

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- browser path from env or launcher
	if err != nil {
		s.add(levelWarn, "Could not get Chrome version: %v", err)
	} else {
		r.Chrome.Version = strings.TrimSpace(string(out))
		s.add(levelOK, "Version: %s", r.Chrome.Version)
	}

	r.Chrome.Sandbox = r.Env.NoSandbox != "1"
	if r.Chrome.Sandbox {
		s.add(levelOK, "Sandbox: enabled")
	} else {
		s.add(levelOK, "Sandbox: disabled (ROD_NO_SANDBOX=1)")
	}
	return s
}

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

func (r *doctorResult) checkEnvironment() *section {
	s := &section{Title: "Environment"}

	r.Env.OS = runtime.GOOS
	r.Env.Arch = runtime.GOARCH
	s.add(levelOK, "Platform: %s/%s", r.Env.OS, r.Env.Arch)

	r.Env.Container, r.Env.ContainerHint = isContainer()
	if r.Env.Container {
		s.add(levelOK, "Container: detected (%s)", r.Env.ContainerHint)
	}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			r.Env.CI = true
			s.add(levelOK, "CI: detected (%s)", v)
			break
		}
	}

	if (r.Env.Container || r.Env.CI) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		s.add(levelWarn, "Container/CI detected but ROD_NO_SANDBOX is not set; --pdf may need ROD_NO_SANDBOX=1")
	}
	return s
}

// isContainer reports whether we run inside a container and which signal
// gave it away.
func isContainer() (bool, string) {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintf(w, "rsm doctor\n\n")
	for _, s := range r.sections {
		fmt.Fprintln(w, s.Title)
		for _, f := range s.Findings {
			fmt.Fprintf(w, "  [%s] %s\n", f.Level, f.Message)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: READY")
	case "warnings":
		fmt.Fprintf(w, "Status: READY (%d warning(s))\n", len(r.Warnings))
	default:
		fmt.Fprintf(w, "Status: NOT READY (%d error(s))\n", len(r.Errors))
	}
}
