// Package hints builds the "hint:" lines the CLI appends to fatal errors.
// Every hint renders as "\n  hint: <text>" so it lines up under the error.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-rsm/internal/fileutil"
)

// InContainer reports whether the process runs in a container. Tests
// replace it.
var InContainer = func() bool {
	return fileutil.FileExists("/.dockerenv") || os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

func inCI() bool {
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect suggests the variables that usually fix a failed
// Chrome launch for --pdf. It is empty when they are already set.
func ForBrowserConnect() string {
	var parts []string
	if (inCI() || InContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		parts = append(parts, "set ROD_NO_SANDBOX=1 in Docker or CI")
	}
	if os.Getenv("RSM_BROWSER_BIN") == "" && os.Getenv("ROD_BROWSER_BIN") == "" {
		parts = append(parts, "point RSM_BROWSER_BIN at a local Chrome")
	}
	return line(strings.Join(parts, "; "))
}

// ForTimeout covers PDF page loads that ran out of time.
func ForTimeout() string {
	return line("for large manuscripts, raise pdf.timeout in the config file")
}

// ForConfigNotFound suggests --config, or creating the file in the user
// config directory when that was one of the tried paths.
func ForConfigNotFound(tried []string) string {
	hint := "pass --config /path/to/rsm.yaml"
	for _, p := range tried {
		if filepath.Base(filepath.Dir(p)) == "go-rsm" {
			hint += " or create " + p
			break
		}
	}
	return line(hint)
}

// ForOutputDirectory covers failed output writes.
func ForOutputDirectory() string {
	return line("check that the output directory exists and is writable")
}

// ForAssetNotFound lists the names the default resolver serves.
func ForAssetNotFound(available []string) string {
	return list("available assets", available)
}

// ForAssetDir covers an --asset-dir that cannot be used.
func ForAssetDir() string {
	return line("the asset directory must exist and hold <name>.css or <name>.js files")
}

// ForUnknownParser lists the parser backends.
func ForUnknownParser(available []string) string {
	return list("available parsers", available)
}

// ForUnknownRule lists the lint rule names.
func ForUnknownRule(available []string) string {
	return list("lint rules", available)
}

// ForStrict explains why a manuscript that rendered still failed.
func ForStrict() string {
	return line("output was written, but --strict fails on error diagnostics")
}

func list(label string, names []string) string {
	if len(names) == 0 {
		return ""
	}
	return line(label + ": " + strings.Join(names, ", "))
}

func line(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
