package hints

// Notes:
// - ForBrowserConnect tests cannot use t.Parallel(): they call t.Setenv() and
//   replace the package-level InContainer variable.

import (
	"path/filepath"
	"strings"
	"testing"
)

func withContainer(t *testing.T, in bool) {
	t.Helper()
	orig := InContainer
	t.Cleanup(func() { InContainer = orig })
	InContainer = func() bool { return in }
}

func TestForBrowserConnect(t *testing.T) {
	tests := []struct {
		name      string
		container bool
		env       map[string]string
		want      []string
		unwanted  []string
	}{
		{
			name:      "in CI",
			env:       map[string]string{"CI": "true"},
			want:      []string{"ROD_NO_SANDBOX", "RSM_BROWSER_BIN"},
		},
		{
			name:      "in Docker",
			container: true,
			want:      []string{"ROD_NO_SANDBOX"},
		},
		{
			name:      "sandbox already disabled",
			container: true,
			env:       map[string]string{"ROD_NO_SANDBOX": "1"},
			unwanted:  []string{"ROD_NO_SANDBOX"},
		},
		{
			name:     "rsm browser set",
			env:      map[string]string{"RSM_BROWSER_BIN": "/usr/bin/chromium"},
			unwanted: []string{"RSM_BROWSER_BIN"},
		},
		{
			name:     "rod browser set",
			env:      map[string]string{"ROD_BROWSER_BIN": "/usr/bin/chrome"},
			unwanted: []string{"RSM_BROWSER_BIN"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withContainer(t, tt.container)
			for _, k := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "ROD_NO_SANDBOX", "ROD_BROWSER_BIN", "RSM_BROWSER_BIN"} {
				t.Setenv(k, tt.env[k])
			}

			hint := ForBrowserConnect()
			for _, w := range tt.want {
				if !strings.Contains(hint, w) {
					t.Errorf("hint %q missing %s", hint, w)
				}
			}
			for _, u := range tt.unwanted {
				if strings.Contains(hint, u) {
					t.Errorf("hint %q should not mention %s", hint, u)
				}
			}
		})
	}
}

func TestForBrowserConnect_AllConfigured(t *testing.T) {
	withContainer(t, true)
	t.Setenv("CI", "true")
	t.Setenv("ROD_NO_SANDBOX", "1")
	t.Setenv("RSM_BROWSER_BIN", "/usr/bin/chrome")

	if hint := ForBrowserConnect(); hint != "" {
		t.Errorf("expected empty hint when all configured, got %q", hint)
	}
}

func TestForConfigNotFound(t *testing.T) {
	t.Parallel()

	hint := ForConfigNotFound(nil)
	if !strings.Contains(hint, "--config") {
		t.Errorf("hint %q missing --config", hint)
	}

	hint = ForConfigNotFound([]string{"rsm.yaml", filepath.Join("home", "u", ".config", "go-rsm", "rsm.yaml")})
	if !strings.Contains(hint, "create "+filepath.Join("home", "u", ".config", "go-rsm", "rsm.yaml")) {
		t.Errorf("hint %q does not suggest the user config path", hint)
	}
}

func TestListHints(t *testing.T) {
	t.Parallel()

	if ForAssetNotFound(nil) != "" || ForUnknownRule(nil) != "" {
		t.Error("empty lists should give empty hints")
	}
	if h := ForAssetNotFound([]string{"jquery", "mathjax"}); !strings.Contains(h, "jquery, mathjax") {
		t.Errorf("ForAssetNotFound = %q", h)
	}
	if h := ForUnknownParser([]string{"classic", "alternate"}); !strings.Contains(h, "classic, alternate") {
		t.Errorf("ForUnknownParser = %q", h)
	}
	if h := ForUnknownRule([]string{"ref-target"}); !strings.Contains(h, "ref-target") {
		t.Errorf("ForUnknownRule = %q", h)
	}
}

func TestFormat_Consistency(t *testing.T) {
	t.Parallel()

	for _, h := range []string{
		ForTimeout(),
		ForOutputDirectory(),
		ForAssetDir(),
		ForStrict(),
		ForUnknownParser([]string{"classic"}),
	} {
		if !strings.HasPrefix(h, "\n  hint: ") {
			t.Errorf("hint format inconsistent: %q", h)
		}
	}
}
