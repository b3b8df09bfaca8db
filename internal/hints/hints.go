// Package hints provides actionable operator hints for common failure scenarios.
// Hints are formatted consistently as "hint: <text>" for log attributes.
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-html2pdf/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForBrowserConnect returns hints for browser launch/connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use a preinstalled Chrome")
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about raising the render timeout.
func ForTimeout() string {
	return format("for heavy documents, raise HTML2PDF_RENDER_TIMEOUT or --render-timeout")
}

// ForWorkspaceRoot returns hints for workspace allocation failures.
func ForWorkspaceRoot(root string) string {
	return format("check that " + root + " is writable and has free space, or set TEMP_ROOT")
}

// ForLogFile returns a hint for a log file that cannot be opened.
func ForLogFile(path string) string {
	dir := filepath.Dir(path)
	if !fileutil.DirExists(dir) {
		return format("directory " + dir + " does not exist; create it or change HTML2PDF_LOG_FILE/--log-file")
	}
	return format("check that " + path + " is writable")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
