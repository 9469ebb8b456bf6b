package ipc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const connectorBinary = "firefoxpwa-connector"

// Host describes how the native connector process is started.
type Host struct {
	Path string
	Args []string
	// Env entries are appended to the current environment.
	Env []string
}

// DefaultHost resolves the connector executable using the
// PWABRIDGE_CONNECTOR override, the platform install locations and finally
// $PATH. When nothing is found the bare binary name is returned and the
// exchange reports the connector as disconnected.
func DefaultHost() Host {
	if custom := strings.TrimSpace(os.Getenv("PWABRIDGE_CONNECTOR")); custom != "" {
		return Host{Path: custom}
	}

	for _, candidate := range platformCandidates() {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return Host{Path: candidate}
		}
	}

	if found, err := exec.LookPath(connectorBinary); err == nil {
		return Host{Path: found}
	}

	return Host{Path: connectorBinary}
}

func platformCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("ProgramFiles")
		if base == "" {
			base = `C:\Program Files`
		}
		return []string{filepath.Join(base, "FirefoxPWA", connectorBinary+".exe")}
	case "darwin":
		return []string{
			"/usr/local/libexec/" + connectorBinary,
			"/opt/homebrew/libexec/" + connectorBinary,
		}
	default:
		return []string{
			"/usr/libexec/" + connectorBinary,
			"/usr/local/libexec/" + connectorBinary,
		}
	}
}

// String provides a readable representation for logs.
func (h Host) String() string {
	if len(h.Args) == 0 {
		return fmt.Sprintf("native://%s", h.Path)
	}
	return fmt.Sprintf("native://%s %s", h.Path, strings.Join(h.Args, " "))
}
