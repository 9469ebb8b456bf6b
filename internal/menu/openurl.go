package menu

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ReleaseURL is the download page for a connector release.
func ReleaseURL(version string) string {
	if version == "" {
		return "https://github.com/filips123/PWAsForFirefox/releases/latest"
	}
	return fmt.Sprintf("https://github.com/filips123/PWAsForFirefox/releases/tag/v%s", version)
}

func openURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("no URL configured")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("refusing to open %s URL", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", raw)
	case "darwin":
		cmd = exec.Command("open", raw)
	default:
		cmd = exec.Command("xdg-open", raw)
	}
	return cmd.Start()
}
