package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// startCommand is swapped in tests so no viewer is launched.
var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// OpenDocument hands a remote document (PDF, image) to the system's default viewer.
//
// Only absolute http(s) URLs are accepted; nothing is downloaded or parsed in-process.
func OpenDocument(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: not an absolute http(s) url: %q", ErrInvalidArgument, rawURL)
	}

	cmd, err := viewerCommand(getRuntime(), u.String())
	if err != nil {
		return err
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("failed to open viewer: %w", err)
	}
	return nil
}

func viewerCommand(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
