package plot

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenBrowser opens path with the platform's default handler.
func OpenBrowser(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return fmt.Errorf("open %s: unsupported platform %s", path, runtime.GOOS)
	}
	return cmd.Start()
}
