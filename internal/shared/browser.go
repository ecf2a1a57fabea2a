package shared

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}

// BrowserOpener opens authorization URLs outside the process.
//
// The URL is always echoed to Out so the user can open it by hand when no browser is available
// (SSH sessions, containers).
type BrowserOpener struct {
	Out      io.Writer
	Launch   func(url string) error
	NoLaunch bool
}

// NewBrowserOpener returns a [BrowserOpener] using the system browser.
func NewBrowserOpener(out io.Writer, noLaunch bool) *BrowserOpener {
	return &BrowserOpener{Out: out, Launch: OpenBrowser, NoLaunch: noLaunch}
}

// Open prints url and, unless disabled, launches the browser.
func (b *BrowserOpener) Open(url string) error {
	if b.Out != nil {
		fmt.Fprintf(b.Out, "→ Open this URL to authorize intmo:\n%s\n\n", url)
	}
	if b.NoLaunch || b.Launch == nil {
		return nil
	}
	return b.Launch(url)
}
