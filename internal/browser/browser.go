// Package browser opens post permalinks in the user's default browser.
package browser

import (
	"errors"
	"os/exec"
	"runtime"
)

var ErrUnsupportedPlatform = errors.New("no known browser launcher for this platform")

// Open starts the platform's URL handler for url and does not wait for it.
func Open(url string) error {
	cmd := command(runtime.GOOS, url)
	if cmd == nil {
		return ErrUnsupportedPlatform
	}
	return cmd.Start()
}

func command(goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	return nil
}
