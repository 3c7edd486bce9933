package dispatch

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Opener shows a directory in the platform file browser.
type Opener interface {
	Open(dir string) error
}

// SystemOpener starts the desktop's file browser without waiting for it.
type SystemOpener struct {
	GOOS string
}

// NewSystemOpener returns an opener for the running OS.
func NewSystemOpener() *SystemOpener {
	return &SystemOpener{GOOS: runtime.GOOS}
}

// Command returns the program and arguments that open dir.
func (o *SystemOpener) Command(dir string) (string, []string) {
	switch o.GOOS {
	case "windows":
		return "explorer", []string{dir}
	case "darwin":
		return "open", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

func (o *SystemOpener) Open(dir string) error {
	name, args := o.Command(dir)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
