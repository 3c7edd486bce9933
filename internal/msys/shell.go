package msys

import (
	"runtime"
)

// Shell defines how the MSYS startup script is started on a platform.
type Shell interface {
	// Command returns the program and arguments that start script detached.
	Command(script string) (string, []string)
	Name() string
}

// WindowsShell starts the script in a new console window via cmd's start builtin.
type WindowsShell struct{}

func (s *WindowsShell) Command(script string) (string, []string) {
	// The empty string is start's window title argument.
	return "cmd", []string{"/c", "start", "", script}
}

func (s *WindowsShell) Name() string {
	return "cmd"
}

// PosixShell runs the script with sh. Used off Windows, where the MSYS
// distribution ships an msys.sh wrapper instead of msys.bat.
type PosixShell struct{}

func (s *PosixShell) Command(script string) (string, []string) {
	return "sh", []string{script}
}

func (s *PosixShell) Name() string {
	return "sh"
}

// DetectShell picks the Shell for goos, or for the running OS when goos is empty.
func DetectShell(goos string) Shell {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		return &WindowsShell{}
	}
	return &PosixShell{}
}
