package msys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"vculaunch/internal/model"
)

// ErrShellNotFound is returned when the MSYS startup script does not exist.
var ErrShellNotFound = errors.New("shell startup script not found")

// Launcher starts the external build shell.
type Launcher interface {
	Launch(ctx context.Context, script string, env map[string]string) error
}

// ProcessLauncher starts the shell as a detached child process.
type ProcessLauncher struct {
	Shell Shell
}

// NewProcessLauncher returns a launcher for the running OS.
func NewProcessLauncher() *ProcessLauncher {
	return &ProcessLauncher{Shell: DetectShell("")}
}

// Launch starts script with env added to the inherited environment and
// returns without waiting for it. The child outlives ctx; ctx only guards
// the start itself.
func (p *ProcessLauncher) Launch(ctx context.Context, script string, env map[string]string) error {
	if !model.Exists(script) {
		return fmt.Errorf("%w: %s", ErrShellNotFound, script)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	name, args := p.Shell.Command(script)
	cmd := exec.Command(name, args...)
	cmd.Dir = filepath.Dir(script)
	cmd.Env = MergeEnv(os.Environ(), env, runtime.GOOS == "windows")

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Shell.Name(), err)
	}

	// Reap the child when it exits; nobody waits on the result.
	go func() { _ = cmd.Wait() }()
	return nil
}

// MergeEnv returns base with every key of extra replaced or added.
// Keys compare case-insensitively when foldCase is set, as on Windows.
func MergeEnv(base []string, extra map[string]string, foldCase bool) []string {
	norm := func(k string) string {
		if foldCase {
			return strings.ToUpper(k)
		}
		return k
	}

	override := make(map[string]bool, len(extra))
	for k := range extra {
		override[norm(k)] = true
	}

	env := make([]string, 0, len(base)+len(extra))
	for _, e := range base {
		key, _, _ := strings.Cut(e, "=")
		if override[norm(key)] {
			continue
		}
		env = append(env, e)
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}
