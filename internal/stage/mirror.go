// Package stage copies user sources into a variant's source tree.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"vculaunch/internal/config"
)

// ErrMirrorFailed is returned when a directory mirror does not complete.
var ErrMirrorFailed = errors.New("directory mirror failed")

// ErrOverlap is returned when the source and destination trees nest.
var ErrOverlap = errors.New("source and destination overlap")

// CheckOverlap fails when src and dst are the same path or either one
// lies inside the other. Nothing on disk is touched.
func CheckOverlap(src, dst string) error {
	a, b := canonical(src), canonical(dst)
	if within(a, b) || within(b, a) {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, src, dst)
	}
	return nil
}

// canonical makes p absolute and resolves symlinks in its deepest
// existing ancestor, so a destination that does not exist yet compares
// correctly.
func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	rest := ""
	for dir := p; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			p = filepath.Join(resolved, rest)
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
	if runtime.GOOS == "windows" {
		p = strings.ToLower(p)
	}
	return p
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Mirror makes dst an exact copy of the src directory tree.
// A failure may leave dst partially updated.
type Mirror interface {
	Mirror(ctx context.Context, src, dst string) error
	Name() string
}

// NewMirror selects the implementation for a config.Robocopy mode.
func NewMirror(mode string) Mirror {
	switch mode {
	case config.RobocopyAlways:
		return &RobocopyMirror{}
	case config.RobocopyNever:
		return &NativeMirror{}
	}
	if runtime.GOOS == "windows" {
		if _, err := exec.LookPath("robocopy"); err == nil {
			return &RobocopyMirror{}
		}
	}
	return &NativeMirror{}
}

// NativeMirror mirrors in process.
type NativeMirror struct{}

func (m *NativeMirror) Name() string { return "native" }

func (m *NativeMirror) Mirror(ctx context.Context, src, dst string) error {
	if err := CheckOverlap(src, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMirrorFailed, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorFailed, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrMirrorFailed, src)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorFailed, err)
	}

	keep := map[string]bool{".": true}
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		keep[rel] = true
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			// A file where a directory belongs is replaced.
			if fi, err := os.Lstat(target); err == nil && !fi.IsDir() {
				if err := os.Remove(target); err != nil {
					return err
				}
			}
			return os.MkdirAll(target, 0o755)
		}
		if fi, err := os.Lstat(target); err == nil && fi.IsDir() {
			if err := os.RemoveAll(target); err != nil {
				return err
			}
		}
		return CopyFile(path, target)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorFailed, err)
	}

	if err := prune(dst, keep); err != nil {
		return fmt.Errorf("%w: %v", ErrMirrorFailed, err)
	}
	return nil
}

// prune removes every entry under dst whose relative path is not in keep.
func prune(dst string, keep map[string]bool) error {
	var extra []string
	err := filepath.WalkDir(dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if keep[rel] {
			return nil
		}
		extra = append(extra, path)
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, p := range extra {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}

// RobocopyError carries a robocopy exit code in the error class (8 and up).
type RobocopyError struct {
	Code   int
	Output string
}

func (e *RobocopyError) Error() string {
	msg := fmt.Sprintf("robocopy exited with code %d", e.Code)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

func (e *RobocopyError) Unwrap() error { return ErrMirrorFailed }

// RobocopyMirror shells out to robocopy /MIR.
type RobocopyMirror struct {
	// Path overrides the robocopy executable; empty means look it up.
	Path string
}

func (m *RobocopyMirror) Name() string { return "robocopy" }

// Args returns the robocopy arguments for a quiet mirror of src into dst.
func (m *RobocopyMirror) Args(src, dst string) []string {
	return []string{src, dst, "/MIR", "/NFL", "/NDL", "/NJH", "/NC", "/NJS", "/NP"}
}

func (m *RobocopyMirror) Mirror(ctx context.Context, src, dst string) error {
	if err := CheckOverlap(src, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrMirrorFailed, err)
	}
	bin := m.Path
	if bin == "" {
		bin = "robocopy"
	}
	cmd := exec.CommandContext(ctx, bin, m.Args(src, dst)...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %v", ErrMirrorFailed, err)
	}
	return CheckRobocopyExit(exitErr.ExitCode(), string(out))
}

// CheckRobocopyExit maps a robocopy exit code to an error. Codes below 8
// report copied or extra files and are not failures.
func CheckRobocopyExit(code int, output string) error {
	if code >= 0 && code < 8 {
		return nil
	}
	return &RobocopyError{Code: code, Output: output}
}
