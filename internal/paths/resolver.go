// Package paths resolves where the generated project tree and the bundled
// toolchains live, and converts paths to the forms the build chain expects.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Resolver derives the application root and the resource root.
//
// In packaged mode (a normal installed binary) both roots are the
// executable's directory. In source mode (go run / go test) the resource
// root equals the application root, which is the parent of the source tree.
type Resolver struct {
	Executable string // Absolute path of the running binary
	SourceRoot string // Root of the source tree; used only in source mode
	Override   string // Resource directory tried first in packaged mode

	AppOverride string // Forces the application root when set
}

// NewResolver inspects the running process.
func NewResolver() *Resolver {
	exe, err := os.Executable()
	if err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
	}
	return &Resolver{
		Executable: exe,
		SourceRoot: sourceRoot(),
	}
}

// Packaged reports whether the program runs from a built executable rather
// than a temporary go run/go test build.
func (r *Resolver) Packaged() bool {
	if r.Executable == "" {
		return false
	}
	dir := filepath.ToSlash(filepath.Dir(r.Executable))
	if strings.Contains(dir, "/go-build") {
		return false
	}
	return !strings.HasSuffix(filepath.Base(r.Executable), ".test") &&
		!strings.HasSuffix(filepath.Base(r.Executable), ".test.exe")
}

// ApplicationRoot returns the writable directory that holds the generated project tree.
func (r *Resolver) ApplicationRoot() string {
	if r.AppOverride != "" {
		return Normalize(r.AppOverride)
	}
	if r.Packaged() {
		return Normalize(filepath.Dir(r.Executable))
	}
	if r.SourceRoot != "" {
		return Normalize(filepath.Dir(r.SourceRoot))
	}
	wd, _ := os.Getwd()
	return Normalize(wd)
}

// ResourceRoot returns the directory holding the bundled toolchains, with
// parts joined onto it. Nonexistent paths are returned as-is.
func (r *Resolver) ResourceRoot(parts ...string) string {
	base := r.resourceBase()
	if len(parts) == 0 {
		return Normalize(base)
	}
	return Normalize(filepath.Join(append([]string{base}, parts...)...))
}

func (r *Resolver) resourceBase() string {
	if !r.Packaged() {
		return r.ApplicationRoot()
	}
	if r.Override != "" {
		if info, err := os.Stat(r.Override); err == nil && info.IsDir() {
			return r.Override
		}
	}
	return filepath.Dir(r.Executable)
}

// Normalize cleans a path and uppercases a leading drive letter.
func Normalize(p string) string {
	if p == "" {
		return p
	}
	return UpperDrive(filepath.Clean(p))
}

// UpperDrive uppercases the drive letter of a Windows-style path ("c:..." -> "C:...").
func UpperDrive(p string) string {
	if hasDrive(p) {
		return strings.ToUpper(p[:1]) + p[1:]
	}
	return p
}

// ToMakePath converts p to the form used inside makefiles: forward
// slashes with an uppercase drive letter.
func ToMakePath(p string) string {
	return UpperDrive(toSlash(p))
}

// ToPOSIX converts p to an MSYS path: forward slashes, and a drive
// prefix "X:" becomes "/x".
func ToPOSIX(p string) string {
	p = toSlash(p)
	if hasDrive(p) {
		return "/" + strings.ToLower(p[:1]) + p[2:]
	}
	return p
}

// toSlash replaces both separators regardless of the host OS, since paths
// from a Windows config can be processed anywhere.
func toSlash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}

func hasDrive(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// sourceRoot returns the module root this file was compiled from.
func sourceRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	// file is <root>/internal/paths/resolver.go
	return filepath.Dir(filepath.Dir(filepath.Dir(file)))
}
