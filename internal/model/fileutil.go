package model

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandTilde expands a leading ~ to the user's home directory.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// CleanInput normalizes a path typed or dropped by the user:
// surrounding whitespace and quotes are removed and ~ is expanded.
func CleanInput(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "'")
	path = strings.TrimSuffix(path, "'")
	path = strings.TrimPrefix(path, "\"")
	path = strings.TrimSuffix(path, "\"")
	return ExpandTilde(path)
}

// Exists reports whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// BaseNameNoExt returns the last path element without its extension.
// Leading dots belong to the name, so ".mvcu_src" stays whole.
func BaseNameNoExt(path string) string {
	base := filepath.Base(filepath.Clean(path))
	ext := filepath.Ext(strings.TrimLeft(base, "."))
	return strings.TrimSuffix(base, ext)
}
