package model

// ToolPaths holds the toolchain directories written into the makefiles.
// Both values are forward-slashed with an uppercase drive letter.
type ToolPaths struct {
	CW  string `json:"cw"`  // ColdFire command line tools (CW_PATH)
	GCC string `json:"gcc"` // GCC bin directory (GCC_PATH)
}

// BuildPaths holds the POSIX-style build directories embedded in the shell profile.
type BuildPaths struct {
	MVCU string `json:"mvcu"`
	SVCU string `json:"svcu"`
}

// For returns the build path belonging to a variant.
func (b BuildPaths) For(v Variant) string {
	if v.Code == SVCU.Code {
		return b.SVCU
	}
	return b.MVCU
}

// MakefileResult records the outcome of rewriting one variant's makefile.
type MakefileResult struct {
	Variant string `json:"variant"` // "MVCU" or "SVCU"
	Success bool   `json:"success"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// AllSucceeded reports whether every result in a non-empty batch succeeded.
func AllSucceeded(results []MakefileResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}
