package paths

import (
	"path/filepath"
	"runtime"

	"vculaunch/internal/model"
)

// Resource directories expected next to the executable.
const (
	GCCDir = "GCC"
	CWDir  = "CW"
)

// Layout maps the two roots onto every fixed location the launcher touches.
type Layout struct {
	AppRoot      string
	ResourceRoot string
	ProjectName  string // Directory name of the project root under AppRoot
	MSYSName     string // Directory name of the MSYS distribution under ResourceRoot
	GOOS         string // Selects the shell startup script; defaults to runtime.GOOS
}

// NewLayout builds a Layout from a Resolver.
func NewLayout(r *Resolver, projectName, msysName string) Layout {
	return Layout{
		AppRoot:      r.ApplicationRoot(),
		ResourceRoot: r.ResourceRoot(),
		ProjectName:  projectName,
		MSYSName:     msysName,
		GOOS:         runtime.GOOS,
	}
}

// ProjectRoot is the generated working tree.
func (l Layout) ProjectRoot() string {
	return Normalize(filepath.Join(l.AppRoot, l.ProjectName))
}

// VariantDir is the per-variant directory under the project root.
func (l Layout) VariantDir(v model.Variant) string {
	return filepath.Join(l.ProjectRoot(), v.DirName)
}

func (l Layout) SourceDir(v model.Variant) string { return filepath.Join(l.VariantDir(v), "src") }
func (l Layout) BuildDir(v model.Variant) string  { return filepath.Join(l.VariantDir(v), "build") }
func (l Layout) OutputDir(v model.Variant) string { return filepath.Join(l.BuildDir(v), "out") }
func (l Layout) Makefile(v model.Variant) string  { return filepath.Join(l.BuildDir(v), "makefile") }

// SkeletonDirs lists every directory the scaffolder guarantees, parents first.
func (l Layout) SkeletonDirs() []string {
	dirs := []string{l.ProjectRoot()}
	for _, v := range model.Variants {
		dirs = append(dirs, l.SourceDir(v), l.BuildDir(v), l.OutputDir(v))
	}
	return dirs
}

// ResourcePath joins parts onto the resource root.
func (l Layout) ResourcePath(parts ...string) string {
	return Normalize(filepath.Join(append([]string{l.ResourceRoot}, parts...)...))
}

// MSYSDir is the root of the bundled MSYS distribution.
func (l Layout) MSYSDir() string { return l.ResourcePath(l.MSYSName) }

// ProfilePath is the shell profile regenerated on every start.
func (l Layout) ProfilePath() string {
	return l.ResourcePath(l.MSYSName, "1.0", "etc", "profile")
}

// ShellScript is the MSYS startup script launched by the dispatcher.
func (l Layout) ShellScript() string {
	name := "msys.sh"
	if l.goos() == "windows" {
		name = "msys.bat"
	}
	return l.ResourcePath(l.MSYSName, "1.0", name)
}

// ToolPaths returns the toolchain directories in makefile form.
func (l Layout) ToolPaths() model.ToolPaths {
	return model.ToolPaths{
		CW:  ToMakePath(l.ResourcePath(CWDir, "ColdFire_Tools", "Command_Line_Tools")),
		GCC: ToMakePath(l.ResourcePath(GCCDir, "bin")),
	}
}

// RequiredResources lists the resource directories that should exist.
func (l Layout) RequiredResources() []string {
	return []string{GCCDir, CWDir, l.MSYSName}
}

// BuildPaths returns each variant's build directory in MSYS form.
func (l Layout) BuildPaths() model.BuildPaths {
	project := ToPOSIX(l.ProjectRoot())
	return model.BuildPaths{
		MVCU: project + "/" + model.MVCU.DirName + "/build",
		SVCU: project + "/" + model.SVCU.DirName + "/build",
	}
}

func (l Layout) goos() string {
	if l.GOOS == "" {
		return runtime.GOOS
	}
	return l.GOOS
}
