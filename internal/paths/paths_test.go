package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vculaunch/internal/model"
)

func TestUpperDrive(t *testing.T) {
	cases := map[string]string{
		`c:\tools\GCC`: `C:\tools\GCC`,
		"d:/x":         "D:/x",
		"C:/already":   "C:/already",
		"/usr/local":   "/usr/local",
		"1:/not-drive": "1:/not-drive",
		"":             "",
	}
	for in, want := range cases {
		if got := UpperDrive(in); got != want {
			t.Errorf("UpperDrive(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToMakePathAndPOSIX(t *testing.T) {
	if got := ToMakePath(`c:\R\GCC\bin`); got != "C:/R/GCC/bin" {
		t.Fatalf("ToMakePath = %q", got)
	}
	if got := ToPOSIX(`C:\R\VCU_compile - selftest`); got != "/c/R/VCU_compile - selftest" {
		t.Fatalf("ToPOSIX = %q", got)
	}
	if got := ToPOSIX("/home/me/work"); got != "/home/me/work" {
		t.Fatalf("ToPOSIX on POSIX path = %q", got)
	}
}

func TestResolver_PackagedMode(t *testing.T) {
	dir := t.TempDir()
	r := &Resolver{Executable: filepath.Join(dir, "vculaunch.exe"), SourceRoot: "/src/vculaunch"}

	if !r.Packaged() {
		t.Fatal("expected packaged mode")
	}
	if got := r.ApplicationRoot(); got != Normalize(dir) {
		t.Fatalf("ApplicationRoot = %q, want %q", got, dir)
	}
	if got := r.ResourceRoot("GCC", "bin"); got != filepath.Join(Normalize(dir), "GCC", "bin") {
		t.Fatalf("ResourceRoot = %q", got)
	}
}

func TestResolver_PackagedOverrideTriedFirst(t *testing.T) {
	exeDir := t.TempDir()
	extracted := t.TempDir()
	r := &Resolver{Executable: filepath.Join(exeDir, "vculaunch"), Override: extracted}

	if got := r.ResourceRoot(); got != Normalize(extracted) {
		t.Fatalf("ResourceRoot = %q, want override %q", got, extracted)
	}

	r.Override = filepath.Join(exeDir, "missing")
	if got := r.ResourceRoot(); got != Normalize(exeDir) {
		t.Fatalf("missing override should fall back to exe dir, got %q", got)
	}
	if got := r.ApplicationRoot(); got != Normalize(exeDir) {
		t.Fatalf("override must not move the application root, got %q", got)
	}
}

func TestResolver_SourceMode(t *testing.T) {
	r := &Resolver{
		Executable: filepath.Join(os.TempDir(), "go-build123", "b001", "exe", "vculaunch"),
		SourceRoot: filepath.Join("/work", "tools", "vculaunch"),
	}
	if r.Packaged() {
		t.Fatal("go-build binary must be source mode")
	}
	want := Normalize(filepath.Join("/work", "tools"))
	if got := r.ApplicationRoot(); got != want {
		t.Fatalf("ApplicationRoot = %q, want %q", got, want)
	}
	if got := r.ResourceRoot(); got != want {
		t.Fatalf("ResourceRoot = %q, want %q", got, want)
	}
}

func TestResolver_TestBinaryIsSourceMode(t *testing.T) {
	r := &Resolver{Executable: "/tmp/x/paths.test", SourceRoot: "/a/b"}
	if r.Packaged() {
		t.Fatal("test binary must be source mode")
	}
}

func TestLayout_Locations(t *testing.T) {
	l := Layout{AppRoot: "/app", ResourceRoot: "/res", ProjectName: "VCU_compile - selftest", MSYSName: "MSYS-1.0.10-selftest", GOOS: "windows"}

	if got := l.Makefile(model.MVCU); got != filepath.Join("/app", "VCU_compile - selftest", "dev_kernel_mvcu", "build", "makefile") {
		t.Fatalf("Makefile = %q", got)
	}
	if got := l.OutputDir(model.SVCU); got != filepath.Join("/app", "VCU_compile - selftest", "dev_kernel_svcu", "build", "out") {
		t.Fatalf("OutputDir = %q", got)
	}
	if got := l.ProfilePath(); got != filepath.Join("/res", "MSYS-1.0.10-selftest", "1.0", "etc", "profile") {
		t.Fatalf("ProfilePath = %q", got)
	}
	if !strings.HasSuffix(l.ShellScript(), "msys.bat") {
		t.Fatalf("ShellScript = %q", l.ShellScript())
	}
	l.GOOS = "linux"
	if !strings.HasSuffix(l.ShellScript(), "msys.sh") {
		t.Fatalf("ShellScript = %q", l.ShellScript())
	}

	tools := l.ToolPaths()
	if tools.CW != "/res/CW/ColdFire_Tools/Command_Line_Tools" || tools.GCC != "/res/GCC/bin" {
		t.Fatalf("ToolPaths = %+v", tools)
	}

	bp := l.BuildPaths()
	if bp.MVCU != "/app/VCU_compile - selftest/dev_kernel_mvcu/build" {
		t.Fatalf("BuildPaths.MVCU = %q", bp.MVCU)
	}
	if bp.For(model.SVCU) != "/app/VCU_compile - selftest/dev_kernel_svcu/build" {
		t.Fatalf("BuildPaths.SVCU = %q", bp.SVCU)
	}

	if n := len(l.SkeletonDirs()); n != 7 {
		t.Fatalf("expected project root plus six leaves, got %d", n)
	}
}
