package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vculaunch/internal/config"
	"vculaunch/internal/model"
	"vculaunch/internal/msys"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

type nopLauncher struct{ env map[string]string }

func (n *nopLauncher) Launch(_ context.Context, _ string, env map[string]string) error {
	n.env = env
	return nil
}

type nopOpener struct{}

func (nopOpener) Open(string) error { return nil }

func newTestLauncher(t *testing.T, withMSYS bool) (*Launcher, paths.Layout) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Robocopy = config.RobocopyNever
	l := paths.Layout{
		AppRoot:      root,
		ResourceRoot: root,
		ProjectName:  cfg.ProjectDirName,
		MSYSName:     cfg.MSYSDistName,
		GOOS:         "linux",
	}
	if withMSYS {
		if err := os.MkdirAll(filepath.Dir(l.ProfilePath()), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	ln := NewWithLayout(cfg, l)
	ln.Dispatcher().Launcher = &nopLauncher{}
	ln.Dispatcher().Opener = nopOpener{}
	return ln, l
}

func TestStartup_ScaffoldsAndWritesProfile(t *testing.T) {
	ln, l := newTestLauncher(t, true)

	bp, err := ln.Startup(report.New(false))
	if err != nil {
		t.Fatalf("Startup: %v", err)
	}
	for _, dir := range l.SkeletonDirs() {
		if !model.IsDir(dir) {
			t.Fatalf("missing %s", dir)
		}
	}
	data, err := os.ReadFile(l.ProfilePath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), bp.MVCU) {
		t.Fatal("profile does not embed the MVCU path")
	}
}

func TestStartup_MissingMSYS(t *testing.T) {
	ln, l := newTestLauncher(t, false)

	_, err := ln.Startup(report.New(false))
	if !errors.Is(err, msys.ErrProfileDirMissing) {
		t.Fatalf("expected ErrProfileDirMissing, got %v", err)
	}
	if !model.IsDir(l.ProjectRoot()) {
		t.Fatal("scaffold should run even when the profile cannot be written")
	}
}

func TestUpdatePaths_SucceedsOnProfileEvenIfMakefilesMissing(t *testing.T) {
	ln, _ := newTestLauncher(t, true)

	var lines report.Collector
	up, err := ln.UpdatePaths(report.New(false, &lines))
	if err != nil {
		t.Fatalf("UpdatePaths: %v", err)
	}
	if model.AllSucceeded(up.Makefiles) {
		t.Fatal("makefiles do not exist, rewrite must fail")
	}
	if up.BuildPaths.SVCU == "" {
		t.Fatal("build paths not returned")
	}
}

func TestCheckModules(t *testing.T) {
	ln, l := newTestLauncher(t, true)
	if _, err := ln.Startup(report.New(false)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(l.SourceDir(model.SVCU), "io.c"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.Makefile(model.SVCU), []byte("SRCS = io.c\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := ln.CheckModules("S", report.New(false))
	if err != nil || !rep.OK() {
		t.Fatalf("got %+v, %v", rep, err)
	}
	if _, err := ln.CheckModules("x", report.New(false)); !errors.Is(err, model.ErrUnclassified) {
		t.Fatalf("expected ErrUnclassified, got %v", err)
	}
}

func TestDispatch_UsesConfiguredEnvVar(t *testing.T) {
	ln, _ := newTestLauncher(t, true)
	fake := &nopLauncher{}
	ln.Dispatcher().Launcher = fake
	ln.Dispatcher().EnvVar = "BUILD_SEL"

	src := filepath.Join(t.TempDir(), "new_svcu")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := ln.Dispatch(context.Background(), src, report.New(false)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if fake.env["BUILD_SEL"] != "s" {
		t.Fatalf("env %v", fake.env)
	}
}
