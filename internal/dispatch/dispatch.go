// Package dispatch stages a user's source into the matching variant and
// starts the MSYS build shell for it.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vculaunch/internal/makefile"
	"vculaunch/internal/model"
	"vculaunch/internal/msys"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
	"vculaunch/internal/stage"
)

// ErrSourceNotFound is returned when the path to dispatch does not exist.
var ErrSourceNotFound = errors.New("source path does not exist")

// ModuleChecker reports source modules a variant's makefile does not list.
type ModuleChecker interface {
	Check(v model.Variant, log *report.Logger) (makefile.ModuleReport, error)
}

// Result describes how far a dispatch got.
type Result struct {
	Variant      model.Variant
	Copied       bool
	ShellStarted bool
	OutputOpened bool
}

// Dispatcher runs the classify, stage and launch sequence.
type Dispatcher struct {
	Layout   paths.Layout
	EnvVar   string
	Mirror   stage.Mirror
	Launcher msys.Launcher
	Opener   Opener
	Checker  ModuleChecker // optional
}

// New creates a Dispatcher with the platform mirror, launcher and opener.
func New(layout paths.Layout, envVar, robocopyMode string) *Dispatcher {
	return &Dispatcher{
		Layout:   layout,
		EnvVar:   envVar,
		Mirror:   stage.NewMirror(robocopyMode),
		Launcher: msys.NewProcessLauncher(),
		Opener:   NewSystemOpener(),
		Checker:  makefile.NewChecker(layout),
	}
}

// Dispatch stages source into its variant and launches the build shell.
// Nothing is created or copied unless the name classifies to exactly one
// variant and the source does not nest with the variant's src folder.
func (d *Dispatcher) Dispatch(ctx context.Context, source string, log *report.Logger) (Result, error) {
	var res Result

	source = model.CleanInput(source)
	if source == "" || !model.Exists(source) {
		log.Errorf("Source path does not exist: %s", source)
		return res, fmt.Errorf("%w: %s", ErrSourceNotFound, source)
	}

	name := model.BaseNameNoExt(source)
	log.Infof("Processing source: %s", name)
	v, err := model.Classify(name)
	if err != nil {
		log.Errorf("Source name '%s' must contain exactly one of mvcu or svcu", name)
		return res, fmt.Errorf("classify %q: %w", name, err)
	}
	res.Variant = v
	log.Infof("%s Detected %s type ('%s' found in '%s')", model.VariantIcon(v), v.Name, v.Key, name)

	dest := d.Layout.SourceDir(v)
	if err := stage.CheckOverlap(source, dest); err != nil {
		log.Errorf("Source overlaps the %s source folder: %s", v.Name, dest)
		return res, err
	}
	if !model.IsDir(dest) {
		if err := mkdirAll(dest); err != nil {
			log.Errorf("Failed to create source folder: %v", err)
			return res, err
		}
		log.Infof("Created destination folder: %s", dest)
	}

	env := map[string]string{d.EnvVar: v.Code}
	log.Infof("Setting %s=%s for the build shell", d.EnvVar, v.Code)

	if err := d.stage(ctx, source, dest, log); err != nil {
		log.Errorf("File copy failed: %v", err)
		return res, err
	}
	res.Copied = true

	if d.Checker != nil {
		log.Infof("Checking modules against the makefile...")
		if _, err := d.Checker.Check(v, log); err != nil {
			log.Warnf("Module check failed: %v", err)
		} else {
			log.Infof("Module check finished")
		}
	}

	script := d.Layout.ShellScript()
	log.Infof("Starting MSYS: %s", script)
	if err := d.Launcher.Launch(ctx, script, env); err != nil {
		if errors.Is(err, msys.ErrShellNotFound) {
			log.Errorf("MSYS startup script not found: %s", script)
		} else {
			log.Errorf("Failed to start MSYS: %v", err)
		}
		return res, err
	}
	res.ShellStarted = true
	log.Infof("MSYS started, it will build in %s", d.Layout.BuildPaths().For(v))

	out := d.Layout.OutputDir(v)
	if model.IsDir(out) && d.Opener != nil {
		if err := d.Opener.Open(out); err != nil {
			log.Warnf("Could not open output folder: %v", err)
		} else {
			res.OutputOpened = true
			log.Infof("Opened output folder: %s", out)
		}
	}
	return res, nil
}

func (d *Dispatcher) stage(ctx context.Context, source, dest string, log *report.Logger) error {
	if model.IsDir(source) {
		log.Infof("Mirroring directory %s to %s (%s)", source, dest, d.Mirror.Name())
		if err := d.Mirror.Mirror(ctx, source, dest); err != nil {
			return err
		}
	} else {
		log.Infof("Copying file %s to %s", source, dest)
		if _, err := stage.CopyInto(source, dest); err != nil {
			return err
		}
	}
	log.Infof("%s Files copied", model.IconOK)
	return nil
}

func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dir), err)
	}
	return nil
}
