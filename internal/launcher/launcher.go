// Package launcher wires the scaffolder, makefile rewriter, profile
// generator and dispatcher together for the CLI, TUI and web front ends.
package launcher

import (
	"context"
	"fmt"

	"vculaunch/internal/config"
	"vculaunch/internal/dispatch"
	"vculaunch/internal/makefile"
	"vculaunch/internal/model"
	"vculaunch/internal/msys"
	"vculaunch/internal/paths"
	"vculaunch/internal/project"
	"vculaunch/internal/report"
)

// Operations is what the front ends can ask for.
type Operations interface {
	Startup(log *report.Logger) (model.BuildPaths, error)
	UpdatePaths(log *report.Logger) (PathUpdate, error)
	RewriteMakefiles(log *report.Logger) []model.MakefileResult
	Dispatch(ctx context.Context, source string, log *report.Logger) (dispatch.Result, error)
	CheckModules(code string, log *report.Logger) (makefile.ModuleReport, error)
	Layout() paths.Layout
}

// PathUpdate is the outcome of a makefile and profile refresh.
type PathUpdate struct {
	Makefiles  []model.MakefileResult `json:"makefiles"`
	BuildPaths model.BuildPaths       `json:"build_paths"`
}

// Launcher is the Operations implementation used by the binary.
type Launcher struct {
	layout     paths.Layout
	scaffolder *project.Scaffolder
	rewriter   *makefile.Rewriter
	profile    *msys.ProfileGenerator
	checker    *makefile.Checker
	dispatcher *dispatch.Dispatcher
}

var _ Operations = (*Launcher)(nil)

// New resolves the roots for this process and builds a Launcher.
func New(cfg config.Config) *Launcher {
	r := paths.NewResolver()
	r.Override = cfg.ResourceRoot
	r.AppOverride = cfg.AppRoot
	return NewWithLayout(cfg, paths.NewLayout(r, cfg.ProjectDirName, cfg.MSYSDistName))
}

// NewWithLayout builds a Launcher over a fixed layout.
func NewWithLayout(cfg config.Config, layout paths.Layout) *Launcher {
	return &Launcher{
		layout:     layout,
		scaffolder: project.NewScaffolder(layout),
		rewriter:   makefile.NewRewriter(layout),
		profile:    msys.NewProfileGenerator(layout, cfg.EnvVar),
		checker:    makefile.NewChecker(layout),
		dispatcher: dispatch.New(layout, cfg.EnvVar, cfg.Robocopy),
	}
}

// Dispatcher exposes the dispatcher so callers can swap its collaborators.
func (l *Launcher) Dispatcher() *dispatch.Dispatcher { return l.dispatcher }

func (l *Launcher) Layout() paths.Layout { return l.layout }

// Startup ensures the project skeleton and regenerates the shell profile.
func (l *Launcher) Startup(log *report.Logger) (model.BuildPaths, error) {
	log.Debugf("Application root: %s", l.layout.AppRoot)
	log.Debugf("Resource root: %s", l.layout.ResourceRoot)

	if _, err := l.scaffolder.Ensure(log); err != nil {
		log.Errorf("Failed to create project structure: %v", err)
		return model.BuildPaths{}, err
	}
	return l.profile.Regenerate(log)
}

// RewriteMakefiles points both makefiles at this installation's toolchain.
func (l *Launcher) RewriteMakefiles(log *report.Logger) []model.MakefileResult {
	log.Infof("Updating makefile paths...")
	results := l.rewriter.UpdatePaths(log)
	if model.AllSucceeded(results) {
		log.Infof("%s Makefile paths updated", model.IconOK)
	} else {
		log.Warnf("Some makefiles were not updated")
	}
	return results
}

// UpdatePaths rewrites both makefiles and then regenerates the profile.
// The returned error reflects only the profile step.
func (l *Launcher) UpdatePaths(log *report.Logger) (PathUpdate, error) {
	up := PathUpdate{Makefiles: l.RewriteMakefiles(log)}

	log.Infof("Updating MSYS profile...")
	bp, err := l.profile.Regenerate(log)
	if err != nil {
		return up, err
	}
	up.BuildPaths = bp
	log.Infof("MVCU path: %s", bp.MVCU)
	log.Infof("SVCU path: %s", bp.SVCU)
	return up, nil
}

func (l *Launcher) Dispatch(ctx context.Context, source string, log *report.Logger) (dispatch.Result, error) {
	return l.dispatcher.Dispatch(ctx, source, log)
}

// CheckModules runs the module presence check for the variant named by code.
func (l *Launcher) CheckModules(code string, log *report.Logger) (makefile.ModuleReport, error) {
	v, ok := model.VariantByCode(code)
	if !ok {
		return makefile.ModuleReport{}, fmt.Errorf("%w: unknown variant %q", model.ErrUnclassified, code)
	}
	return l.checker.Check(v, log)
}
