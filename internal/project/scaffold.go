// Package project creates the fixed directory skeleton of the working tree.
package project

import (
	"fmt"
	"os"
	"strings"

	"vculaunch/internal/model"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

// Scaffolder ensures the project skeleton exists.
type Scaffolder struct {
	layout paths.Layout
}

// NewScaffolder creates a Scaffolder for layout.
func NewScaffolder(layout paths.Layout) *Scaffolder {
	return &Scaffolder{layout: layout}
}

// Ensure creates every missing skeleton directory and returns the ones it
// created. Missing toolchain resources are reported, never fatal.
func (s *Scaffolder) Ensure(log *report.Logger) ([]string, error) {
	var created []string

	for _, dir := range s.layout.SkeletonDirs() {
		if model.IsDir(dir) {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("create %s: %w", dir, err)
		}
		log.Infof("Created directory: %s", dir)
		created = append(created, dir)
	}

	if missing := s.MissingResources(); len(missing) > 0 {
		log.Warnf("Missing resource directories: %s", strings.Join(missing, ", "))
		log.Warnf("Place them next to the executable in %s", s.layout.ResourceRoot)
	}

	return created, nil
}

// MissingResources lists bundled resource directories that do not exist.
func (s *Scaffolder) MissingResources() []string {
	var missing []string
	for _, name := range s.layout.RequiredResources() {
		if !model.Exists(s.layout.ResourcePath(name)) {
			missing = append(missing, name)
		}
	}
	return missing
}
