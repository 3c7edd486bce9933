package makefile

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"vculaunch/internal/model"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

// SourceExt is the extension of source modules expected in a makefile.
const SourceExt = ".c"

// ModuleReport lists the source modules of a variant and those not
// mentioned anywhere in its makefile.
type ModuleReport struct {
	Variant string   `json:"variant"`
	Modules []string `json:"modules"`
	Missing []string `json:"missing"`
}

// OK reports whether every module was found.
func (r ModuleReport) OK() bool { return len(r.Missing) == 0 }

// Checker cross-references staged sources against a variant's makefile.
type Checker struct {
	layout paths.Layout
}

// NewChecker creates a Checker for layout.
func NewChecker(layout paths.Layout) *Checker {
	return &Checker{layout: layout}
}

// Check reports the variant's modules that the makefile text does not mention.
// A mention anywhere counts, including inside comments.
func (c *Checker) Check(v model.Variant, log *report.Logger) (ModuleReport, error) {
	rep := ModuleReport{Variant: v.Name}
	srcDir := c.layout.SourceDir(v)
	mkPath := c.layout.Makefile(v)

	log.Infof("Checking %s modules...", v.Name)

	if !model.IsDir(srcDir) {
		return rep, fmt.Errorf("source directory not found: %s", srcDir)
	}
	if !model.Exists(mkPath) {
		return rep, fmt.Errorf("makefile not found: %s", mkPath)
	}

	modules, err := ListModules(srcDir)
	if err != nil {
		return rep, err
	}
	rep.Modules = modules
	if len(modules) == 0 {
		log.Infof("No %s files found in the source directory", SourceExt)
		return rep, nil
	}

	doc, err := Read(mkPath, CheckEncodings, log)
	if err != nil {
		return rep, err
	}

	rep.Missing = MissingModules(modules, doc.Text)
	if rep.OK() {
		log.Infof("All modules are included in the makefile")
	} else {
		log.Warnf("Modules not found in the makefile: %s", strings.Join(rep.Missing, ", "))
		log.Warnf("Check the makefile configuration")
	}
	return rep, nil
}

// ListModules walks dir recursively and returns the basename, without
// extension, of every source file.
func ListModules(dir string) ([]string, error) {
	var modules []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.EqualFold(filepath.Ext(name), SourceExt) {
			modules = append(modules, strings.TrimSuffix(name, filepath.Ext(name)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return modules, nil
}

// MissingModules returns the modules that are not a substring of text.
func MissingModules(modules []string, text string) []string {
	var missing []string
	for _, m := range modules {
		if !strings.Contains(text, m) {
			missing = append(missing, m)
		}
	}
	return missing
}
