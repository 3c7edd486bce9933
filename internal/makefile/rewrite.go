package makefile

import (
	"fmt"
	"regexp"

	"vculaunch/internal/model"
	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

// Assignment lines are matched from the variable name through end of line,
// whatever the previous value was. \r is left alone so CRLF files stay CRLF.
var (
	cwPathRe  = regexp.MustCompile(`\bCW_PATH[ \t]*=[^\r\n]*`)
	gccPathRe = regexp.MustCompile(`\bGCC_PATH[ \t]*=[^\r\n]*`)
)

// Build banner echo lines, with optional surrounding quotes, and their English forms.
var bannerRewrites = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`@echo[ \t]+"?========== 编译信息 ==========="?`), `@echo "========== Compilation Info =========="`},
	{regexp.MustCompile(`@echo[ \t]+"?当前路径: \$\(shell pwd\)"?`), `@echo "Current directory: $(shell pwd)"`},
	{regexp.MustCompile(`@echo[ \t]+"?编译器路径:"?`), `@echo "Compiler paths:"`},
	{regexp.MustCompile(`@echo[ \t]+"?=============================="?`), `@echo "=============================="`},
}

// RewriteText substitutes the toolchain assignments and banner lines in a
// makefile's text. Every other line is returned unchanged.
func RewriteText(text string, tools model.ToolPaths) string {
	text = cwPathRe.ReplaceAllLiteralString(text, "CW_PATH = "+tools.CW)
	text = gccPathRe.ReplaceAllLiteralString(text, "GCC_PATH = "+tools.GCC)
	for _, b := range bannerRewrites {
		text = b.re.ReplaceAllLiteralString(text, b.repl)
	}
	return text
}

// Rewriter points both variants' makefiles at the bundled toolchains.
type Rewriter struct {
	layout    paths.Layout
	encodings []Encoding
}

// NewRewriter creates a Rewriter for layout.
func NewRewriter(layout paths.Layout) *Rewriter {
	return &Rewriter{layout: layout, encodings: RewriteEncodings}
}

// UpdatePaths rewrites each variant's makefile in place and returns one
// result per variant. Failures are reported and recorded, never returned.
func (r *Rewriter) UpdatePaths(log *report.Logger) []model.MakefileResult {
	tools := r.layout.ToolPaths()

	log.Infof("Current directory: %s", r.layout.ResourceRoot)
	log.Infof("Setting compiler paths:")
	log.Infof("CW path = %s", tools.CW)
	log.Infof("GCC path = %s", tools.GCC)

	results := make([]model.MakefileResult, 0, len(model.Variants))
	for _, v := range model.Variants {
		results = append(results, r.updateOne(v, tools, log))
	}
	return results
}

func (r *Rewriter) updateOne(v model.Variant, tools model.ToolPaths, log *report.Logger) model.MakefileResult {
	path := r.layout.Makefile(v)
	fail := func(msg string) model.MakefileResult {
		log.Errorf("%s", msg)
		return model.MakefileResult{Variant: v.Name, Success: false, Message: msg, Path: path}
	}

	if !model.Exists(path) {
		return fail(fmt.Sprintf("Makefile not found: %s", path))
	}

	log.Infof("Processing %s makefile...", v.Name)
	doc, err := Read(path, r.encodings, log)
	if err != nil {
		return fail(fmt.Sprintf("Cannot read file with any supported encoding: %s", path))
	}

	doc.Text = RewriteText(doc.Text, tools)
	if err := doc.Write(); err != nil {
		return fail(fmt.Sprintf("Failed to update makefile content: %s, error: %v", path, err))
	}

	msg := fmt.Sprintf("Successfully updated %s makefile: %s", v.Name, path)
	log.Infof("%s", msg)
	return model.MakefileResult{Variant: v.Name, Success: true, Message: msg, Path: path}
}
