package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vculaunch/internal/paths"
	"vculaunch/internal/report"
)

func testLayout(root string) paths.Layout {
	return paths.Layout{
		AppRoot:      root,
		ResourceRoot: root,
		ProjectName:  "VCU_compile - selftest",
		MSYSName:     "MSYS-1.0.10-selftest",
	}
}

func TestEnsure_Idempotent(t *testing.T) {
	root := t.TempDir()
	var lines report.Collector
	s := NewScaffolder(testLayout(root))
	log := report.New(false, &lines)

	created, err := s.Ensure(log)
	if err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	// project root plus six leaves
	if len(created) != 7 {
		t.Fatalf("expected 7 created dirs, got %d: %v", len(created), created)
	}

	leaves := []string{
		filepath.Join("dev_kernel_mvcu", "src"),
		filepath.Join("dev_kernel_mvcu", "build"),
		filepath.Join("dev_kernel_mvcu", "build", "out"),
		filepath.Join("dev_kernel_svcu", "src"),
		filepath.Join("dev_kernel_svcu", "build"),
		filepath.Join("dev_kernel_svcu", "build", "out"),
	}
	for _, leaf := range leaves {
		info, err := os.Stat(filepath.Join(root, "VCU_compile - selftest", leaf))
		if err != nil || !info.IsDir() {
			t.Fatalf("missing leaf %s: %v", leaf, err)
		}
	}

	created, err = s.Ensure(log)
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if len(created) != 0 {
		t.Fatalf("second Ensure created %v", created)
	}

	var createdLogs int
	for _, l := range lines.Texts() {
		if strings.Contains(l, "Created directory") {
			createdLogs++
		}
	}
	if createdLogs != 7 {
		t.Fatalf("expected 7 creation log lines, got %d", createdLogs)
	}
}

func TestEnsure_ReportsMissingResources(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "GCC"), 0o755); err != nil {
		t.Fatal(err)
	}
	var lines report.Collector
	s := NewScaffolder(testLayout(root))
	log := report.New(false, &lines)

	if _, err := s.Ensure(log); err != nil {
		t.Fatalf("missing resources must not fail: %v", err)
	}
	missing := s.MissingResources()
	if strings.Join(missing, ",") != "CW,MSYS-1.0.10-selftest" {
		t.Fatalf("unexpected missing list %v", missing)
	}

	var warned bool
	for _, l := range lines.Lines() {
		if strings.Contains(l.Text, "CW, MSYS-1.0.10-selftest") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected a warning naming the missing dirs, got %v", lines.Texts())
	}
}

func TestEnsure_FailsWhenRootIsAFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "VCU_compile - selftest"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewScaffolder(testLayout(root))
	if _, err := s.Ensure(report.New(false)); err == nil {
		t.Fatal("expected error when project root is a regular file")
	}
}
