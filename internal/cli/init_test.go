package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stepgrade/internal/config"
)

func TestInitPromptsAndScaffolds(t *testing.T) {
	workspace := t.TempDir()
	if err := os.Mkdir(filepath.Join(workspace, "bench"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	previous := initInput
	initInput = strings.NewReader("bench\n\n")
	t.Cleanup(func() { initInput = previous })

	target := config.ConfigPath(workspace)
	var stdout, stderr bytes.Buffer
	if code := Run([]string{"init", "--config", target}, &stdout, &stderr); code != ExitOK {
		t.Fatalf("init failed (%d): %s", code, stderr.String())
	}
	cfg, err := config.Load(target)
	if err != nil {
		t.Fatalf("load scaffolded config: %v", err)
	}
	if cfg.Root != "bench" {
		t.Fatalf("root = %q", cfg.Root)
	}
	gitignore, err := os.ReadFile(filepath.Join(workspace, ".gitignore"))
	if err != nil {
		t.Fatalf("read .gitignore: %v", err)
	}
	if string(gitignore) != config.DefaultStorePath+"\n"+config.DefaultOutputDir+"\n" {
		t.Fatalf("unexpected .gitignore %q", gitignore)
	}

	stderr.Reset()
	if code := Run([]string{"init", "--config", target, "--yes"}, &stdout, &stderr); code != ExitError {
		t.Fatalf("expected refusal to overwrite, got %d", code)
	}
	if !strings.Contains(stderr.String(), "already exists") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestAddGitignoreEntry(t *testing.T) {
	workspace := t.TempDir()
	if err := os.WriteFile(filepath.Join(workspace, ".gitignore"), []byte("bin\n.stepgrade/runs/"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	updated, err := addGitignoreEntry(workspace, "./.stepgrade/runs")
	if err != nil || updated {
		t.Fatalf("expected existing entry to be kept, got %v %v", updated, err)
	}
	updated, err = addGitignoreEntry(workspace, ".stepgrade/results.db")
	if err != nil || !updated {
		t.Fatalf("expected entry to be added, got %v %v", updated, err)
	}
	data, _ := os.ReadFile(filepath.Join(workspace, ".gitignore"))
	if string(data) != "bin\n.stepgrade/runs/\n.stepgrade/results.db\n" {
		t.Fatalf("unexpected .gitignore %q", data)
	}
	if _, err := addGitignoreEntry(workspace, "../outside"); err == nil {
		t.Fatalf("expected error for a path outside the workspace")
	}
}
