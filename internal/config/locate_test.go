package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveToolsPathWalksToRepoRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("failed to create git dir: %v", err)
	}
	child := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatalf("failed to create nested dirs: %v", err)
	}
	want := filepath.Join(root, "tools.yaml")
	if err := os.WriteFile(want, []byte("tools: {}\n"), 0o644); err != nil {
		t.Fatalf("failed to write tools file: %v", err)
	}

	found, err := ResolveToolsPath("", child)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != want {
		t.Fatalf("expected %s, got %s", want, found)
	}
}

func TestResolveToolsPathStopsAtRepoRoot(t *testing.T) {
	outer := t.TempDir()
	if err := os.WriteFile(filepath.Join(outer, "tools.json"), []byte(`{"tools":{}}`), 0o644); err != nil {
		t.Fatalf("failed to write tools file: %v", err)
	}
	repo := filepath.Join(outer, "repo")
	if err := os.MkdirAll(filepath.Join(repo, ".git"), 0o755); err != nil {
		t.Fatalf("failed to create git dir: %v", err)
	}

	if _, err := ResolveToolsPath("", repo); err == nil {
		t.Fatalf("expected lookup to stop at the repository root")
	}
}

func TestResolveToolsPathExplicit(t *testing.T) {
	dir := t.TempDir()
	if _, err := ResolveToolsPath("missing.json", dir); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
	path := filepath.Join(dir, "custom.json")
	if err := os.WriteFile(path, []byte(`{"tools":{}}`), 0o644); err != nil {
		t.Fatalf("failed to write tools file: %v", err)
	}
	found, err := ResolveToolsPath("custom.json", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found != path {
		t.Fatalf("expected %s, got %s", path, found)
	}
}
