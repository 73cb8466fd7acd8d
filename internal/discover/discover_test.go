package discover

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiscoverRustFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.rs", "fn main() {}")
	writeFile(t, dir, "scenario_executor/net.rs", "fn connect() {}")
	writeFile(t, dir, "scenario_executor/copy.rs", "fn copy() {}")
	// Non-Rust file should be ignored
	writeFile(t, dir, "README.md", "hello")
	// Hidden file should be ignored
	writeFile(t, dir, ".hidden.rs", "fn secret() {}")

	entries, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}

	want := []string{
		"main.rs",
		filepath.Join("scenario_executor", "copy.rs"),
		filepath.Join("scenario_executor", "net.rs"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, paths[i], want[i])
		}
	}

	for _, e := range entries {
		if e.Language != "rust" {
			t.Errorf("entry %q: language = %q, want rust", e.Path, e.Language)
		}
	}
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "lib.rs", "")
	writeFile(t, dir, "target/debug/build/out.rs", "")
	writeFile(t, dir, "node_modules/pkg.rs", "")
	writeFile(t, dir, ".hidden/secret.rs", "")

	entries, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Path != "lib.rs" {
		t.Errorf("expected lib.rs, got %q", entries[0].Path)
	}
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, ".gitignore", "generated/\n*_gen.rs\n")
	writeFile(t, dir, "keep.rs", "")
	writeFile(t, dir, "skip_gen.rs", "")
	writeFile(t, dir, "generated/out.rs", "")

	entries, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 || entries[0].Path != "keep.rs" {
		t.Fatalf("expected only keep.rs, got %v", entries)
	}
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.rs", "")

	err := os.Symlink(filepath.Join(dir, "real.rs"), filepath.Join(dir, "link.rs"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (no symlink), got %d", len(entries))
	}
	if entries[0].Path != "real.rs" {
		t.Errorf("expected real.rs, got %q", entries[0].Path)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := Files(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected an error for a missing root")
	}

	dir := t.TempDir()
	writeFile(t, dir, "file.rs", "")
	if _, err := Files(filepath.Join(dir, "file.rs")); err == nil {
		t.Fatal("expected an error for a file root")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
