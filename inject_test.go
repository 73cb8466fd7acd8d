package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestApplySectionCreate verifies that applySection on empty content yields
// just the section with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := wrapSection("body")
	got := applySection("", section)
	if got != sentinelStart+"\nbody\n"+sentinelEnd+"\n" {
		t.Errorf("got %q", got)
	}
}

// TestApplySectionAppend verifies that existing content without a sentinel
// block is preserved and the section is appended.
func TestApplySectionAppend(t *testing.T) {
	t.Parallel()
	existing := "# My Project\n\nSome existing content."
	got := applySection(existing, wrapSection("new content"))

	if !strings.HasPrefix(got, existing+"\n\n"+sentinelStart) {
		t.Errorf("existing content should be preserved at start:\n%s", got)
	}
	if !strings.Contains(got, "new content") {
		t.Error("new content missing")
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# Project\n\n"
	after := "\n\n## Other Section\n"
	old := before + wrapSection("old content") + after

	got := applySection(old, wrapSection("new content"))

	if got != before+sentinelStart+"\nnew content\n"+sentinelEnd+after {
		t.Errorf("unexpected update:\n%s", got)
	}
}

// TestWrapSectionTrimsTrailingNewlines keeps the end sentinel on the line
// after the body.
func TestWrapSectionTrimsTrailingNewlines(t *testing.T) {
	t.Parallel()
	if got := wrapSection("text\n\n\n"); got != sentinelStart+"\ntext\n"+sentinelEnd {
		t.Errorf("got %q", got)
	}
}

func TestInjectedMissingFile(t *testing.T) {
	t.Parallel()
	before, after, err := injected(filepath.Join(t.TempDir(), "none.md"), "body\n")
	if err != nil {
		t.Fatal(err)
	}
	if before != "" {
		t.Errorf("missing file should read as empty, got %q", before)
	}
	if after != wrapSection("body")+"\n" {
		t.Errorf("got %q", after)
	}
}

func TestInjectedUnreadable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "doc.md"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, _, err := injected(filepath.Join(dir, "doc.md"), "body"); err == nil {
		t.Error("reading a directory should fail")
	}
}
