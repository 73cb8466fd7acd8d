package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	sentinelStart = "<!-- outline:start -->"
	sentinelEnd   = "<!-- outline:end -->"
)

// wrapSection surrounds generated text with the sentinel comments.
func wrapSection(body string) string {
	return sentinelStart + "\n" + strings.TrimRight(body, "\n") + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}

// injected returns the current content of path and the content it would
// have with body placed between the sentinels. A missing file reads as empty.
func injected(path, body string) (before, after string, err error) {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(existing), applySection(string(existing), wrapSection(body)), nil
}
