package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file touch the process environment and do not run in
// parallel.

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAmbiguity, EnvDuplicates, EnvTodoc} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "src/scenario_planner/types.rs"),
		filepath.Join(root, "src/scenario_planner/fromstr.rs"),
	}, cfg.FixedFiles)
	assert.Equal(t, filepath.Join(root, "src/scenario_executor"), cfg.WalkRoot)
	assert.False(t, cfg.Lenient())
	assert.Equal(t, "keep", cfg.Duplicates)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), `
fixed_files: [a.rs]
walk_root: /abs/executor
ambiguity: first
duplicates: last
prefix_list: doc/prefixes.txt
cache_size: 64
max_file_size: 4096
`)

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.rs")}, cfg.FixedFiles)
	assert.Equal(t, "/abs/executor", cfg.WalkRoot)
	assert.True(t, cfg.Lenient())
	assert.Equal(t, "last", cfg.Duplicates)
	assert.Equal(t, filepath.Join(root, "doc/prefixes.txt"), cfg.PrefixList)
	assert.Equal(t, 64, cfg.CacheSize)
	assert.Equal(t, int64(4096), cfg.MaxFileSize)
	assert.Equal(t, "json", cfg.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "ambiguity: first\nduplicates: last\n")
	t.Setenv(EnvAmbiguity, "strict")
	t.Setenv(EnvTodoc, "overlays")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.False(t, cfg.Lenient())
	assert.Equal(t, "last", cfg.Duplicates)
	assert.Equal(t, "overlays", cfg.Todoc)
}

func TestDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not replace variables that are set, even to "".
	require.NoError(t, os.Unsetenv(EnvDuplicates))
	root := t.TempDir()
	write(t, filepath.Join(root, ".env"), EnvDuplicates+"=error\n")
	t.Cleanup(func() { os.Unsetenv(EnvDuplicates) })

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Duplicates)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	_, err := Load(root, filepath.Join(root, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")

	bad := filepath.Join(root, "bad.yaml")
	write(t, bad, "fixed_files: {\n")
	_, err = Load(root, bad)
	assert.ErrorContains(t, err, "parsing config")

	write(t, bad, "ambiguity: sometimes\n")
	_, err = Load(root, bad)
	assert.ErrorContains(t, err, "ambiguity policy")

	write(t, bad, "format: toml\n")
	_, err = Load(root, bad)
	assert.ErrorContains(t, err, "format")
}
