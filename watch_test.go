package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/outline/internal/config"
)

func TestRelevant(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		FixedFiles: []string{"/p/src/planner/types.rs"},
		WalkRoot:   "/p/src/executor",
	}
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"walked source write", fsnotify.Event{Name: "/p/src/executor/a.rs", Op: fsnotify.Write}, true},
		{"nested source create", fsnotify.Event{Name: "/p/src/executor/sub/b.rs", Op: fsnotify.Create}, true},
		{"source removed", fsnotify.Event{Name: "/p/src/executor/a.rs", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/p/src/executor/a.rs", Op: fsnotify.Chmod}, false},
		{"other extension", fsnotify.Event{Name: "/p/src/executor/a.rs.swp", Op: fsnotify.Write}, false},
		{"fixed file", fsnotify.Event{Name: "/p/src/planner/types.rs", Op: fsnotify.Write}, true},
		{"fixed file sibling", fsnotify.Event{Name: "/p/src/planner/other.rs", Op: fsnotify.Write}, false},
		{"outside walk root", fsnotify.Event{Name: "/p/src/executor2/a.rs", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relevant(tt.event, cfg), tt.name)
	}
}

func waitForContent(t *testing.T, path, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(data), want)
	}, 10*time.Second, 20*time.Millisecond, "%s never contained %q", path, want)
}

func TestWatchRegenerates(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	out := filepath.Join(t.TempDir(), "reference.md")

	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	a := &app{stdout: io.Discard, stderr: io.Discard, log: logger}

	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	m, err := a.merger(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, m, cfg, out) }()

	waitForContent(t, out, "## ws_connect\n")

	writeTestFile(t, dir, "src/scenario_executor/extra.rs", `fn register(engine: &mut Engine) {
    engine.register_fn("other", other_fn);
}

//@ Does other things
fn other_fn() {
}
`)
	waitForContent(t, out, "## other\n\nDoes other things\n")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchMissingWalkRoot(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cfg, err := config.Load(dir, "")
	require.NoError(t, err)
	cfg.WalkRoot = filepath.Join(dir, "nope")

	logger, _ := logtest.NewNullLogger()
	a := &app{stdout: io.Discard, log: logger}
	m, err := a.merger(cfg)
	require.NoError(t, err)

	assert.Error(t, a.watch(context.Background(), m, cfg, ""))
}
