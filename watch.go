package main

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phobologic/outline/internal/config"
	"github.com/phobologic/outline/internal/merge"
	"github.com/phobologic/outline/internal/process"
	"github.com/phobologic/outline/internal/render"
)

// settle is how long the watcher waits for a burst of events to end before
// regenerating.
const settle = 200 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Regenerate the reference whenever a source file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.config(args)
			if err != nil {
				return err
			}
			m, err := a.merger(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, m, cfg, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the reference to this file instead of stdout")
	return cmd
}

// watch renders once, then again after every change to a Rust source under
// the walk root or to a fixed file, until ctx is done. Scan failures are
// logged and the previous output is kept.
func (a *app) watch(ctx context.Context, m *merge.Merger, cfg *config.Config, out string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := setupWatcher(watcher, cfg); err != nil {
		return err
	}

	a.regenerate(m, cfg, out)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						a.log.WithError(err).WithField("dir", event.Name).Warn("cannot watch new directory")
					}
					continue
				}
			}
			if relevant(event, cfg) {
				a.log.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("source changed")
				pending = time.After(settle)
			}
		case <-pending:
			pending = nil
			a.regenerate(m, cfg, out)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.WithError(err).Warn("watcher error")
		}
	}
}

// setupWatcher adds every directory under the walk root and the directory
// of each fixed file.
func setupWatcher(watcher *fsnotify.Watcher, cfg *config.Config) error {
	dirs := make(map[string]struct{})
	for _, f := range cfg.FixedFiles {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	if cfg.WalkRoot == "" {
		return nil
	}
	return filepath.WalkDir(cfg.WalkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != cfg.WalkRoot && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if _, ok := dirs[path]; ok {
			return nil
		}
		return watcher.Add(path)
	})
}

// relevant reports whether event can change the outline.
func relevant(event fsnotify.Event, cfg *config.Config) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	for _, f := range cfg.FixedFiles {
		if filepath.Clean(event.Name) == filepath.Clean(f) {
			return true
		}
	}
	return filepath.Ext(event.Name) == ".rs" && cfg.WalkRoot != "" &&
		strings.HasPrefix(event.Name, cfg.WalkRoot+string(filepath.Separator))
}

func (a *app) regenerate(m *merge.Merger, cfg *config.Config, out string) {
	o, err := a.outline(m, cfg)
	if err != nil {
		a.log.WithError(err).Error("regenerating reference")
		return
	}
	var buf bytes.Buffer
	if err := render.Document(&buf, process.Build(o), render.DocumentOptions{}); err != nil {
		a.log.WithError(err).Error("rendering reference")
		return
	}
	if out == "" {
		_, _ = a.stdout.Write(buf.Bytes())
		return
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		a.log.WithError(err).WithField("file", out).Error("writing reference")
		return
	}
	a.log.WithField("file", out).Info("wrote reference")
}
