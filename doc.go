package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phobologic/outline/internal/config"
	"github.com/phobologic/outline/internal/interchange"
	"github.com/phobologic/outline/internal/merge"
	"github.com/phobologic/outline/internal/model"
	"github.com/phobologic/outline/internal/process"
	"github.com/phobologic/outline/internal/render"
)

const helpTimeout = 10 * time.Second

// errStale is returned by doc --check when a checked file differs from
// what would be generated.
var errStale = errors.New("generated documentation is out of date")

type docOptions struct {
	cache      string
	helpCmd    string
	prefixList string
	check      string
	inject     string
	dryRun     bool
	// settings are the config files the outline depends on.
	settings []string
}

func (a *app) docCmd() *cobra.Command {
	var o docOptions
	cmd := &cobra.Command{
		Use:   "doc [root]",
		Short: "Scan, process and render the complete reference",
		Long: `Scan the configured sources and render the complete Markdown reference.

With --inject the reference replaces the block between the outline sentinel
comments of an existing file, which is created if missing. With --check
nothing is written; the command prints a unified diff and fails when the
file is stale.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := a.config(args)
			if err != nil {
				return err
			}
			o.settings = a.settingsFiles(root)
			if o.helpCmd == "" {
				o.helpCmd = cfg.HelpCommand
			}
			if o.prefixList == "" {
				o.prefixList = cfg.PrefixList
			}
			m, err := a.merger(cfg)
			if err != nil {
				return err
			}
			return a.doc(cmd.Context(), m, cfg, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.cache, "cache", "", "reuse the outline stored in this file while no source is newer")
	f.StringVar(&o.helpCmd, "help-cmd", "", "command whose output is embedded as the CLI help")
	f.StringVar(&o.prefixList, "prefix-list", "", "also write the short prefix list to this file")
	f.StringVar(&o.check, "check", "", "compare this file with the generated reference instead of writing")
	f.StringVar(&o.inject, "inject", "", "write the reference between the sentinels of this file")
	f.BoolVar(&o.dryRun, "dry-run", false, "with --inject, print the would-be file instead of writing it")
	return cmd
}

func (a *app) doc(ctx context.Context, m *merge.Merger, cfg *config.Config, o docOptions) error {
	outline, err := a.cachedOutline(m, cfg, o.cache, o.settings)
	if err != nil {
		return err
	}
	doc := process.Build(outline)

	help, err := captureHelp(ctx, o.helpCmd)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := render.Document(&buf, doc, render.DocumentOptions{CLIHelp: help}); err != nil {
		return err
	}
	text := buf.String()

	if o.check != "" {
		return a.checkAll(o, text, doc)
	}

	if o.prefixList != "" {
		if err := writePrefixList(o.prefixList, doc); err != nil {
			return err
		}
	}

	if o.inject == "" {
		_, err := fmt.Fprint(a.stdout, text)
		return err
	}
	_, updated, err := injected(o.inject, text)
	if err != nil {
		return err
	}
	if o.dryRun {
		_, err := fmt.Fprint(a.stdout, updated)
		return err
	}
	if err := os.WriteFile(o.inject, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", o.inject, err)
	}
	a.log.WithField("file", o.inject).Info("wrote reference")
	return nil
}

// cachedOutline returns the merged outline, served from cachePath when no
// source and no settings file is newer than it. A fresh merge rewrites the
// cache.
func (a *app) cachedOutline(m *merge.Merger, cfg *config.Config, cachePath string, settings []string) (*model.Outline, error) {
	if cachePath == "" {
		return a.outline(m, cfg)
	}

	paths, err := merge.Sources(cfg.FixedFiles, cfg.WalkRoot)
	if err != nil {
		return nil, err
	}
	if cacheIsFresh(cachePath, append(paths, settings...)) {
		f, err := os.Open(cachePath)
		if err == nil {
			o, derr := interchange.Decode[model.Outline](f)
			f.Close()
			if derr == nil {
				a.log.WithField("cache", cachePath).Debug("using cached outline")
				return o, nil
			}
			a.log.WithError(derr).Warn("ignoring unreadable cache")
		}
	}

	o, err := a.outline(m, cfg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := interchange.Encode(&buf, interchange.JSON, o); err != nil {
		return nil, err
	}
	if err := os.WriteFile(cachePath, buf.Bytes(), 0o644); err != nil {
		a.log.WithError(err).WithField("cache", cachePath).Warn("could not write cache")
	}
	return o, nil
}

// settingsFiles lists the existing files that config.Load reads for root.
func (a *app) settingsFiles(root string) []string {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = filepath.Join(root, config.FileName)
	}
	var files []string
	for _, p := range []string{cfgFile, filepath.Join(root, ".env")} {
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	return files
}

// cacheIsFresh reports whether cachePath exists and every path was last
// modified before it.
func cacheIsFresh(cachePath string, paths []string) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

// captureHelp runs command and returns its standard output. An empty
// command yields no help.
func captureHelp(ctx context.Context, command string) (string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, helpTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, fields[0], fields[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("running help command %q: %w", command, err)
	}
	return string(out), nil
}

func writePrefixList(path string, doc *model.Document) error {
	var buf bytes.Buffer
	if err := render.CheatSheet(&buf, doc.PlannerContent); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// checkAll compares the reference and, when configured, the prefix list
// with their files on disk.
func (a *app) checkAll(o docOptions, text string, doc *model.Document) error {
	stale, err := a.checkFile(o.check, text, true)
	if err != nil {
		return err
	}
	if o.prefixList != "" {
		var buf bytes.Buffer
		if err := render.CheatSheet(&buf, doc.PlannerContent); err != nil {
			return err
		}
		s, err := a.checkFile(o.prefixList, buf.String(), false)
		if err != nil {
			return err
		}
		stale = stale || s
	}
	if stale {
		return errStale
	}
	return nil
}

// checkFile prints a unified diff between path and want and reports whether
// they differ. When sentinels is set and the file carries an outline block,
// only that block is compared.
func (a *app) checkFile(path, want string, sentinels bool) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	have := string(data)
	if sentinels && strings.Contains(have, sentinelStart) {
		_, want, err = injected(path, want)
		if err != nil {
			return false, err
		}
	}
	if have == want {
		return false, nil
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(have),
		B:        difflib.SplitLines(want),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if err != nil {
		return false, fmt.Errorf("diffing %s: %w", path, err)
	}
	_, _ = fmt.Fprint(a.stdout, diff)
	a.log.WithFields(logrus.Fields{"file": path}).Warn("file is out of date")
	return true, nil
}
