// Package merge builds one Outline from a fixed list of files and a
// directory walk.
package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/phobologic/outline/internal/discover"
	"github.com/phobologic/outline/internal/model"
	"github.com/phobologic/outline/internal/scan"
)

// DefaultCacheSize bounds the number of per-file outlines kept between
// merges.
const DefaultCacheSize = 512

// DefaultMaxFileSize is the size above which a source file is skipped.
const DefaultMaxFileSize = 1 << 20

// Options configures a Merger.
type Options struct {
	Lenient    bool
	Duplicates Policy
	CacheSize  int
	// MaxFileSize skips larger sources. Zero selects DefaultMaxFileSize,
	// a negative value disables the limit.
	MaxFileSize int64
	Logger      logrus.FieldLogger
}

type entry struct {
	size    int64
	modTime time.Time
	outline *model.Outline
}

// Merger scans files and concatenates their outlines. Unchanged files are
// served from an LRU cache keyed by path and validated by size and
// modification time, so repeated merges in one process only rescan edits.
type Merger struct {
	scanner *scan.Scanner
	cache   *lru.Cache[string, entry]
	policy  Policy
	maxSize int64
	log     logrus.FieldLogger
}

// New creates a Merger.
func New(opts Options) (*Merger, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s, err := scan.New(scan.Options{Lenient: opts.Lenient, Logger: log})
	if err != nil {
		return nil, err
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating outline cache: %w", err)
	}
	policy := opts.Duplicates
	if policy == "" {
		policy = Keep
	}
	maxSize := opts.MaxFileSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Merger{scanner: s, cache: cache, policy: policy, maxSize: maxSize, log: log}, nil
}

// Sources lists the files a merge visits: the fixed files in the given
// order, then the Rust files under root sorted by path. A walked file that
// is also a fixed file is visited once, as a fixed file.
func Sources(fixed []string, root string) ([]string, error) {
	seen := make(map[string]struct{}, len(fixed))
	paths := make([]string, 0, len(fixed))
	for _, p := range fixed {
		seen[canonical(p)] = struct{}{}
		paths = append(paths, p)
	}
	if root == "" {
		return paths, nil
	}

	entries, err := discover.Files(root)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		p := filepath.Join(root, e.Path)
		if _, ok := seen[canonical(p)]; ok {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func canonical(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Merge scans every source and concatenates the fragments in visiting
// order, then applies the duplicate policy.
func (m *Merger) Merge(fixed []string, root string) (*model.Outline, error) {
	paths, err := Sources(fixed, root)
	if err != nil {
		return nil, err
	}

	out := &model.Outline{}
	for _, p := range paths {
		frag, err := m.File(p)
		if err != nil {
			return nil, err
		}
		out.Append(frag)
	}

	m.log.WithFields(logrus.Fields{
		"files":     len(paths),
		"functions": len(out.Functions),
		"endpoints": len(out.Endpoints),
		"overlays":  len(out.Overlays),
	}).Debug("merged outline")

	return Dedupe(out, m.policy)
}

// File returns the outline fragment of one file. Files over the size limit
// yield an empty fragment.
func (m *Merger) File(path string) (*model.Outline, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	if m.maxSize > 0 && info.Size() > m.maxSize {
		m.log.WithFields(logrus.Fields{
			"file":  path,
			"size":  info.Size(),
			"limit": m.maxSize,
		}).Warn("skipping oversized source")
		return &model.Outline{}, nil
	}
	if e, ok := m.cache.Get(path); ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.outline, nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	frag, err := m.scanner.File(path, source)
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{
		"file":      path,
		"functions": len(frag.Functions),
	}).Debug("scanned")

	m.cache.Add(path, entry{size: info.Size(), modTime: info.ModTime(), outline: frag})
	return frag, nil
}
