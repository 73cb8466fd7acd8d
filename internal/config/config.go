// Package config loads outline settings from defaults, an optional YAML
// file, a .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the project root.
const FileName = ".outline.yaml"

// Environment variables that override the file.
const (
	EnvAmbiguity  = "OUTLINE_AMBIGUITY"
	EnvDuplicates = "OUTLINE_DUPLICATES"
	EnvTodoc      = "TODOC"
)

// Ambiguity policies.
const (
	Strict = "strict"
	First  = "first"
)

// Config holds every setting of a run.
type Config struct {
	// FixedFiles are always scanned first, in order.
	FixedFiles []string `yaml:"fixed_files"`
	// WalkRoot is scanned recursively after the fixed files.
	WalkRoot    string `yaml:"walk_root"`
	Ambiguity   string `yaml:"ambiguity"`
	Duplicates  string `yaml:"duplicates"`
	Format      string `yaml:"format"`
	Todoc       string `yaml:"todoc"`
	HelpCommand string `yaml:"help_command"`
	PrefixList  string `yaml:"prefix_list"`
	CacheSize   int    `yaml:"cache_size"`
	MaxFileSize int64  `yaml:"max_file_size"`
}

// Default returns the settings for the usual project layout.
func Default() *Config {
	return &Config{
		FixedFiles: []string{
			"src/scenario_planner/types.rs",
			"src/scenario_planner/fromstr.rs",
		},
		WalkRoot:   "src/scenario_executor",
		Ambiguity:  Strict,
		Duplicates: "keep",
		Format:     "json",
	}
}

// Load reads the configuration for the project at root. path names an
// explicit config file; when empty, root/.outline.yaml is used if present.
// Relative paths in the result are resolved against root.
func Load(root, path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(root, FileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := LoadEnv(root); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.resolve(root)
	return cfg, nil
}

// LoadEnv loads root/.env into the process environment. Variables that are
// already set win. A missing file is not an error.
func LoadEnv(root string) error {
	path := filepath.Join(root, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAmbiguity)); v != "" {
		c.Ambiguity = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDuplicates)); v != "" {
		c.Duplicates = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTodoc)); v != "" {
		c.Todoc = v
	}
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Ambiguity) {
	case "", Strict, First:
	default:
		return fmt.Errorf("ambiguity policy %q: want %s or %s", c.Ambiguity, Strict, First)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must not be negative, got %d", c.CacheSize)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "yaml", "yml":
	default:
		return fmt.Errorf("format %q: want json or yaml", c.Format)
	}
	return nil
}

// Lenient reports whether ambiguous matches resolve to the first one.
func (c *Config) Lenient() bool {
	return strings.EqualFold(c.Ambiguity, First)
}

func (c *Config) resolve(root string) {
	for i, f := range c.FixedFiles {
		c.FixedFiles[i] = join(root, f)
	}
	if c.WalkRoot != "" {
		c.WalkRoot = join(root, c.WalkRoot)
	}
	if c.PrefixList != "" {
		c.PrefixList = join(root, c.PrefixList)
	}
}

func join(root, p string) string {
	if filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}
