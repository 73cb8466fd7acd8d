// outline extracts the scenario-function and specifier reference of an
// annotated Rust code base and renders it as Markdown.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phobologic/outline/internal/config"
	"github.com/phobologic/outline/internal/interchange"
	"github.com/phobologic/outline/internal/merge"
	"github.com/phobologic/outline/internal/model"
	"github.com/phobologic/outline/internal/process"
	"github.com/phobologic/outline/internal/render"
	"github.com/phobologic/outline/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, log: logrus.New()}
	a.log.SetOutput(stderr)
	a.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(context.Background())
}

type app struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	log     *logrus.Logger
	cfgPath string
	verbose bool
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "outline",
		Short:         "Generate reference docs from annotated Rust sources",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				a.log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.SetVersionTemplate("outline {{.Version}}\n")
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default <root>/"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug diagnostics")

	root.AddCommand(
		a.scanCmd(),
		a.processCmd(),
		a.functionsCmd(),
		a.specifiersCmd(),
		a.prefixesCmd(),
		a.docCmd(),
		a.summaryCmd(),
		a.watchCmd(),
	)
	return root
}

// config loads the settings of the project at the optional root argument.
func (a *app) config(args []string) (*config.Config, string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%s: not a directory", root)
	}
	cfg, err := config.Load(root, a.cfgPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}

func (a *app) merger(cfg *config.Config) (*merge.Merger, error) {
	policy, err := merge.ParsePolicy(cfg.Duplicates)
	if err != nil {
		return nil, err
	}
	return merge.New(merge.Options{
		Lenient:     cfg.Lenient(),
		Duplicates:  policy,
		CacheSize:   cfg.CacheSize,
		MaxFileSize: cfg.MaxFileSize,
		Logger:      a.log,
	})
}

// outline merges the configured sources with m.
func (a *app) outline(m *merge.Merger, cfg *config.Config) (*model.Outline, error) {
	o, err := m.Merge(cfg.FixedFiles, cfg.WalkRoot)
	if err != nil {
		return nil, err
	}
	for _, r := range process.Unmatched(o) {
		a.log.WithFields(logrus.Fields{
			"public":   r.Public,
			"internal": r.Internal,
		}).Debug("registration names no scanned function")
	}
	return o, nil
}

func (a *app) scanCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan sources and print the merged outline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := a.config(args)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Format
			}
			f, err := interchange.ParseFormat(format)
			if err != nil {
				return err
			}
			m, err := a.merger(cfg)
			if err != nil {
				return err
			}
			o, err := a.outline(m, cfg)
			if err != nil {
				return err
			}
			return interchange.Encode(a.stdout, f, o)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json or yaml")
	return cmd
}

func (a *app) processCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Turn an outline on stdin into the render-ready document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := interchange.ParseFormat(format)
			if err != nil {
				return err
			}
			o, err := interchange.Decode[model.Outline](a.stdin)
			if err != nil {
				return err
			}
			return interchange.Encode(a.stdout, f, process.Build(o))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json or yaml")
	return cmd
}

func (a *app) functionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "Render the scenario function reference from a document on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := interchange.Decode[model.Document](a.stdin)
			if err != nil {
				return err
			}
			return render.Functions(a.stdout, doc.ExecutorFunctions)
		},
	}
}

func (a *app) specifiersCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "specifiers",
		Short: "Render the endpoint or overlay reference from a document on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" {
				cfg, _, err := a.config(nil)
				if err != nil {
					return err
				}
				kind = cfg.Todoc
			}
			k, err := render.ParseKind(kind)
			if err != nil {
				return err
			}
			doc, err := interchange.Decode[model.Document](a.stdin)
			if err != nil {
				return err
			}
			return render.Specifiers(a.stdout, doc.PlannerContent, k)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "endpoints or overlays (default $"+config.EnvTodoc+")")
	return cmd
}

func (a *app) prefixesCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "prefixes",
		Short: "Render the short prefix list from a document on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := interchange.Decode[model.Document](a.stdin)
			if err != nil {
				return err
			}
			if out == "" {
				return render.CheatSheet(a.stdout, doc.PlannerContent)
			}
			return writePrefixList(out, doc)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func (a *app) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [root]",
		Short: "Print a compact TOON summary of the documented API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := a.config(args)
			if err != nil {
				return err
			}
			m, err := a.merger(cfg)
			if err != nil {
				return err
			}
			o, err := a.outline(m, cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, toon.Encode(process.Build(o), filepath.Base(root)))
			return err
		},
	}
}
