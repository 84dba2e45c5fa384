// Package cli implements the formfill command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Bahjat/formfill/internal/capture"
	"github.com/Bahjat/formfill/internal/platform/config"
	"github.com/Bahjat/formfill/internal/platform/errs"
	"github.com/Bahjat/formfill/internal/platform/logger"
	"github.com/Bahjat/formfill/internal/randval"
	"github.com/Bahjat/formfill/internal/rowgen"
	"github.com/Bahjat/formfill/internal/workbench"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	gen    *rowgen.Generator

	// Injected by options; nil means the real implementation.
	prompter  Prompter
	capturer  capture.Capturer
	clipboard workbench.Exporter

	logLevel string
	logFile  string
	pools    string
	seed     uint64
	sanitize bool
}

// Option customizes the command tree.
type Option func(*app)

// WithPrompter replaces the terminal prompter used by --interactive.
func WithPrompter(p Prompter) Option {
	return func(a *app) { a.prompter = p }
}

// WithCapturer replaces the page capturer used by --url.
func WithCapturer(c capture.Capturer) Option {
	return func(a *app) { a.capturer = c }
}

// WithClipboard replaces the clipboard used by --copy.
func WithClipboard(e workbench.Exporter) Option {
	return func(a *app) { a.clipboard = e }
}

// NewRootCommand builds the formfill command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "formfill",
		Short: "Infer form fields from HTML and generate synthetic test data",
		Long: `formfill inspects the form controls in an HTML fragment, infers a field
spec for each control and generates random rows for them as CSV.

Fragments are read from a file, from stdin, or captured from a live page
with --url. "formfill serve" exposes the same actions over HTTP for a
browser extension panel.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "", "log level: DEBUG, INFO, WARN or ERROR (env LOG_LEVEL)")
	flags.StringVar(&a.logFile, "log-file", "", "write logs to a rotated file instead of stderr (env LOG_FILE)")
	flags.StringVar(&a.pools, "pools", "", "YAML file with name, domain and street pools (env POOLS_FILE)")
	flags.Uint64Var(&a.seed, "seed", 0, "seed for reproducible output; 0 picks a random seed")
	flags.BoolVar(&a.sanitize, "sanitize", true, "strip scripts and unknown markup before inspection (env SANITIZE)")

	root.AddCommand(
		newInspectCmd(a),
		newGenerateCmd(a),
		newCheckboxCmd(a),
		newApplyCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.logFile
	}
	if flags.Changed("pools") {
		cfg.PoolsFile = a.pools
	}
	if flags.Changed("sanitize") {
		cfg.Sanitize = a.sanitize
	}
	a.cfg = cfg

	a.logger = logger.New(logger.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})

	pools := randval.DefaultPools()
	if cfg.PoolsFile != "" {
		if pools, err = randval.LoadPools(cfg.PoolsFile); err != nil {
			return err
		}
	}

	src := randval.NewSource()
	if a.seed != 0 {
		src = randval.NewSeeded(a.seed)
	}
	a.gen = rowgen.New(src, pools)
	return nil
}

// service returns a single-session workbench for one CLI action. Files are
// exported into outputDir.
func (a *app) service(outputDir string) *workbench.Service {
	return workbench.NewService(workbench.NewStore(1), a.gen, a.logger, workbench.Settings{
		MaxRecords: a.cfg.MaxRecords,
		Sanitize:   a.cfg.Sanitize,
		Exporters: map[workbench.Destination]workbench.Exporter{
			workbench.DestinationClipboard: a.clipboardExporter(),
			workbench.DestinationFile:      workbench.FileExporter{Dir: outputDir},
		},
	})
}

func (a *app) clipboardExporter() workbench.Exporter {
	if a.clipboard != nil {
		return a.clipboard
	}
	return workbench.ClipboardExporter{}
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) int {
	root := NewRootCommand(opts...)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", errs.MessageOf(err))
		return 1
	}
	return 0
}
