package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"eventgraph/internal/analyzer"
	"eventgraph/internal/config"
	"eventgraph/internal/graph"
	"eventgraph/internal/render"
	"eventgraph/internal/server"
	"eventgraph/internal/store"
	"eventgraph/internal/telemetry"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

type flags struct {
	// Shared
	configPath      string
	extractor       string
	extensions      []string
	dirConcurrency  int
	fileConcurrency int
	noGitignore     bool
	logLevel        string

	// Graph output
	ignoreEvents     []string
	format           string
	output           string
	reportUnresolved bool
}

type cli struct {
	stdout, stderr io.Writer
	flags          flags
	helpShown      bool
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr}
}

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "eventgraph [flags] [dir...]",
		Short: "Graph which files trigger events that other files listen for",
		Long: `Scan directories for event listeners and triggers and print a graph with
one edge per (emitting file, listening file) pair, labelled with the events
they share.

Listeners are calls of the form  .on(document, "name", ...)
Triggers are calls of the form   .trigger("name", ...)

Examples:
  eventgraph src/ | dot -Tsvg > events.svg
  eventgraph --ignore-event ready --ignore-event resize app/ lib/
  eventgraph --format sqlite --output events.db src/`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		c.helpShown = true
		defaultHelp(cmd, args)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "config file (default $EVENTGRAPH_HOME/config.yaml)")
	pf.StringVar(&c.flags.extractor, "extractor", "", "event extractor: regex or treesitter")
	pf.StringSliceVar(&c.flags.extensions, "ext", nil, "file extensions to scan (default .js)")
	pf.IntVar(&c.flags.dirConcurrency, "dir-concurrency", 0, "directories scanned at once")
	pf.IntVar(&c.flags.fileConcurrency, "file-concurrency", 0, "files read at once per directory")
	pf.BoolVar(&c.flags.noGitignore, "no-gitignore", false, "scan files excluded by .gitignore")
	pf.StringVar(&c.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")

	f := root.Flags()
	f.StringArrayVar(&c.flags.ignoreEvents, "ignore-event", nil, "event name to leave out of the graph (repeatable)")
	f.StringVar(&c.flags.format, "format", "", "output format: dot, mermaid, json or sqlite")
	f.StringVarP(&c.flags.output, "output", "o", "", "write the graph to a file instead of stdout")
	f.BoolVar(&c.flags.reportUnresolved, "report-unresolved", false, "list triggered events nobody listens for on stderr")

	root.AddCommand(c.serveCommand())
	return root
}

func (c *cli) serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Serve event graph queries to MCP clients over stdin/stdout.

Tools: scan, list_events, find_listeners, file_events.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd)
		},
	}
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

func (c *cli) runGraph(cmd *cobra.Command, dirs []string) error {
	cfg, logger, shutdown, err := c.setup(cmd)
	if err != nil {
		return err
	}
	defer shutdown()

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if !format.IsText() && c.flags.output == "" {
		return fmt.Errorf("format %s requires --output", format)
	}

	an, err := analyzer.New(cfg, logger)
	if err != nil {
		return err
	}
	defer an.Close()

	ctx := cmd.Context()
	res, err := an.Run(ctx, dirs, c.flags.ignoreEvents)
	if err != nil {
		return err
	}

	if err := c.write(ctx, res, format); err != nil {
		return err
	}
	if c.flags.reportUnresolved {
		reportUnresolved(c.stderr, res.Unresolved)
	}
	return nil
}

func (c *cli) write(ctx context.Context, res *graph.Result, format render.Format) error {
	if !format.IsText() {
		return store.Export(ctx, c.flags.output, res)
	}
	out, err := render.Render(res, format)
	if err != nil {
		return err
	}
	if c.flags.output == "" {
		_, err = io.WriteString(c.stdout, out)
		return err
	}
	if err := os.WriteFile(c.flags.output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func (c *cli) runServe(cmd *cobra.Command) error {
	cfg, logger, shutdown, err := c.setup(cmd)
	if err != nil {
		return err
	}
	defer shutdown()

	an, err := analyzer.New(cfg, logger)
	if err != nil {
		return err
	}
	defer an.Close()

	err = server.New(an, version, logger).Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// setup resolves the configuration and installs logging and tracing.
func (c *cli) setup(cmd *cobra.Command) (config.Config, *slog.Logger, func(), error) {
	noop := func() {}

	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, nil, noop, err
	}
	cfg, err := config.Load(c.flags.configPath)
	if err != nil {
		return cfg, nil, noop, err
	}
	c.applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, nil, noop, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	flush, err := telemetry.Setup(os.Getenv("EVENTGRAPH_TRACE"), c.stderr)
	if err != nil {
		return cfg, nil, noop, err
	}
	shutdown := func() {
		if err := flush(context.Background()); err != nil {
			logger.Warn("flush traces", slog.String("error", err.Error()))
		}
	}
	return cfg, logger, shutdown, nil
}

// applyFlags overrides cfg with every flag set on the command line.
func (c *cli) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("extractor") {
		cfg.Extractor = c.flags.extractor
	}
	if changed("ext") {
		cfg.Extensions = c.flags.extensions
	}
	if changed("dir-concurrency") {
		cfg.DirConcurrency = c.flags.dirConcurrency
	}
	if changed("file-concurrency") {
		cfg.FileConcurrency = c.flags.fileConcurrency
	}
	if changed("no-gitignore") {
		cfg.RespectGitignore = !c.flags.noGitignore
	}
	if changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	if changed("format") {
		cfg.Format = c.flags.format
	}
}

func reportUnresolved(w io.Writer, unresolved []graph.Occurrence) {
	for _, o := range unresolved {
		fmt.Fprintf(w, "unresolved: %s: %s\n", o.File, o.Event)
	}
}
