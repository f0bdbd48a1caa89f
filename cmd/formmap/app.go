package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"formmap/internal/catalog"
	"formmap/internal/choice"
	"formmap/internal/config"
	"formmap/internal/diagnostic"
	"formmap/internal/engine"
	"formmap/internal/logging"
)

// app carries the state shared by every command of one invocation.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	envFile   string
	logLevel  string
	logFormat string

	cfg  *config.Config
	log  zerolog.Logger
	code int
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return engine.ExitFatal
	}

	return a.code
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formmap",
		Short:         "Map intake-form answers onto clinical resources",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "config", "", "env file with FORMMAP_* settings (default: ./.env if present)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides FORMMAP_LOG_LEVEL)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides FORMMAP_LOG_FORMAT)")

	root.AddCommand(a.transformCmd())
	root.AddCommand(a.batchCmd())
	root.AddCommand(a.checkCmd())
	root.AddCommand(a.inspectCmd())

	return root
}

// setup loads configuration and builds the logger. Flags win over the
// environment.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, a.stderr)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log

	return nil
}

// engineFlags are the per-command overrides of engine settings.
type engineFlags struct {
	mapPath   string
	strict    bool
	normalize string
	workers   int
}

func (f *engineFlags) register(cmd *cobra.Command, withStrict, withWorkers bool) {
	cmd.Flags().StringVar(&f.mapPath, "map", "", "map document (YAML or JSON)")
	_ = cmd.MarkFlagRequired("map")

	cmd.Flags().StringVar(&f.normalize, "normalize", "",
		"choice normalization after an exact miss: exact, casefold or ident (overrides FORMMAP_NORMALIZE)")

	if withStrict {
		cmd.Flags().BoolVar(&f.strict, "strict", false, "emit no document when any error is reported")
	}

	if withWorkers {
		cmd.Flags().IntVar(&f.workers, "workers", 0, "concurrent documents (default: FORMMAP_WORKERS or GOMAXPROCS)")
	}
}

// loadEngine compiles the map with config settings and flag overrides.
// Compile problems are written to stderr and set exit code 2.
func (a *app) loadEngine(cmd *cobra.Command, f *engineFlags) (*engine.Engine, bool) {
	opts := a.cfg.EngineOptions()

	if cmd.Flags().Changed("strict") {
		opts = append(opts, engine.WithStrict(f.strict))
	}

	if cmd.Flags().Changed("workers") {
		opts = append(opts, engine.WithWorkers(f.workers))
	}

	if cmd.Flags().Changed("normalize") {
		mode, err := choice.ParseMode(f.normalize)
		if err != nil {
			a.fail(err)
			return nil, false
		}

		opts = append(opts, engine.WithNormalization(mode))
	}

	cat, err := catalog.New(a.cfg.CacheSize, a.log, opts...)
	if err != nil {
		a.fail(err)
		return nil, false
	}

	e, err := cat.LoadFile(f.mapPath)
	if err != nil {
		a.fail(err)
		return nil, false
	}

	return e, true
}

// fail reports err on stderr, one diagnostic per line when it carries
// any, and sets exit code 2.
func (a *app) fail(err error) {
	a.setCode(engine.ExitFatal)

	if diags, ok := diagnostic.AsList(err); ok {
		a.printDiagnostics("", diags)
		return
	}

	fmt.Fprintln(a.stderr, err)
}

func (a *app) printDiagnostics(prefix string, diags diagnostic.List) {
	for _, d := range diags {
		line := d.String()
		if d.Severity == diagnostic.SeverityWarning {
			line = "warning: " + line
		}

		fmt.Fprintln(a.stderr, prefix+line)
	}
}

// setCode raises the exit code; it never lowers it.
func (a *app) setCode(code int) {
	a.code = max(a.code, code)
}
