package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/violenttestpen/mesa/internal/bench"
	"github.com/violenttestpen/mesa/internal/config"
	"github.com/violenttestpen/mesa/internal/report"
)

// flagValues holds what was given on the command line. Only flags the user
// actually set override the config file.
type flagValues struct {
	configPath    string
	database      string
	output        string
	note          string
	runs          int
	warmup        int
	filter        config.Filter
	show          int
	setup         string
	ignoreFailure bool
	dryRun        bool
	verbose       bool
	noColor       bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		red := color.New(color.FgRed)
		if !isTerminal(os.Stderr) {
			red.DisableColor()
		}
		red.Fprintf(os.Stderr, "mesa: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	defaults := config.Default()
	fv := flagValues{filter: defaults.Filter}

	cmd := &cobra.Command{
		Use:   "mesa [flags] [--] <program> [program arguments]",
		Short: "Benchmark a program and compare it with previous runs",
		Long: `mesa runs a program repeatedly, records the mean and standard deviation of
its wall-clock time in a history file, and reports the result next to
earlier runs of the same program.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, fv, args)
			if err != nil {
				return err
			}
			target, err := report.ParseTarget(cfg.Output)
			if err != nil {
				return &config.Error{Param: "output", Err: err}
			}

			session := &bench.Session{
				Config:      cfg,
				Target:      target,
				Stdout:      stdout,
				Stderr:      stderr,
				ReportColor: colorEnabled(cfg, stdout),
				DiagColor:   colorEnabled(cfg, stderr),
				Logger:      newLogger(stderr, cfg.Verbose),
			}
			if isTerminal(stderr) {
				session.TermWidth = terminalWidth(stderr)
			}
			return session.Run(context.Background())
		},
	}

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVar(&fv.configPath, "config", "", "defaults file (default "+config.DefaultPath()+")")
	flags.StringVarP(&fv.database, "database", "d", defaults.Database, "name of the time database")
	flags.StringVarP(&fv.output, "output", "o", defaults.Output, "output target; extension selects txt, csv, json or xml, '-' is stdout")
	flags.StringVarP(&fv.note, "note", "n", "", "note stored with this run")
	flags.IntVarP(&fv.runs, "runs", "r", defaults.Runs, "number of measured runs")
	flags.IntVarP(&fv.warmup, "warmup", "w", defaults.Warmup, "number of warmup runs, not recorded")
	flags.VarP(&fv.filter, "filter", "f", "which history to show: all, exe or exact")
	flags.IntVarP(&fv.show, "show", "s", defaults.Show, "maximum number of history entries to show")
	flags.StringVar(&fv.setup, "setup", "", "command to run once before the benchmark")
	flags.BoolVarP(&fv.ignoreFailure, "ignore-failure", "i", false, "keep timing runs that exit non-zero")
	flags.BoolVar(&fv.dryRun, "dry-run", false, "benchmark and report without saving to the database")
	flags.BoolVarP(&fv.verbose, "verbose", "v", false, "show program output and debug logs")
	flags.BoolVar(&fv.noColor, "no-color", false, "disable coloured output")

	return cmd
}

// resolveConfig layers the config file under the flags that were set and
// attaches the target program.
func resolveConfig(cmd *cobra.Command, fv flagValues, args []string) (config.Run, error) {
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("database", func() { cfg.Database = fv.database })
	set("output", func() { cfg.Output = fv.output })
	set("note", func() { cfg.Note = fv.note })
	set("runs", func() { cfg.Runs = fv.runs })
	set("warmup", func() { cfg.Warmup = fv.warmup })
	set("filter", func() { cfg.Filter = fv.filter })
	set("show", func() { cfg.Show = fv.show })
	set("setup", func() { cfg.Setup = fv.setup })
	set("ignore-failure", func() { cfg.IgnoreFailure = fv.ignoreFailure })
	set("no-color", func() { cfg.NoColor = fv.noColor })
	cfg.DryRun = fv.dryRun
	cfg.Verbose = fv.verbose

	if len(args) > 0 {
		cfg.Executable = args[0]
		cfg.Arguments = args[1:]
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func colorEnabled(cfg config.Run, w io.Writer) bool {
	if cfg.NoColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isTerminal(w)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func terminalWidth(w io.Writer) func() int {
	fd := int(w.(*os.File).Fd())
	return func() int {
		width, _, err := term.GetSize(fd)
		if err != nil || width <= 0 {
			return 80
		}
		return width
	}
}
