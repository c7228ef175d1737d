package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/bundlesched/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flags collects the raw flag values before they are validated.
type flags struct {
	logFormat      string
	logLevel       string
	output         string
	metricsFile    string
	vars           []string
	dryRun         bool
	routeAlgorithm string
	memsetCheck    bool
	prefetch       bool
	preferSame     bool
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	var (
		f      flags
		config *app.Config
	)

	cmd := &cobra.Command{
		Use:   "bundlesched [flags] PATH...",
		Short: "Assign operation indices to the nodes of sliced bundles",
		Long: `bundlesched reads bundle descriptions from .hcl files and orders
every bundle node into a schedule of interleaved slice threads.

Each PATH is a single .hcl file or a directory containing .hcl files.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, paths []string) error {
			if len(paths) == 0 {
				slog.Debug("No paths provided, printing usage and exiting.")
				return cmd.Usage()
			}
			cfg, err := f.config(cmd, paths)
			if err != nil {
				return err
			}
			config = cfg
			return nil
		},
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	fs := cmd.Flags()
	fs.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVarP(&f.output, "output", "o", "text", "Report format. Options: 'text', 'json', 'yaml', 'hcl'.")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "Write run metrics in the Prometheus text format to this file.")
	fs.StringArrayVar(&f.vars, "var", nil, "Set a description variable as NAME=VALUE. Repeatable.")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Compute the schedule without writing operation indices.")
	fs.StringVar(&f.routeAlgorithm, "route-algorithm", "", "Route traversal. Options: 'dfs', 'bfs'. Overrides the description.")
	fs.BoolVar(&f.memsetCheck, "memset-ctrl-dep-optimization", true, "Require control edges from memsets to reduction producers.")
	fs.BoolVar(&f.prefetch, "prefetch", true, "Start the next thread as soon as a slot retires.")
	fs.BoolVar(&f.preferSame, "prefer-same-thread", true, "Keep serving a thread while the other threads wait on it.")

	if err := cmd.Execute(); err != nil {
		if exitErr, ok := err.(*ExitError); ok {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if config == nil {
		// Help was requested or no paths were given.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// config validates the flags and builds the application config. Scheduler
// switches are forwarded only when set on the command line so that the
// description's scheduler block keeps precedence over the defaults.
func (f *flags) config(cmd *cobra.Command, paths []string) (*app.Config, error) {
	vars := make(map[string]string, len(f.vars))
	for _, v := range f.vars {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("invalid --var %q: must be NAME=VALUE", v)}
		}
		vars[name] = value
	}

	cfg := app.Config{
		Paths:          paths,
		Vars:           vars,
		LogFormat:      strings.ToLower(f.logFormat),
		LogLevel:       strings.ToLower(f.logLevel),
		Output:         f.output,
		MetricsFile:    f.metricsFile,
		DryRun:         f.dryRun,
		RouteAlgorithm: f.routeAlgorithm,
	}
	if cmd.Flags().Changed("memset-ctrl-dep-optimization") {
		cfg.MemsetCtrlDepOptimization = &f.memsetCheck
	}
	if cmd.Flags().Changed("prefetch") {
		cfg.PrefetchNextThread = &f.prefetch
	}
	if cmd.Flags().Changed("prefer-same-thread") {
		cfg.PreferSameThread = &f.preferSame
	}

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, nil
}
